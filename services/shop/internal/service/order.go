package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/restaurant_orders/pkg/events"
	"github.com/Skotchmaster/restaurant_orders/pkg/pagination"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/access"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/models"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/query"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/repo"
)

type LineInput struct {
	ProductID uint
	Quantity  int
}

// OrderUpdate is a partial update. A nil Items keeps the current lines, a
// non-nil (possibly empty) slice replaces them.
type OrderUpdate struct {
	Status *models.OrderStatus
	Items  *[]LineInput
}

type OrderService struct {
	Repo    *repo.GormRepo
	Pricing models.PriceSource
	Events  events.Publisher
}

func (s *OrderService) Total(o *models.Order) decimal.Decimal {
	return o.TotalPrice(s.Pricing)
}

// Create validates every line, then writes the order and its lines in one
// transaction. Nothing is written when any line is invalid.
func (s *OrderService) Create(ctx context.Context, caller *access.Caller, lines []LineInput) (*models.Order, error) {
	if err := authorize(caller, access.Orders, access.Create, uuid.Nil); err != nil {
		return nil, err
	}

	var orderID uuid.UUID
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		prepared, err := prepareLines(ctx, tx, lines)
		if err != nil {
			return err
		}

		order := &models.Order{UserID: caller.UserID, Status: models.StatusPending}
		if err := tx.CreateOrderHeader(ctx, order); err != nil {
			return err
		}
		orderID = order.ID

		return insertLines(ctx, tx, order.ID, prepared)
	})
	if err != nil {
		return nil, mapRepoError(err, ErrProductNotFound)
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, mapRepoError(err, ErrOrderNotFound)
	}

	s.publish(ctx, "order_created", order)
	return order, nil
}

// Replace discards every existing line of the order and writes lines in
// their place. It never merges.
func (s *OrderService) Replace(ctx context.Context, caller *access.Caller, orderID uuid.UUID, lines []LineInput) (*models.Order, error) {
	return s.Update(ctx, caller, orderID, OrderUpdate{Items: &lines})
}

func (s *OrderService) Update(ctx context.Context, caller *access.Caller, orderID uuid.UUID, upd OrderUpdate) (*models.Order, error) {
	if caller == nil {
		return nil, authorize(nil, access.Orders, access.Update, uuid.Nil)
	}

	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		current, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return mapRepoError(err, ErrOrderNotFound)
		}
		if err := authorize(caller, access.Orders, access.Update, current.UserID); err != nil {
			return err
		}

		if upd.Status != nil {
			next := *upd.Status
			if !next.Valid() {
				return fieldErr("status", fmt.Sprintf("unknown status %q", next))
			}
			if !current.Status.CanTransition(next) {
				return fieldErr("status", fmt.Sprintf("order is %s and cannot become %s", current.Status, next))
			}
			if next != current.Status {
				if err := tx.UpdateOrderStatus(ctx, orderID, next); err != nil {
					return err
				}
			}
		}

		if upd.Items != nil {
			prepared, err := prepareLines(ctx, tx, *upd.Items)
			if err != nil {
				return err
			}
			if err := tx.DeleteLines(ctx, orderID); err != nil {
				return err
			}
			if err := insertLines(ctx, tx, orderID, prepared); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err, ErrOrderNotFound)
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, mapRepoError(err, ErrOrderNotFound)
	}

	s.publish(ctx, "order_updated", order)
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, caller *access.Caller, orderID uuid.UUID) error {
	if caller == nil {
		return authorize(nil, access.Orders, access.Delete, uuid.Nil)
	}

	var deleted *models.Order
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		current, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return mapRepoError(err, ErrOrderNotFound)
		}
		if err := authorize(caller, access.Orders, access.Delete, current.UserID); err != nil {
			return err
		}
		deleted = current
		return tx.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return mapRepoError(err, ErrOrderNotFound)
	}

	s.publish(ctx, "order_deleted", deleted)
	return nil
}

func (s *OrderService) Get(ctx context.Context, caller *access.Caller, orderID uuid.UUID) (*models.Order, error) {
	if caller == nil {
		return nil, authorize(nil, access.Orders, access.Read, uuid.Nil)
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, mapRepoError(err, ErrOrderNotFound)
	}
	if err := authorize(caller, access.Orders, access.Read, order.UserID); err != nil {
		return nil, err
	}
	return order, nil
}

// List only ever returns the caller's own orders.
func (s *OrderService) List(ctx context.Context, caller *access.Caller, f query.OrderFilter, page pagination.Page) (int64, []models.Order, error) {
	if err := authorize(caller, access.Orders, access.List, uuid.Nil); err != nil {
		return 0, nil, err
	}
	return s.Repo.ListOrders(ctx, caller.UserID, f, page)
}

// prepareLines checks every input line and captures the current unit price.
// It runs before any write so an invalid line leaves the store untouched.
func prepareLines(ctx context.Context, tx *repo.GormRepo, lines []LineInput) ([]models.OrderLine, error) {
	for i, l := range lines {
		if l.Quantity < 1 {
			return nil, &LineItemError{Index: i, ProductID: l.ProductID, Reason: "quantity must be at least 1"}
		}
	}

	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := tx.FindProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.OrderLine, 0, len(lines))
	for i, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, &LineItemError{Index: i, ProductID: l.ProductID, Reason: "product does not exist"}
		}
		out = append(out, models.OrderLine{
			ProductID: p.ID,
			Quantity:  uint(l.Quantity),
			UnitPrice: p.Price,
		})
	}
	return out, nil
}

func insertLines(ctx context.Context, tx *repo.GormRepo, orderID uuid.UUID, lines []models.OrderLine) error {
	for i := range lines {
		lines[i].OrderID = orderID
		if err := tx.InsertLine(ctx, &lines[i]); err != nil {
			return err
		}
	}
	return nil
}

type orderEvent struct {
	OrderID uuid.UUID          `json:"order_id"`
	UserID  uuid.UUID          `json:"user_id"`
	Status  models.OrderStatus `json:"status"`
	Lines   int                `json:"lines"`
	Total   decimal.Decimal    `json:"total"`
}

func (s *OrderService) publish(ctx context.Context, eventType string, o *models.Order) {
	publish(ctx, s.Events, events.TopicOrderEvents, o.ID.String(), eventType, orderEvent{
		OrderID: o.ID,
		UserID:  o.UserID,
		Status:  o.Status,
		Lines:   len(o.Lines),
		Total:   s.Total(o),
	})
}
