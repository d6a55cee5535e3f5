package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/restaurant_orders/pkg/pagination"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/models"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/query"
)

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("order_lines.id ASC") }).
		Preload("Lines.Product")
}

// GetOrder loads the order with its lines in creation order and the product
// behind every line.
func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := preloadLines(r.DB.WithContext(ctx)).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// LockOrder loads the order row and holds a row lock on it until the
// surrounding transaction ends, so concurrent writers to one order queue up.
func (r *GormRepo) LockOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uuid.UUID, f query.OrderFilter, page pagination.Page) (int64, []models.Order, error) {
	base := func() *gorm.DB {
		return f.Scope(r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID))
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return 0, nil, err
	}

	orders := make([]models.Order, 0, page.Size)
	if err := preloadLines(base()).
		Order("created_at DESC").Order("id ASC").
		Offset(page.Offset()).Limit(page.Size).
		Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// FindProducts returns the subset of ids that exist, keyed by id.
func (r *GormRepo) FindProducts(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var found []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	for _, p := range found {
		out[p.ID] = p
	}
	return out, nil
}

// CreateOrderHeader inserts the order row without touching its lines.
func (r *GormRepo) CreateOrderHeader(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

// InsertLine writes a single line. Lines are inserted one statement at a
// time so a failure part way leaves the transaction to roll back the rest.
func (r *GormRepo) InsertLine(ctx context.Context, line *models.OrderLine) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(line).Error
}

func (r *GormRepo) DeleteLines(ctx context.Context, orderID uuid.UUID) error {
	return r.DB.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.OrderLine{}).Error
}

func (r *GormRepo) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	if err := r.DeleteLines(ctx, orderID); err != nil {
		return err
	}
	res := r.DB.WithContext(ctx).Delete(&models.Order{}, "id = ?", orderID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
