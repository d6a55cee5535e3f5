package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/restaurant_orders/pkg/logging"
	"github.com/Skotchmaster/restaurant_orders/pkg/pagination"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/models"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/service"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/transport"
)

type OrderHTTP struct {
	Svc   *service.OrderService
	Pages pagination.Params
}

func toLines(items []transport.OrderItemRequest) []service.LineInput {
	out := make([]service.LineInput, 0, len(items))
	for _, it := range items {
		out = append(out, service.LineInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

func (h *OrderHTTP) respond(c echo.Context, code int, o *models.Order) error {
	return c.JSON(code, transport.NewOrderResponse(o, h.Svc.Pricing))
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order", "", "invalid body", err)
	}

	order, err := h.Svc.Create(ctx, callerFrom(c), toLines(req.Items))
	if err != nil {
		return fail(l, "create_order", err)
	}

	l.Info("create_order_success", "order_id", order.ID, "lines", len(order.Lines))
	return h.respond(c, http.StatusCreated, order)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "get_order", "id", "id is not a uuid", err)
	}

	order, err := h.Svc.Get(ctx, callerFrom(c), id)
	if err != nil {
		return fail(l, "get_order", err)
	}
	return h.respond(c, http.StatusOK, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	f, err := service.OrderFilterFromQuery(c.QueryParams())
	if err != nil {
		return fail(l, "list_orders", err)
	}
	page := h.Pages.Parse(c.QueryParam("page"), c.QueryParam("page_size"))

	total, orders, err := h.Svc.List(ctx, callerFrom(c), f, page)
	if err != nil {
		return fail(l, "list_orders", err)
	}

	data := make([]transport.OrderResponse, 0, len(orders))
	for i := range orders {
		data = append(data, transport.NewOrderResponse(&orders[i], h.Svc.Pricing))
	}
	return c.JSON(http.StatusOK, pagination.Result[transport.OrderResponse]{Data: data, Meta: pagination.NewMeta(page, total)})
}

// UpdateOrder serves PUT and PATCH. PUT always replaces the lines, a missing
// items key meaning an empty order; PATCH keeps them unless items is sent.
func (h *OrderHTTP) UpdateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "update_order", "id", "id is not a uuid", err)
	}

	var req transport.UpdateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_order", "", "invalid body", err)
	}

	var upd service.OrderUpdate
	if req.Status != nil {
		s := models.OrderStatus(*req.Status)
		upd.Status = &s
	}
	if req.Items != nil {
		lines := toLines(*req.Items)
		upd.Items = &lines
	} else if c.Request().Method == http.MethodPut {
		lines := []service.LineInput{}
		upd.Items = &lines
	}

	order, err := h.Svc.Update(ctx, callerFrom(c), id, upd)
	if err != nil {
		return fail(l, "update_order", err)
	}

	l.Info("update_order_success", "order_id", order.ID)
	return h.respond(c, http.StatusOK, order)
}

func (h *OrderHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "delete_order", "id", "id is not a uuid", err)
	}
	if err := h.Svc.Delete(ctx, callerFrom(c), id); err != nil {
		return fail(l, "delete_order", err)
	}

	l.Info("delete_order_success", "order_id", id)
	return c.NoContent(http.StatusNoContent)
}
