package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/restaurant_orders/pkg/middleware/auth"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/access"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/service"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/transport"
)

// classify maps a service error to its HTTP status and response body.
func classify(err error) (int, transport.ErrorResponse) {
	var lineErr *service.LineItemError
	var fieldErr *service.FieldError

	switch {
	case errors.As(err, &lineErr):
		idx := lineErr.Index
		return http.StatusBadRequest, transport.ErrorResponse{
			Error:   "invalid_line_item",
			Message: lineErr.Error(),
			Field:   "items",
			Line:    &idx,
		}
	case errors.As(err, &fieldErr):
		return http.StatusBadRequest, transport.ErrorResponse{Error: "validation", Message: fieldErr.Error(), Field: fieldErr.Field}
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, transport.ErrorResponse{Error: "validation", Message: err.Error()}
	case errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound, transport.ErrorResponse{Error: "order_not_found", Message: "order not found"}
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, transport.ErrorResponse{Error: "not_found", Message: err.Error()}
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, transport.ErrorResponse{Error: "unauthenticated", Message: err.Error()}
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, transport.ErrorResponse{Error: "forbidden", Message: err.Error()}
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, transport.ErrorResponse{Error: "conflict", Message: "request conflicts with existing data"}
	}
	return http.StatusInternalServerError, transport.ErrorResponse{Error: "internal", Message: "internal error"}
}

func fail(l *slog.Logger, op string, err error) error {
	code, body := classify(err)
	if code >= http.StatusInternalServerError {
		l.Error(op+"_error", "status", code, "reason", body.Message, "error", err)
	} else {
		l.Warn(op+"_error", "status", code, "reason", body.Message, "error", err)
	}
	return echo.NewHTTPError(code, body)
}

func badRequest(l *slog.Logger, op, field, reason string, err error) error {
	l.Warn(op+"_error", "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, transport.ErrorResponse{Error: "validation", Message: reason, Field: field})
}

func callerFrom(c echo.Context) *access.Caller {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return nil
	}
	return &access.Caller{UserID: id.UserID, Admin: id.IsAdmin()}
}

func uintParam(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return uint(v), nil
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}
