package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/service"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/transport"
)

func classify(err error) (int, transport.ErrorResponse) {
	var fieldErr *service.FieldError
	switch {
	case errors.As(err, &fieldErr):
		return http.StatusBadRequest, transport.ErrorResponse{Error: "validation", Message: fieldErr.Error(), Field: fieldErr.Field}
	case errors.Is(err, service.ErrUserAlreadyExist):
		return http.StatusConflict, transport.ErrorResponse{Error: "conflict", Message: err.Error(), Field: "username"}
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidRefresh):
		return http.StatusUnauthorized, transport.ErrorResponse{Error: "unauthenticated", Message: err.Error()}
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, transport.ErrorResponse{Error: "forbidden", Message: "admin access required"}
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, transport.ErrorResponse{Error: "not_found", Message: err.Error()}
	}
	return http.StatusInternalServerError, transport.ErrorResponse{Error: "internal", Message: "internal error"}
}

func fail(l *slog.Logger, op string, err error) error {
	code, body := classify(err)
	if code >= http.StatusInternalServerError {
		l.Error(op+"_error", "status", code, "error", err)
	} else {
		l.Warn(op+"_error", "status", code, "reason", body.Message)
	}
	return echo.NewHTTPError(code, body)
}
