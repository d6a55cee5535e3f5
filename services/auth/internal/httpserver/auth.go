package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	jwthelp "github.com/Skotchmaster/restaurant_orders/pkg/jwt"
	"github.com/Skotchmaster/restaurant_orders/pkg/logging"
	middleware "github.com/Skotchmaster/restaurant_orders/pkg/middleware/auth"
	"github.com/Skotchmaster/restaurant_orders/pkg/pagination"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/service"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/transport"
)

type AuthHTTP struct {
	Svc   *service.AuthService
	Pages pagination.Params
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.CredentialsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, transport.ErrorResponse{Error: "validation", Message: "invalid body"})
	}

	user, err := h.Svc.Register(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "register", err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.CredentialsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, transport.ErrorResponse{Error: "validation", Message: "invalid body"})
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "login", err)
	}

	setAuthCookies(c, res)
	l.Info("login_successful")
	return c.JSON(http.StatusOK, transport.NewTokenResponse(res))
}

// Refresh reads the refresh token from its cookie, falling back to a JSON
// body for clients that do not keep cookies.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	raw := ""
	if ck, err := c.Cookie(jwthelp.RefreshCookie); err == nil {
		raw = ck.Value
	}
	if raw == "" {
		var req transport.RefreshRequest
		if err := c.Bind(&req); err == nil {
			raw = req.RefreshToken
		}
	}
	if raw == "" {
		return fail(l, "refresh", service.ErrInvalidRefresh)
	}

	res, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		clearAuthCookies(c)
		return fail(l, "refresh", err)
	}

	setAuthCookies(c, res)
	return c.JSON(http.StatusOK, transport.NewTokenResponse(res))
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	if ck, err := c.Cookie(jwthelp.RefreshCookie); err == nil {
		if err := h.Svc.Logout(ctx, ck.Value); err != nil {
			clearAuthCookies(c)
			l.Error("logout_failed", "status", 500, "reason", "cannot revoke refreshToken", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, transport.ErrorResponse{Error: "internal", Message: "internal error"})
		}
	}

	clearAuthCookies(c)
	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_me")

	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, transport.ErrorResponse{Error: "unauthenticated", Message: "authentication required"})
	}
	user, err := h.Svc.Me(ctx, id.UserID)
	if err != nil {
		return fail(l, "me", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_list_users")

	id, _ := middleware.IdentityFrom(c)
	page := h.Pages.Parse(c.QueryParam("page"), c.QueryParam("page_size"))
	res, err := h.Svc.ListUsers(ctx, id.IsAdmin(), page)
	if err != nil {
		return fail(l, "list_users", err)
	}
	return c.JSON(http.StatusOK, res)
}

func setAuthCookies(c echo.Context, res *service.LoginResult) {
	c.SetCookie(jwthelp.CreateCookie(jwthelp.AccessCookie, res.AccessToken, "/", res.AccessExp))
	c.SetCookie(jwthelp.CreateCookie(jwthelp.RefreshCookie, res.RefreshToken, "/", res.RefreshExp))
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.RefreshCookie, "/"))
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.AccessCookie, "/"))
}
