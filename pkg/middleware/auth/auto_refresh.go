package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/restaurant_orders/pkg/authclient"
	jwthelp "github.com/Skotchmaster/restaurant_orders/pkg/jwt"
	"github.com/Skotchmaster/restaurant_orders/pkg/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

var errInvalidToken = errors.New("invalid access token")

type Refresher interface {
	RefreshTokens(ctx context.Context, refreshToken string) (*authclient.RefreshResponse, error)
}

// AutoRefreshMiddleware resolves the caller from the access token cookie
// (or a bearer header) and transparently rotates expired access tokens
// through the auth service when a refresh cookie is present.
type AutoRefreshMiddleware struct {
	JWTSecret  []byte
	AuthClient Refresher
}

func NewAutoRefreshMiddleware(secret []byte, authClient Refresher) *AutoRefreshMiddleware {
	return &AutoRefreshMiddleware{
		JWTSecret:  secret,
		AuthClient: authClient,
	}
}

type Identity struct {
	UserID uuid.UUID
	Role   string
}

func (i Identity) IsAdmin() bool { return i.Role == tokens.RoleAdmin }

// IdentityFrom returns the caller attached by one of the middlewares.
// ok is false for anonymous requests.
func IdentityFrom(c echo.Context) (Identity, bool) {
	s, _ := c.Get(CtxUserID).(string)
	if s == "" {
		return Identity{}, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return Identity{}, false
	}
	role, _ := c.Get(CtxRole).(string)
	return Identity{UserID: id, Role: role}, true
}

// Identify never rejects: invalid credentials degrade to an anonymous request
// and the handler decides what anonymous callers may do.
func (m *AutoRefreshMiddleware) Identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := m.resolve(c)
		if err == nil && claims != nil {
			setUserContext(c, claims)
		}
		return next(c)
	}
}

func (m *AutoRefreshMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *AutoRefreshMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != tokens.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

func (m *AutoRefreshMiddleware) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := m.resolve(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		if claims == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}
		if validator != nil {
			if validationErr := validator(claims); validationErr != nil {
				return validationErr
			}
		}
		setUserContext(c, claims)
		return next(c)
	}
}

// resolve returns nil claims and nil error for a request without credentials.
func (m *AutoRefreshMiddleware) resolve(c echo.Context) (*tokens.AccessClaims, error) {
	raw := accessToken(c)
	if raw == "" {
		return nil, nil
	}

	claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
	if err == nil && claims != nil {
		if claims.Subject == "" {
			return nil, errInvalidToken
		}
		return claims, nil
	}

	if !errors.Is(err, jwt.ErrTokenExpired) {
		clearAuthCookies(c)
		return nil, errInvalidToken
	}

	refreshCookie, rErr := c.Cookie(jwthelp.RefreshCookie)
	if rErr != nil || refreshCookie.Value == "" || m.AuthClient == nil {
		clearAuthCookies(c)
		return nil, errors.New("access token expired")
	}

	refreshResp, refErr := m.AuthClient.RefreshTokens(c.Request().Context(), refreshCookie.Value)
	if refErr != nil {
		clearAuthCookies(c)
		return nil, errors.New("refresh failed: " + refErr.Error())
	}

	c.SetCookie(jwthelp.CreateCookie(jwthelp.AccessCookie, refreshResp.AccessToken, "/", time.Unix(refreshResp.AccessExp, 0)))
	c.SetCookie(jwthelp.CreateCookie(jwthelp.RefreshCookie, refreshResp.RefreshToken, "/", time.Unix(refreshResp.RefreshExp, 0)))

	newClaims, pErr := tokens.AccessClaimsFromToken(refreshResp.AccessToken, m.JWTSecret)
	if pErr != nil || newClaims == nil {
		clearAuthCookies(c)
		return nil, errors.New("new access token invalid")
	}
	return newClaims, nil
}

func accessToken(c echo.Context) string {
	if ck, err := c.Cookie(jwthelp.AccessCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if after, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.AccessCookie, "/"))
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.RefreshCookie, "/"))
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(CtxUserID, claims.Subject)
	c.Set(CtxRole, claims.Role)
}
