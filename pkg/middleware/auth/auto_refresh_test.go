package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/restaurant_orders/pkg/authclient"
	"github.com/Skotchmaster/restaurant_orders/pkg/tokens"
)

var testSecret = []byte("test-jwt-secret")

type fakeRefresher struct {
	resp  *authclient.RefreshResponse
	err   error
	calls int
}

func (f *fakeRefresher) RefreshTokens(ctx context.Context, refreshToken string) (*authclient.RefreshResponse, error) {
	f.calls++
	return f.resp, f.err
}

func newCtx(cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func sign(t *testing.T, userID uuid.UUID, role string, exp time.Time) string {
	t.Helper()
	tok, err := tokens.SignAccessToken(userID.String(), role, exp, testSecret)
	require.NoError(t, err)
	return tok
}

func captureIdentity(got *Identity, ok *bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		*got, *ok = IdentityFrom(c)
		return c.NoContent(http.StatusOK)
	}
}

func TestIdentify_Anonymous(t *testing.T) {
	m := NewAutoRefreshMiddleware(testSecret, nil)
	c, rec := newCtx()

	var id Identity
	var ok bool
	require.NoError(t, m.Identify(captureIdentity(&id, &ok))(c))
	assert.False(t, ok)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIdentify_ValidCookie(t *testing.T) {
	m := NewAutoRefreshMiddleware(testSecret, nil)
	userID := uuid.New()
	c, _ := newCtx(&http.Cookie{Name: "accessToken", Value: sign(t, userID, tokens.RoleUser, time.Now().Add(time.Minute))})

	var id Identity
	var ok bool
	require.NoError(t, m.Identify(captureIdentity(&id, &ok))(c))
	require.True(t, ok)
	assert.Equal(t, userID, id.UserID)
	assert.False(t, id.IsAdmin())
}

func TestIdentify_BearerHeader(t *testing.T) {
	m := NewAutoRefreshMiddleware(testSecret, nil)
	userID := uuid.New()
	c, _ := newCtx()
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+sign(t, userID, tokens.RoleAdmin, time.Now().Add(time.Minute)))

	var id Identity
	var ok bool
	require.NoError(t, m.Identify(captureIdentity(&id, &ok))(c))
	require.True(t, ok)
	assert.True(t, id.IsAdmin())
}

func TestIdentify_GarbageTokenIsAnonymous(t *testing.T) {
	m := NewAutoRefreshMiddleware(testSecret, nil)
	c, _ := newCtx(&http.Cookie{Name: "accessToken", Value: "garbage"})

	var id Identity
	var ok bool
	require.NoError(t, m.Identify(captureIdentity(&id, &ok))(c))
	assert.False(t, ok)
}

func TestIdentify_ExpiredTokenRefreshes(t *testing.T) {
	userID := uuid.New()
	fresh := sign(t, userID, tokens.RoleUser, time.Now().Add(time.Minute))
	ref := &fakeRefresher{resp: &authclient.RefreshResponse{
		AccessToken:  fresh,
		RefreshToken: "rotated",
		AccessExp:    time.Now().Add(time.Minute).Unix(),
		RefreshExp:   time.Now().Add(time.Hour).Unix(),
	}}
	m := NewAutoRefreshMiddleware(testSecret, ref)
	c, rec := newCtx(
		&http.Cookie{Name: "accessToken", Value: sign(t, userID, tokens.RoleUser, time.Now().Add(-time.Minute))},
		&http.Cookie{Name: "refreshToken", Value: "old"},
	)

	var id Identity
	var ok bool
	require.NoError(t, m.Identify(captureIdentity(&id, &ok))(c))
	require.True(t, ok)
	assert.Equal(t, userID, id.UserID)
	assert.Equal(t, 1, ref.calls)
	assert.Contains(t, rec.Header().Values("Set-Cookie")[1], "rotated")
}

func TestRequireAuth_RejectsAnonymous(t *testing.T) {
	m := NewAutoRefreshMiddleware(testSecret, nil)
	c, _ := newCtx()

	err := m.RequireAuth(func(c echo.Context) error { return nil })(c)
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireAuth_RefreshFailure(t *testing.T) {
	userID := uuid.New()
	m := NewAutoRefreshMiddleware(testSecret, &fakeRefresher{err: errors.New("down")})
	c, _ := newCtx(
		&http.Cookie{Name: "accessToken", Value: sign(t, userID, tokens.RoleUser, time.Now().Add(-time.Minute))},
		&http.Cookie{Name: "refreshToken", Value: "old"},
	)

	err := m.RequireAuth(func(c echo.Context) error { return nil })(c)
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireAdmin(t *testing.T) {
	m := NewAutoRefreshMiddleware(testSecret, nil)

	c, _ := newCtx(&http.Cookie{Name: "accessToken", Value: sign(t, uuid.New(), tokens.RoleUser, time.Now().Add(time.Minute))})
	err := m.RequireAdmin(func(c echo.Context) error { return nil })(c)
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusForbidden, he.Code)

	c, rec := newCtx(&http.Cookie{Name: "accessToken", Value: sign(t, uuid.New(), tokens.RoleAdmin, time.Now().Add(time.Minute))})
	require.NoError(t, m.RequireAdmin(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
