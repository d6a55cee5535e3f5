package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/restaurant_orders/pkg/authclient"
	"github.com/Skotchmaster/restaurant_orders/pkg/db/dbtest"
	"github.com/Skotchmaster/restaurant_orders/pkg/events"
	jwthelp "github.com/Skotchmaster/restaurant_orders/pkg/jwt"
	"github.com/Skotchmaster/restaurant_orders/pkg/logging"
	loggingmw "github.com/Skotchmaster/restaurant_orders/pkg/middleware/logging"
	"github.com/Skotchmaster/restaurant_orders/pkg/pagination"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/models"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/repo"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/service"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/transport"
)

var testSecret = []byte("test-jwt-secret")

type testEnv struct {
	t   *testing.T
	e   *echo.Echo
	svc *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.New(t, models.All()...)
	svc := &service.AuthService{
		Repo:          repo.New(db, nil),
		AccessSecret:  testSecret,
		RefreshSecret: []byte("test-refresh-secret"),
		Events:        events.NopPublisher{},
	}

	e := echo.New()
	e.Use(loggingmw.RequestLogger(logging.NewWithWriter(io.Discard, "error")))
	Register(e, &Deps{
		AuthHandler: &AuthHTTP{Svc: svc, Pages: pagination.NewParams(2, 10)},
		JWTSecret:   testSecret,
		DB:          db,
	})
	return &testEnv{t: t, e: e, svc: svc}
}

func (env *testEnv) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	env.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(env.t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func creds(u, p string) transport.CredentialsRequest {
	return transport.CredentialsRequest{Username: u, Password: p}
}

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) transport.ErrorResponse {
	t.Helper()
	var body transport.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/register", creds("alice", "secret123"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.RoleUser, user.Role)

	rec = env.do(http.MethodPost, "/register", creds("alice", "secret123"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/login", creds("alice", "secret123"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	access := cookie(rec, jwthelp.AccessCookie)
	refresh := cookie(rec, jwthelp.RefreshCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)

	rec = env.do(http.MethodGet, "/users/me", nil, access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/register", creds("bob", "short"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "validation", body.Error)
	assert.Equal(t, "password", body.Field)
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/register", creds("carol", "secret123")).Code)

	rec := env.do(http.MethodPost, "/login", creds("carol", "nope-nope"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, cookie(rec, jwthelp.AccessCookie))
}

// The shop middleware decodes this response through pkg/authclient.
func TestRefresh_MatchesAuthClientContract(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/register", creds("dave", "secret123")).Code)
	login := env.do(http.MethodPost, "/login", creds("dave", "secret123"))
	require.Equal(t, http.StatusOK, login.Code)

	srv := httptest.NewServer(env.e)
	defer srv.Close()

	client := authclient.NewClient(srv.URL)
	res, err := client.RefreshTokens(t.Context(), cookie(login, jwthelp.RefreshCookie).Value)
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Greater(t, res.RefreshExp, res.AccessExp)

	_, err = client.RefreshTokens(t.Context(), cookie(login, jwthelp.RefreshCookie).Value)
	assert.Error(t, err, "replayed refresh token")
}

func TestRefresh_JSONBodyAndMissing(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/register", creds("erin", "secret123")).Code)
	login := env.do(http.MethodPost, "/login", creds("erin", "secret123"))
	require.Equal(t, http.StatusOK, login.Code)

	rec := env.do(http.MethodPost, "/refresh", transport.RefreshRequest{RefreshToken: cookie(login, jwthelp.RefreshCookie).Value})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotNil(t, cookie(rec, jwthelp.RefreshCookie))

	rec = env.do(http.MethodPost, "/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_RevokesRefresh(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/register", creds("frank", "secret123")).Code)
	login := env.do(http.MethodPost, "/login", creds("frank", "secret123"))
	refresh := cookie(login, jwthelp.RefreshCookie)

	rec := env.do(http.MethodPost, "/logout", nil, refresh)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := cookie(rec, jwthelp.RefreshCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	rec = env.do(http.MethodPost, "/refresh", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUsers_Access(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	require.NoError(t, env.svc.EnsureAdmin(ctx, "root", "rootpass1"))
	for _, n := range []string{"u1", "u2"} {
		require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/register", creds(n, "secret123")).Code)
	}

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/users/me", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/users", nil).Code)

	userLogin := env.do(http.MethodPost, "/login", creds("u1", "secret123"))
	rec := env.do(http.MethodGet, "/users", nil, cookie(userLogin, jwthelp.AccessCookie))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminLogin := env.do(http.MethodPost, "/login", creds("root", "rootpass1"))
	rec = env.do(http.MethodGet, "/users?page=2", nil, cookie(adminLogin, jwthelp.AccessCookie))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page pagination.Result[models.User]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.EqualValues(t, 3, page.Meta.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "u2", page.Data[0].Username)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health/ready", nil).Code)
}
