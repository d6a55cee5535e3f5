package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/restaurant_orders/gateway/internal/middleware"
)

type Deps struct {
	AuthURL string
	ShopURL string

	Logger       *slog.Logger
	RateLimitRPS float64
	RateBurst    int

	// CSRF enables the double-submit check for cookie sessions.
	CSRF       bool
	SecureCSRF bool
}

var csrfSkipPaths = []string{
	"/health/live",
	"/health/ready",
	"/api/v1/auth/login",
	"/api/v1/auth/register",
	"/api/v1/auth/refresh",
}

// Register mounts /api/v1/auth/* on the auth service and every other
// /api/v1 route on the shop service. Authorization stays in the services.
func Register(e *echo.Echo, d *Deps) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, m := range middleware.Common(logger) {
		e.Use(m)
	}
	if d.RateLimitRPS > 0 {
		e.Use(middleware.RateLimit(d.RateLimitRPS, d.RateBurst))
	}
	if d.CSRF {
		e.Use(middleware.CSRF(d.SecureCSRF, csrfSkipPaths...))
	}

	upstreams := map[string]string{"auth": d.AuthURL, "shop": d.ShopURL}
	client := &http.Client{Timeout: 2 * time.Second, Transport: newTransport()}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		status, ok := checkUpstreams(c.Request().Context(), client, upstreams)
		if !ok {
			return c.JSON(http.StatusServiceUnavailable, status)
		}
		return c.JSON(http.StatusOK, status)
	})

	authProxy, err := newProxy(d.AuthURL, "/api/v1/auth")
	if err != nil {
		return err
	}
	shopProxy, err := newProxy(d.ShopURL, "/api/v1")
	if err != nil {
		return err
	}

	e.Any("/api/v1/auth", authProxy)
	e.Any("/api/v1/auth/*", authProxy)

	api := e.Group("/api/v1")
	api.Any("/catalog/*", shopProxy)
	api.Any("/reviews/*", shopProxy)
	api.Any("/orders", shopProxy)
	api.Any("/orders/*", shopProxy)

	return nil
}

// checkUpstreams probes every upstream's readiness endpoint concurrently.
func checkUpstreams(ctx context.Context, client *http.Client, upstreams map[string]string) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var mu sync.Mutex
	status := make(map[string]string, len(upstreams))
	// A plain group: one failing upstream must not cancel the other probes.
	var g errgroup.Group
	for name, base := range upstreams {
		g.Go(func() error {
			err := probe(ctx, client, base+"/health/ready")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				status[name] = err.Error()
				return err
			}
			status[name] = "ok"
			return nil
		})
	}
	return status, g.Wait() == nil
}

type upstreamError struct{ status int }

func (e upstreamError) Error() string { return http.StatusText(e.status) }

func probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return upstreamError{status: res.StatusCode}
	}
	return nil
}
