package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	jwthelp "github.com/Skotchmaster/restaurant_orders/pkg/jwt"
)

const (
	CSRFCookie = "XSRF-TOKEN"
	CSRFHeader = "X-CSRF-Token"
)

// CSRF guards cookie-authenticated requests with a double-submit token: the
// XSRF-TOKEN cookie must be echoed in the X-CSRF-Token header. Bearer
// requests and requests without an access cookie carry no ambient
// credentials and pass through.
func CSRF(secure bool, skipPaths ...string) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return ecM.CSRFWithConfig(ecM.CSRFConfig{
		Skipper: func(c echo.Context) bool {
			req := c.Request()
			if _, ok := skip[req.URL.Path]; ok {
				return true
			}
			if strings.HasPrefix(req.Header.Get(echo.HeaderAuthorization), "Bearer ") {
				return true
			}
			ck, err := req.Cookie(jwthelp.AccessCookie)
			return err != nil || ck.Value == ""
		},
		TokenLookup:    "header:" + CSRFHeader,
		CookieName:     CSRFCookie,
		CookiePath:     "/",
		CookieMaxAge:   int((24 * time.Hour).Seconds()),
		CookieSecure:   secure,
		CookieSameSite: http.SameSiteLaxMode,
	})
}
