package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	apierrors "github.com/Police-Data-Accessibility-Project/data-sources-app/server/internal/errors"
)

const headerSecFetchSite = "Sec-Fetch-Site"

// SameOrigin rejects state-changing requests sent by pages of another
// origin. A request passes when its Origin names the server's own host or
// one of the allowed origins. Requests without an Origin header pass unless
// the browser marks them as cross-site, so command line clients keep working.
func SameOrigin(allowed []string) echo.MiddlewareFunc {
	allowedOrigins := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		allowedOrigins[normalizeOrigin(origin)] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			if origin := req.Header.Get(echo.HeaderOrigin); origin != "" {
				if allowedOrigins[normalizeOrigin(origin)] || originHost(origin) == strings.ToLower(req.Host) {
					return next(c)
				}
				return denyOrigin(c)
			}
			switch req.Header.Get(headerSecFetchSite) {
			case "cross-site", "same-site":
				return denyOrigin(c)
			}
			return next(c)
		}
	}
}

func denyOrigin(c echo.Context) error {
	apiErr := apierrors.PermissionDenied("cross-origin requests are not allowed")
	return c.JSON(apiErr.HTTPStatus(), apiErr.Body())
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}

// originHost returns the host[:port] of an Origin header, or "" for opaque
// origins such as "null".
func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
