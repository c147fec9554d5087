// Package router gates page navigation on the user's sign-in state.
package router

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// LoginPath is where signed-out users are sent.
const LoginPath = "/login"

// DefaultPrivateRoutes are the pages that require a signed-in user.
var DefaultPrivateRoutes = []string{
	"/change-password",
	"/data-request/create",
	"/data-source/create",
	"/profile",
}

// Session is the part of the auth state the guard reads and writes.
type Session interface {
	UserID() int
	SetReturnURL(path string)
}

// Decision is the outcome of a navigation check.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Guard redirects signed-out users away from private routes.
type Guard struct {
	session Session
	private map[string]struct{}
}

// NewGuard creates a guard over the given private routes, or
// DefaultPrivateRoutes when none are given.
func NewGuard(session Session, privateRoutes ...string) *Guard {
	if len(privateRoutes) == 0 {
		privateRoutes = DefaultPrivateRoutes
	}
	private := make(map[string]struct{}, len(privateRoutes))
	for _, route := range privateRoutes {
		private[normalizePath(route)] = struct{}{}
	}
	return &Guard{session: session, private: private}
}

// IsPrivate reports whether path is in the private allowlist. Query
// strings and trailing slashes are ignored.
func (g *Guard) IsPrivate(path string) bool {
	_, ok := g.private[normalizePath(path)]
	return ok
}

// BeforeEach checks a navigation to target. When target is private and no
// user is signed in, it records target as the return URL and redirects
// to the login page.
func (g *Guard) BeforeEach(target string) Decision {
	if !g.IsPrivate(target) || g.session.UserID() != 0 {
		return Decision{Allowed: true}
	}
	g.session.SetReturnURL(target)
	return Decision{RedirectTo: LoginPath}
}

// Middleware applies BeforeEach to page navigations (GET and HEAD).
func (g *Guard) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet && req.Method != http.MethodHead {
				return next(c)
			}
			decision := g.BeforeEach(req.URL.RequestURI())
			if decision.Allowed {
				return next(c)
			}
			slog.DebugContext(req.Context(), "redirecting signed-out navigation", "path", req.URL.Path, "to", decision.RedirectTo)
			return c.Redirect(http.StatusFound, decision.RedirectTo)
		}
	}
}

func normalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
