package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/internal/profile"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/plugin/pdap"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/server/auth"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/server/internal/observability"
	apimiddleware "github.com/Police-Data-Accessibility-Project/data-sources-app/server/middleware"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/server/router"
	apiv1 "github.com/Police-Data-Accessibility-Project/data-sources-app/server/router/api/v1"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/store"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/store/db"
)

const (
	// refreshInterval is how often the access token's expiry is checked.
	refreshInterval = time.Minute
	// refreshThreshold is how close to expiry the access token is refreshed.
	refreshThreshold = 5 * time.Minute
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store
	Auth    *auth.State
	Metrics *observability.Metrics

	local      store.Driver
	session    store.Driver
	echoServer *echo.Echo

	runnerCancelFuncs []context.CancelFunc
}

// NewServer opens the storage areas, restores the previous session and
// registers every route.
func NewServer(ctx context.Context, profile *profile.Profile) (*Server, error) {
	local, err := db.NewLocalDriver(profile)
	if err != nil {
		return nil, err
	}
	session, err := db.NewSessionDriver(profile)
	if err != nil {
		local.Close()
		return nil, err
	}
	return newServer(ctx, profile, local, session), nil
}

func newServer(ctx context.Context, profile *profile.Profile, local, session store.Driver) *Server {
	s := &Server{
		Profile: profile,
		Metrics: observability.NewMetrics(),
		local:   local,
		session: session,
	}

	client := pdap.NewClient(pdap.Config{
		BaseURL: profile.APIBaseURL,
		APIKey:  profile.APIKey,
		Timeout: profile.HTTPTimeout,
	})
	s.Auth = auth.NewState(client, auth.Options{Local: local, Session: session})
	s.Auth.Restore(ctx)

	options := store.OptionsFromProfile(profile, session)
	options.Metrics = s.Metrics
	s.Store = store.New(client.WithTokenSource(s.Auth), options)

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.HTTPErrorHandler = apiv1.ErrorHandler
	echoServer.Use(middleware.Recover())
	echoServer.Use(s.Metrics.Middleware())
	echoServer.Use(observability.RequestLogger(slog.Default(), s.Auth.UserID))
	s.echoServer = echoServer

	// Healthz endpoint.
	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	echoServer.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))

	limiter := apimiddleware.NewRateLimiter(profile.RateLimitPerSecond, profile.RateLimitBurst)
	apiV1Service := apiv1.NewAPIV1Service(profile, s.Store, s.Auth)
	apiV1Service.RegisterRoutes(echoServer, limiter.Middleware(), apimiddleware.SameOrigin(profile.AllowedOrigins))

	s.registerFrontend(router.NewGuard(s.Auth))
	return s
}

// registerFrontend serves the built frontend, if configured, behind the
// route guard. Unknown paths fall back to index.html.
func (s *Server) registerFrontend(guard *router.Guard) {
	skipper := func(c echo.Context) bool {
		path := c.Request().URL.Path
		return strings.HasPrefix(path, "/api/") || path == "/healthz" || path == "/metrics"
	}

	guardMiddleware := guard.Middleware()
	s.echoServer.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		guarded := guardMiddleware(next)
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}
			return guarded(c)
		}
	})

	if s.Profile.StaticDir == "" {
		return
	}
	s.echoServer.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Skipper: skipper,
		Root:    s.Profile.StaticDir,
		HTML5:   true,
	}))
}

// Handler exposes the HTTP handler, e.g. for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.echoServer.Listener = listener

	s.StartBackgroundRunners(ctx)

	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	// Cancel all background runners
	for _, cancelFunc := range s.runnerCancelFuncs {
		if cancelFunc != nil {
			cancelFunc()
		}
	}

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	s.Close()

	slog.Info("server stopped properly")
}

// Close releases both storage areas. Shutdown calls it.
func (s *Server) Close() {
	if err := s.session.Close(); err != nil {
		slog.Error("failed to close session storage", "error", err)
	}
	if err := s.local.Close(); err != nil {
		slog.Error("failed to close local storage", "error", err)
	}
}

// StartBackgroundRunners starts the token refresh loop.
func (s *Server) StartBackgroundRunners(ctx context.Context) {
	refreshCtx, refreshCancel := context.WithCancel(ctx)
	s.runnerCancelFuncs = append(s.runnerCancelFuncs, refreshCancel)

	go func() {
		s.Auth.RefreshLoop(refreshCtx, refreshInterval, refreshThreshold)
		slog.Info("token refresh loop stopped")
	}()
}
