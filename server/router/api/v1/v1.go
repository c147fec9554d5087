package v1

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/internal/profile"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/server/auth"
	apierrors "github.com/Police-Data-Accessibility-Project/data-sources-app/server/internal/errors"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/server/service/search"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/store"
)

// APIV1Service exposes the store actions of one session as JSON endpoints.
type APIV1Service struct {
	Profile   *profile.Profile
	Store     *store.Store
	Auth      *auth.State
	Navigator *search.Navigator

	// now is the clock used for authentication checks.
	now func() time.Time
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, authState *auth.State) *APIV1Service {
	return &APIV1Service{
		Profile:   profile,
		Store:     store,
		Auth:      authState,
		Navigator: search.NewNavigator(),
		now:       time.Now,
	}
}

// RegisterRoutes mounts the API under /api/v1 behind the given middlewares.
// The API acts with the server's single signed-in session, so browsers on
// other origins only get CORS headers when the profile lists them.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo, middlewares ...echo.MiddlewareFunc) {
	g := echoServer.Group("/api/v1", middlewares...)
	if len(s.Profile.AllowedOrigins) > 0 {
		g.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.Profile.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderXRequestID},
		}))
	}

	private := s.requireUser

	g.GET("/search", s.Search)
	g.GET("/search/follow", s.ListFollowedSearches, private)
	g.POST("/search/follow", s.FollowSearch, private)
	g.DELETE("/search/follow", s.UnfollowSearch, private)

	g.GET("/data-sources/unique-url", s.CheckUniqueURL)
	g.GET("/data-sources/:id", s.GetDataSource)
	g.POST("/data-sources", s.CreateDataSource, private)

	g.GET("/data-requests", s.ListDataRequests)
	g.GET("/data-requests/:id", s.GetDataRequest)
	g.POST("/data-requests", s.CreateDataRequest, private)

	g.GET("/typeahead/locations", s.TypeaheadLocations)
	g.GET("/typeahead/agencies", s.TypeaheadAgencies)

	g.GET("/auth/session", s.GetSession)
	g.POST("/auth/login", s.Login)
	g.POST("/auth/signup", s.Signup)
	g.POST("/auth/refresh", s.Refresh)
	g.POST("/auth/logout", s.Logout)

	g.GET("/system/status", s.GetSystemStatus)
	g.POST("/cache/clear", s.ClearCache)
}

// requireUser rejects Bearer-scoped actions when no user is signed in.
func (s *APIV1Service) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.Auth.IsAuthenticated(s.now()) {
			return apierrors.Unauthorized("sign in to continue")
		}
		return next(c)
	}
}

// ErrorHandler renders APIErrors and store errors as JSON. Other errors,
// such as echo's routing errors, fall through to the default handler.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		c.Echo().DefaultHTTPErrorHandler(err, c)
		return
	}

	apiErr := apierrors.FromError(err)
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(apiErr.HTTPStatus())
		return
	}
	_ = c.JSON(apiErr.HTTPStatus(), apiErr.Body())
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, apierrors.InvalidArgument("id must be a positive integer")
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.InvalidArgument(name + " must be an integer")
	}
	return value, nil
}

// queryList accepts both repeated parameters and comma-separated values.
func queryList(c echo.Context, name string) []string {
	var values []string
	for _, raw := range c.QueryParams()[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}
	return values
}

// ClearCache drops every cached response of the session.
func (s *APIV1Service) ClearCache(c echo.Context) error {
	ctx := c.Request().Context()
	s.Store.Search.ClearCache(ctx)
	s.Store.DataSource.ClearCache(ctx)
	s.Store.DataRequests.ClearCache(ctx)
	s.Store.Typeahead.ClearCache(ctx)
	return c.NoContent(http.StatusNoContent)
}
