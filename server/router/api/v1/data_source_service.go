package v1

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/plugin/pdap"
	apierrors "github.com/Police-Data-Accessibility-Project/data-sources-app/server/internal/errors"
)

// DataSourceResponse is one data source with its neighbours in the most
// recent search.
type DataSourceResponse struct {
	Data       *pdap.DataSource `json:"data"`
	NextID     *int             `json:"next_id,omitempty"`
	PreviousID *int             `json:"previous_id,omitempty"`
}

// GetDataSource returns one data source and warms the cache for its neighbours.
func (s *APIV1Service) GetDataSource(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	dataSource, err := s.Store.DataSource.GetDataSource(ctx, id)
	if err != nil {
		return err
	}

	response := DataSourceResponse{Data: dataSource}
	var neighbours []int
	if next, ok := s.Navigator.Next(id); ok {
		response.NextID = &next
		neighbours = append(neighbours, next)
	}
	if previous, ok := s.Navigator.Previous(id); ok {
		response.PreviousID = &previous
		neighbours = append(neighbours, previous)
	}
	if len(neighbours) > 0 {
		if err := s.Store.DataSource.Prefetch(ctx, neighbours); err != nil {
			slog.WarnContext(ctx, "failed to prefetch neighbouring data sources", "id", id, "error", err)
		}
	}
	return c.JSON(http.StatusOK, response)
}

// CreateDataSource submits a data source as the signed-in user.
func (s *APIV1Service) CreateDataSource(c echo.Context) error {
	var create pdap.CreateDataSource
	if err := c.Bind(&create); err != nil {
		return apierrors.InvalidArgument("invalid request body")
	}
	if strings.TrimSpace(create.EntryData.Name) == "" || strings.TrimSpace(create.EntryData.SourceURL) == "" {
		return apierrors.InvalidArgument("name and source_url are required")
	}

	resp, err := s.Store.DataSource.CreateDataSource(c.Request().Context(), &create)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

// CheckUniqueURL reports whether ?url is already registered.
func (s *APIV1Service) CheckUniqueURL(c echo.Context) error {
	rawURL := strings.TrimSpace(c.QueryParam("url"))
	if rawURL == "" {
		return apierrors.InvalidArgument("url is required")
	}
	resp, err := s.Store.DataSource.CheckUniqueURL(c.Request().Context(), rawURL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"unique":     resp.IsUnique(),
		"duplicates": resp.Duplicates,
	})
}
