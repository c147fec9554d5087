package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/plugin/pdap"
	apierrors "github.com/Police-Data-Accessibility-Project/data-sources-app/server/internal/errors"
)

// ListDataRequests returns a page of data requests.
func (s *APIV1Service) ListDataRequests(c echo.Context) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	locationID, err := queryInt(c, "location_id")
	if err != nil {
		return err
	}
	sortOrder := strings.ToUpper(c.QueryParam("sort_order"))
	if sortOrder != "" && sortOrder != "ASC" && sortOrder != "DESC" {
		return apierrors.InvalidArgument("sort_order must be ASC or DESC")
	}

	list, err := s.Store.DataRequests.GetDataRequests(c.Request().Context(), pdap.ListDataRequestsParams{
		Page:            page,
		SortBy:          c.QueryParam("sort_by"),
		SortOrder:       sortOrder,
		RequestStatuses: queryList(c, "request_statuses"),
		LocationID:      locationID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// GetDataRequest returns one data request.
func (s *APIV1Service) GetDataRequest(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	request, err := s.Store.DataRequests.GetDataRequest(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"data": request})
}

// CreateDataRequest submits a data request as the signed-in user.
func (s *APIV1Service) CreateDataRequest(c echo.Context) error {
	var create pdap.CreateDataRequest
	if err := c.Bind(&create); err != nil {
		return apierrors.InvalidArgument("invalid request body")
	}
	if strings.TrimSpace(create.RequestInfo.Title) == "" {
		return apierrors.InvalidArgument("request_info.title is required")
	}

	resp, err := s.Store.DataRequests.CreateDataRequest(c.Request().Context(), &create)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}
