package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/plugin/pdap"
)

// TypeaheadLocations suggests locations for ?query.
func (s *APIV1Service) TypeaheadLocations(c echo.Context) error {
	suggestions, err := s.Store.Typeahead.Locations(c.Request().Context(), c.QueryParam("query"))
	if err != nil {
		return err
	}
	if suggestions == nil {
		suggestions = []pdap.LocationSuggestion{}
	}
	return c.JSON(http.StatusOK, map[string]any{"suggestions": suggestions})
}

// TypeaheadAgencies suggests agencies for ?query.
func (s *APIV1Service) TypeaheadAgencies(c echo.Context) error {
	suggestions, err := s.Store.Typeahead.Agencies(c.Request().Context(), c.QueryParam("query"))
	if err != nil {
		return err
	}
	if suggestions == nil {
		suggestions = []pdap.AgencySuggestion{}
	}
	return c.JSON(http.StatusOK, map[string]any{"suggestions": suggestions})
}
