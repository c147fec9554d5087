package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/plugin/pdap"
	apierrors "github.com/Police-Data-Accessibility-Project/data-sources-app/server/internal/errors"
	"github.com/Police-Data-Accessibility-Project/data-sources-app/server/service/search"
)

// SearchResponse is a search regrouped by locale and agency.
type SearchResponse struct {
	search.GroupedResults
	// IDs lists every record id in the order the API returned them, locale
	// by locale. It includes records without an agency, which
	// GroupedResults leaves out, so next and previous on the record view
	// can land on a record the grouped list never showed.
	IDs []int `json:"ids"`
	// Locale is the requested locale tab, widened to the nearest locale
	// that has results. Empty when none do.
	Locale pdap.Locale `json:"locale,omitempty"`
}

// Search runs a location/record-type search.
func (s *APIV1Service) Search(c echo.Context) error {
	locationID, err := queryInt(c, "location_id")
	if err != nil {
		return err
	}
	if locationID <= 0 {
		return apierrors.InvalidArgument("location_id is required")
	}

	results, err := s.Store.Search.Search(c.Request().Context(), pdap.SearchParams{
		LocationID:       locationID,
		RecordCategories: queryList(c, "record_categories"),
	})
	if err != nil {
		return err
	}

	ids := search.GetAllIDsSearched(results)
	s.Navigator.SetMostRecentSearchIDs(ids)

	response := SearchResponse{
		GroupedResults: search.GroupResultsByAgency(results),
		IDs:            ids,
	}
	if requested := pdap.Locale(c.QueryParam("locale")); requested != "" {
		if locale, ok := search.NormalizeLocaleForHash(requested, results); ok {
			response.Locale = locale
		}
	}
	return c.JSON(http.StatusOK, response)
}

// ListFollowedSearches lists the signed-in user's followed locations.
func (s *APIV1Service) ListFollowedSearches(c echo.Context) error {
	followed, err := s.Store.Search.FollowedSearches(c.Request().Context())
	if err != nil {
		return err
	}
	if followed == nil {
		followed = []pdap.FollowedSearch{}
	}
	return c.JSON(http.StatusOK, map[string]any{"data": followed})
}

// FollowSearch follows ?location_id for the signed-in user.
func (s *APIV1Service) FollowSearch(c echo.Context) error {
	locationID, err := requiredLocationID(c)
	if err != nil {
		return err
	}
	if err := s.Store.Search.FollowSearch(c.Request().Context(), locationID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UnfollowSearch stops following ?location_id.
func (s *APIV1Service) UnfollowSearch(c echo.Context) error {
	locationID, err := requiredLocationID(c)
	if err != nil {
		return err
	}
	if err := s.Store.Search.UnfollowSearch(c.Request().Context(), locationID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func requiredLocationID(c echo.Context) (int, error) {
	locationID, err := queryInt(c, "location_id")
	if err != nil {
		return 0, err
	}
	if locationID <= 0 {
		return 0, apierrors.InvalidArgument("location_id is required")
	}
	return locationID, nil
}
