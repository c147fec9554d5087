package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SystemStatusResponse describes the running client.
type SystemStatusResponse struct {
	Version      string         `json:"version"`
	Mode         string         `json:"mode"`
	APIBaseURL   string         `json:"api_base_url"`
	CacheEntries map[string]int `json:"cache_entries"`
}

// GetSystemStatus reports version, upstream and cache occupancy.
// GET /api/v1/system/status
func (s *APIV1Service) GetSystemStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, SystemStatusResponse{
		Version:      s.Profile.Version,
		Mode:         s.Profile.Mode,
		APIBaseURL:   s.Profile.APIBaseURL,
		CacheEntries: s.Store.Stats(),
	})
}
