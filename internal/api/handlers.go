package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinelink/cinelink/internal/engine"
	"github.com/cinelink/cinelink/internal/settings"
)

// GetStatus returns the assistant's user-visible state.
// GET /api/v1/status
func (s *Server) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.assistant.Status(c.Request().Context()))
}

// GetOptions returns the current ranked connection options.
// GET /api/v1/options
func (s *Server) GetOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"options": s.assistant.Options(),
	})
}

// GetFilter returns the saved priority filter.
// GET /api/v1/filter
func (s *Server) GetFilter(c echo.Context) error {
	filter, err := s.settings.PriorityFilter(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load filter")
	}
	return c.JSON(http.StatusOK, filter)
}

// PutFilter saves the priority filter and re-ranks immediately.
// PUT /api/v1/filter
func (s *Server) PutFilter(c echo.Context) error {
	var filter engine.PriorityFilter
	if err := c.Bind(&filter); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid filter body")
	}

	if err := s.assistant.SetPriorityFilter(c.Request().Context(), filter); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save filter")
	}

	return c.JSON(http.StatusOK, filter)
}

// apiKeyRequest is the body for PutAPIKey.
type apiKeyRequest struct {
	APIKey string `json:"apiKey"`
}

// PutAPIKey stores the TMDB credential. Takes effect on the next provider
// call; no restart needed.
// PUT /api/v1/settings/apikey
func (s *Server) PutAPIKey(c echo.Context) error {
	var req apiKeyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.APIKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "apiKey is required")
	}

	if err := s.settings.SetAPIKey(c.Request().Context(), req.APIKey); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save API key")
	}

	return c.NoContent(http.StatusNoContent)
}

// ClearCache wipes cached bundles and filmographies. The credential and the
// saved filter survive.
// DELETE /api/v1/cache
func (s *Server) ClearCache(c echo.Context) error {
	if err := s.cache.Clear(c.Request().Context(), settings.PreservedKeys...); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to clear cache")
	}
	return c.NoContent(http.StatusNoContent)
}

// GetTasks lists registered background tasks.
// GET /api/v1/tasks
func (s *Server) GetTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tasks": s.scheduler.ListTasks(),
	})
}
