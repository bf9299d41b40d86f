// Package api exposes the presentation boundary: ranked options, filter
// controls, settings, cache management, and the WebSocket push channel.
package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/cinelink/cinelink/internal/assistant"
	"github.com/cinelink/cinelink/internal/cache"
	"github.com/cinelink/cinelink/internal/config"
	"github.com/cinelink/cinelink/internal/scheduler"
	"github.com/cinelink/cinelink/internal/settings"
	"github.com/cinelink/cinelink/internal/websocket"
	"github.com/cinelink/cinelink/web"
)

// Server handles HTTP requests for the CineLink API.
type Server struct {
	echo      *echo.Echo
	hub       *websocket.Hub
	assistant *assistant.Assistant
	cache     *cache.Store
	settings  *settings.Store
	scheduler *scheduler.Scheduler
	logger    zerolog.Logger
	cfg       *config.Config
}

// NewServer creates a new API server instance.
func NewServer(cfg *config.Config, asst *assistant.Assistant, cacheStore *cache.Store, settingsStore *settings.Store, sched *scheduler.Scheduler, hub *websocket.Hub, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		hub:       hub,
		assistant: asst,
		cache:     cacheStore,
		settings:  settingsStore,
		scheduler: sched,
		logger:    logger.With().Str("component", "api").Logger(),
		cfg:       cfg,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	v1 := s.echo.Group("/api/v1")

	v1.GET("/status", s.GetStatus)
	v1.GET("/options", s.GetOptions)
	v1.GET("/filter", s.GetFilter)
	v1.PUT("/filter", s.PutFilter)
	v1.PUT("/settings/apikey", s.PutAPIKey)
	v1.DELETE("/cache", s.ClearCache)
	v1.GET("/tasks", s.GetTasks)

	s.echo.GET("/ws", s.hub.HandleWebSocket)

	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if dist, err := web.DistFS(); err == nil {
		s.echo.StaticFS("/", dist)
	} else {
		s.logger.Warn().Err(err).Msg("Companion panel assets unavailable")
	}
}

// Start starts the HTTP server. Blocks until the server stops.
func (s *Server) Start() error {
	addr := s.cfg.Server.Address()
	s.logger.Info().Str("addr", addr).Msg("Starting API server")
	err := s.echo.Start(addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying echo instance, for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
