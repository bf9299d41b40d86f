package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cinelink/cinelink/internal/api"
	"github.com/cinelink/cinelink/internal/assistant"
	"github.com/cinelink/cinelink/internal/bundle"
	"github.com/cinelink/cinelink/internal/cache"
	"github.com/cinelink/cinelink/internal/config"
	"github.com/cinelink/cinelink/internal/database"
	"github.com/cinelink/cinelink/internal/engine"
	"github.com/cinelink/cinelink/internal/gamestate"
	"github.com/cinelink/cinelink/internal/logger"
	"github.com/cinelink/cinelink/internal/metadata/tmdb"
	"github.com/cinelink/cinelink/internal/ratelimit"
	"github.com/cinelink/cinelink/internal/scheduler"
	"github.com/cinelink/cinelink/internal/settings"
	"github.com/cinelink/cinelink/internal/websocket"
)

func main() {
	// .env is a dev convenience; absence is fine
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting CineLink")

	if cfg.Game.BoardURL == "" {
		log.Fatal().Msg("game.board_url is not configured")
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	log.Info().Msg("running database migrations")
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	settingsStore := settings.NewStore(db.Conn(), log.Logger)
	cacheStore := cache.NewStore(db.Conn(), log.Logger)

	// A TMDB key from the environment seeds the settings store on first run.
	if envKey := os.Getenv("CINELINK_TMDB_API_KEY"); envKey != "" {
		if stored, err := settingsStore.APIKey(context.Background()); err == nil && stored == "" {
			if err := settingsStore.SetAPIKey(context.Background(), envKey); err != nil {
				log.Warn().Err(err).Msg("failed to seed API key from environment")
			}
		}
	}

	throttle := ratelimit.New(cfg.TMDB.Spacing())
	provider := tmdb.NewClient(cfg.TMDB, settingsStore, throttle, log.Logger)
	builder := bundle.NewBuilder(provider, cacheStore, cfg.Engine.MaxPeople, log.Logger)
	source := gamestate.NewScraper(cfg.Game.BoardURL, log.Logger)

	hub := websocket.NewHub()
	go hub.Run()

	params := engine.Params{
		SetupTurns:      cfg.Engine.SetupTurns,
		PopularityFloor: cfg.Engine.PopularityFloor,
		MaxLinkUses:     cfg.Engine.MaxLinkUses,
	}
	asst := assistant.New(builder, source, settingsStore, hub, params, log.Logger)

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}

	if err := sched.RegisterTask(scheduler.TaskConfig{
		ID:          "board-poll",
		Name:        "Board Poll",
		Description: "Polls the game board and re-evaluates connection options",
		Every:       cfg.Game.Interval(),
		Func:        asst.Tick,
		RunOnStart:  true,
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to register board poll task")
	}

	if err := sched.RegisterTask(scheduler.TaskConfig{
		ID:          "cache-stats",
		Name:        "Cache Stats",
		Description: "Logs cache row counts",
		Cron:        "0 4 * * *",
		Func: func(ctx context.Context) error {
			stats, err := cacheStore.Stats(ctx)
			if err != nil {
				return err
			}
			log.Info().
				Int("bundles", stats.Bundles).
				Int("filmographies", stats.Filmographies).
				Msg("cache stats")
			return nil
		},
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to register cache stats task")
	}

	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Warn().Err(err).Msg("scheduler shutdown failed")
		}
	}()

	server := api.NewServer(cfg, asst, cacheStore, settingsStore, sched, hub, log.Logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("server failed")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
