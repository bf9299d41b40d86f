package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Version is the application version, set at build time.
var Version = "dev"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	TMDB     TMDBConfig     `mapstructure:"tmdb"`
	Game     GameConfig     `mapstructure:"game"`
	Engine   EngineConfig   `mapstructure:"engine"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// TMDBConfig holds metadata provider configuration.
// The API key itself lives in the settings store, not here, so it can be
// changed at runtime without a restart.
type TMDBConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	Timeout           int    `mapstructure:"timeout"` // seconds
	MinRequestSpacing int    `mapstructure:"min_request_spacing"` // milliseconds
}

// GameConfig holds game board polling configuration.
type GameConfig struct {
	BoardURL     string `mapstructure:"board_url"`
	PollInterval int    `mapstructure:"poll_interval"` // milliseconds
}

// EngineConfig holds connection engine tuning.
type EngineConfig struct {
	SetupTurns      int     `mapstructure:"setup_turns"`
	PopularityFloor float64 `mapstructure:"popularity_floor"`
	MaxLinkUses     int     `mapstructure:"max_link_uses"`
	MaxPeople       int     `mapstructure:"max_people"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 7474,
		},
		Database: DatabaseConfig{
			Path: "./data/cinelink.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		TMDB: TMDBConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			Timeout:           15,
			MinRequestSpacing: 250,
		},
		Game: GameConfig{
			PollInterval: 500,
		},
		Engine: EngineConfig{
			SetupTurns:      3,
			PopularityFloor: 8.0,
			MaxLinkUses:     3,
			MaxPeople:       30,
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.cinelink")
	}

	v.SetEnvPrefix("CINELINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults + env vars
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", "")

	v.SetDefault("tmdb.base_url", d.TMDB.BaseURL)
	v.SetDefault("tmdb.timeout", d.TMDB.Timeout)
	v.SetDefault("tmdb.min_request_spacing", d.TMDB.MinRequestSpacing)

	v.SetDefault("game.board_url", "")
	v.SetDefault("game.poll_interval", d.Game.PollInterval)

	v.SetDefault("engine.setup_turns", d.Engine.SetupTurns)
	v.SetDefault("engine.popularity_floor", d.Engine.PopularityFloor)
	v.SetDefault("engine.max_link_uses", d.Engine.MaxLinkUses)
	v.SetDefault("engine.max_people", d.Engine.MaxPeople)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Interval returns the board poll interval as a duration.
func (c *GameConfig) Interval() time.Duration {
	return time.Duration(c.PollInterval) * time.Millisecond
}

// Spacing returns the minimum spacing between provider requests.
func (c *TMDBConfig) Spacing() time.Duration {
	return time.Duration(c.MinRequestSpacing) * time.Millisecond
}
