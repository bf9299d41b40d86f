package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Address() != "127.0.0.1:7474" {
		t.Errorf("Address() = %q, want 127.0.0.1:7474", cfg.Server.Address())
	}
	if cfg.TMDB.BaseURL != "https://api.themoviedb.org/3" {
		t.Errorf("BaseURL = %q", cfg.TMDB.BaseURL)
	}
	if cfg.TMDB.Spacing() != 250*time.Millisecond {
		t.Errorf("Spacing() = %v, want 250ms", cfg.TMDB.Spacing())
	}
	if cfg.Game.Interval() != 500*time.Millisecond {
		t.Errorf("Interval() = %v, want 500ms", cfg.Game.Interval())
	}
	if cfg.Game.BoardURL != "" {
		t.Errorf("BoardURL = %q, want empty default", cfg.Game.BoardURL)
	}
	if cfg.Engine.SetupTurns != 3 || cfg.Engine.PopularityFloor != 8.0 {
		t.Errorf("engine defaults = %+v", cfg.Engine)
	}
	if cfg.Engine.MaxLinkUses != 3 || cfg.Engine.MaxPeople != 30 {
		t.Errorf("engine defaults = %+v", cfg.Engine)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
game:
  board_url: http://localhost:3000/board
  poll_interval: 250
engine:
  popularity_floor: 5.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want default retained", cfg.Server.Host)
	}
	if cfg.Game.BoardURL != "http://localhost:3000/board" {
		t.Errorf("BoardURL = %q", cfg.Game.BoardURL)
	}
	if cfg.Game.Interval() != 250*time.Millisecond {
		t.Errorf("Interval() = %v, want 250ms", cfg.Game.Interval())
	}
	if cfg.Engine.PopularityFloor != 5.5 {
		t.Errorf("PopularityFloor = %v, want 5.5", cfg.Engine.PopularityFloor)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CINELINK_SERVER_PORT", "8181")
	t.Setenv("CINELINK_GAME_BOARD_URL", "http://127.0.0.1:3000/board")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8181 {
		t.Errorf("Port = %d, want env override 8181", cfg.Server.Port)
	}
	if cfg.Game.BoardURL != "http://127.0.0.1:3000/board" {
		t.Errorf("BoardURL = %q, want env override", cfg.Game.BoardURL)
	}
}
