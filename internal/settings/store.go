// Package settings persists the provider credential and the saved priority
// filter. Both survive a cache clear via the preserve list.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cinelink/cinelink/internal/engine"
)

const (
	KeyAPIKey         = "tmdb_api_key"
	KeyPriorityFilter = "priority_filter"
)

// PreservedKeys is the allow-list of settings that survive a cache clear.
var PreservedKeys = []string{KeyAPIKey, KeyPriorityFilter}

// Store reads and writes settings rows.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewStore creates a settings store on the given database.
func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "settings").Logger(),
	}
}

// Get returns the raw value for a key, or "" when unset.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	return value, nil
}

// Set writes a raw value for a key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}
	return nil
}

// APIKey returns the stored provider credential, or "" when none is
// configured. Implements tmdb.CredentialSource.
func (s *Store) APIKey(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyAPIKey)
}

// SetAPIKey stores the provider credential.
func (s *Store) SetAPIKey(ctx context.Context, key string) error {
	if err := s.Set(ctx, KeyAPIKey, key); err != nil {
		return err
	}
	s.logger.Info().Msg("API key updated")
	return nil
}

// PriorityFilter returns the saved filter, defaulting to an empty (inert)
// filter when unset or unreadable.
func (s *Store) PriorityFilter(ctx context.Context) (engine.PriorityFilter, error) {
	raw, err := s.Get(ctx, KeyPriorityFilter)
	if err != nil {
		return engine.PriorityFilter{}, err
	}
	if raw == "" {
		return engine.PriorityFilter{}, nil
	}

	var filter engine.PriorityFilter
	if err := json.Unmarshal([]byte(raw), &filter); err != nil {
		return engine.PriorityFilter{}, nil //nolint:nilerr // Invalid JSON, use empty filter
	}
	return filter, nil
}

// SetPriorityFilter stores the filter.
func (s *Store) SetPriorityFilter(ctx context.Context, filter engine.PriorityFilter) error {
	data, err := json.Marshal(filter)
	if err != nil {
		return err
	}
	if err := s.Set(ctx, KeyPriorityFilter, string(data)); err != nil {
		return err
	}
	s.logger.Info().
		Strs("genres", filter.Genres).
		Msg("Priority filter updated")
	return nil
}
