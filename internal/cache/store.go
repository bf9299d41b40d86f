// Package cache is the persistent key-value store for fetched movie bundles
// and per-person filmographies. Entries never expire on their own; staleness
// is resolved only by an explicit clear.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cinelink/cinelink/internal/bundle"
)

// Store is a sqlite-backed cache.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Stats reports cache row counts.
type Stats struct {
	Bundles       int `json:"bundles"`
	Filmographies int `json:"filmographies"`
}

// NewStore creates a cache store on the given database.
func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

// GetBundle returns the cached bundle for a key, or nil when absent.
func (s *Store) GetBundle(ctx context.Context, key string) (*bundle.MovieBundle, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM bundles WHERE key = ?`, strings.ToLower(key)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle: %w", err)
	}

	var b bundle.MovieBundle
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, fmt.Errorf("failed to decode bundle: %w", err)
	}
	return &b, nil
}

// PutBundle stores a bundle under the given key.
func (s *Store) PutBundle(ctx context.Context, key string, b *bundle.MovieBundle) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}

	complete := 0
	if b.Complete {
		complete = 1
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bundles (key, data, complete) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, complete = excluded.complete`,
		strings.ToLower(key), string(data), complete)
	if err != nil {
		return fmt.Errorf("failed to write bundle: %w", err)
	}
	return nil
}

// GetFilmography returns the cached filmography for a person, or nil when
// absent.
func (s *Store) GetFilmography(ctx context.Context, personID int) (*bundle.Filmography, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM filmographies WHERE person_id = ?`, personID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read filmography: %w", err)
	}

	var f bundle.Filmography
	if err := json.Unmarshal([]byte(data), &f); err != nil {
		return nil, fmt.Errorf("failed to decode filmography: %w", err)
	}
	return &f, nil
}

// PutFilmography stores a person's filmography.
func (s *Store) PutFilmography(ctx context.Context, f *bundle.Filmography) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode filmography: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO filmographies (person_id, data) VALUES (?, ?)
		 ON CONFLICT(person_id) DO UPDATE SET data = excluded.data`,
		f.PersonID, string(data))
	if err != nil {
		return fmt.Errorf("failed to write filmography: %w", err)
	}
	return nil
}

// Clear wipes all cached bundles and filmographies. Settings rows named in
// preserve survive the clear; everything else in the settings table goes
// too, mirroring a full wipe of the app's local storage.
func (s *Store) Clear(ctx context.Context, preserve ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin clear: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bundles`); err != nil {
		return fmt.Errorf("failed to clear bundles: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM filmographies`); err != nil {
		return fmt.Errorf("failed to clear filmographies: %w", err)
	}

	if len(preserve) == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM settings`); err != nil {
			return fmt.Errorf("failed to clear settings: %w", err)
		}
	} else {
		placeholders := strings.Repeat("?,", len(preserve))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]interface{}, len(preserve))
		for i, key := range preserve {
			args[i] = key
		}
		query := fmt.Sprintf(`DELETE FROM settings WHERE key NOT IN (%s)`, placeholders)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to clear settings: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}

	s.logger.Info().Strs("preserved", preserve).Msg("Cache cleared")
	return nil
}

// Stats returns current cache row counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bundles`).Scan(&stats.Bundles); err != nil {
		return stats, fmt.Errorf("failed to count bundles: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM filmographies`).Scan(&stats.Filmographies); err != nil {
		return stats, fmt.Errorf("failed to count filmographies: %w", err)
	}
	return stats, nil
}
