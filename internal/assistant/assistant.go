// Package assistant ties the poll loop together: watch the board, build a
// bundle when the active movie changes, rank the candidates, and push the
// result to clients. It recommends moves; it never plays them.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cinelink/cinelink/internal/bundle"
	"github.com/cinelink/cinelink/internal/engine"
	"github.com/cinelink/cinelink/internal/gamestate"
	"github.com/cinelink/cinelink/internal/metadata/tmdb"
	"github.com/cinelink/cinelink/internal/settings"
)

// BundleBuilder is the slice of the bundle builder the assistant consumes.
type BundleBuilder interface {
	Build(ctx context.Context, title string, year int) (*bundle.MovieBundle, error)
}

// Broadcaster pushes updates to connected clients.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// Status is the assistant's user-visible state.
type Status struct {
	Configured    bool       `json:"configured"`
	SessionID     string     `json:"sessionId,omitempty"`
	CurrentMovie  string     `json:"currentMovie,omitempty"`
	PlayedCount   int        `json:"playedCount"`
	MyTurn        bool       `json:"myTurn"`
	GameOver      bool       `json:"gameOver"`
	OptionCount   int        `json:"optionCount"`
	LastError     string     `json:"lastError,omitempty"`
	LastEvaluated *time.Time `json:"lastEvaluated,omitempty"`
}

// Assistant owns the live evaluation state. All mutation happens on the
// poll goroutine; accessors take the lock.
type Assistant struct {
	builder  BundleBuilder
	source   gamestate.Source
	settings *settings.Store
	hub      Broadcaster
	params   engine.Params
	logger   zerolog.Logger

	mu        sync.Mutex
	sessionID string
	snapshot  *gamestate.Snapshot
	bundle    *bundle.MovieBundle
	bundleKey string
	options   []engine.Option
	lastErr   string
	lastEval  time.Time
	boardDown bool
}

// New creates an assistant.
func New(builder BundleBuilder, source gamestate.Source, store *settings.Store, hub Broadcaster, params engine.Params, logger zerolog.Logger) *Assistant {
	return &Assistant{
		builder:  builder,
		source:   source,
		settings: store,
		hub:      hub,
		params:   params,
		logger:   logger.With().Str("component", "assistant").Logger(),
		options:  []engine.Option{},
	}
}

// Tick runs one poll cycle: snapshot the board, rebuild the bundle if the
// active movie changed, re-rank, and broadcast when anything moved. Called
// from the scheduler; never overlaps itself.
func (a *Assistant) Tick(ctx context.Context) error {
	snap, err := a.source.Snapshot(ctx)
	if err != nil {
		a.mu.Lock()
		if !a.boardDown {
			a.logger.Warn().Err(err).Msg("Board snapshot failed")
			a.boardDown = true
		}
		a.mu.Unlock()
		return nil
	}

	a.mu.Lock()
	if a.boardDown {
		a.logger.Info().Msg("Board reachable again")
		a.boardDown = false
	}

	prev := a.snapshot
	a.snapshot = snap

	if snap.GameOver {
		changed := a.bundle != nil || a.sessionID != ""
		a.bundle = nil
		a.bundleKey = ""
		a.options = []engine.Option{}
		a.sessionID = ""
		a.mu.Unlock()
		if changed {
			a.logger.Info().Msg("Game over, cleared live state")
			a.broadcast()
		}
		return nil
	}

	needBuild := snap.HasCurrent() && snap.CurrentKey() != a.bundleKey
	if needBuild && a.sessionID == "" {
		a.sessionID = uuid.NewString()
		a.logger.Info().Str("session", a.sessionID).Msg("New game detected")
	}
	session := a.sessionID
	a.mu.Unlock()

	if needBuild {
		a.buildFor(ctx, snap, session)
	}

	if needBuild || snapshotChanged(prev, snap) {
		a.evaluate(ctx)
		a.broadcast()
	}

	return nil
}

// buildFor builds the bundle for the snapshot's current movie. There is no
// cancellation: a build superseded by a faster board change still runs to
// completion and its result is applied late.
func (a *Assistant) buildFor(ctx context.Context, snap *gamestate.Snapshot, session string) {
	a.logger.Info().
		Str("session", session).
		Str("movie", snap.CurrentKey()).
		Msg("Building bundle for current movie")

	b, err := a.builder.Build(ctx, snap.CurrentTitle, snap.CurrentYear)

	a.mu.Lock()
	defer a.mu.Unlock()

	// Record the key either way: failures are not retried until the board
	// changes again.
	a.bundleKey = snap.CurrentKey()

	if err != nil {
		a.bundle = nil
		a.lastErr = buildErrorMessage(err, snap)
		a.logger.Error().Err(err).Str("movie", snap.CurrentKey()).Msg("Bundle build failed")
		return
	}

	a.bundle = b
	a.lastErr = ""
}

// evaluate recomputes the ranked options from the held bundle and snapshot.
func (a *Assistant) evaluate(ctx context.Context) {
	filter, err := a.settings.PriorityFilter(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to load priority filter, using none")
		filter = engine.PriorityFilter{}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.options = engine.Rank(a.bundle, a.snapshot, filter, a.params)
	a.lastEval = time.Now()
}

// SetPriorityFilter persists the filter and re-ranks immediately.
func (a *Assistant) SetPriorityFilter(ctx context.Context, filter engine.PriorityFilter) error {
	if err := a.settings.SetPriorityFilter(ctx, filter); err != nil {
		return err
	}
	a.evaluate(ctx)
	a.broadcast()
	return nil
}

// Options returns the current ranked options.
func (a *Assistant) Options() []engine.Option {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]engine.Option, len(a.options))
	copy(out, a.options)
	return out
}

// Status returns the assistant's user-visible state.
func (a *Assistant) Status(ctx context.Context) Status {
	key, _ := a.settings.APIKey(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()

	status := Status{
		Configured:  key != "",
		SessionID:   a.sessionID,
		OptionCount: len(a.options),
		LastError:   a.lastErr,
	}
	if !a.lastEval.IsZero() {
		t := a.lastEval
		status.LastEvaluated = &t
	}
	if a.snapshot != nil {
		if a.snapshot.HasCurrent() {
			status.CurrentMovie = fmt.Sprintf("%s (%d)", a.snapshot.CurrentTitle, a.snapshot.CurrentYear)
		}
		status.PlayedCount = len(a.snapshot.Played)
		status.MyTurn = a.snapshot.MyTurn
		status.GameOver = a.snapshot.GameOver
	}
	return status
}

// broadcast pushes the current options to connected clients.
func (a *Assistant) broadcast() {
	if a.hub == nil {
		return
	}

	a.mu.Lock()
	payload := map[string]interface{}{
		"options":   a.options,
		"lastError": a.lastErr,
	}
	a.mu.Unlock()

	if err := a.hub.Broadcast("options:update", payload); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to broadcast options")
	}
}

// buildErrorMessage maps a build failure to the status message shown to the
// user.
func buildErrorMessage(err error, snap *gamestate.Snapshot) string {
	switch {
	case errors.Is(err, tmdb.ErrAPIKeyMissing):
		return "TMDB API key is not configured"
	case errors.Is(err, bundle.ErrNotFound):
		return fmt.Sprintf("no TMDB match for %s (%d)", snap.CurrentTitle, snap.CurrentYear)
	default:
		return fmt.Sprintf("bundle build failed: %v", err)
	}
}

// snapshotChanged reports whether the parts of the board the engine cares
// about differ between two snapshots.
func snapshotChanged(prev, next *gamestate.Snapshot) bool {
	if prev == nil {
		return true
	}
	return prev.CurrentKey() != next.CurrentKey() ||
		len(prev.Played) != len(next.Played) ||
		len(prev.UsedLinks) != len(next.UsedLinks) ||
		prev.MyTurn != next.MyTurn ||
		prev.GameOver != next.GameOver
}
