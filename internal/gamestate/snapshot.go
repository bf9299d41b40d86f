// Package gamestate models the observable state of the live game board and
// provides a scraper that reads it from the board page markup.
package gamestate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Snapshot is an immutable picture of the board at one poll tick. The
// connection engine depends only on this, never on how it was obtained.
type Snapshot struct {
	// CurrentTitle/CurrentYear identify the unplayed movie awaiting a move,
	// when there is one.
	CurrentTitle string `json:"currentTitle"`
	CurrentYear  int    `json:"currentYear"`

	// Played holds the composite keys ("title (year)") of movies already
	// played this game, in board order. Includes the starting movie.
	Played []string `json:"played"`

	// UsedLinks holds the person names already displayed as used
	// connections, one entry per display (names repeat on reuse).
	UsedLinks []string `json:"usedLinks"`

	MyTurn   bool `json:"myTurn"`
	GameOver bool `json:"gameOver"`

	// Now is the wall-clock time the snapshot was taken. The engine derives
	// the current year from it, which keeps ranking a pure function.
	Now time.Time `json:"now"`
}

// Source produces board snapshots. Implementations must be safe to call
// repeatedly from the poll loop.
type Source interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// HasCurrent reports whether an unplayed movie is on the board.
func (s *Snapshot) HasCurrent() bool {
	return s != nil && s.CurrentTitle != ""
}

// CurrentKey returns the composite key of the current movie, lowercased.
func (s *Snapshot) CurrentKey() string {
	if !s.HasCurrent() {
		return ""
	}
	return strings.ToLower(fmt.Sprintf("%s (%d)", s.CurrentTitle, s.CurrentYear))
}

// PlayedSet returns the played keys as a lowercase lookup set.
func (s *Snapshot) PlayedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.Played))
	for _, key := range s.Played {
		set[strings.ToLower(key)] = struct{}{}
	}
	return set
}

// UsageCounts returns how many times each connection name has been used,
// keyed by lowercase name. Recomputed from the snapshot every evaluation.
func (s *Snapshot) UsageCounts() map[string]int {
	counts := make(map[string]int, len(s.UsedLinks))
	for _, name := range s.UsedLinks {
		counts[strings.ToLower(name)]++
	}
	return counts
}
