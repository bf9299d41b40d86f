// Package engine ranks candidate connection moves. Rank is a pure function
// of the movie bundle, the board snapshot, and the priority filter: it has
// no side effects, is recomputed on every evaluation, and never fails —
// missing or malformed data degrades to an empty result.
package engine

import (
	"sort"
	"strings"

	"github.com/cinelink/cinelink/internal/bundle"
	"github.com/cinelink/cinelink/internal/gamestate"
)

// Option is one candidate next-movie, reachable from the current movie via
// a shared cast or crew member.
type Option struct {
	FilmID int    `json:"filmId"`
	Title  string `json:"title"`
	Year   int    `json:"year"`
	Key    string `json:"key"`

	// Via identifies the connection person.
	Via     string `json:"via"`
	ViaID   int    `json:"viaId"`
	ViaRole string `json:"viaRole"`

	// Score is the connection person's total filmography size. A person
	// with more credits offers more future escape routes, independent of
	// how famous the shared film is.
	Score int `json:"score"`

	IsPriority bool `json:"isPriority"`
	IsTop5000  bool `json:"isTop5000"`
}

// Params holds the game-rule constants the engine mirrors.
type Params struct {
	// SetupTurns is how many played movies keep the game in its setup
	// phase, during which only well-known films are valid moves.
	SetupTurns int

	// PopularityFloor approximates the game's unpublished "top 5000 films"
	// cutoff.
	PopularityFloor float64

	// MaxLinkUses retires a connection name after this many uses.
	MaxLinkUses int
}

// DefaultParams returns the standard game rule constants.
func DefaultParams() Params {
	return Params{
		SetupTurns:      3,
		PopularityFloor: 8.0,
		MaxLinkUses:     3,
	}
}

// Rank produces the ordered, deduplicated candidate list for the given
// bundle and board state. All filtering is by omission; nil inputs yield an
// empty slice.
func Rank(b *bundle.MovieBundle, state *gamestate.Snapshot, filter PriorityFilter, params Params) []Option {
	if b == nil || state == nil {
		return []Option{}
	}

	isSetupPhase := len(state.Played) <= params.SetupTurns
	played := state.PlayedSet()
	usage := state.UsageCounts()
	currentYear := state.Now.Year()

	// Iterate the People slice, not the filmography map, so encounter order
	// is deterministic: ties keep people-then-credits order.
	options := make([]Option, 0, 64)
	for _, person := range b.People {
		if usage[strings.ToLower(person.Name)] >= params.MaxLinkUses {
			continue
		}

		filmography := b.Filmographies[person.ID]
		if filmography == nil {
			continue
		}

		for _, credit := range filmography.Credits {
			if _, ok := played[strings.ToLower(credit.Key())]; ok {
				continue
			}
			if credit.Year <= 0 || credit.Year >= currentYear {
				continue
			}
			if credit.FilmID == b.FilmID {
				continue
			}

			isTop5000 := credit.Popularity >= params.PopularityFloor
			if isSetupPhase && !isTop5000 {
				continue
			}

			options = append(options, Option{
				FilmID:     credit.FilmID,
				Title:      credit.Title,
				Year:       credit.Year,
				Key:        credit.Key(),
				Via:        person.Name,
				ViaID:      person.ID,
				ViaRole:    credit.Role,
				Score:      filmography.CreditCount,
				IsPriority: filter.Matches(credit.Genres, credit.Year),
				IsTop5000:  isTop5000,
			})
		}
	}

	// Priority options first, then score descending; stable so ties keep
	// encounter order.
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].IsPriority != options[j].IsPriority {
			return options[i].IsPriority
		}
		return options[i].Score > options[j].Score
	})

	return dedupeByFilm(options)
}

// dedupeByFilm keeps the first (highest-ranked) option per film: a movie
// reachable via several people shows only its best connection.
func dedupeByFilm(options []Option) []Option {
	seen := make(map[int]struct{}, len(options))
	deduped := make([]Option, 0, len(options))
	for _, option := range options {
		if _, ok := seen[option.FilmID]; ok {
			continue
		}
		seen[option.FilmID] = struct{}{}
		deduped = append(deduped, option)
	}
	return deduped
}
