// Package bundle assembles and holds the playable-movie bundles the
// connection engine ranks against: the movie itself, its relevant cast and
// crew, and each person's full filmography.
package bundle

import (
	"fmt"
	"strings"
)

// Role classifies how a person is credited on the current movie.
type Role string

const (
	RolePerformer Role = "performer"
	RoleCrew      Role = "crew"
	RoleBoth      Role = "both"
)

// Person is one cast or crew member of the current movie.
// Identity is the provider's person id; a person credited both as performer
// and crew collapses to a single record with Role = both.
type Person struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Role       Role    `json:"role"`
	Job        string  `json:"job,omitempty"`
	Popularity float64 `json:"popularity"`
}

// Credit is one film in a person's filmography. A film appearing in many
// filmographies yields independent Credit copies, not a shared record.
type Credit struct {
	FilmID     int      `json:"filmId"`
	Title      string   `json:"title"`
	Year       int      `json:"year"`
	Genres     []string `json:"genres,omitempty"`
	Popularity float64  `json:"popularity"`
	Role       string   `json:"role"` // "performer" or the crew job
}

// Key returns the local composite key for the credit: "title (year)".
func (c Credit) Key() string {
	return fmt.Sprintf("%s (%d)", c.Title, c.Year)
}

// Filmography is one person's complete credit list. Immutable once fetched;
// cached until a manual cache clear.
type Filmography struct {
	PersonID    int      `json:"personId"`
	Credits     []Credit `json:"credits"`
	CreditCount int      `json:"creditCount"`
}

// MovieBundle is everything known about one playable movie: its identity,
// the people considered relevant (popularity-sorted, capped), and the
// filmography of each. Treated as complete and immutable once cached.
type MovieBundle struct {
	FilmID        int                  `json:"filmId"`
	Title         string               `json:"title"`
	Year          int                  `json:"year"`
	Genres        []string             `json:"genres,omitempty"`
	People        []Person             `json:"people"`
	Filmographies map[int]*Filmography `json:"filmographies"`
	Complete      bool                 `json:"complete"`
}

// Key returns the bundle's local composite key: "title (year)".
func (b *MovieBundle) Key() string {
	return fmt.Sprintf("%s (%d)", b.Title, b.Year)
}

// BundleKey builds the canonical cache key for a title/year pair.
// Keys are compared case-insensitively throughout.
func BundleKey(title string, year int) string {
	return strings.ToLower(fmt.Sprintf("%s (%d)", title, year))
}
