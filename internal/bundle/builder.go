package bundle

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/cinelink/cinelink/internal/metadata/tmdb"
)

var ErrNotFound = errors.New("movie not found")

// crewJobs is the allow-list of crew jobs considered valid connections.
// Everyone else on the crew is invisible to the engine.
var crewJobs = map[string]bool{
	"Director":                true,
	"Writer":                  true,
	"Screenplay":              true,
	"Director of Photography": true,
	"Original Music Composer": true,
	"Music":                   true,
}

// Provider is the slice of the metadata client the builder consumes.
type Provider interface {
	SearchMovies(ctx context.Context, query string, year int) ([]tmdb.NormalizedMovieResult, error)
	GetMovieDetails(ctx context.Context, id int) (*tmdb.NormalizedMovieDetail, error)
	GetMovieCredits(ctx context.Context, id int) (*tmdb.NormalizedCredits, error)
	GetPersonCredits(ctx context.Context, personID int) (*tmdb.NormalizedPersonCredits, error)
}

// Cache persists bundles and filmographies between games. A nil, nil return
// from the getters means absent.
type Cache interface {
	GetBundle(ctx context.Context, key string) (*MovieBundle, error)
	PutBundle(ctx context.Context, key string, b *MovieBundle) error
	GetFilmography(ctx context.Context, personID int) (*Filmography, error)
	PutFilmography(ctx context.Context, f *Filmography) error
}

// Builder assembles movie bundles from the provider, reading and writing
// through the cache.
type Builder struct {
	provider  Provider
	cache     Cache
	maxPeople int
	logger    zerolog.Logger
}

// NewBuilder creates a bundle builder. maxPeople caps how many people are
// retained per movie; values below 1 fall back to 30.
func NewBuilder(provider Provider, cache Cache, maxPeople int, logger zerolog.Logger) *Builder {
	if maxPeople < 1 {
		maxPeople = 30
	}
	return &Builder{
		provider:  provider,
		cache:     cache,
		maxPeople: maxPeople,
		logger:    logger.With().Str("component", "bundle-builder").Logger(),
	}
}

// Build resolves a title/year to a complete movie bundle. Idempotent per
// key: a complete cached bundle is returned as-is. A failure fetching one
// person's filmography omits that person; it does not fail the bundle.
func (b *Builder) Build(ctx context.Context, title string, year int) (*MovieBundle, error) {
	key := BundleKey(title, year)

	if cached, err := b.cache.GetBundle(ctx, key); err != nil {
		b.logger.Warn().Err(err).Str("key", key).Msg("Bundle cache read failed")
	} else if cached != nil && cached.Complete {
		b.logger.Debug().Str("key", key).Msg("Bundle cache hit")
		return cached, nil
	}

	results, err := b.provider.SearchMovies(ctx, title, year)
	if err != nil {
		return nil, fmt.Errorf("search failed for %q: %w", title, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s (%d)", ErrNotFound, title, year)
	}

	// Always the first search result; the game resolves titles the same way.
	match := results[0]

	details, err := b.provider.GetMovieDetails(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("details fetch failed for %q: %w", title, err)
	}

	credits, err := b.provider.GetMovieCredits(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("credits fetch failed for %q: %w", title, err)
	}

	people := mergePeople(credits)
	sort.SliceStable(people, func(i, j int) bool {
		return people[i].Popularity > people[j].Popularity
	})
	if len(people) > b.maxPeople {
		people = people[:b.maxPeople]
	}

	result := &MovieBundle{
		FilmID:        match.ID,
		Title:         match.Title,
		Year:          match.Year,
		Genres:        details.Genres,
		People:        people,
		Filmographies: make(map[int]*Filmography, len(people)),
	}

	// One person at a time; throughput is bounded by the provider throttle.
	for _, person := range people {
		filmography, err := b.filmography(ctx, person.ID)
		if err != nil {
			b.logger.Warn().
				Err(err).
				Int("personId", person.ID).
				Str("name", person.Name).
				Msg("Failed to fetch filmography, omitting person")
			continue
		}
		result.Filmographies[person.ID] = filmography
	}

	// Cached under the requested key, not the resolved title, so the next
	// lookup for the same board text hits.
	result.Complete = true
	if err := b.cache.PutBundle(ctx, key, result); err != nil {
		b.logger.Warn().Err(err).Str("key", key).Msg("Bundle cache write failed")
	}

	b.logger.Info().
		Str("key", result.Key()).
		Int("people", len(result.People)).
		Int("filmographies", len(result.Filmographies)).
		Msg("Built movie bundle")

	return result, nil
}

// filmography returns a person's filmography, from cache when present.
func (b *Builder) filmography(ctx context.Context, personID int) (*Filmography, error) {
	if cached, err := b.cache.GetFilmography(ctx, personID); err != nil {
		b.logger.Warn().Err(err).Int("personId", personID).Msg("Filmography cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	credits, err := b.provider.GetPersonCredits(ctx, personID)
	if err != nil {
		return nil, err
	}

	filmography := buildFilmography(personID, credits)
	if err := b.cache.PutFilmography(ctx, filmography); err != nil {
		b.logger.Warn().Err(err).Int("personId", personID).Msg("Filmography cache write failed")
	}

	return filmography, nil
}

// mergePeople combines performer and allow-listed crew credits into a
// deduplicated person set. A person present in both lists keeps the crew
// job and is marked role = both.
func mergePeople(credits *tmdb.NormalizedCredits) []Person {
	byID := make(map[int]*Person)
	order := make([]int, 0, len(credits.Cast)+len(credits.Crew))

	for _, member := range credits.Cast {
		if _, ok := byID[member.PersonID]; ok {
			continue
		}
		byID[member.PersonID] = &Person{
			ID:         member.PersonID,
			Name:       member.Name,
			Role:       RolePerformer,
			Popularity: member.Popularity,
		}
		order = append(order, member.PersonID)
	}

	for _, member := range credits.Crew {
		if !crewJobs[member.Job] {
			continue
		}
		if existing, ok := byID[member.PersonID]; ok {
			existing.Role = RoleBoth
			if existing.Job == "" {
				existing.Job = member.Job
			}
			continue
		}
		byID[member.PersonID] = &Person{
			ID:         member.PersonID,
			Name:       member.Name,
			Role:       RoleCrew,
			Job:        member.Job,
			Popularity: member.Popularity,
		}
		order = append(order, member.PersonID)
	}

	people := make([]Person, 0, len(order))
	for _, id := range order {
		people = append(people, *byID[id])
	}
	return people
}

// buildFilmography filters a person's combined credits to dated films and
// dedupes by film id, performer entries winning over crew entries.
func buildFilmography(personID int, credits *tmdb.NormalizedPersonCredits) *Filmography {
	byFilm := make(map[int]struct{})
	merged := make([]Credit, 0, len(credits.Cast)+len(credits.Crew))

	add := func(source []tmdb.NormalizedPersonCredit) {
		for _, credit := range source {
			if credit.Year == 0 {
				continue // no known release date
			}
			if _, ok := byFilm[credit.FilmID]; ok {
				continue
			}
			byFilm[credit.FilmID] = struct{}{}
			merged = append(merged, Credit{
				FilmID:     credit.FilmID,
				Title:      credit.Title,
				Year:       credit.Year,
				Genres:     credit.Genres,
				Popularity: credit.Popularity,
				Role:       credit.Role,
			})
		}
	}

	// Cast first so a performer entry wins when the film appears in both.
	add(credits.Cast)
	add(credits.Crew)

	return &Filmography{
		PersonID:    personID,
		Credits:     merged,
		CreditCount: len(merged),
	}
}
