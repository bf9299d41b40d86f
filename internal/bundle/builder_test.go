package bundle

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cinelink/cinelink/internal/metadata/tmdb"
)

// fakeProvider serves canned responses and counts calls.
type fakeProvider struct {
	searchResults []tmdb.NormalizedMovieResult
	details       *tmdb.NormalizedMovieDetail
	credits       *tmdb.NormalizedCredits
	filmographies map[int]*tmdb.NormalizedPersonCredits
	failPersons   map[int]error

	searchCalls int
	personCalls int
}

func (p *fakeProvider) SearchMovies(_ context.Context, query string, year int) ([]tmdb.NormalizedMovieResult, error) {
	p.searchCalls++
	return p.searchResults, nil
}

func (p *fakeProvider) GetMovieDetails(_ context.Context, id int) (*tmdb.NormalizedMovieDetail, error) {
	if p.details == nil {
		return &tmdb.NormalizedMovieDetail{ID: id}, nil
	}
	return p.details, nil
}

func (p *fakeProvider) GetMovieCredits(_ context.Context, id int) (*tmdb.NormalizedCredits, error) {
	return p.credits, nil
}

func (p *fakeProvider) GetPersonCredits(_ context.Context, personID int) (*tmdb.NormalizedPersonCredits, error) {
	p.personCalls++
	if err, ok := p.failPersons[personID]; ok {
		return nil, err
	}
	if credits, ok := p.filmographies[personID]; ok {
		return credits, nil
	}
	return &tmdb.NormalizedPersonCredits{PersonID: personID}, nil
}

// memCache is an in-memory Cache implementation.
type memCache struct {
	bundles       map[string]*MovieBundle
	filmographies map[int]*Filmography
}

func newMemCache() *memCache {
	return &memCache{
		bundles:       make(map[string]*MovieBundle),
		filmographies: make(map[int]*Filmography),
	}
}

func (c *memCache) GetBundle(_ context.Context, key string) (*MovieBundle, error) {
	return c.bundles[key], nil
}

func (c *memCache) PutBundle(_ context.Context, key string, b *MovieBundle) error {
	c.bundles[key] = b
	return nil
}

func (c *memCache) GetFilmography(_ context.Context, personID int) (*Filmography, error) {
	return c.filmographies[personID], nil
}

func (c *memCache) PutFilmography(_ context.Context, f *Filmography) error {
	c.filmographies[f.PersonID] = f
	return nil
}

func personCredits(personID int, films ...int) *tmdb.NormalizedPersonCredits {
	credits := &tmdb.NormalizedPersonCredits{PersonID: personID}
	for _, filmID := range films {
		credits.Cast = append(credits.Cast, tmdb.NormalizedPersonCredit{
			FilmID: filmID,
			Title:  fmt.Sprintf("Film %d", filmID),
			Year:   2000,
			Role:   "performer",
		})
	}
	return credits
}

func newTestProvider() *fakeProvider {
	return &fakeProvider{
		searchResults: []tmdb.NormalizedMovieResult{
			{ID: 949, Title: "Heat", Year: 1995, Popularity: 45.2},
		},
		details: &tmdb.NormalizedMovieDetail{
			ID: 949, Title: "Heat", Year: 1995, Genres: []string{"Action", "Crime"},
		},
		credits: &tmdb.NormalizedCredits{
			Cast: []tmdb.NormalizedCastMember{
				{PersonID: 1, Name: "Al Pacino", Popularity: 60},
				{PersonID: 2, Name: "Robert De Niro", Popularity: 55},
			},
			Crew: []tmdb.NormalizedCrewMember{
				{PersonID: 3, Name: "Michael Mann", Job: "Director", Popularity: 25},
				{PersonID: 4, Name: "Dante Spinotti", Job: "Director of Photography", Popularity: 5},
				{PersonID: 5, Name: "Key Grip Person", Job: "Key Grip", Popularity: 99},
			},
		},
		filmographies: map[int]*tmdb.NormalizedPersonCredits{
			1: personCredits(1, 101, 102, 103),
			2: personCredits(2, 102, 104),
			3: personCredits(3, 105),
			4: personCredits(4, 106),
		},
		failPersons: map[int]error{},
	}
}

func TestBuilder_Build(t *testing.T) {
	provider := newTestProvider()
	cache := newMemCache()
	builder := NewBuilder(provider, cache, 30, zerolog.Nop())

	b, err := builder.Build(context.Background(), "Heat", 1995)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if b.FilmID != 949 {
		t.Errorf("FilmID = %d, want 949", b.FilmID)
	}
	if !b.Complete {
		t.Error("bundle not marked complete")
	}
	if len(b.Genres) != 2 {
		t.Errorf("Genres = %v, want [Action Crime]", b.Genres)
	}

	// The Key Grip credit is not in the crew allow-list.
	if len(b.People) != 4 {
		t.Fatalf("People = %d, want 4 (grip excluded)", len(b.People))
	}
	for _, p := range b.People {
		if p.ID == 5 {
			t.Error("disallowed crew job retained")
		}
	}

	// People sorted by popularity descending.
	for i := 1; i < len(b.People); i++ {
		if b.People[i-1].Popularity < b.People[i].Popularity {
			t.Errorf("people not sorted by popularity at %d", i)
		}
	}

	if len(b.Filmographies) != 4 {
		t.Errorf("Filmographies = %d, want 4", len(b.Filmographies))
	}
	if got := b.Filmographies[1].CreditCount; got != 3 {
		t.Errorf("person 1 credit count = %d, want 3", got)
	}
}

func TestBuilder_BothRolePersonCollapses(t *testing.T) {
	provider := newTestProvider()
	// Mann also acts in the movie.
	provider.credits.Cast = append(provider.credits.Cast,
		tmdb.NormalizedCastMember{PersonID: 3, Name: "Michael Mann", Popularity: 25})

	builder := NewBuilder(provider, newMemCache(), 30, zerolog.Nop())
	b, err := builder.Build(context.Background(), "Heat", 1995)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var mann *Person
	count := 0
	for i := range b.People {
		if b.People[i].ID == 3 {
			mann = &b.People[i]
			count++
		}
	}
	if count != 1 {
		t.Fatalf("person 3 appears %d times, want 1", count)
	}
	if mann.Role != RoleBoth {
		t.Errorf("Role = %q, want both", mann.Role)
	}
	if mann.Job != "Director" {
		t.Errorf("Job = %q, want Director (crew job retained)", mann.Job)
	}
}

func TestBuilder_PeopleCap(t *testing.T) {
	provider := newTestProvider()
	provider.credits = &tmdb.NormalizedCredits{}
	for i := 1; i <= 40; i++ {
		provider.credits.Cast = append(provider.credits.Cast, tmdb.NormalizedCastMember{
			PersonID:   i,
			Name:       fmt.Sprintf("Actor %d", i),
			Popularity: float64(i),
		})
	}

	builder := NewBuilder(provider, newMemCache(), 30, zerolog.Nop())
	b, err := builder.Build(context.Background(), "Heat", 1995)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(b.People) != 30 {
		t.Fatalf("People = %d, want 30 (capped)", len(b.People))
	}
	// The cap keeps the most popular people.
	if b.People[0].Popularity != 40 {
		t.Errorf("top person popularity = %v, want 40", b.People[0].Popularity)
	}
	if provider.personCalls != 30 {
		t.Errorf("filmography fetches = %d, want 30 (cap bounds provider calls)", provider.personCalls)
	}
}

func TestBuilder_PartialFilmographyFailure(t *testing.T) {
	provider := newTestProvider()
	provider.failPersons[2] = tmdb.ErrAPIError

	builder := NewBuilder(provider, newMemCache(), 30, zerolog.Nop())
	b, err := builder.Build(context.Background(), "Heat", 1995)
	if err != nil {
		t.Fatalf("Build() error = %v, want nil (person failure is non-fatal)", err)
	}

	if _, ok := b.Filmographies[2]; ok {
		t.Error("failed person present in filmography map")
	}
	if len(b.Filmographies) != 3 {
		t.Errorf("Filmographies = %d, want 3", len(b.Filmographies))
	}
	if !b.Complete {
		t.Error("bundle with an omitted person must still be complete")
	}
}

func TestBuilder_NotFound(t *testing.T) {
	provider := newTestProvider()
	provider.searchResults = nil

	builder := NewBuilder(provider, newMemCache(), 30, zerolog.Nop())
	_, err := builder.Build(context.Background(), "No Such Movie", 1900)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Build() error = %v, want ErrNotFound", err)
	}
}

func TestBuilder_CacheHitSkipsProvider(t *testing.T) {
	provider := newTestProvider()
	cache := newMemCache()
	builder := NewBuilder(provider, cache, 30, zerolog.Nop())

	if _, err := builder.Build(context.Background(), "Heat", 1995); err != nil {
		t.Fatalf("first Build() error = %v", err)
	}
	firstSearches := provider.searchCalls

	if _, err := builder.Build(context.Background(), "HEAT", 1995); err != nil {
		t.Fatalf("second Build() error = %v", err)
	}
	if provider.searchCalls != firstSearches {
		t.Error("cached build hit the provider again")
	}
}

func TestBuilder_FilmographyCacheShared(t *testing.T) {
	provider := newTestProvider()
	cache := newMemCache()
	builder := NewBuilder(provider, cache, 30, zerolog.Nop())

	if _, err := builder.Build(context.Background(), "Heat", 1995); err != nil {
		t.Fatalf("first Build() error = %v", err)
	}
	callsAfterFirst := provider.personCalls

	// A different movie with the same people reuses cached filmographies.
	provider.searchResults = []tmdb.NormalizedMovieResult{
		{ID: 111, Title: "Scarface", Year: 1983, Popularity: 55},
	}
	if _, err := builder.Build(context.Background(), "Scarface", 1983); err != nil {
		t.Fatalf("second Build() error = %v", err)
	}

	if provider.personCalls != callsAfterFirst {
		t.Errorf("filmography fetches grew from %d to %d, want cache reuse", callsAfterFirst, provider.personCalls)
	}
}

func TestBuildFilmography_PerformerWinsDedup(t *testing.T) {
	credits := &tmdb.NormalizedPersonCredits{
		PersonID: 7,
		Cast: []tmdb.NormalizedPersonCredit{
			{FilmID: 1, Title: "Dual", Year: 2001, Role: "performer"},
		},
		Crew: []tmdb.NormalizedPersonCredit{
			{FilmID: 1, Title: "Dual", Year: 2001, Role: "Director"},
			{FilmID: 2, Title: "Crew Only", Year: 2002, Role: "Director"},
			{FilmID: 3, Title: "Undated", Year: 0, Role: "Director"},
		},
	}

	f := buildFilmography(7, credits)

	if f.CreditCount != 2 {
		t.Fatalf("CreditCount = %d, want 2 (dedup + undated dropped)", f.CreditCount)
	}
	if f.Credits[0].Role != "performer" {
		t.Errorf("dual credit role = %q, want performer (cast wins)", f.Credits[0].Role)
	}
}
