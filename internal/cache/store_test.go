package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cinelink/cinelink/internal/bundle"
	"github.com/cinelink/cinelink/internal/testutil"
)

func testBundle(key string) *bundle.MovieBundle {
	return &bundle.MovieBundle{
		FilmID: 949,
		Title:  "Heat",
		Year:   1995,
		Genres: []string{"Action", "Crime"},
		People: []bundle.Person{
			{ID: 1158, Name: "Al Pacino", Role: bundle.RolePerformer, Popularity: 60},
		},
		Filmographies: map[int]*bundle.Filmography{
			1158: {
				PersonID: 1158,
				Credits: []bundle.Credit{
					{FilmID: 111, Title: "Scarface", Year: 1983, Genres: []string{"Crime"}, Role: "performer"},
				},
				CreditCount: 1,
			},
		},
		Complete: true,
	}
}

func TestStore_BundleRoundtrip(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	store := NewStore(tdb.Conn, tdb.Logger)
	ctx := context.Background()

	got, err := store.GetBundle(ctx, "heat (1995)")
	require.NoError(t, err)
	require.Nil(t, got, "miss should return nil, nil")

	require.NoError(t, store.PutBundle(ctx, "heat (1995)", testBundle("heat (1995)")))

	got, err = store.GetBundle(ctx, "Heat (1995)")
	require.NoError(t, err)
	require.NotNil(t, got, "key lookup must be case-insensitive")
	require.Equal(t, 949, got.FilmID)
	require.True(t, got.Complete)
	require.Len(t, got.Filmographies, 1)
	require.Equal(t, 1, got.Filmographies[1158].CreditCount)
}

func TestStore_PutBundleUpserts(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	store := NewStore(tdb.Conn, tdb.Logger)
	ctx := context.Background()

	b := testBundle("heat (1995)")
	b.Complete = false
	require.NoError(t, store.PutBundle(ctx, "heat (1995)", b))

	b.Complete = true
	require.NoError(t, store.PutBundle(ctx, "heat (1995)", b))

	got, err := store.GetBundle(ctx, "heat (1995)")
	require.NoError(t, err)
	require.True(t, got.Complete)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Bundles, "upsert should not add a second row")
}

func TestStore_FilmographyRoundtrip(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	store := NewStore(tdb.Conn, tdb.Logger)
	ctx := context.Background()

	got, err := store.GetFilmography(ctx, 1158)
	require.NoError(t, err)
	require.Nil(t, got)

	f := &bundle.Filmography{
		PersonID: 1158,
		Credits: []bundle.Credit{
			{FilmID: 949, Title: "Heat", Year: 1995, Role: "performer"},
			{FilmID: 111, Title: "Scarface", Year: 1983, Role: "performer"},
		},
		CreditCount: 2,
	}
	require.NoError(t, store.PutFilmography(ctx, f))

	got, err = store.GetFilmography(ctx, 1158)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, 2, got.CreditCount)
	require.Equal(t, "Scarface", got.Credits[1].Title)
}

func TestStore_Clear(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	store := NewStore(tdb.Conn, tdb.Logger)
	ctx := context.Background()

	require.NoError(t, store.PutBundle(ctx, "heat (1995)", testBundle("heat (1995)")))
	require.NoError(t, store.PutFilmography(ctx, &bundle.Filmography{PersonID: 1158}))

	_, err := tdb.Conn.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES ('tmdb_api_key', 'secret'), ('scratch', 'gone')`)
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx, "tmdb_api_key"))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.Bundles)
	require.Zero(t, stats.Filmographies)

	var count int
	require.NoError(t, tdb.Conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM settings`).Scan(&count))
	require.Equal(t, 1, count, "only the preserved setting should survive")

	var value string
	require.NoError(t, tdb.Conn.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'tmdb_api_key'`).Scan(&value))
	require.Equal(t, "secret", value)
}
