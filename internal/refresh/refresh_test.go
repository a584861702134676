package refresh_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	_ "modernc.org/sqlite"

	"github.com/vmunix/teevee/internal/catalog"
	"github.com/vmunix/teevee/internal/library"
	"github.com/vmunix/teevee/internal/migrations"
	"github.com/vmunix/teevee/internal/refresh"
	"github.com/vmunix/teevee/internal/refresh/mocks"
	"github.com/vmunix/teevee/internal/scrape"
)

func setupStore(t *testing.T) *library.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err, "open db")
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(migrations.InitialSQL)
	require.NoError(t, err, "apply schema")
	return library.NewStore(db)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefresher_Refresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := setupStore(t)
	ctx := context.Background()

	src := mocks.NewMockSource(ctrl)
	src.EXPECT().Fetch(gomock.Any()).Return([]catalog.Item{
		{Title: "Dune", MediaType: catalog.MediaTypeMovie, Source: catalog.SourceWikipedia},
		{Title: "Severance", MediaType: catalog.MediaTypeSeries, Source: catalog.SourceWikipedia},
	}, nil)
	src.EXPECT().Name().Return("wikipedia").AnyTimes()

	r := refresh.NewRefresher(store, []scrape.Source{src}, nil, refresh.Config{}, testLogger())

	summary, err := r.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Titles.Created)
	assert.Equal(t, 0, summary.Titles.Updated)

	got, err := store.FindTitle(ctx, "Dune", catalog.SourceWikipedia, catalog.MediaTypeMovie)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestRefresher_Refresh_SourceFailureSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := setupStore(t)

	failing := mocks.NewMockSource(ctrl)
	failing.EXPECT().Fetch(gomock.Any()).Return(nil, errors.New("timeout"))
	failing.EXPECT().Name().Return("tmdb").AnyTimes()

	working := mocks.NewMockSource(ctrl)
	working.EXPECT().Fetch(gomock.Any()).Return([]catalog.Item{
		{Title: "Survivor", MediaType: catalog.MediaTypeSeries, Source: catalog.SourceTVmaze},
	}, nil)
	working.EXPECT().Name().Return("tvmaze").AnyTimes()

	r := refresh.NewRefresher(store, []scrape.Source{failing, working}, nil, refresh.Config{}, testLogger())

	summary, err := r.Refresh(context.Background())
	require.NoError(t, err, "one bad source does not fail the pass")
	assert.Equal(t, 1, summary.Titles.Created)
}

func TestRefresher_Refresh_Episodes(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := setupStore(t)
	ctx := context.Background()

	// Seed one imdb series with an external id, plus one without. Only the
	// first should get an episode fetch.
	withID := &catalog.Title{
		Title: "Breaking Bad", MediaType: catalog.MediaTypeSeries,
		Source: catalog.SourceIMDB, ExternalID: "tt0903747",
	}
	require.NoError(t, store.AddTitle(ctx, withID))
	require.NoError(t, store.AddTitle(ctx, &catalog.Title{
		Title: "No ID Show", MediaType: catalog.MediaTypeSeries, Source: catalog.SourceIMDB,
	}))

	fetcher := mocks.NewMockEpisodeFetcher(ctrl)
	fetcher.EXPECT().
		FetchEpisodes(gomock.Any(), "tt0903747", 1, 25).
		Return([]catalog.EpisodeItem{
			{Title: "Pilot", Season: intPtr(1), Episode: intPtr(1), Source: catalog.SourceIMDB},
		}, nil)

	r := refresh.NewRefresher(store, nil, fetcher, refresh.Config{EpisodesEnabled: true}, testLogger())

	summary, err := r.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Episodes.Created)

	_, total, err := store.ListEpisodes(ctx, library.EpisodeFilter{CatalogID: &withID.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestRefresher_Refresh_EpisodeFetchFailureSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := setupStore(t)
	ctx := context.Background()

	bad := &catalog.Title{
		Title: "Bad Fetch", MediaType: catalog.MediaTypeSeries,
		Source: catalog.SourceIMDB, ExternalID: "tt0000001",
	}
	good := &catalog.Title{
		Title: "Good Fetch", MediaType: catalog.MediaTypeSeries,
		Source: catalog.SourceIMDB, ExternalID: "tt0000002",
	}
	require.NoError(t, store.AddTitle(ctx, bad))
	require.NoError(t, store.AddTitle(ctx, good))

	fetcher := mocks.NewMockEpisodeFetcher(ctrl)
	fetcher.EXPECT().
		FetchEpisodes(gomock.Any(), "tt0000001", 1, 25).
		Return(nil, errors.New("rate limited"))
	fetcher.EXPECT().
		FetchEpisodes(gomock.Any(), "tt0000002", 1, 25).
		Return([]catalog.EpisodeItem{
			{Title: "Opener", Season: intPtr(1), Episode: intPtr(1), Source: catalog.SourceIMDB},
		}, nil)

	r := refresh.NewRefresher(store, nil, fetcher, refresh.Config{EpisodesEnabled: true}, testLogger())

	summary, err := r.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Episodes.Created)
}

func TestRefresher_Refresh_EpisodesDisabled(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddTitle(ctx, &catalog.Title{
		Title: "Some Show", MediaType: catalog.MediaTypeSeries,
		Source: catalog.SourceIMDB, ExternalID: "tt1",
	}))

	// No fetcher wired at all; the pass must not touch episodes.
	r := refresh.NewRefresher(store, nil, nil, refresh.Config{EpisodesEnabled: false}, testLogger())

	summary, err := r.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.Stats{}, summary.Episodes)
}

func TestRefresher_Refresh_ContextCanceled(t *testing.T) {
	store := setupStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := refresh.NewRefresher(store, nil, nil, refresh.Config{}, testLogger())
	_, err := r.Refresh(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorker_Run_StopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := setupStore(t)

	src := mocks.NewMockSource(ctrl)
	src.EXPECT().Fetch(gomock.Any()).Return(nil, nil).MinTimes(1)
	src.EXPECT().Name().Return("wikipedia").AnyTimes()

	r := refresh.NewRefresher(store, []scrape.Source{src}, nil, refresh.Config{}, testLogger())
	w := refresh.NewWorker(r, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Let the immediate first pass land, then stop.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func intPtr(v int) *int { return &v }
