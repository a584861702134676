package catalog

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory TitleStore with read-your-writes semantics,
// matching what the merge engine requires of the persistence collaborator.
type fakeStore struct {
	titles []*Title
	nextID int64
	addErr error
}

func (s *fakeStore) FindTitle(_ context.Context, title, source string, mediaType MediaType) (*Title, error) {
	for _, t := range s.titles {
		if t.Title == title && t.Source == source && t.MediaType == mediaType {
			return t, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindTitleByExternalID(_ context.Context, source, externalID string) (*Title, error) {
	for _, t := range s.titles {
		if t.Source == source && t.ExternalID == externalID {
			return t, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) AddTitle(_ context.Context, t *Title) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.nextID++
	t.ID = s.nextID
	s.titles = append(s.titles, t)
	return nil
}

func (s *fakeStore) UpdateTitle(_ context.Context, t *Title) error {
	for i, existing := range s.titles {
		if existing.ID == t.ID {
			s.titles[i] = t
			return nil
		}
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMerger_CreatesNewTitles(t *testing.T) {
	store := &fakeStore{}
	m := NewMerger(store, testLogger())

	items := []Item{
		{Title: "Fight Club", MediaType: MediaTypeMovie, Source: SourceWikipedia, Year: ptr(1999)},
		{Title: "Breaking Bad", MediaType: MediaTypeSeries, Source: SourceTVmaze, Year: ptr(2008)},
	}

	stats, err := m.Merge(context.Background(), slices.Values(items))
	require.NoError(t, err)
	assert.Equal(t, Stats{Created: 2, Updated: 0}, stats)
	assert.Len(t, store.titles, 2)
}

func TestMerger_SkipsInvalidTitles(t *testing.T) {
	store := &fakeStore{}
	m := NewMerger(store, testLogger())

	items := []Item{
		{Title: "", MediaType: MediaTypeMovie, Source: SourceWikipedia},
		{Title: "x", MediaType: MediaTypeMovie, Source: SourceWikipedia},
		{Title: "??", MediaType: MediaTypeMovie, Source: SourceWikipedia},
		{Title: "   ", MediaType: MediaTypeSeries, Source: SourceTVmaze},
	}

	stats, err := m.Merge(context.Background(), slices.Values(items))
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats, "garbage rows must not touch the tallies")
	assert.Empty(t, store.titles, "garbage rows must not touch the store")
}

// The end-to-end scenario from the merge contract: a second sighting of the
// same title fills year gaps left by the first without disturbing anything.
func TestMerger_FillsMissingFields(t *testing.T) {
	store := &fakeStore{}
	m := NewMerger(store, testLogger())

	items := []Item{
		{Title: "Show A", MediaType: MediaTypeSeries, Source: SourceWikipedia, Year: ptr(2020)},
		{Title: "Show A", MediaType: MediaTypeSeries, Source: SourceWikipedia, SourceURL: "http://x"},
	}

	stats, err := m.Merge(context.Background(), slices.Values(items))
	require.NoError(t, err)
	assert.Equal(t, Stats{Created: 1, Updated: 1}, stats)

	require.Len(t, store.titles, 1)
	got := store.titles[0]
	require.NotNil(t, got.Year)
	assert.Equal(t, 2020, *got.Year)
	assert.Equal(t, "http://x", got.SourceURL)
}

func TestMerger_NeverOverwritesPopulatedFillFields(t *testing.T) {
	store := &fakeStore{}
	m := NewMerger(store, testLogger())

	first := []Item{{Title: "Show A", MediaType: MediaTypeSeries, Source: SourceWikipedia, Year: ptr(2001), SourceURL: "http://first"}}
	second := []Item{{Title: "Show A", MediaType: MediaTypeSeries, Source: SourceWikipedia, Year: ptr(1999), SourceURL: "http://second"}}

	_, err := m.Merge(context.Background(), slices.Values(first))
	require.NoError(t, err)
	stats, err := m.Merge(context.Background(), slices.Values(second))
	require.NoError(t, err)

	assert.Equal(t, Stats{}, stats, "worse data must not count as an update")
	got := store.titles[0]
	assert.Equal(t, 2001, *got.Year)
	assert.Equal(t, "http://first", got.SourceURL)
}

func TestMerger_RatingPrefersHigher(t *testing.T) {
	store := &fakeStore{}
	m := NewMerger(store, testLogger())

	_, err := m.Merge(context.Background(), slices.Values([]Item{
		{Title: "Show A", MediaType: MediaTypeSeries, Source: SourceTVmaze, Rating: ptr(7.0)},
	}))
	require.NoError(t, err)

	stats, err := m.Merge(context.Background(), slices.Values([]Item{
		{Title: "Show A", MediaType: MediaTypeSeries, Source: SourceTVmaze, Rating: ptr(8.2)},
	}))
	require.NoError(t, err)
	assert.Equal(t, Stats{Updated: 1}, stats)
	assert.Equal(t, 8.2, *store.titles[0].Rating)

	stats, err = m.Merge(context.Background(), slices.Values([]Item{
		{Title: "Show A", MediaType: MediaTypeSeries, Source: SourceTVmaze, Rating: ptr(6.0)},
	}))
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, 8.2, *store.titles[0].Rating)
}

func TestMerger_DescriptionQuality(t *testing.T) {
	store := &fakeStore{}
	m := NewMerger(store, testLogger())

	_, err := m.Merge(context.Background(), slices.Values([]Item{
		{Title: "Show A", MediaType: MediaTypeSeries, Source: SourceTVmaze, Description: "short"},
	}))
	require.NoError(t, err)

	// Longer description wins, garbage does not.
	stats, err := m.Merge(context.Background(), slices.Values([]Item{
		{Title: "Show A", MediaType: MediaTypeSeries, Source: SourceTVmaze, Description: "a much longer plot summary"},
		{Title: "Show A", MediaType: MediaTypeSeries, Source: SourceTVmaze, Description: "?"},
	}))
	require.NoError(t, err)
	assert.Equal(t, Stats{Updated: 1}, stats)
	assert.Equal(t, "a much longer plot summary", store.titles[0].Description)
}

// Merging the same stream twice: everything created on the first pass, and
// nothing created or changed on the second.
func TestMerger_Idempotent(t *testing.T) {
	store := &fakeStore{}
	m := NewMerger(store, testLogger())

	items := []Item{
		{Title: "Fight Club", MediaType: MediaTypeMovie, Source: SourceWikipedia, Year: ptr(1999), Description: "an office worker and a soap maker"},
		{Title: "The Wire", MediaType: MediaTypeSeries, Source: SourceWikipedia, Year: ptr(2002), Rating: ptr(9.3)},
		{Title: "tt0110912", MediaType: MediaTypeMovie, Source: SourceIMDB, ExternalID: "tt0110912"},
	}

	first, err := m.Merge(context.Background(), slices.Values(items))
	require.NoError(t, err)
	assert.Equal(t, Stats{Created: 3}, first)

	second, err := m.Merge(context.Background(), slices.Values(items))
	require.NoError(t, err)
	assert.Equal(t, Stats{}, second)
	assert.Len(t, store.titles, 3)
}

// Duplicate occurrences inside a single stream merge against the row the
// first occurrence just created, not against a batch snapshot.
func TestMerger_StreamingDuplicates(t *testing.T) {
	store := &fakeStore{}
	m := NewMerger(store, testLogger())

	items := []Item{
		{Title: "Show A", MediaType: MediaTypeSeries, Source: SourceWikipedia, Year: ptr(2020)},
		{Title: "Show A", MediaType: MediaTypeSeries, Source: SourceWikipedia, Year: nil, SourceURL: "http://x"},
	}

	stats, err := m.Merge(context.Background(), slices.Values(items))
	require.NoError(t, err)
	assert.Equal(t, Stats{Created: 1, Updated: 1}, stats)
	assert.Len(t, store.titles, 1)
}

// Same title text under different sources or media types is a distinct
// identity key, never merged.
func TestMerger_IdentityKeyScoping(t *testing.T) {
	store := &fakeStore{}
	m := NewMerger(store, testLogger())

	items := []Item{
		{Title: "Fargo", MediaType: MediaTypeMovie, Source: SourceWikipedia},
		{Title: "Fargo", MediaType: MediaTypeSeries, Source: SourceWikipedia},
		{Title: "Fargo", MediaType: MediaTypeMovie, Source: SourceTMDB},
	}

	stats, err := m.Merge(context.Background(), slices.Values(items))
	require.NoError(t, err)
	assert.Equal(t, Stats{Created: 3}, stats)
}

// IMDb items with a tconst dedup on (external_id, source) even when the
// scraped title text differs between sightings.
func TestMerger_IMDBExternalIDKey(t *testing.T) {
	store := &fakeStore{}
	m := NewMerger(store, testLogger())

	items := []Item{
		{Title: "Se7en", MediaType: MediaTypeMovie, Source: SourceIMDB, ExternalID: "tt0114369"},
		{Title: "Seven", MediaType: MediaTypeMovie, Source: SourceIMDB, ExternalID: "tt0114369", Year: ptr(1995)},
	}

	stats, err := m.Merge(context.Background(), slices.Values(items))
	require.NoError(t, err)
	assert.Equal(t, Stats{Created: 1, Updated: 1}, stats)

	got := store.titles[0]
	assert.Equal(t, "Se7en", got.Title, "catalog title is immutable after creation")
	assert.Equal(t, 1995, *got.Year)
}

func TestMerger_UpdatedCountedOncePerItem(t *testing.T) {
	store := &fakeStore{}
	m := NewMerger(store, testLogger())

	_, err := m.Merge(context.Background(), slices.Values([]Item{
		{Title: "Show A", MediaType: MediaTypeSeries, Source: SourceWikipedia},
	}))
	require.NoError(t, err)

	// One item improving three fields still counts as one update.
	stats, err := m.Merge(context.Background(), slices.Values([]Item{
		{Title: "Show A", MediaType: MediaTypeSeries, Source: SourceWikipedia, Year: ptr(2020), Description: "a long enough description", Rating: ptr(8.0)},
	}))
	require.NoError(t, err)
	assert.Equal(t, Stats{Updated: 1}, stats)
}

func TestMerger_StoreErrorAborts(t *testing.T) {
	store := &fakeStore{addErr: assert.AnError}
	m := NewMerger(store, testLogger())

	stats, err := m.Merge(context.Background(), slices.Values([]Item{
		{Title: "Show A", MediaType: MediaTypeSeries, Source: SourceWikipedia},
	}))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, Stats{}, stats)
}

func TestMerger_TrimsInsertedFields(t *testing.T) {
	store := &fakeStore{}
	m := NewMerger(store, testLogger())

	_, err := m.Merge(context.Background(), slices.Values([]Item{
		{Title: "  Show A  ", MediaType: MediaTypeSeries, Source: SourceWikipedia, Description: " padded summary "},
	}))
	require.NoError(t, err)

	got := store.titles[0]
	assert.Equal(t, "Show A", got.Title)
	assert.Equal(t, "padded summary", got.Description)
}
