package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/teevee/internal/catalog"
)

const imdbTitleHTML = `<html><head>
<script type="application/ld+json">{"@type":"Movie","description":"A space epic.","datePublished":"2026-12-18","aggregateRating":{"ratingValue":8.1}}</script>
</head><body></body></html>`

const imdbEpisodesHTML = `<html><head>
<script type="application/ld+json">{"@type":"TVSeason","episode":[
{"name":"Pilot","episodeNumber":1,"datePublished":"2020-01-05","description":"It begins.","url":"https://www.imdb.com/title/tt0000001/"},
{"name":"Second","episodeNumber":2,"datePublished":"2020-01-12","description":"","url":""}
]}</script>
</head><body></body></html>`

func TestIMDBSource_Fetch(t *testing.T) {
	titles := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tt1160419/", r.URL.Path)
		_, _ = w.Write([]byte(imdbTitleHTML))
	}))
	defer titles.Close()

	suggest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/d/dune.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"d":[
			{"id":"tt1160419","l":"Dune","q":"feature","y":2021},
			{"id":"","l":"no id row","q":"feature","y":2000}
		]}`))
	}))
	defer suggest.Close()

	src := NewIMDBSource(IMDBConfig{Queries: []string{"dune"}}, testLogger(),
		WithIMDBSuggestURL(suggest.URL),
		WithIMDBTitleURL(titles.URL))

	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1, "rows without ids are dropped")

	item := items[0]
	assert.Equal(t, "Dune", item.Title)
	assert.Equal(t, catalog.MediaTypeMovie, item.MediaType)
	require.NotNil(t, item.Year)
	assert.Equal(t, 2021, *item.Year)
	assert.Equal(t, catalog.SourceIMDB, item.Source)
	assert.Equal(t, "tt1160419", item.ExternalID)
	assert.Equal(t, titles.URL+"/tt1160419/", item.SourceURL)
	assert.Equal(t, "A space epic.", item.Description)
	assert.Equal(t, "2026-12-18", item.ReleaseDate)
	require.NotNil(t, item.Rating)
	assert.Equal(t, 8.1, *item.Rating)
}

func TestIMDBSource_Fetch_DetailFailureKeepsSuggestion(t *testing.T) {
	titles := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer titles.Close()

	suggest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"d":[{"id":"tt0944947","l":"Game of Thrones","q":"TV series","y":2011}]}`))
	}))
	defer suggest.Close()

	src := NewIMDBSource(IMDBConfig{Queries: []string{"game"}}, testLogger(),
		WithIMDBSuggestURL(suggest.URL),
		WithIMDBTitleURL(titles.URL))

	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Game of Thrones", items[0].Title)
	assert.Equal(t, catalog.MediaTypeSeries, items[0].MediaType)
	assert.Empty(t, items[0].Description)
	assert.Nil(t, items[0].Rating)
}

func TestIMDBSource_Fetch_Limit(t *testing.T) {
	titles := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer titles.Close()

	suggest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"d":[
			{"id":"tt1","l":"One","q":"feature","y":2001},
			{"id":"tt2","l":"Two","q":"feature","y":2002},
			{"id":"tt3","l":"Three","q":"feature","y":2003}
		]}`))
	}))
	defer suggest.Close()

	src := NewIMDBSource(IMDBConfig{Queries: []string{"t"}, Limit: 2}, testLogger(),
		WithIMDBSuggestURL(suggest.URL),
		WithIMDBTitleURL(titles.URL))

	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestIMDBSource_Fetch_QueryFailureSkipped(t *testing.T) {
	suggest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/b/bad.json" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"d":[{"id":"tt9","l":"Nine","q":"feature","y":2009}]}`))
	}))
	defer suggest.Close()

	titles := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer titles.Close()

	src := NewIMDBSource(IMDBConfig{Queries: []string{"bad", "nine"}}, testLogger(),
		WithIMDBSuggestURL(suggest.URL),
		WithIMDBTitleURL(titles.URL))

	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Nine", items[0].Title)
}

func TestIMDBSource_FetchEpisodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tt0944947/episodes", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("season"))
		_, _ = w.Write([]byte(imdbEpisodesHTML))
	}))
	defer server.Close()

	src := NewIMDBSource(IMDBConfig{}, testLogger(), WithIMDBTitleURL(server.URL))

	episodes, err := src.FetchEpisodes(context.Background(), "tt0944947", 1, 0)
	require.NoError(t, err)
	require.Len(t, episodes, 2)

	first := episodes[0]
	assert.Equal(t, "Pilot", first.Title)
	require.NotNil(t, first.Season)
	assert.Equal(t, 1, *first.Season)
	require.NotNil(t, first.Episode)
	assert.Equal(t, 1, *first.Episode)
	assert.Equal(t, "2020-01-05", first.AirDate)
	assert.Equal(t, "It begins.", first.Description)
	assert.Equal(t, catalog.SourceIMDB, first.Source)
	assert.Equal(t, "https://www.imdb.com/title/tt0000001/", first.SourceURL)

	// Rows with no per-episode URL fall back to the season page URL.
	assert.Equal(t, server.URL+"/tt0944947/episodes?season=1", episodes[1].SourceURL)
}

func TestIMDBSource_FetchEpisodes_Limit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(imdbEpisodesHTML))
	}))
	defer server.Close()

	src := NewIMDBSource(IMDBConfig{}, testLogger(), WithIMDBTitleURL(server.URL))

	episodes, err := src.FetchEpisodes(context.Background(), "tt0944947", 1, 1)
	require.NoError(t, err)
	assert.Len(t, episodes, 1)
}

func TestIMDBSource_FetchEpisodes_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	src := NewIMDBSource(IMDBConfig{}, testLogger(), WithIMDBTitleURL(server.URL))

	_, err := src.FetchEpisodes(context.Background(), "tt0944947", 1, 0)
	assert.Error(t, err)
}

func TestIMDBTitleTypeToMedia(t *testing.T) {
	assert.Equal(t, catalog.MediaTypeSeries, imdbTitleTypeToMedia("TV series"))
	assert.Equal(t, catalog.MediaTypeSeries, imdbTitleTypeToMedia("TV mini-series"))
	assert.Equal(t, catalog.MediaTypeMovie, imdbTitleTypeToMedia("feature"))
	assert.Equal(t, catalog.MediaTypeMovie, imdbTitleTypeToMedia(""))
}
