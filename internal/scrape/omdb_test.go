package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/teevee/internal/catalog"
)

func TestOMDBSource_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		query := r.URL.Query().Get("s")
		page := r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		if query == "star" && page == "1" {
			fmt.Fprint(w, `{"Search":[
				{"Title":"Star Wars","Year":"1977","imdbID":"tt0076759","Type":"movie"},
				{"Title":"Star Trek: The Next Generation","Year":"1987–1994","imdbID":"tt0092455","Type":"series"},
				{"Title":"","Year":"2000","imdbID":"tt0000000","Type":"movie"}
			]}`)
			return
		}
		fmt.Fprint(w, `{"Search":[]}`)
	}))
	defer server.Close()

	src := NewOMDBSource(OMDBConfig{APIKey: "test-key", Queries: []string{"star"}, PageLimit: 1}, testLogger(),
		WithOMDBAPIURL(server.URL))

	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2, "untitled rows are dropped")

	movie := items[0]
	assert.Equal(t, "Star Wars", movie.Title)
	assert.Equal(t, catalog.MediaTypeMovie, movie.MediaType)
	require.NotNil(t, movie.Year)
	assert.Equal(t, 1977, *movie.Year)
	assert.Equal(t, catalog.SourceOMDB, movie.Source)
	assert.Equal(t, "https://www.imdb.com/title/tt0076759/", movie.SourceURL)
	assert.Equal(t, "tt0076759", movie.ExternalID)
	assert.Equal(t, "1977", movie.ReleaseDate)

	// Series years arrive as a range; the first year wins.
	series := items[1]
	assert.Equal(t, catalog.MediaTypeSeries, series.MediaType)
	require.NotNil(t, series.Year)
	assert.Equal(t, 1987, *series.Year)
	assert.Equal(t, "1987–1994", series.ReleaseDate)
}

func TestOMDBSource_Fetch_NoAPIKey(t *testing.T) {
	src := NewOMDBSource(OMDBConfig{}, testLogger())

	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestOMDBSource_Fetch_PageFailureSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"Search":[{"Title":"Night Shift","Year":"1982","imdbID":"tt0084412","Type":"movie"}]}`)
	}))
	defer server.Close()

	src := NewOMDBSource(OMDBConfig{APIKey: "k", Queries: []string{"night"}, PageLimit: 2}, testLogger(),
		WithOMDBAPIURL(server.URL))

	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Night Shift", items[0].Title)
}

func TestOMDBSource_DefaultQueries(t *testing.T) {
	src := NewOMDBSource(OMDBConfig{APIKey: "k"}, testLogger())
	assert.Equal(t, []string{"star", "night"}, src.cfg.Queries)
}

func TestOMDBSource_Name(t *testing.T) {
	src := NewOMDBSource(OMDBConfig{}, testLogger())
	assert.Equal(t, catalog.SourceOMDB, src.Name())
}
