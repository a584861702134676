// Package catalog implements the deduplicated title catalog and the merge
// engine that reconciles records scraped from external sources.
package catalog

import (
	"time"
)

// MediaType distinguishes movies from series.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

// Provenance tags for the sources that feed the catalog.
const (
	SourceWikipedia = "wikipedia"
	SourceIMDB      = "imdb"
	SourceTMDB      = "tmdb"
	SourceTVmaze    = "tvmaze"
	SourceOMDB      = "omdb"
)

// Title is a deduplicated catalog record. At most one row exists per
// (title, source, media_type); imdb-sourced rows are instead unique per
// (external_id, source) because the IMDb tconst is a stable identifier.
// Optional text fields use "" for absent.
type Title struct {
	ID          int64
	Title       string
	MediaType   MediaType
	Year        *int
	Source      string
	SourceURL   string
	ExternalID  string
	Description string
	ReleaseDate string
	Rating      *float64
	CreatedAt   time.Time
}

// Episode is a single episode of a series Title. Season and Episode are nil
// for sources that supply only an episode title with no numbering.
type Episode struct {
	ID          int64
	CatalogID   int64
	Title       string
	Season      *int
	Episode     *int
	AirDate     string
	Description string
	Source      string
	SourceURL   string
}

// Item is the normalized shape every scraping or ingestion adapter produces
// before it reaches the merge engine. This is the sole contract the engine
// expects from upstream producers.
type Item struct {
	Title       string
	MediaType   MediaType
	Year        *int
	Source      string
	SourceURL   string
	ExternalID  string
	Description string
	ReleaseDate string
	Rating      *float64
}

// EpisodeItem is the normalized episode shape produced by adapters.
// The owning catalog ID is supplied by the caller, not the adapter.
type EpisodeItem struct {
	Title       string
	Season      *int
	Episode     *int
	AirDate     string
	Description string
	Source      string
	SourceURL   string
}

// Stats tallies the outcome of one merge pass.
type Stats struct {
	Created int
	Updated int
}

// Add accumulates another pass into s.
func (s *Stats) Add(other Stats) {
	s.Created += other.Created
	s.Updated += other.Updated
}
