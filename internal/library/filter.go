package library

import "github.com/vmunix/teevee/internal/catalog"

// TitleFilter specifies criteria for listing catalog titles.
type TitleFilter struct {
	Source        *string
	MediaType     *catalog.MediaType
	HasExternalID bool
	Limit         int // 0 = no limit
	Offset        int
}

// EpisodeFilter specifies criteria for listing episodes.
type EpisodeFilter struct {
	CatalogID *int64
	Season    *int
	Limit     int
	Offset    int
}
