package v1

import "time"

type statusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type titleResponse struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	MediaType   string   `json:"media_type"`
	Year        *int     `json:"year"`
	Source      string   `json:"source"`
	SourceURL   string   `json:"source_url,omitempty"`
	ExternalID  string   `json:"external_id,omitempty"`
	Description string   `json:"description,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"`
	Rating      *float64 `json:"rating"`
}

type listTitlesResponse struct {
	Items  []titleResponse `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type episodeResponse struct {
	ID          int64  `json:"id"`
	CatalogID   int64  `json:"catalog_id"`
	Title       string `json:"title"`
	Season      *int   `json:"season"`
	Episode     *int   `json:"episode"`
	AirDate     string `json:"air_date,omitempty"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source"`
	SourceURL   string `json:"source_url,omitempty"`
}

type listEpisodesResponse struct {
	Items []episodeResponse `json:"items"`
	Total int               `json:"total"`
}

type refreshResponse struct {
	TitlesCreated   int `json:"titles_created"`
	TitlesUpdated   int `json:"titles_updated"`
	EpisodesCreated int `json:"episodes_created"`
	EpisodesUpdated int `json:"episodes_updated"`
}

type entryResponse struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	Downloaded bool      `json:"downloaded"`
	Watched    bool      `json:"watched"`
	Notes      string    `json:"notes,omitempty"`
	CatalogID  *int64    `json:"catalog_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type addEntryRequest struct {
	Title      string `json:"title"`
	Status     string `json:"status"`
	Downloaded bool   `json:"downloaded"`
	Watched    bool   `json:"watched"`
	Notes      string `json:"notes"`
	CatalogID  *int64 `json:"catalog_id"`
}

type updateEntryRequest struct {
	Status     *string `json:"status"`
	Downloaded *bool   `json:"downloaded"`
	Watched    *bool   `json:"watched"`
	Notes      *string `json:"notes"`
}
