package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vmunix/teevee/internal/catalog"
)

const (
	defaultTMDBAPIURL  = "https://api.themoviedb.org/3"
	defaultTMDBSiteURL = "https://www.themoviedb.org"
)

// TMDBConfig controls the TMDB discover scrape.
type TMDBConfig struct {
	APIKey    string
	PageLimit int           // discover pages fetched per endpoint
	PageDelay time.Duration // politeness delay between pages
}

// TMDBSource pages through the TMDB discover endpoints for movies and TV.
// Without an API key the source yields nothing.
type TMDBSource struct {
	cfg        TMDBConfig
	apiURL     string
	siteURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// TMDBOption configures a TMDBSource.
type TMDBOption func(*TMDBSource)

// WithTMDBAPIURL sets a custom API base URL (for testing).
func WithTMDBAPIURL(url string) TMDBOption {
	return func(s *TMDBSource) {
		s.apiURL = url
	}
}

// WithTMDBHTTPClient sets a custom HTTP client.
func WithTMDBHTTPClient(hc *http.Client) TMDBOption {
	return func(s *TMDBSource) {
		s.httpClient = hc
	}
}

// NewTMDBSource creates a TMDB discover source.
func NewTMDBSource(cfg TMDBConfig, log *slog.Logger, opts ...TMDBOption) *TMDBSource {
	if cfg.PageLimit == 0 {
		cfg.PageLimit = 2
	}
	s := &TMDBSource{
		cfg:     cfg,
		apiURL:  defaultTMDBAPIURL,
		siteURL: defaultTMDBSiteURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		log: log.With("component", "scrape.tmdb"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the provenance tag.
func (s *TMDBSource) Name() string { return catalog.SourceTMDB }

// discoverEntry is one result row from /discover. Movies use title and
// release_date; TV uses name and first_air_date.
type discoverEntry struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Name         string   `json:"name"`
	ReleaseDate  string   `json:"release_date"`
	FirstAirDate string   `json:"first_air_date"`
	Overview     string   `json:"overview"`
	VoteAverage  *float64 `json:"vote_average"`
}

// Fetch pages through discover/movie and discover/tv. A failed page is
// skipped, not fatal.
func (s *TMDBSource) Fetch(ctx context.Context) ([]catalog.Item, error) {
	if s.cfg.APIKey == "" {
		s.log.Debug("no tmdb api key configured, skipping")
		return nil, nil
	}

	endpoints := []struct {
		path      string
		sitePath  string
		mediaType catalog.MediaType
	}{
		{"discover/movie", "movie", catalog.MediaTypeMovie},
		{"discover/tv", "tv", catalog.MediaTypeSeries},
	}

	var items []catalog.Item
	for page := 1; page <= s.cfg.PageLimit; page++ {
		for _, endpoint := range endpoints {
			if err := ctx.Err(); err != nil {
				return items, err
			}
			entries, err := s.fetchPage(ctx, endpoint.path, page)
			if err != nil {
				s.log.Warn("skipping tmdb page", "endpoint", endpoint.path, "page", page, "error", err)
				continue
			}
			for _, entry := range entries {
				title := entry.Title
				releaseDate := entry.ReleaseDate
				if endpoint.mediaType == catalog.MediaTypeSeries {
					title = entry.Name
					releaseDate = entry.FirstAirDate
				}
				if title == "" {
					continue
				}
				var externalID string
				if entry.ID != 0 {
					externalID = strconv.FormatInt(entry.ID, 10)
				}
				items = append(items, catalog.Item{
					Title:       title,
					MediaType:   endpoint.mediaType,
					Year:        parseYear(releaseDate),
					Source:      catalog.SourceTMDB,
					SourceURL:   fmt.Sprintf("%s/%s/%d", s.siteURL, endpoint.sitePath, entry.ID),
					ExternalID:  externalID,
					Description: entry.Overview,
					ReleaseDate: releaseDate,
					Rating:      entry.VoteAverage,
				})
			}
		}
		if s.cfg.PageDelay > 0 && page < s.cfg.PageLimit {
			select {
			case <-time.After(s.cfg.PageDelay):
			case <-ctx.Done():
				return items, ctx.Err()
			}
		}
	}
	return items, nil
}

func (s *TMDBSource) fetchPage(ctx context.Context, endpoint string, page int) ([]discoverEntry, error) {
	u := fmt.Sprintf("%s/%s?api_key=%s&page=%d", s.apiURL, endpoint, url.QueryEscape(s.cfg.APIKey), page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TMDB API error: %s", resp.Status)
	}

	var payload struct {
		Results []discoverEntry `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload.Results, nil
}
