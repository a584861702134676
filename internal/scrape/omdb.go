package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vmunix/teevee/internal/catalog"
)

const (
	defaultOMDBAPIURL    = "https://www.omdbapi.com/"
	defaultIMDBTitleBase = "https://www.imdb.com/title"
)

// OMDBConfig controls the OMDb search scrape.
type OMDBConfig struct {
	APIKey    string
	Queries   []string      // search terms, e.g. "star", "night"
	PageLimit int           // result pages fetched per query
	PageDelay time.Duration // politeness delay between pages
}

// OMDBSource runs search queries against the OMDb API. OMDb rows carry IMDb
// ids, so their items join the imdb external-id key space via source_url.
// Without an API key the source yields nothing.
type OMDBSource struct {
	cfg        OMDBConfig
	apiURL     string
	httpClient *http.Client
	log        *slog.Logger
}

// OMDBOption configures an OMDBSource.
type OMDBOption func(*OMDBSource)

// WithOMDBAPIURL sets a custom API base URL (for testing).
func WithOMDBAPIURL(url string) OMDBOption {
	return func(s *OMDBSource) {
		s.apiURL = url
	}
}

// WithOMDBHTTPClient sets a custom HTTP client.
func WithOMDBHTTPClient(hc *http.Client) OMDBOption {
	return func(s *OMDBSource) {
		s.httpClient = hc
	}
}

// NewOMDBSource creates an OMDb search source.
func NewOMDBSource(cfg OMDBConfig, log *slog.Logger, opts ...OMDBOption) *OMDBSource {
	if cfg.PageLimit == 0 {
		cfg.PageLimit = 2
	}
	if len(cfg.Queries) == 0 {
		cfg.Queries = []string{"star", "night"}
	}
	s := &OMDBSource{
		cfg:    cfg,
		apiURL: defaultOMDBAPIURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		log: log.With("component", "scrape.omdb"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the provenance tag.
func (s *OMDBSource) Name() string { return catalog.SourceOMDB }

// omdbResult is one row of an OMDb search response. Year may be a range
// form like "2011–2019" for series.
type omdbResult struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDBID string `json:"imdbID"`
	Type   string `json:"Type"`
}

// Fetch runs every configured query across the configured page range. A
// failed page is skipped.
func (s *OMDBSource) Fetch(ctx context.Context) ([]catalog.Item, error) {
	if s.cfg.APIKey == "" {
		s.log.Debug("no omdb api key configured, skipping")
		return nil, nil
	}

	var items []catalog.Item
	for _, query := range s.cfg.Queries {
		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}
		for page := 1; page <= s.cfg.PageLimit; page++ {
			if err := ctx.Err(); err != nil {
				return items, err
			}
			results, err := s.fetchPage(ctx, query, page)
			if err != nil {
				s.log.Warn("skipping omdb page", "query", query, "page", page, "error", err)
				continue
			}
			for _, result := range results {
				if result.Title == "" {
					continue
				}
				mediaType := catalog.MediaTypeMovie
				if result.Type == "series" {
					mediaType = catalog.MediaTypeSeries
				}
				var sourceURL string
				if result.IMDBID != "" {
					sourceURL = fmt.Sprintf("%s/%s/", defaultIMDBTitleBase, result.IMDBID)
				}
				items = append(items, catalog.Item{
					Title:       result.Title,
					MediaType:   mediaType,
					Year:        parseYear(result.Year),
					Source:      catalog.SourceOMDB,
					SourceURL:   sourceURL,
					ExternalID:  result.IMDBID,
					ReleaseDate: result.Year,
				})
			}
			if s.cfg.PageDelay > 0 {
				select {
				case <-time.After(s.cfg.PageDelay):
				case <-ctx.Done():
					return items, ctx.Err()
				}
			}
		}
	}
	return items, nil
}

func (s *OMDBSource) fetchPage(ctx context.Context, query string, page int) ([]omdbResult, error) {
	params := url.Values{}
	params.Set("apikey", s.cfg.APIKey)
	params.Set("s", query)
	params.Set("page", fmt.Sprintf("%d", page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"?"+params.Encode(), nil)
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
		return nil, fmt.Errorf("omdb returned %s", resp.Status)
	}

	var payload struct {
		Search []omdbResult `json:"Search"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	return payload.Search, nil
}
