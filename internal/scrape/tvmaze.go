package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vmunix/teevee/internal/catalog"
)

const defaultTVmazeAPIURL = "https://api.tvmaze.com"

// TVmazeConfig controls the TVmaze show-index scrape.
type TVmazeConfig struct {
	Enabled   bool
	PageLimit int           // index pages fetched (250 shows each)
	PageDelay time.Duration // politeness delay between pages
}

// TVmazeSource walks the paged TVmaze show index. The index needs no API
// key and orders shows by id, so the same pages always yield the same rows.
type TVmazeSource struct {
	cfg        TVmazeConfig
	apiURL     string
	httpClient *http.Client
	log        *slog.Logger
}

// TVmazeOption configures a TVmazeSource.
type TVmazeOption func(*TVmazeSource)

// WithTVmazeAPIURL sets a custom API base URL (for testing).
func WithTVmazeAPIURL(url string) TVmazeOption {
	return func(s *TVmazeSource) {
		s.apiURL = url
	}
}

// WithTVmazeHTTPClient sets a custom HTTP client.
func WithTVmazeHTTPClient(hc *http.Client) TVmazeOption {
	return func(s *TVmazeSource) {
		s.httpClient = hc
	}
}

// NewTVmazeSource creates a TVmaze show-index source.
func NewTVmazeSource(cfg TVmazeConfig, log *slog.Logger, opts ...TVmazeOption) *TVmazeSource {
	if cfg.PageLimit == 0 {
		cfg.PageLimit = 2
	}
	s := &TVmazeSource{
		cfg:    cfg,
		apiURL: defaultTVmazeAPIURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		log: log.With("component", "scrape.tvmaze"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the provenance tag.
func (s *TVmazeSource) Name() string { return catalog.SourceTVmaze }

type tvmazeShow struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Premiered string `json:"premiered"`
	Summary   string `json:"summary"`
	Rating    struct {
		Average *float64 `json:"average"`
	} `json:"rating"`
}

// Fetch walks the show index pages. A failed page is skipped.
func (s *TVmazeSource) Fetch(ctx context.Context) ([]catalog.Item, error) {
	if !s.cfg.Enabled {
		s.log.Debug("tvmaze disabled, skipping")
		return nil, nil
	}

	var items []catalog.Item
	for page := 0; page < s.cfg.PageLimit; page++ {
		if err := ctx.Err(); err != nil {
			return items, err
		}
		shows, err := s.fetchPage(ctx, page)
		if err != nil {
			s.log.Warn("skipping tvmaze page", "page", page, "error", err)
			continue
		}
		for _, show := range shows {
			if show.Name == "" {
				continue
			}
			var externalID string
			if show.ID != 0 {
				externalID = strconv.FormatInt(show.ID, 10)
			}
			items = append(items, catalog.Item{
				Title:       show.Name,
				MediaType:   catalog.MediaTypeSeries,
				Year:        parseYear(show.Premiered),
				Source:      catalog.SourceTVmaze,
				SourceURL:   show.URL,
				ExternalID:  externalID,
				Description: stripHTML(show.Summary),
				ReleaseDate: show.Premiered,
				Rating:      show.Rating.Average,
			})
		}
		if s.cfg.PageDelay > 0 && page < s.cfg.PageLimit-1 {
			select {
			case <-time.After(s.cfg.PageDelay):
			case <-ctx.Done():
				return items, ctx.Err()
			}
		}
	}
	return items, nil
}

func (s *TVmazeSource) fetchPage(ctx context.Context, page int) ([]tvmazeShow, error) {
	url := fmt.Sprintf("%s/shows?page=%d", s.apiURL, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
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
		return nil, fmt.Errorf("tvmaze returned %s", resp.Status)
	}

	var shows []tvmazeShow
	if err := json.NewDecoder(resp.Body).Decode(&shows); err != nil {
		return nil, fmt.Errorf("decode shows: %w", err)
	}
	return shows, nil
}
