package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/vmunix/teevee/internal/catalog"
)

const (
	defaultIMDBSuggestURL = "https://v2.sg.media-imdb.com/suggestion"
	defaultIMDBTitleURL   = "https://www.imdb.com/title"
)

// IMDBConfig controls the suggestion-driven IMDb scrape.
type IMDBConfig struct {
	Queries     []string      // suggestion queries, e.g. "star", "night"
	Limit       int           // max suggestions taken per query
	DetailDelay time.Duration // politeness delay between title detail fetches
}

// IMDBSource scrapes the IMDb suggestion endpoint and the linked title
// pages. Details (description, release date, rating) come from the ld+json
// blob embedded in each title page. The same client also fetches season
// episode lists for the episode refresh.
type IMDBSource struct {
	cfg        IMDBConfig
	suggestURL string
	titleURL   string
	httpClient *http.Client
	log        *slog.Logger
}

// IMDBOption configures an IMDBSource.
type IMDBOption func(*IMDBSource)

// WithIMDBSuggestURL sets a custom suggestion base URL (for testing).
func WithIMDBSuggestURL(url string) IMDBOption {
	return func(s *IMDBSource) {
		s.suggestURL = url
	}
}

// WithIMDBTitleURL sets a custom title-page base URL (for testing).
func WithIMDBTitleURL(url string) IMDBOption {
	return func(s *IMDBSource) {
		s.titleURL = url
	}
}

// WithIMDBHTTPClient sets a custom HTTP client.
func WithIMDBHTTPClient(hc *http.Client) IMDBOption {
	return func(s *IMDBSource) {
		s.httpClient = hc
	}
}

// NewIMDBSource creates an IMDb suggestion source.
func NewIMDBSource(cfg IMDBConfig, log *slog.Logger, opts ...IMDBOption) *IMDBSource {
	if cfg.Limit == 0 {
		cfg.Limit = 20
	}
	s := &IMDBSource{
		cfg:        cfg,
		suggestURL: defaultIMDBSuggestURL,
		titleURL:   defaultIMDBTitleURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		log: log.With("component", "scrape.imdb"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the provenance tag.
func (s *IMDBSource) Name() string { return catalog.SourceIMDB }

// Fetch runs every configured suggestion query. A failed query is skipped.
func (s *IMDBSource) Fetch(ctx context.Context) ([]catalog.Item, error) {
	var items []catalog.Item
	for _, query := range s.cfg.Queries {
		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return items, err
		}
		queryItems, err := s.fetchSuggestions(ctx, query)
		if err != nil {
			s.log.Warn("skipping imdb query", "query", query, "error", err)
			continue
		}
		items = append(items, queryItems...)
	}
	return items, nil
}

// suggestion is one row of the suggestion payload. The field names are
// IMDb's wire format: l=title, q=title type, y=year.
type suggestion struct {
	ID    string `json:"id"`
	Title string `json:"l"`
	Type  string `json:"q"`
	Year  int    `json:"y"`
}

func (s *IMDBSource) fetchSuggestions(ctx context.Context, query string) ([]catalog.Item, error) {
	url := fmt.Sprintf("%s/%s/%s.json", s.suggestURL, strings.ToLower(query[:1]), query)
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
		return nil, fmt.Errorf("imdb suggestion returned %s", resp.Status)
	}

	var payload struct {
		D []suggestion `json:"d"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}

	results := payload.D
	if len(results) > s.cfg.Limit {
		results = results[:s.cfg.Limit]
	}

	var items []catalog.Item
	for _, result := range results {
		if result.ID == "" {
			continue
		}
		titleURL := fmt.Sprintf("%s/%s/", s.titleURL, result.ID)
		details := s.fetchTitleDetails(ctx, titleURL)
		if s.cfg.DetailDelay > 0 {
			select {
			case <-time.After(s.cfg.DetailDelay):
			case <-ctx.Done():
				return items, ctx.Err()
			}
		}

		var year *int
		if result.Year > 0 {
			y := result.Year
			year = &y
		}
		items = append(items, catalog.Item{
			Title:       result.Title,
			MediaType:   imdbTitleTypeToMedia(result.Type),
			Year:        year,
			Source:      catalog.SourceIMDB,
			SourceURL:   titleURL,
			ExternalID:  result.ID,
			Description: details.description,
			ReleaseDate: details.releaseDate,
			Rating:      details.rating,
		})
	}
	return items, nil
}

// imdbTitleTypeToMedia maps IMDb's free-form title type ("TV series",
// "TV mini-series", "feature") onto the catalog media types.
func imdbTitleTypeToMedia(titleType string) catalog.MediaType {
	titleType = strings.ToLower(titleType)
	if strings.Contains(titleType, "tv") || strings.Contains(titleType, "series") {
		return catalog.MediaTypeSeries
	}
	return catalog.MediaTypeMovie
}

type titleDetails struct {
	description string
	releaseDate string
	rating      *float64
}

// fetchTitleDetails pulls the ld+json structured data off a title page.
// Any failure just yields empty details.
func (s *IMDBSource) fetchTitleDetails(ctx context.Context, url string) titleDetails {
	var details titleDetails

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return details
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return details
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return details
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return details
	}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		var payload struct {
			Type            string `json:"@type"`
			Description     string `json:"description"`
			DatePublished   string `json:"datePublished"`
			AggregateRating struct {
				RatingValue json.Number `json:"ratingValue"`
			} `json:"aggregateRating"`
		}
		if err := json.Unmarshal([]byte(script.Text()), &payload); err != nil {
			return true
		}
		if payload.Type != "Movie" && payload.Type != "TVSeries" {
			return true
		}
		details.description = payload.Description
		details.releaseDate = payload.DatePublished
		if v, err := payload.AggregateRating.RatingValue.Float64(); err == nil {
			details.rating = &v
		}
		return false
	})
	return details
}

// FetchEpisodes scrapes one season's episode list from a title's episodes
// page. Returns at most limit episodes; any failure returns an empty slice
// and the error for the caller to log.
func (s *IMDBSource) FetchEpisodes(ctx context.Context, titleID string, season, limit int) ([]catalog.EpisodeItem, error) {
	url := fmt.Sprintf("%s/%s/episodes?season=%d", s.titleURL, titleID, season)
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
		return nil, fmt.Errorf("imdb episodes returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse episodes page: %w", err)
	}

	var items []catalog.EpisodeItem
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		var payload struct {
			Type    string `json:"@type"`
			Episode []struct {
				Name          string `json:"name"`
				EpisodeNumber *int   `json:"episodeNumber"`
				DatePublished string `json:"datePublished"`
				Description   string `json:"description"`
				URL           string `json:"url"`
			} `json:"episode"`
		}
		if err := json.Unmarshal([]byte(script.Text()), &payload); err != nil {
			return true
		}
		if payload.Type != "TVSeason" {
			return true
		}
		entries := payload.Episode
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}
		seasonNum := season
		for _, entry := range entries {
			sourceURL := entry.URL
			if sourceURL == "" {
				sourceURL = url
			}
			items = append(items, catalog.EpisodeItem{
				Title:       entry.Name,
				Season:      &seasonNum,
				Episode:     entry.EpisodeNumber,
				AirDate:     entry.DatePublished,
				Description: entry.Description,
				Source:      catalog.SourceIMDB,
				SourceURL:   sourceURL,
			})
		}
		return false
	})
	return items, nil
}
