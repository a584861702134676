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

const defaultWikipediaBaseURL = "https://en.wikipedia.org"

// WikipediaConfig controls which list pages are scraped.
type WikipediaConfig struct {
	MinYear        int           // oldest year list to fetch; 0 = previous year
	FetchSummaries bool          // fetch per-title REST summaries for descriptions
	SummaryDelay   time.Duration // politeness delay between summary requests
}

// WikipediaSource scrapes Wikipedia film/series list pages. Each year gets a
// movie and a series list; a fixed set of collection pages (highest-grossing
// films, genre series lists) is scraped on top.
type WikipediaSource struct {
	cfg        WikipediaConfig
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
	now        func() time.Time
}

// WikipediaOption configures a WikipediaSource.
type WikipediaOption func(*WikipediaSource)

// WithWikipediaBaseURL sets a custom base URL (for testing).
func WithWikipediaBaseURL(url string) WikipediaOption {
	return func(s *WikipediaSource) {
		s.baseURL = url
	}
}

// WithWikipediaHTTPClient sets a custom HTTP client.
func WithWikipediaHTTPClient(hc *http.Client) WikipediaOption {
	return func(s *WikipediaSource) {
		s.httpClient = hc
	}
}

// NewWikipediaSource creates a Wikipedia list-page source.
func NewWikipediaSource(cfg WikipediaConfig, log *slog.Logger, opts ...WikipediaOption) *WikipediaSource {
	s := &WikipediaSource{
		cfg:     cfg,
		baseURL: defaultWikipediaBaseURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		log: log.With("component", "scrape.wikipedia"),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the provenance tag.
func (s *WikipediaSource) Name() string { return catalog.SourceWikipedia }

// listPage is one Wikipedia page to scrape.
type listPage struct {
	url       string
	year      *int
	mediaType catalog.MediaType
}

func (s *WikipediaSource) pages() []listPage {
	currentYear := s.now().UTC().Year()
	minYear := s.cfg.MinYear
	if minYear == 0 {
		minYear = currentYear - 1
	}

	var pages []listPage
	for year := currentYear; year >= minYear; year-- {
		y := year
		pages = append(pages,
			listPage{
				url:       fmt.Sprintf("%s/wiki/List_of_American_films_of_%d", s.baseURL, year),
				year:      &y,
				mediaType: catalog.MediaTypeMovie,
			},
			listPage{
				url:       fmt.Sprintf("%s/wiki/List_of_American_television_series_of_%d", s.baseURL, year),
				year:      &y,
				mediaType: catalog.MediaTypeSeries,
			},
		)
	}

	collections := []struct {
		slug      string
		mediaType catalog.MediaType
	}{
		{"List_of_highest-grossing_films", catalog.MediaTypeMovie},
		{"List_of_highest-grossing_films_in_the_United_States", catalog.MediaTypeMovie},
		{"List_of_highest-grossing_animated_films", catalog.MediaTypeMovie},
		{"List_of_highest-grossing_films_by_year", catalog.MediaTypeMovie},
		{"List_of_animated_television_series", catalog.MediaTypeSeries},
		{"List_of_drama_television_series", catalog.MediaTypeSeries},
		{"List_of_comedy_television_series", catalog.MediaTypeSeries},
	}
	for _, c := range collections {
		pages = append(pages, listPage{
			url:       s.baseURL + "/wiki/" + c.slug,
			mediaType: c.mediaType,
		})
	}
	return pages
}

// Fetch scrapes every configured list page. Pages that fail to fetch or
// parse are skipped; the pass never aborts on a single bad page.
func (s *WikipediaSource) Fetch(ctx context.Context) ([]catalog.Item, error) {
	var items []catalog.Item
	for _, page := range s.pages() {
		if err := ctx.Err(); err != nil {
			return items, err
		}
		pageItems, err := s.fetchListPage(ctx, page)
		if err != nil {
			s.log.Warn("skipping wikipedia page", "url", page.url, "error", err)
			continue
		}
		items = append(items, pageItems...)
	}
	return items, nil
}

func (s *WikipediaSource) fetchListPage(ctx context.Context, page listPage) ([]catalog.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, page.url, nil)
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
		return nil, fmt.Errorf("wikipedia returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var items []catalog.Item
	doc.Find("table.wikitable").EachWithBreak(func(tableIdx int, table *goquery.Selection) bool {
		// The lead tables carry the titles; later ones are footnotes.
		if tableIdx >= 2 {
			return false
		}
		headers := tableHeaders(table)
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() == 0 {
				return
			}
			titleCell := cells.First()
			title := strings.TrimSpace(titleCell.Text())
			if title == "" {
				return
			}

			cellText := make([]string, 0, cells.Length())
			cells.Each(func(_ int, cell *goquery.Selection) {
				cellText = append(cellText, strings.Join(strings.Fields(cell.Text()), " "))
			})

			description := cellByHeader(headers, cellText, "notes", "description")
			releaseDate := cellByHeader(headers, cellText, "release date", "first aired", "release")
			rating := ratingByHeader(headers, cellText)

			if s.cfg.FetchSummaries {
				if summary := s.fetchSummary(ctx, titleCell); summary != "" {
					description = summary
				}
			}

			items = append(items, catalog.Item{
				Title:       title,
				MediaType:   page.mediaType,
				Year:        page.year,
				Source:      catalog.SourceWikipedia,
				SourceURL:   page.url,
				Description: description,
				ReleaseDate: releaseDate,
				Rating:      rating,
			})
		})
		return true
	})
	return items, nil
}

// fetchSummary resolves the title cell's wiki link through the REST summary
// endpoint. Failures just mean no description from this path.
func (s *WikipediaSource) fetchSummary(ctx context.Context, titleCell *goquery.Selection) string {
	href, ok := titleCell.Find("a").First().Attr("href")
	if !ok || !strings.HasPrefix(href, "/wiki/") {
		return ""
	}
	slug := strings.TrimPrefix(href, "/wiki/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/rest_v1/page/summary/"+slug, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var payload struct {
		Extract string `json:"extract"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ""
	}

	if s.cfg.SummaryDelay > 0 {
		select {
		case <-time.After(s.cfg.SummaryDelay):
		case <-ctx.Done():
		}
	}
	return strings.TrimSpace(payload.Extract)
}

func tableHeaders(table *goquery.Selection) []string {
	var headers []string
	table.Find("tr th").Each(func(_ int, cell *goquery.Selection) {
		headers = append(headers, strings.ToLower(strings.Join(strings.Fields(cell.Text()), " ")))
	})
	return headers
}

// cellByHeader returns the cell under the first header containing any of the
// given fragments.
func cellByHeader(headers, cells []string, fragments ...string) string {
	for idx, header := range headers {
		for _, fragment := range fragments {
			if strings.Contains(header, fragment) && idx < len(cells) {
				return cells[idx]
			}
		}
	}
	return ""
}

// ratingByHeader parses the leading number out of a rating cell, so forms
// like "7.5/10" and "7.5 (123 votes)" both yield 7.5.
func ratingByHeader(headers, cells []string) *float64 {
	text := strings.TrimSpace(cellByHeader(headers, cells, "rating"))
	end := 0
	for end < len(text) {
		c := text[end]
		if (c < '0' || c > '9') && c != '.' {
			break
		}
		end++
	}
	if end == 0 {
		return nil
	}
	return parseRating(text[:end])
}
