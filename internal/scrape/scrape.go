// Package scrape implements the per-source catalog producers. Each source
// turns one external origin (Wikipedia lists, IMDb pages, the TMDB, TVmaze,
// and OMDb APIs) into the normalized item shape the merge engine consumes.
package scrape

import (
	"context"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vmunix/teevee/internal/catalog"
)

// userAgent identifies the scraper to the sites it visits.
const userAgent = "teevee/1.0 (+https://github.com/vmunix/teevee)"

// Source is a catalog producer. Implementations fetch and normalize titles
// from one external origin. A fetch or parse failure for part of a source is
// recovered inside the source (those rows are dropped); an error return
// means the whole source produced nothing this pass, which the caller treats
// as an empty result, not a fatal condition.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]catalog.Item, error)
}

// parseYear extracts the first plausible year from strings like "2014",
// "2014-06-13", or OMDb's "2011–2019" range form.
func parseYear(value string) *int {
	for _, chunk := range strings.FieldsFunc(value, func(r rune) bool {
		return r == '-' || r == '–'
	}) {
		chunk = strings.TrimSpace(chunk)
		if n, err := strconv.Atoi(chunk); err == nil && n > 0 {
			return &n
		}
	}
	return nil
}

func parseRating(value string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return nil
	}
	return &v
}

// stripHTML flattens an HTML fragment to its text content. TVmaze ships
// summaries as HTML paragraphs.
func stripHTML(value string) string {
	if value == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(value))
	if err != nil {
		return strings.TrimSpace(value)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
