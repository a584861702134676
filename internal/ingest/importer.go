// Package ingest loads the IMDb bulk TSV datasets (title.basics,
// title.ratings, title.episode) into the catalog. Rows funnel through the
// same merge engines as live scraping, so bulk data obeys the same field
// quality and identity rules.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/vmunix/teevee/internal/catalog"
	"github.com/vmunix/teevee/internal/library"
)

// Datasets names the input files for one ingest run. Paths ending in .gz
// are decompressed on the fly. Episodes may be empty to skip episode ingest.
type Datasets struct {
	Basics   string // title.basics.tsv(.gz)
	Ratings  string // title.ratings.tsv(.gz), optional
	Episodes string // title.episode.tsv(.gz), optional
	Limit    int    // per-file cap on ingested rows, 0 = unlimited
}

// Result tallies one ingest run.
type Result struct {
	Titles   catalog.Stats
	Episodes catalog.Stats
}

// Importer runs bulk dataset ingests against the library store.
type Importer struct {
	store *library.Store
	log   *slog.Logger
}

// NewImporter creates an Importer.
func NewImporter(store *library.Store, log *slog.Logger) *Importer {
	return &Importer{
		store: store,
		log:   log.With("component", "ingest"),
	}
}

// Run ingests the configured datasets: titles first, then episodes for
// every series the title pass made resolvable. Each phase commits in its
// own transaction.
func (im *Importer) Run(ctx context.Context, ds Datasets) (Result, error) {
	var result Result

	ratings, err := im.loadRatings(ds.Ratings, ds.Limit)
	if err != nil {
		return result, err
	}

	result.Titles, err = im.ingestTitles(ctx, ds, ratings)
	if err != nil {
		return result, err
	}
	im.log.Info("title ingest done", "created", result.Titles.Created, "updated", result.Titles.Updated)

	if ds.Episodes == "" {
		return result, nil
	}

	result.Episodes, err = im.ingestEpisodes(ctx, ds)
	if err != nil {
		return result, err
	}
	im.log.Info("episode ingest done", "created", result.Episodes.Created, "updated", result.Episodes.Updated)
	return result, nil
}

// loadRatings builds the tconst -> average rating join table.
func (im *Importer) loadRatings(path string, limit int) (map[string]*float64, error) {
	ratings := make(map[string]*float64)
	if path == "" {
		return ratings, nil
	}

	r, err := openTSV(path)
	if err != nil {
		return nil, fmt.Errorf("ratings: %w", err)
	}
	defer r.Close()

	count := 0
	for row, ok := r.Next(); ok; row, ok = r.Next() {
		if limit > 0 && count >= limit {
			break
		}
		tconst := r.field(row, "tconst")
		if tconst == "" {
			continue
		}
		ratings[tconst] = r.floatField(row, "averageRating")
		count++
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("ratings: %w", err)
	}
	im.log.Debug("loaded ratings", "rows", len(ratings))
	return ratings, nil
}

// titleTypeToMedia maps the basics titleType column onto catalog media
// types. Only the types the catalog carries pass the basics filter.
func titleTypeToMedia(titleType string) catalog.MediaType {
	if titleType == "movie" {
		return catalog.MediaTypeMovie
	}
	return catalog.MediaTypeSeries
}

func imdbTitleURL(tconst string) string {
	return "https://www.imdb.com/title/" + tconst + "/"
}

// ingestTitles streams the basics file through the title merge engine
// inside one transaction.
func (im *Importer) ingestTitles(ctx context.Context, ds Datasets, ratings map[string]*float64) (catalog.Stats, error) {
	var stats catalog.Stats

	r, err := openTSV(ds.Basics)
	if err != nil {
		return stats, fmt.Errorf("basics: %w", err)
	}
	defer r.Close()

	items := func(yield func(catalog.Item) bool) {
		count := 0
		for row, ok := r.Next(); ok; row, ok = r.Next() {
			if ds.Limit > 0 && count >= ds.Limit {
				return
			}
			titleType := r.field(row, "titleType")
			if titleType != "movie" && titleType != "tvSeries" && titleType != "tvMiniSeries" {
				continue
			}
			tconst := r.field(row, "tconst")
			title := r.field(row, "primaryTitle")
			if tconst == "" || title == "" {
				continue
			}
			item := catalog.Item{
				Title:      title,
				MediaType:  titleTypeToMedia(titleType),
				Year:       r.intField(row, "startYear"),
				Source:     catalog.SourceIMDB,
				SourceURL:  imdbTitleURL(tconst),
				ExternalID: tconst,
				Rating:     ratings[tconst],
			}
			count++
			if !yield(item) {
				return
			}
		}
	}

	tx, err := im.store.Begin()
	if err != nil {
		return stats, err
	}
	defer tx.Rollback()

	stats, err = catalog.NewMerger(tx, im.log).Merge(ctx, items)
	if err != nil {
		return stats, err
	}
	if err := r.Err(); err != nil {
		return stats, fmt.Errorf("basics: %w", err)
	}
	return stats, tx.Commit()
}

type episodeTitle struct {
	title string
	year  *int
}

// loadEpisodeTitles makes a second pass over the basics file for the
// tvEpisode rows the title filter skipped.
func (im *Importer) loadEpisodeTitles(path string, limit int) (map[string]episodeTitle, error) {
	r, err := openTSV(path)
	if err != nil {
		return nil, fmt.Errorf("episode titles: %w", err)
	}
	defer r.Close()

	titles := make(map[string]episodeTitle)
	count := 0
	for row, ok := r.Next(); ok; row, ok = r.Next() {
		if limit > 0 && count >= limit {
			break
		}
		if r.field(row, "titleType") != "tvEpisode" {
			continue
		}
		tconst := r.field(row, "tconst")
		title := r.field(row, "primaryTitle")
		if tconst == "" || title == "" {
			continue
		}
		titles[tconst] = episodeTitle{title: title, year: r.intField(row, "startYear")}
		count++
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("episode titles: %w", err)
	}
	return titles, nil
}

// seriesLookup maps imdb external ids onto catalog ids.
func (im *Importer) seriesLookup(ctx context.Context) (map[string]int64, error) {
	source := catalog.SourceIMDB
	titles, _, err := im.store.ListTitles(ctx, library.TitleFilter{
		Source:        &source,
		HasExternalID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list imdb titles: %w", err)
	}
	lookup := make(map[string]int64, len(titles))
	for _, t := range titles {
		lookup[t.ExternalID] = t.ID
	}
	return lookup, nil
}

// ingestEpisodes resolves the episode map against the catalog and runs the
// episode merge engine per parent series, all inside one transaction.
func (im *Importer) ingestEpisodes(ctx context.Context, ds Datasets) (catalog.Stats, error) {
	var stats catalog.Stats

	lookup, err := im.seriesLookup(ctx)
	if err != nil {
		return stats, err
	}
	episodeTitles, err := im.loadEpisodeTitles(ds.Basics, ds.Limit)
	if err != nil {
		return stats, err
	}

	r, err := openTSV(ds.Episodes)
	if err != nil {
		return stats, fmt.Errorf("episodes: %w", err)
	}
	defer r.Close()

	perSeries := make(map[int64][]catalog.EpisodeItem)
	count := 0
	for row, ok := r.Next(); ok; row, ok = r.Next() {
		if ds.Limit > 0 && count >= ds.Limit {
			break
		}
		tconst := r.field(row, "tconst")
		parent := r.field(row, "parentTconst")
		if tconst == "" || parent == "" {
			continue
		}
		catalogID, ok := lookup[parent]
		if !ok {
			continue
		}
		named, ok := episodeTitles[tconst]
		if !ok {
			continue
		}
		var airDate string
		if named.year != nil {
			airDate = strconv.Itoa(*named.year)
		}
		perSeries[catalogID] = append(perSeries[catalogID], catalog.EpisodeItem{
			Title:     named.title,
			Season:    r.intField(row, "seasonNumber"),
			Episode:   r.intField(row, "episodeNumber"),
			AirDate:   airDate,
			Source:    catalog.SourceIMDB,
			SourceURL: imdbTitleURL(tconst),
		})
		count++
	}
	if err := r.Err(); err != nil {
		return stats, fmt.Errorf("episodes: %w", err)
	}

	tx, err := im.store.Begin()
	if err != nil {
		return stats, err
	}
	defer tx.Rollback()

	merger := catalog.NewEpisodeMerger(tx, im.log)
	for _, catalogID := range sortedKeys(perSeries) {
		seriesStats, err := merger.Merge(ctx, catalogID, slices.Values(perSeries[catalogID]))
		if err != nil {
			return stats, err
		}
		stats.Add(seriesStats)
	}
	return stats, tx.Commit()
}

func sortedKeys(m map[int64][]catalog.EpisodeItem) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
