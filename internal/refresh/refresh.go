// Package refresh orchestrates catalog refresh passes: every scrape source
// feeds the title merge engine, then the imdb-sourced series get an episode
// pass. A failing source never aborts the pass; store failures do.
package refresh

import (
	"context"
	"log/slog"
	"slices"

	"github.com/vmunix/teevee/internal/catalog"
	"github.com/vmunix/teevee/internal/library"
	"github.com/vmunix/teevee/internal/scrape"
)

//go:generate mockgen -destination=mocks/mock_source.go -package=mocks github.com/vmunix/teevee/internal/scrape Source
//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks github.com/vmunix/teevee/internal/refresh EpisodeFetcher

// EpisodeFetcher fetches one season's episode list for an imdb title id.
type EpisodeFetcher interface {
	FetchEpisodes(ctx context.Context, titleID string, season, limit int) ([]catalog.EpisodeItem, error)
}

// Config controls the episode half of a refresh pass.
type Config struct {
	EpisodesEnabled bool
	EpisodeSeason   int // season scraped per series, default 1
	EpisodeLimit    int // episodes kept per series, default 25
}

// Summary tallies one refresh pass.
type Summary struct {
	Titles   catalog.Stats
	Episodes catalog.Stats
}

// Refresher runs refresh passes against the library store.
type Refresher struct {
	store    *library.Store
	sources  []scrape.Source
	episodes EpisodeFetcher
	cfg      Config
	log      *slog.Logger
}

// NewRefresher creates a Refresher. episodes may be nil when the episode
// pass is disabled.
func NewRefresher(store *library.Store, sources []scrape.Source, episodes EpisodeFetcher, cfg Config, log *slog.Logger) *Refresher {
	if cfg.EpisodeSeason == 0 {
		cfg.EpisodeSeason = 1
	}
	if cfg.EpisodeLimit == 0 {
		cfg.EpisodeLimit = 25
	}
	return &Refresher{
		store:    store,
		sources:  sources,
		episodes: episodes,
		cfg:      cfg,
		log:      log.With("component", "refresh"),
	}
}

// Refresh runs one full pass. The returned summary covers whatever
// completed, even on error.
func (r *Refresher) Refresh(ctx context.Context) (Summary, error) {
	var summary Summary
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	merger := catalog.NewMerger(r.store, r.log)
	for _, src := range r.sources {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		items, err := src.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			r.log.Warn("source fetch failed", "source", src.Name(), "error", err)
			continue
		}
		stats, err := merger.Merge(ctx, slices.Values(items))
		summary.Titles.Add(stats)
		if err != nil {
			return summary, err
		}
		r.log.Info("source merged", "source", src.Name(),
			"fetched", len(items), "created", stats.Created, "updated", stats.Updated)
	}

	if !r.cfg.EpisodesEnabled || r.episodes == nil {
		return summary, nil
	}

	stats, err := r.refreshEpisodes(ctx)
	summary.Episodes = stats
	return summary, err
}

// refreshEpisodes scrapes one season for every imdb series that carries an
// external id. A per-series fetch failure is skipped.
func (r *Refresher) refreshEpisodes(ctx context.Context) (catalog.Stats, error) {
	var stats catalog.Stats

	source := catalog.SourceIMDB
	mediaType := catalog.MediaTypeSeries
	series, _, err := r.store.ListTitles(ctx, library.TitleFilter{
		Source:        &source,
		MediaType:     &mediaType,
		HasExternalID: true,
	})
	if err != nil {
		return stats, err
	}
	r.log.Info("starting episode pass", "series", len(series))

	merger := catalog.NewEpisodeMerger(r.store, r.log)
	for _, title := range series {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		episodes, err := r.episodes.FetchEpisodes(ctx, title.ExternalID, r.cfg.EpisodeSeason, r.cfg.EpisodeLimit)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			r.log.Warn("episode fetch failed", "title", title.Title, "external_id", title.ExternalID, "error", err)
			continue
		}
		if len(episodes) == 0 {
			continue
		}
		seriesStats, err := merger.Merge(ctx, title.ID, slices.Values(episodes))
		stats.Add(seriesStats)
		if err != nil {
			return stats, err
		}
	}
	return stats, nil
}
