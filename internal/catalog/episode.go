package catalog

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
)

// EpisodeStore is the persistence the episode merge engine needs. Lookups
// return (nil, nil) when no row matches.
type EpisodeStore interface {
	FindEpisodeByNumber(ctx context.Context, catalogID int64, season, episode int) (*Episode, error)
	FindEpisodeByTitle(ctx context.Context, catalogID int64, title string) (*Episode, error)
	AddEpisode(ctx context.Context, e *Episode) error
	UpdateEpisode(ctx context.Context, e *Episode) error
}

// EpisodeMerger reconciles incoming episode items against the stored
// episodes of one series.
type EpisodeMerger struct {
	store EpisodeStore
	log   *slog.Logger
}

// NewEpisodeMerger creates an episode merge engine.
func NewEpisodeMerger(store EpisodeStore, log *slog.Logger) *EpisodeMerger {
	if log == nil {
		log = slog.Default()
	}
	return &EpisodeMerger{store: store, log: log}
}

// Merge folds episode items for one series into the store. Identity is
// two-tier, chosen per candidate: (catalog_id, season, episode) when both
// numbers are present, (catalog_id, title) otherwise — some sources supply
// only a title with no numbering, so both key shapes coexist. An empty
// sequence is a no-op, which is how a failed per-source fetch surfaces.
func (m *EpisodeMerger) Merge(ctx context.Context, catalogID int64, items iter.Seq[EpisodeItem]) (Stats, error) {
	var stats Stats
	for item := range items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		title := strings.TrimSpace(item.Title)
		if !ValidText(title) {
			m.log.Debug("skipping episode with invalid title", "catalog_id", catalogID, "source", item.Source)
			continue
		}

		existing, err := m.findExisting(ctx, catalogID, item, title)
		if err != nil {
			return stats, fmt.Errorf("find episode %q: %w", title, err)
		}

		if existing == nil {
			e := newEpisode(catalogID, item, title)
			if err := m.store.AddEpisode(ctx, e); err != nil {
				return stats, fmt.Errorf("add episode %q: %w", title, err)
			}
			stats.Created++
			continue
		}

		if mergeEpisode(existing, item) {
			if err := m.store.UpdateEpisode(ctx, existing); err != nil {
				return stats, fmt.Errorf("update episode %q: %w", title, err)
			}
			stats.Updated++
		}
	}
	return stats, nil
}

func (m *EpisodeMerger) findExisting(ctx context.Context, catalogID int64, item EpisodeItem, title string) (*Episode, error) {
	if item.Season != nil && item.Episode != nil {
		return m.store.FindEpisodeByNumber(ctx, catalogID, *item.Season, *item.Episode)
	}
	return m.store.FindEpisodeByTitle(ctx, catalogID, title)
}

func newEpisode(catalogID int64, item EpisodeItem, title string) *Episode {
	return &Episode{
		CatalogID:   catalogID,
		Title:       title,
		Season:      item.Season,
		Episode:     item.Episode,
		AirDate:     strings.TrimSpace(item.AirDate),
		Description: strings.TrimSpace(item.Description),
		Source:      item.Source,
		SourceURL:   strings.TrimSpace(item.SourceURL),
	}
}

// mergeEpisode applies the quality rules to an existing episode. Unlike a
// catalog title, the episode title is mergeable: when the row was matched by
// season/episode number, a longer-string source can improve the title.
func mergeEpisode(existing *Episode, item EpisodeItem) bool {
	changed := false

	if t := BetterText(existing.Title, item.Title); t != existing.Title {
		existing.Title = t
		changed = true
	}
	if a := BetterText(existing.AirDate, item.AirDate); a != existing.AirDate {
		existing.AirDate = a
		changed = true
	}
	if d := BetterText(existing.Description, item.Description); d != existing.Description {
		existing.Description = d
		changed = true
	}
	if u := fillText(existing.SourceURL, item.SourceURL); u != existing.SourceURL {
		existing.SourceURL = u
		changed = true
	}

	return changed
}
