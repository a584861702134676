package catalog

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
)

// TitleStore is the persistence the title merge engine needs: identity-key
// point lookups with read-your-writes visibility, insert, and update.
// Lookups return (nil, nil) when no row matches.
type TitleStore interface {
	FindTitle(ctx context.Context, title, source string, mediaType MediaType) (*Title, error)
	FindTitleByExternalID(ctx context.Context, source, externalID string) (*Title, error)
	AddTitle(ctx context.Context, t *Title) error
	UpdateTitle(ctx context.Context, t *Title) error
}

// Merger reconciles incoming catalog items against the stored catalog.
type Merger struct {
	store TitleStore
	log   *slog.Logger
}

// NewMerger creates a title merge engine.
func NewMerger(store TitleStore, log *slog.Logger) *Merger {
	if log == nil {
		log = slog.Default()
	}
	return &Merger{store: store, log: log}
}

// Merge consumes items one at a time, in stream order, and folds each into
// the catalog: garbage titles are skipped, unknown identity keys insert a
// new row, known keys merge field by field under the quality rules. The
// producing sequence may block on network calls; Merge never prefetches.
// A store error aborts the pass and returns the tallies so far.
func (m *Merger) Merge(ctx context.Context, items iter.Seq[Item]) (Stats, error) {
	var stats Stats
	for item := range items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		title := strings.TrimSpace(item.Title)
		if !ValidText(title) {
			m.log.Debug("skipping item with invalid title", "source", item.Source)
			continue
		}

		existing, err := m.findExisting(ctx, item, title)
		if err != nil {
			return stats, fmt.Errorf("find title %q: %w", title, err)
		}

		if existing == nil {
			t := newTitle(item, title)
			if err := m.store.AddTitle(ctx, t); err != nil {
				return stats, fmt.Errorf("add title %q: %w", title, err)
			}
			stats.Created++
			continue
		}

		if mergeTitle(existing, item) {
			if err := m.store.UpdateTitle(ctx, existing); err != nil {
				return stats, fmt.Errorf("update title %q: %w", title, err)
			}
			stats.Updated++
		}
	}
	return stats, nil
}

// findExisting resolves the identity key for one candidate. IMDb items
// carrying a tconst match on (external_id, source); everything else matches
// the natural (title, source, media_type) triple, exactly. Case and
// whitespace differences produce distinct keys on purpose.
func (m *Merger) findExisting(ctx context.Context, item Item, title string) (*Title, error) {
	if item.Source == SourceIMDB && strings.TrimSpace(item.ExternalID) != "" {
		return m.store.FindTitleByExternalID(ctx, item.Source, strings.TrimSpace(item.ExternalID))
	}
	return m.store.FindTitle(ctx, title, item.Source, item.MediaType)
}

// newTitle builds the stored record for a first sighting, fields taken
// verbatim (trimmed) from the item.
func newTitle(item Item, title string) *Title {
	return &Title{
		Title:       title,
		MediaType:   item.MediaType,
		Year:        item.Year,
		Source:      item.Source,
		SourceURL:   strings.TrimSpace(item.SourceURL),
		ExternalID:  strings.TrimSpace(item.ExternalID),
		Description: strings.TrimSpace(item.Description),
		ReleaseDate: strings.TrimSpace(item.ReleaseDate),
		Rating:      item.Rating,
	}
}

// mergeTitle applies the per-field quality rules to an existing row and
// reports whether anything changed. The title itself is part of the identity
// key and stays immutable. No field is ever replaced with worse or equal
// data, so re-merging the same item is a no-op.
func mergeTitle(existing *Title, item Item) bool {
	changed := false

	if d := BetterText(existing.Description, item.Description); d != existing.Description {
		existing.Description = d
		changed = true
	}
	if r := BetterText(existing.ReleaseDate, item.ReleaseDate); r != existing.ReleaseDate {
		existing.ReleaseDate = r
		changed = true
	}
	if y := fillInt(existing.Year, item.Year); y != existing.Year {
		existing.Year = y
		changed = true
	}
	if u := fillText(existing.SourceURL, item.SourceURL); u != existing.SourceURL {
		existing.SourceURL = u
		changed = true
	}
	if id := fillText(existing.ExternalID, item.ExternalID); id != existing.ExternalID {
		existing.ExternalID = id
		changed = true
	}
	if r := betterRating(existing.Rating, item.Rating); r != existing.Rating {
		existing.Rating = r
		changed = true
	}

	return changed
}
