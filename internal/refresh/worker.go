package refresh

import (
	"context"
	"log/slog"
	"time"
)

// Worker runs refresh passes on an interval. The first pass starts
// immediately.
type Worker struct {
	refresher *Refresher
	interval  time.Duration
	log       *slog.Logger
}

// NewWorker creates a Worker.
func NewWorker(refresher *Refresher, interval time.Duration, log *slog.Logger) *Worker {
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	return &Worker{
		refresher: refresher,
		interval:  interval,
		log:       log.With("component", "refresh.worker"),
	}
}

// Run blocks until the context is canceled. A failed pass is logged and the
// worker keeps its schedule.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("refresh worker started", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("refresh worker stopped")
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	summary, err := w.refresher.Refresh(ctx)
	if err != nil {
		w.log.Error("refresh pass failed", "error", err)
		return
	}
	w.log.Info("refresh pass done",
		"titles_created", summary.Titles.Created,
		"titles_updated", summary.Titles.Updated,
		"episodes_created", summary.Episodes.Created,
		"episodes_updated", summary.Episodes.Updated)
}
