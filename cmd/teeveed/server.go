package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	v1 "github.com/vmunix/teevee/internal/api/v1"
	"github.com/vmunix/teevee/internal/config"
	"github.com/vmunix/teevee/internal/library"
	"github.com/vmunix/teevee/internal/migrations"
	"github.com/vmunix/teevee/internal/refresh"
	"github.com/vmunix/teevee/internal/scrape"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 200 { // Only capture first WriteHeader call
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// buildSources assembles the enabled scrape sources from config. The IMDb
// source is returned separately so the refresher can also use it to fetch
// season episodes.
func buildSources(cfg *config.Config, logger *slog.Logger) ([]scrape.Source, *scrape.IMDBSource) {
	var sources []scrape.Source
	var imdbSource *scrape.IMDBSource
	if cfg.Sources.Wikipedia.Enabled {
		sources = append(sources, scrape.NewWikipediaSource(scrape.WikipediaConfig{
			MinYear:        cfg.Sources.Wikipedia.MinYear,
			FetchSummaries: cfg.Sources.Wikipedia.FetchSummaries,
			SummaryDelay:   cfg.Sources.Wikipedia.SummaryDelay,
		}, logger))
	}
	if cfg.Sources.IMDB.Enabled {
		imdbSource = scrape.NewIMDBSource(scrape.IMDBConfig{
			Queries:     cfg.Sources.IMDB.Queries,
			Limit:       cfg.Sources.IMDB.Limit,
			DetailDelay: cfg.Sources.IMDB.DetailDelay,
		}, logger)
		sources = append(sources, imdbSource)
	}
	if cfg.Sources.TMDB.APIKey != "" {
		sources = append(sources, scrape.NewTMDBSource(scrape.TMDBConfig{
			APIKey:    cfg.Sources.TMDB.APIKey,
			PageLimit: cfg.Sources.TMDB.PageLimit,
			PageDelay: cfg.Sources.TMDB.PageDelay,
		}, logger))
	}
	if cfg.Sources.TVmaze.Enabled {
		sources = append(sources, scrape.NewTVmazeSource(scrape.TVmazeConfig{
			Enabled:   true,
			PageLimit: cfg.Sources.TVmaze.PageLimit,
			PageDelay: cfg.Sources.TVmaze.PageDelay,
		}, logger))
	}
	if cfg.Sources.OMDB.APIKey != "" {
		sources = append(sources, scrape.NewOMDBSource(scrape.OMDBConfig{
			APIKey:    cfg.Sources.OMDB.APIKey,
			Queries:   cfg.Sources.OMDB.Queries,
			PageLimit: cfg.Sources.OMDB.PageLimit,
			PageDelay: cfg.Sources.OMDB.PageDelay,
		}, logger))
	}
	return sources, imdbSource
}

func runServer(configPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return &config.ConfigError{Path: configPath, Errors: errs}
	}

	// Create logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	// Ensure database directory exists
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	// Run migrations
	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// === Refresh pipeline ===
	store := library.NewStore(db)
	sources, imdbSource := buildSources(cfg, logger)

	var episodeFetcher refresh.EpisodeFetcher
	if imdbSource != nil {
		episodeFetcher = imdbSource
	}
	refresher := refresh.NewRefresher(store, sources, episodeFetcher, refresh.Config{
		EpisodesEnabled: cfg.Refresh.EpisodesEnabled,
		EpisodeSeason:   cfg.Refresh.EpisodeSeason,
		EpisodeLimit:    cfg.Refresh.EpisodeLimit,
	}, logger)
	worker := refresh.NewWorker(refresher, cfg.Refresh.Interval, logger)

	// === HTTP Setup ===
	mux := http.NewServeMux()
	apiV1 := v1.New(db, version)
	apiV1.SetRefresher(refresher)
	apiV1.RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting",
		"addr", addr,
		"database", cfg.Database.Path,
		"sources", len(sources),
		"refresh_interval", cfg.Refresh.Interval,
		"log_level", cfg.Server.LogLevel,
	)

	srv := &http.Server{Addr: addr, Handler: logRequests(mux, logger)}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		// Graceful HTTP shutdown with 30s timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}
