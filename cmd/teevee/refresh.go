package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/teevee/internal/config"
	"github.com/vmunix/teevee/internal/library"
	"github.com/vmunix/teevee/internal/refresh"
	"github.com/vmunix/teevee/internal/scrape"
)

func init() {
	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run a catalog refresh pass",
		Long: `Fetches all enabled sources, merges the results into the catalog,
and updates episodes for IMDb series. Runs once by default; pass
--interval to keep refreshing on a schedule until interrupted.`,
		RunE: runRefresh,
	}

	refreshCmd.Flags().Duration("interval", 0, "Repeat on this interval instead of running once")
	refreshCmd.Flags().Bool("no-episodes", false, "Skip the episode refresh pass")

	rootCmd.AddCommand(refreshCmd)
}

// buildSources assembles the enabled scrape sources from config. The IMDb
// source doubles as the episode fetcher when enabled.
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

func runRefresh(cmd *cobra.Command, args []string) error {
	interval, _ := cmd.Flags().GetDuration("interval")
	noEpisodes, _ := cmd.Flags().GetBool("no-episodes")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	store := library.NewStore(db)
	sources, imdbSource := buildSources(cfg, logger)
	if len(sources) == 0 {
		return fmt.Errorf("no sources enabled in config")
	}

	var episodeFetcher refresh.EpisodeFetcher
	if imdbSource != nil {
		episodeFetcher = imdbSource
	}
	refresher := refresh.NewRefresher(store, sources, episodeFetcher, refresh.Config{
		EpisodesEnabled: cfg.Refresh.EpisodesEnabled && !noEpisodes,
		EpisodeSeason:   cfg.Refresh.EpisodeSeason,
		EpisodeLimit:    cfg.Refresh.EpisodeLimit,
	}, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if interval > 0 {
		worker := refresh.NewWorker(refresher, interval, logger)
		if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}

	start := time.Now()
	summary, err := refresher.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	fmt.Printf("Refresh complete in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  titles:   %d created, %d updated\n", summary.Titles.Created, summary.Titles.Updated)
	fmt.Printf("  episodes: %d created, %d updated\n", summary.Episodes.Created, summary.Episodes.Updated)
	return nil
}
