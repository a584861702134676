package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/teevee/internal/ingest"
	"github.com/vmunix/teevee/internal/library"
)

func init() {
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Import IMDb bulk datasets into the catalog",
		Long: `Imports IMDb TSV datasets (title.basics, title.ratings,
title.episode) into the catalog. Files may be gzip-compressed.
Datasets are available from https://datasets.imdbws.com/.`,
		RunE: runIngest,
	}

	ingestCmd.Flags().String("basics", "", "Path to title.basics.tsv[.gz] (required)")
	ingestCmd.Flags().String("ratings", "", "Path to title.ratings.tsv[.gz]")
	ingestCmd.Flags().String("episodes", "", "Path to title.episode.tsv[.gz]")
	ingestCmd.Flags().Int("limit", 0, "Stop after this many titles (0 = no limit)")

	_ = ingestCmd.MarkFlagRequired("basics")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	basics, _ := cmd.Flags().GetString("basics")
	ratings, _ := cmd.Flags().GetString("ratings")
	episodes, _ := cmd.Flags().GetString("episodes")
	limit, _ := cmd.Flags().GetInt("limit")

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

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	importer := ingest.NewImporter(library.NewStore(db), logger)

	start := time.Now()
	result, err := importer.Run(ctx, ingest.Datasets{
		Basics:   basics,
		Ratings:  ratings,
		Episodes: episodes,
		Limit:    limit,
	})
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	fmt.Printf("Ingest complete in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  titles:   %d created, %d updated\n", result.Titles.Created, result.Titles.Updated)
	fmt.Printf("  episodes: %d created, %d updated\n", result.Episodes.Created, result.Episodes.Updated)
	return nil
}
