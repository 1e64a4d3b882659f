package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/corpus"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/index/builder"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/index/bundle"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/taxonomy"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/config"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	corpusDir := flag.String("corpus", "data/corpus", "directory of chapter JSON files")
	taxonomyPath := flag.String("taxonomy", "data/taxonomy.yaml", "path to the taxonomy file")
	outDir := flag.String("out", "data/bundle", "output bundle directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	slog.Info("index build starting",
		"corpus", *corpusDir,
		"taxonomy", *taxonomyPath,
		"out", *outDir,
	)

	tax, err := taxonomy.Load(*taxonomyPath)
	if err != nil {
		slog.Error("failed to load taxonomy", "path", *taxonomyPath, "error", err)
		os.Exit(1)
	}

	verses, stats, err := corpus.Load(*corpusDir, cfg.Builder.MaxSkippedChapters)
	if err != nil {
		slog.Error("failed to load corpus", "dir", *corpusDir, "error", err)
		os.Exit(1)
	}
	if stats.SkippedChapters > 0 {
		slog.Warn("corpus loaded with skipped chapters",
			"verses", len(verses),
			"skipped_chapters", stats.SkippedChapters,
		)
	}

	artifacts, err := builder.New(cfg.Builder, tax, nil).Build(ctx, verses)
	if err != nil {
		slog.Error("index build failed", "error", err)
		os.Exit(1)
	}

	manifest, err := bundle.Write(*outDir, artifacts)
	if err != nil {
		slog.Error("failed to write bundle", "dir", *outDir, "error", err)
		os.Exit(1)
	}

	slog.Info("index build complete",
		"bundle_id", manifest.BundleID,
		"verses", manifest.VerseCount,
		"terms", manifest.TermCount,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
}
