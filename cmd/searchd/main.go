package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/autocomplete"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/engine"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/engine/cache"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/index/bundle"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/server"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/taxonomy"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/config"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/health"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/logger"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	bundleDir := flag.String("bundle", "data/bundle", "path to the index bundle directory")
	taxonomyPath := flag.String("taxonomy", "data/taxonomy.yaml", "path to the taxonomy file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "bundle", *bundleDir)

	tax, err := taxonomy.Load(*taxonomyPath)
	if err != nil {
		slog.Error("failed to load taxonomy", "path", *taxonomyPath, "error", err)
		os.Exit(1)
	}

	artifacts, manifest, err := bundle.Load(*bundleDir)
	if err != nil {
		slog.Error("failed to load index bundle", "dir", *bundleDir, "error", err)
		os.Exit(1)
	}
	slog.Info("index bundle ready",
		"bundle_id", manifest.BundleID,
		"verses", manifest.VerseCount,
		"terms", manifest.TermCount,
		"created_at", manifest.CreatedAt,
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	var resultCache *cache.Cache
	if cfg.Cache.Enabled {
		resultCache = cache.New(cfg.Cache, m)
		slog.Info("result cache enabled", "capacity", cfg.Cache.Capacity, "ttl", cfg.Cache.TTL)
	}

	eng := engine.New(cfg.Search, artifacts, tax, resultCache, m)
	suggest := autocomplete.New(artifacts.Trie, m)

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if artifacts.Verses.Len() > 0 {
			return health.ComponentHealth{
				Status:  health.StatusUp,
				Message: fmt.Sprintf("%d verses indexed", artifacts.Verses.Len()),
			}
		}
		return health.ComponentHealth{Status: health.StatusDown, Message: "no verses loaded"}
	})
	checker.Register("cache", func(ctx context.Context) health.ComponentHealth {
		if resultCache == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "disabled"}
		}
		stats := resultCache.Stats()
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d/%d entries", stats.Size, stats.Capacity),
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if m != nil {
		stopMetrics := metrics.StartServer(cfg.Metrics.Port)
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			stopMetrics(shutdownCtx)
		}()
	}

	handler := server.NewHandler(eng, suggest, cfg.Search.MaxResults)
	srv := server.New(cfg.Server, handler, checker, m)

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}
