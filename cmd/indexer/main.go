package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/config"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/logger"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer shutdown(context.Background())
	}

	builder, err := indexer.NewBuilder(cfg.Index)
	if err != nil {
		slog.Error("failed to create index builder", "error", err)
		os.Exit(1)
	}

	slog.Info("index build starting",
		"merged", cfg.Index.MergedPath,
		"index_dir", cfg.Index.Dir,
	)
	start := time.Now()

	stats, err := builder.Build()
	if err != nil {
		slog.Error("index build failed", "error", err)
		os.Exit(1)
	}

	elapsed := time.Since(start)
	m.BlocksWrittenTotal.Add(float64(stats.Blocks))
	m.TermsEmittedTotal.Add(float64(stats.Terms))
	m.StageDuration.WithLabelValues("indexer").Observe(elapsed.Seconds())
	slog.Info("index build finished",
		"postings", stats.Postings,
		"terms", stats.Terms,
		"blocks", stats.Blocks,
		"elapsed", elapsed,
	)
}
