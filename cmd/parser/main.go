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

	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/corpus"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer/spill"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := corpus.NewSource(cfg)
	if err != nil {
		slog.Error("failed to create corpus source", "error", err)
		os.Exit(1)
	}
	spiller, err := spill.New(cfg.Parser)
	if err != nil {
		slog.Error("failed to create parser workspace", "error", err)
		os.Exit(1)
	}

	slog.Info("parser stage starting",
		"source", src.Name(),
		"docs_per_flush", cfg.Parser.DocsPerFlush(),
		"temp_dir", cfg.Parser.TempDir,
	)
	start := time.Now()

	err = src.Each(ctx, func(docID int32, text string) error {
		m.DocsParsedTotal.Inc()
		return spiller.AddDocument(docID, text)
	})
	if err != nil {
		slog.Error("corpus read failed", "error", err)
		os.Exit(1)
	}
	if err := spiller.Close(); err != nil {
		slog.Error("final flush failed", "error", err)
		os.Exit(1)
	}

	elapsed := time.Since(start)
	m.PostingsSpilledTotal.Add(float64(spiller.PostingCount()))
	m.TempRunsTotal.Add(float64(len(spiller.RunFiles())))
	m.StageDuration.WithLabelValues("parser").Observe(elapsed.Seconds())
	slog.Info("parser stage finished",
		"docs", spiller.DocCount(),
		"postings", spiller.PostingCount(),
		"temp_runs", len(spiller.RunFiles()),
		"elapsed", elapsed,
	)
}
