package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer/merge"
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

	// Temp runs are numbered densely from zero by the parser.
	var inputs []string
	for i := 0; ; i++ {
		path := filepath.Join(cfg.Merger.TempDir, fmt.Sprintf("temp%d.bin", i))
		if _, err := os.Stat(path); err != nil {
			break
		}
		inputs = append(inputs, path)
	}
	if len(inputs) == 0 {
		slog.Error("no temp runs found", "temp_dir", cfg.Merger.TempDir)
		os.Exit(1)
	}

	slog.Info("merge stage starting",
		"inputs", len(inputs),
		"output", cfg.Merger.OutputPath,
		"buffer_mb", cfg.Merger.OutputBufferMB,
	)
	start := time.Now()

	written, err := merge.Merge(inputs, cfg.Merger.OutputPath, cfg.Merger.OutputBufferMB*1024*1024)
	if err != nil {
		slog.Error("merge failed", "error", err)
		os.Exit(1)
	}

	if !cfg.Merger.KeepTempFiles {
		for _, path := range inputs {
			if err := os.Remove(path); err != nil {
				slog.Warn("failed to remove temp run", "path", path, "error", err)
			}
		}
	}

	elapsed := time.Since(start)
	m.RecordsMergedTotal.Add(float64(written))
	m.StageDuration.WithLabelValues("merger").Observe(elapsed.Seconds())
	slog.Info("merge stage finished", "records", written, "elapsed", elapsed)
}
