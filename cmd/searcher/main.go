package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/searcher"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/searcher/cache"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/config"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/logger"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/metrics"
	pkgredis "github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/redis"
	"golang.org/x/sync/errgroup"
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

	params := searcher.Params{
		K1:         cfg.Search.K1,
		B:          cfg.Search.B,
		CorpusSize: float64(cfg.Search.CorpusSize),
	}
	ix, err := searcher.Open(cfg.Index, cfg.Search.PageTablePath, params)
	if err != nil {
		slog.Error("failed to load index", "error", err)
		os.Exit(1)
	}
	defer ix.Close()

	var queryCache *cache.QueryCache
	if cfg.Search.CacheEnabled {
		client, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Error("failed to connect redis, continuing without cache", "error", err)
		} else {
			defer client.Close()
			queryCache = cache.New(client, cfg.Redis)
		}
	}

	ctx := context.Background()
	for _, run := range cfg.Search.EvalRuns {
		if err := processRun(ctx, cfg, ix, queryCache, m, run); err != nil {
			slog.Error("evaluation run failed", "run", run.Name, "error", err)
			os.Exit(1)
		}
	}
	if queryCache != nil {
		hits, misses := queryCache.Stats()
		m.CacheHitsTotal.Add(float64(hits))
		m.CacheMissesTotal.Add(float64(misses))
		slog.Info("query cache totals", "hits", hits, "misses", misses)
	}
}

// processRun evaluates every unique query of one qrels file and writes a
// TREC run per configured cutoff. Queries are evaluated in parallel in
// chunks of flushEvery, then written sequentially so output order is stable.
func processRun(
	ctx context.Context,
	cfg *config.Config,
	ix *searcher.Index,
	queryCache *cache.QueryCache,
	m *metrics.Metrics,
	run config.EvalRun,
) error {
	queryIDs, err := searcher.UniqueQueryIDs(run.QrelsPath)
	if err != nil {
		return err
	}
	queries, err := searcher.LoadQueries(run.QueriesPath)
	if err != nil {
		return err
	}
	slog.Info("evaluation run starting",
		"run", run.Name,
		"queries", len(queryIDs),
		"cutoffs", cfg.Search.TrecCutoffs,
	)
	start := time.Now()

	outputs := make([]*bufio.Writer, len(cfg.Search.TrecCutoffs))
	files := make([]*os.File, len(cfg.Search.TrecCutoffs))
	for i, cutoff := range cfg.Search.TrecCutoffs {
		path := fmt.Sprintf("%s.top%d.trec", run.OutputPath, cutoff)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating trec output %s: %w", path, err)
		}
		files[i] = f
		outputs[i] = bufio.NewWriterSize(f, 1<<20)
	}
	defer func() {
		for _, f := range files {
			if f != nil {
				f.Close()
			}
		}
	}()

	flushEvery := cfg.Search.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 100
	}
	parallelism := cfg.Search.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}

	for chunkStart := 0; chunkStart < len(queryIDs); chunkStart += flushEvery {
		chunk := queryIDs[chunkStart:min(chunkStart+flushEvery, len(queryIDs))]
		results := make([][]searcher.ScoredDoc, len(chunk))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(parallelism)
		for i, queryID := range chunk {
			i, queryID := i, queryID
			g.Go(func() error {
				query, ok := queries[queryID]
				if !ok {
					m.QueriesTotal.WithLabelValues("empty_query").Inc()
					return nil
				}
				qStart := time.Now()
				ranked, cached, err := evaluate(gctx, ix, queryCache, cfg.Search.TopK, query)
				if err != nil {
					m.QueriesTotal.WithLabelValues("error").Inc()
					return fmt.Errorf("query %d: %w", queryID, err)
				}
				status := "miss"
				if cached {
					status = "hit"
				}
				m.QueryLatency.WithLabelValues(status).Observe(time.Since(qStart).Seconds())
				m.QueryResultsCount.Observe(float64(len(ranked)))
				if len(ranked) == 0 {
					m.QueriesTotal.WithLabelValues("zero_result").Inc()
				} else {
					m.QueriesTotal.WithLabelValues("hit").Inc()
				}
				results[i] = ranked
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i, queryID := range chunk {
			for j, cutoff := range cfg.Search.TrecCutoffs {
				if err := searcher.WriteTrec(outputs[j], queryID, results[i], cutoff); err != nil {
					return err
				}
			}
		}
		for _, w := range outputs {
			if err := w.Flush(); err != nil {
				return fmt.Errorf("flushing trec output: %w", err)
			}
		}
		slog.Debug("query chunk flushed", "run", run.Name, "queries", chunkStart+len(chunk))
	}

	for i, w := range outputs {
		if err := w.Flush(); err != nil {
			return fmt.Errorf("flushing trec output: %w", err)
		}
		if err := files[i].Close(); err != nil {
			return fmt.Errorf("closing trec output: %w", err)
		}
		files[i] = nil
	}
	slog.Info("evaluation run finished",
		"run", run.Name,
		"queries", len(queryIDs),
		"elapsed", time.Since(start),
	)
	return nil
}

func evaluate(
	ctx context.Context,
	ix *searcher.Index,
	queryCache *cache.QueryCache,
	k int,
	query string,
) ([]searcher.ScoredDoc, bool, error) {
	if queryCache == nil {
		results, err := ix.Evaluate(query, k)
		return results, false, err
	}
	return queryCache.GetOrCompute(ctx, query, k, func() ([]searcher.ScoredDoc, error) {
		return ix.Evaluate(query, k)
	})
}
