// Package metrics defines the Prometheus metric collectors used across the
// indexing pipeline and the searcher, and exposes an HTTP handler for
// scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the pipeline.
type Metrics struct {
	DocsParsedTotal      prometheus.Counter
	PostingsSpilledTotal prometheus.Counter
	TempRunsTotal        prometheus.Counter
	RecordsMergedTotal   prometheus.Counter
	BlocksWrittenTotal   prometheus.Counter
	TermsEmittedTotal    prometheus.Counter
	StageDuration        *prometheus.HistogramVec
	QueriesTotal         *prometheus.CounterVec
	QueryLatency         *prometheus.HistogramVec
	QueryResultsCount    prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		DocsParsedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_parsed_total",
				Help: "Total passages tokenized by the parser stage.",
			},
		),
		PostingsSpilledTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "postings_spilled_total",
				Help: "Total collapsed postings written to temp runs.",
			},
		),
		TempRunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "temp_runs_total",
				Help: "Total sorted temp files flushed by the parser.",
			},
		),
		RecordsMergedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "records_merged_total",
				Help: "Total posting records written by the k-way merger.",
			},
		),
		BlocksWrittenTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "blocks_written_total",
				Help: "Total compressed 128-posting blocks emitted.",
			},
		),
		TermsEmittedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "terms_emitted_total",
				Help: "Total lexicon entries written by the index builder.",
			},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stage_duration_seconds",
				Help:    "Wall-clock duration of each pipeline stage.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"stage"},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total queries evaluated by result type (hit, zero_result, empty_query, error).",
			},
			[]string{"result_type"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "DAAT query latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		QueryResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of ranked results returned per query.",
				Buckets: []float64{0, 1, 10, 100, 500, 1000},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of query cache misses.",
			},
		),
	}

	prometheus.MustRegister(
		m.DocsParsedTotal,
		m.PostingsSpilledTotal,
		m.TempRunsTotal,
		m.RecordsMergedTotal,
		m.BlocksWrittenTotal,
		m.TermsEmittedTotal,
		m.StageDuration,
		m.QueriesTotal,
		m.QueryLatency,
		m.QueryResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
