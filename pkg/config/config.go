// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every pipeline stage (Parser, Merger, Index, Search) and for the external
// collaborators (Corpus, Postgres, Kafka, Redis, Logging, Metrics).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Parser   ParserConfig   `yaml:"parser"`
	Merger   MergerConfig   `yaml:"merger"`
	Index    IndexConfig    `yaml:"index"`
	Search   SearchConfig   `yaml:"search"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ParserConfig controls the partial-sort stage: buffer sizes, flush cadence,
// and where temp runs and the page table land.
type ParserConfig struct {
	TempDir         string `yaml:"tempDir"`
	PageTablePath   string `yaml:"pageTablePath"`
	DatasetSize     int    `yaml:"datasetSize"`
	TempFileCount   int    `yaml:"tempFileCount"`
	PostingBufferMB int    `yaml:"postingBufferMB"`
	TermArenaMB     int    `yaml:"termArenaMB"`
}

// DocsPerFlush returns the document-count flush threshold.
func (p ParserConfig) DocsPerFlush() int {
	if p.TempFileCount <= 0 {
		return p.DatasetSize
	}
	return p.DatasetSize / p.TempFileCount
}

// MergerConfig controls the k-way merge stage.
type MergerConfig struct {
	TempDir        string `yaml:"tempDir"`
	OutputPath     string `yaml:"outputPath"`
	OutputBufferMB int    `yaml:"outputBufferMB"`
	KeepTempFiles  bool   `yaml:"keepTempFiles"`
}

// IndexConfig holds the on-disk index layout: the index directory, the
// artifact file names, and the merged input stream.
type IndexConfig struct {
	Dir          string `yaml:"dir"`
	IndexFile    string `yaml:"indexFile"`
	LexiconFile  string `yaml:"lexiconFile"`
	MetadataFile string `yaml:"metadataFile"`
	MergedPath   string `yaml:"mergedPath"`
}

// IndexPath returns the full path of the compressed index file.
func (c IndexConfig) IndexPath() string { return c.Dir + "/" + c.IndexFile }

// LexiconPath returns the full path of the lexicon file.
func (c IndexConfig) LexiconPath() string { return c.Dir + "/" + c.LexiconFile }

// MetadataPath returns the full path of the block metadata file.
func (c IndexConfig) MetadataPath() string { return c.Dir + "/" + c.MetadataFile }

// EvalRun names one batch evaluation: a qrels file to enumerate query ids, a
// queries file for the query text, and the output prefix for TREC runs.
type EvalRun struct {
	Name        string `yaml:"name"`
	QrelsPath   string `yaml:"qrelsPath"`
	QueriesPath string `yaml:"queriesPath"`
	OutputPath  string `yaml:"outputPath"`
}

// SearchConfig controls BM25 parameters, result depth, and the evaluation
// runs executed by the searcher.
type SearchConfig struct {
	K1            float64   `yaml:"k1"`
	B             float64   `yaml:"b"`
	CorpusSize    int       `yaml:"corpusSize"`
	TopK          int       `yaml:"topK"`
	TrecCutoffs   []int     `yaml:"trecCutoffs"`
	FlushEvery    int       `yaml:"flushEvery"`
	Parallelism   int       `yaml:"parallelism"`
	CacheEnabled  bool      `yaml:"cacheEnabled"`
	PageTablePath string    `yaml:"pageTablePath"`
	EvalRuns      []EvalRun `yaml:"evalRuns"`
}

// CorpusConfig selects where passages come from: a TSV file, a Postgres
// table, or a Kafka topic.
type CorpusConfig struct {
	Source       string        `yaml:"source"` // file | postgres | kafka
	Path         string        `yaml:"path"`
	Table        string        `yaml:"table"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
	MaxDocuments int           `yaml:"maxDocuments"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings for corpus ingestion.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	ConsumerGroup string   `yaml:"consumerGroup"`
	PassagesTopic string   `yaml:"passagesTopic"`
}

// RedisConfig holds Redis connection and query-cache parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultConfig returns a Config with the corpus constants the pipeline was
// built around: one million passages, sixteen temp runs, BM25 k1=1.2 and
// b=0.75, top-1000 results.
func defaultConfig() *Config {
	return &Config{
		Parser: ParserConfig{
			TempDir:         "data/tmp",
			PageTablePath:   "data/page_table.txt",
			DatasetSize:     1_000_000,
			TempFileCount:   16,
			PostingBufferMB: 100,
			TermArenaMB:     150,
		},
		Merger: MergerConfig{
			TempDir:        "data/tmp",
			OutputPath:     "data/final_merged.bin",
			OutputBufferMB: 100,
		},
		Index: IndexConfig{
			Dir:          "data/index",
			IndexFile:    "index.bin",
			LexiconFile:  "lexicon.bin",
			MetadataFile: "metadata.bin",
			MergedPath:   "data/final_merged.bin",
		},
		Search: SearchConfig{
			K1:            1.2,
			B:             0.75,
			CorpusSize:    1_000_000,
			TopK:          1000,
			TrecCutoffs:   []int{100, 1000},
			FlushEvery:    100,
			Parallelism:   1,
			PageTablePath: "data/page_table.txt",
		},
		Corpus: CorpusConfig{
			Source:      "file",
			Path:        "data/subset_passages.tsv",
			Table:       "passages",
			IdleTimeout: 30 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "passagesearch",
			User:            "passagesearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "passagesearch-group",
			PassagesTopic: "passages-ingest",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

func validate(cfg *Config) error {
	if cfg.Parser.DatasetSize <= 0 {
		return fmt.Errorf("parser.datasetSize must be positive, got %d", cfg.Parser.DatasetSize)
	}
	if cfg.Parser.TempFileCount <= 0 {
		return fmt.Errorf("parser.tempFileCount must be positive, got %d", cfg.Parser.TempFileCount)
	}
	if cfg.Search.TopK <= 0 {
		return fmt.Errorf("search.topK must be positive, got %d", cfg.Search.TopK)
	}
	switch cfg.Corpus.Source {
	case "file", "postgres", "kafka":
	default:
		return fmt.Errorf("corpus.source must be file, postgres, or kafka, got %q", cfg.Corpus.Source)
	}
	return nil
}

// applyEnvOverrides reads PS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PS_CORPUS_SOURCE"); v != "" {
		cfg.Corpus.Source = v
	}
	if v := os.Getenv("PS_CORPUS_PATH"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv("PS_PARSER_TEMP_DIR"); v != "" {
		cfg.Parser.TempDir = v
		cfg.Merger.TempDir = v
	}
	if v := os.Getenv("PS_INDEX_DIR"); v != "" {
		cfg.Index.Dir = v
	}
	if v := os.Getenv("PS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("PS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("PS_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("PS_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("PS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("PS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("PS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("PS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("PS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("PS_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
