// Package corpus abstracts where passages come from. The parser stage only
// needs a stream of (docId, text) records; this package provides that stream
// from a TSV file, a Postgres table, or a Kafka topic.
package corpus

import (
	"context"
	"fmt"

	"github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/config"
	pkgerrors "github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/errors"
)

// HandleFunc receives one passage.
type HandleFunc func(docID int32, text string) error

// Source streams passages into a HandleFunc until the corpus is exhausted or
// ctx is cancelled.
type Source interface {
	Each(ctx context.Context, fn HandleFunc) error
	Name() string
}

// NewSource builds the Source selected by cfg.Corpus.Source.
func NewSource(cfg *config.Config) (Source, error) {
	switch cfg.Corpus.Source {
	case "file":
		return NewFileSource(cfg.Corpus.Path), nil
	case "postgres":
		return NewPostgresSource(cfg.Postgres, cfg.Corpus.Table)
	case "kafka":
		return NewKafkaSource(cfg.Kafka, cfg.Corpus), nil
	default:
		return nil, fmt.Errorf("unknown corpus source %q: %w", cfg.Corpus.Source, pkgerrors.ErrNoInput)
	}
}
