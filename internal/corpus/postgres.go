package corpus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/config"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/postgres"
)

// PostgresSource streams passages from a (doc_id, passage) table in docId
// order, so downstream behaviour matches the TSV corpus.
type PostgresSource struct {
	client *postgres.Client
	table  string
	logger *slog.Logger
}

func NewPostgresSource(cfg config.PostgresConfig, table string) (*PostgresSource, error) {
	client, err := postgres.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting corpus database: %w", err)
	}
	return &PostgresSource{
		client: client,
		table:  table,
		logger: slog.Default().With("component", "corpus-postgres"),
	}, nil
}

func (s *PostgresSource) Name() string { return "postgres:" + s.table }

func (s *PostgresSource) Each(ctx context.Context, fn HandleFunc) error {
	defer s.client.Close()

	query := fmt.Sprintf("SELECT doc_id, passage FROM %s ORDER BY doc_id", s.table)
	rows, err := s.client.DB.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("querying corpus table %s: %w", s.table, err)
	}
	defer rows.Close()

	var count int64
	for rows.Next() {
		var docID int32
		var text string
		if err := rows.Scan(&docID, &text); err != nil {
			return fmt.Errorf("scanning corpus row: %w", err)
		}
		if err := fn(docID, text); err != nil {
			return err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating corpus table %s: %w", s.table, err)
	}
	s.logger.Info("corpus table read", "table", s.table, "rows", count)
	return nil
}
