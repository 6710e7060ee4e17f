package corpus

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/config"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/kafka"
)

// PassageMessage is the JSON payload published on the passages topic.
type PassageMessage struct {
	DocID int32  `json:"doc_id"`
	Text  string `json:"text"`
}

// KafkaSource drains passages from a topic. A batch build has an end, so the
// consumer stops after maxDocuments messages (when configured) or after the
// topic has been idle for idleTimeout.
type KafkaSource struct {
	kafkaCfg config.KafkaConfig
	cfg      config.CorpusConfig
	logger   *slog.Logger
}

func NewKafkaSource(kafkaCfg config.KafkaConfig, cfg config.CorpusConfig) *KafkaSource {
	return &KafkaSource{
		kafkaCfg: kafkaCfg,
		cfg:      cfg,
		logger:   slog.Default().With("component", "corpus-kafka"),
	}
}

func (s *KafkaSource) Name() string { return "kafka:" + s.kafkaCfg.PassagesTopic }

func (s *KafkaSource) Each(ctx context.Context, fn HandleFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var consumed atomic.Int64
	var lastMessage atomic.Int64
	lastMessage.Store(time.Now().UnixNano())

	handler := func(ctx context.Context, key []byte, value []byte) error {
		msg, err := kafka.DecodeJSON[PassageMessage](value)
		if err != nil {
			s.logger.Error("dropping undecodable passage message", "error", err)
			return nil
		}
		if err := fn(msg.DocID, msg.Text); err != nil {
			return err
		}
		lastMessage.Store(time.Now().UnixNano())
		if n := consumed.Add(1); s.cfg.MaxDocuments > 0 && n >= int64(s.cfg.MaxDocuments) {
			cancel()
		}
		return nil
	}

	consumer := kafka.NewConsumer(s.kafkaCfg, s.kafkaCfg.PassagesTopic, handler)
	defer consumer.Close()

	if s.cfg.IdleTimeout > 0 {
		go func() {
			ticker := time.NewTicker(s.cfg.IdleTimeout / 2)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					idle := time.Since(time.Unix(0, lastMessage.Load()))
					if idle >= s.cfg.IdleTimeout {
						s.logger.Info("topic idle, ending ingestion",
							"idle", idle,
							"consumed", consumed.Load(),
						)
						cancel()
						return
					}
				}
			}
		}()
	}

	err := consumer.Start(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
