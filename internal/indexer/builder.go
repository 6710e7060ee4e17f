// Package indexer turns the globally sorted posting stream into the
// block-compressed inverted index, its lexicon, and its per-block metadata.
package indexer

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer/block"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer/postings"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/config"
)

// BuildStats summarises one index build.
type BuildStats struct {
	Postings int64
	Terms    int64
	Blocks   int64
}

// Builder streams merged postings into the three index artifacts.
type Builder struct {
	cfg    config.IndexConfig
	logger *slog.Logger
}

// NewBuilder creates a Builder writing into cfg.Dir.
func NewBuilder(cfg config.IndexConfig) (*Builder, error) {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	return &Builder{
		cfg:    cfg,
		logger: slog.Default().With("component", "index-builder"),
	}, nil
}

// Build consumes the merged stream at cfg.MergedPath and writes the
// compressed index, lexicon, and metadata files.
func (b *Builder) Build() (BuildStats, error) {
	in, err := os.Open(b.cfg.MergedPath)
	if err != nil {
		return BuildStats{}, fmt.Errorf("opening merged stream %s: %w", b.cfg.MergedPath, err)
	}
	defer in.Close()

	indexFile, err := os.Create(b.cfg.IndexPath())
	if err != nil {
		return BuildStats{}, fmt.Errorf("creating index file: %w", err)
	}
	defer indexFile.Close()

	lexiconFile, err := os.Create(b.cfg.LexiconPath())
	if err != nil {
		return BuildStats{}, fmt.Errorf("creating lexicon file: %w", err)
	}
	defer lexiconFile.Close()

	stats, err := b.build(postings.NewReader(in), indexFile, lexiconFile)
	if err != nil {
		return stats, err
	}
	if err := indexFile.Close(); err != nil {
		return stats, fmt.Errorf("closing index file: %w", err)
	}
	if err := lexiconFile.Close(); err != nil {
		return stats, fmt.Errorf("closing lexicon file: %w", err)
	}
	b.logger.Info("index build complete",
		"postings", stats.Postings,
		"terms", stats.Terms,
		"blocks", stats.Blocks,
	)
	return stats, nil
}

func (b *Builder) build(in *postings.Reader, indexOut, lexiconOut io.Writer) (BuildStats, error) {
	var stats BuildStats

	indexWriter := bufio.NewWriterSize(indexOut, 1<<20)
	lexicon := block.NewLexiconWriter(lexiconOut)

	var (
		current   block.Block
		metadata  []block.Metadata
		scratch   []byte
		blockNum  uint32
		termStart block.LexiconEntry

		currentTerm string
		havePosting bool
	)

	emitBlock := func() error {
		body, meta := current.Compress(scratch)
		scratch = body[:0]
		if _, err := indexWriter.Write(body); err != nil {
			return fmt.Errorf("writing block %d: %w", blockNum, err)
		}
		metadata = append(metadata, meta)
		blockNum++
		current.Reset()
		return nil
	}

	emitTerm := func() error {
		if err := lexicon.Write(currentTerm, termStart); err != nil {
			return fmt.Errorf("writing lexicon entry for %q: %w", currentTerm, err)
		}
		stats.Terms++
		return nil
	}

	for {
		rec, err := in.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("reading merged stream: %w", err)
		}

		if !havePosting || rec.Term != currentTerm {
			if havePosting {
				if err := emitTerm(); err != nil {
					return stats, err
				}
			}
			currentTerm = rec.Term
			termStart = block.LexiconEntry{
				StartBlock: blockNum,
				StartIndex: uint32(current.Len()),
			}
			havePosting = true
		}

		current.Append(uint32(rec.DocID), uint32(rec.Freq))
		termStart.ListLength++
		stats.Postings++

		if current.Full() {
			if err := emitBlock(); err != nil {
				return stats, err
			}
		}
	}

	if havePosting {
		if current.Len() > 0 {
			if err := emitBlock(); err != nil {
				return stats, err
			}
		}
		if err := emitTerm(); err != nil {
			return stats, err
		}
	}

	if err := indexWriter.Flush(); err != nil {
		return stats, fmt.Errorf("flushing index file: %w", err)
	}
	if err := lexicon.Flush(); err != nil {
		return stats, fmt.Errorf("flushing lexicon: %w", err)
	}

	metadataFile, err := os.Create(b.cfg.MetadataPath())
	if err != nil {
		return stats, fmt.Errorf("creating metadata file: %w", err)
	}
	defer metadataFile.Close()
	if err := block.WriteMetadata(metadataFile, metadata); err != nil {
		return stats, err
	}
	if err := metadataFile.Close(); err != nil {
		return stats, fmt.Errorf("closing metadata file: %w", err)
	}

	stats.Blocks = int64(len(metadata))
	return stats, nil
}
