// Package searcher loads the immutable index artifacts and evaluates ranked
// disjunctive queries over them: per-term block cursors, BM25 scoring, and a
// document-at-a-time traversal with MaxScore-style pruning.
package searcher

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer/block"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/pagetable"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/config"
)

// Params are the BM25 constants for a corpus.
type Params struct {
	K1         float64
	B          float64
	CorpusSize float64
}

// Index is the read-only query-time view: lexicon, metadata, page table, and
// block offsets in memory, with the compressed index read from disk per
// block. All fields are immutable after Open, so one Index may serve
// concurrent queries; block reads use positioned ReadAt on the shared file
// handle.
type Index struct {
	file   *os.File
	logger *slog.Logger

	terms       []string
	entries     []block.LexiconEntry
	termToIndex map[string]int
	metadata    []block.Metadata
	offsets     []uint64

	pages        pagetable.Table
	avgDocLength float64
	params       Params
}

// Open loads the lexicon, metadata, and page table and computes the
// block-offset prefix sums. The compressed index file stays open for
// positioned reads.
func Open(cfg config.IndexConfig, pageTablePath string, params Params) (*Index, error) {
	terms, entries, termToIndex, err := block.ReadLexicon(cfg.LexiconPath())
	if err != nil {
		return nil, err
	}
	metadata, err := block.ReadMetadata(cfg.MetadataPath())
	if err != nil {
		return nil, err
	}
	pages, err := pagetable.Load(pageTablePath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(cfg.IndexPath())
	if err != nil {
		return nil, fmt.Errorf("opening index file: %w", err)
	}

	ix := &Index{
		file:         file,
		logger:       slog.Default().With("component", "searcher"),
		terms:        terms,
		entries:      entries,
		termToIndex:  termToIndex,
		metadata:     metadata,
		offsets:      block.Offsets(metadata),
		pages:        pages,
		avgDocLength: pages.AverageLength(),
		params:       params,
	}
	ix.logger.Info("index loaded",
		"terms", len(terms),
		"blocks", len(metadata),
		"docs", len(pages),
		"avg_doc_length", ix.avgDocLength,
	)
	return ix, nil
}

// Lookup returns the lexicon entry for a term.
func (ix *Index) Lookup(term string) (block.LexiconEntry, bool) {
	i, ok := ix.termToIndex[term]
	if !ok {
		return block.LexiconEntry{}, false
	}
	return ix.entries[i], true
}

// DocLength returns the token count of a document, zero if unknown.
func (ix *Index) DocLength(docID uint32) uint32 {
	return ix.pages[docID]
}

// AvgDocLength returns the corpus mean document length.
func (ix *Index) AvgDocLength() float64 {
	return ix.avgDocLength
}

// TermCount returns the lexicon size.
func (ix *Index) TermCount() int {
	return len(ix.terms)
}

// Close releases the index file handle.
func (ix *Index) Close() error {
	return ix.file.Close()
}
