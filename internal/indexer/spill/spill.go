// Package spill implements the parser stage's bounded workspace: a term
// arena and a posting buffer that accumulate (term, docId) tuples, get
// sorted and run-length-collapsed, and spill to sorted temp runs on disk.
package spill

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer/postings"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer/tokenizer"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/pagetable"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/config"
	pkgerrors "github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/errors"
)

// posting points at an interned term in the arena. Offsets stay stable until
// the workspace flushes.
type posting struct {
	termOff uint32
	termLen uint32
	docID   int32
}

const postingSize = 12

// Spiller owns the parser stage workspace. It is single-threaded; the
// lifecycle is AddDocument* then Close.
type Spiller struct {
	cfg    config.ParserConfig
	logger *slog.Logger

	arena    []byte
	postings []posting
	table    pagetable.Table

	docsSinceFlush int
	runFiles       []string

	totalDocs     int64
	totalPostings int64
}

// New creates a Spiller and its temp directory.
func New(cfg config.ParserConfig) (*Spiller, error) {
	if err := os.MkdirAll(cfg.TempDir, 0755); err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}
	postingCap := cfg.PostingBufferMB * 1024 * 1024 / postingSize
	arenaCap := cfg.TermArenaMB * 1024 * 1024
	return &Spiller{
		cfg:      cfg,
		logger:   slog.Default().With("component", "spill"),
		arena:    make([]byte, 0, arenaCap),
		postings: make([]posting, 0, postingCap),
		table:    make(pagetable.Table),
	}, nil
}

// AddDocument tokenises one passage and appends its postings to the
// workspace. It flushes before appending whenever the document would not
// fit, and flushes after appending once the per-batch document threshold is
// reached.
func (s *Spiller) AddDocument(docID int32, text string) error {
	terms := tokenizer.Terms(text)
	s.table.Set(uint32(docID), uint32(len(terms)))
	s.totalDocs++

	var termBytes int
	for _, t := range terms {
		termBytes += len(t)
	}
	if !s.fits(len(terms), termBytes) {
		if err := s.Flush(); err != nil {
			return err
		}
		if !s.fits(len(terms), termBytes) {
			return fmt.Errorf("document %d needs %d postings and %d term bytes: %w",
				docID, len(terms), termBytes, pkgerrors.ErrBufferOverflow)
		}
	}

	for _, t := range terms {
		off := uint32(len(s.arena))
		s.arena = append(s.arena, t...)
		s.postings = append(s.postings, posting{termOff: off, termLen: uint32(len(t)), docID: docID})
	}

	s.docsSinceFlush++
	if s.docsSinceFlush >= s.cfg.DocsPerFlush() {
		return s.Flush()
	}
	return nil
}

func (s *Spiller) fits(postingCount, termBytes int) bool {
	return len(s.postings)+postingCount <= cap(s.postings) &&
		len(s.arena)+termBytes <= cap(s.arena)
}

// Flush sorts the live postings by (term bytes, docId), collapses equal
// (term, docId) runs into freq counts, and writes one sorted temp run.
// An empty workspace flushes to nothing.
func (s *Spiller) Flush() error {
	if len(s.postings) == 0 {
		s.docsSinceFlush = 0
		return nil
	}

	sort.Slice(s.postings, func(i, j int) bool {
		a, b := s.postings[i], s.postings[j]
		cmp := bytes.Compare(s.term(a), s.term(b))
		if cmp != 0 {
			return cmp < 0
		}
		return a.docID < b.docID
	})

	path := filepath.Join(s.cfg.TempDir, fmt.Sprintf("temp%d.bin", len(s.runFiles)))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating temp run %s: %w", path, err)
	}

	w := postings.NewWriter(f)
	written := 0
	last := s.postings[0]
	freq := int32(0)
	for _, p := range s.postings {
		if p.docID == last.docID && bytes.Equal(s.term(p), s.term(last)) {
			freq++
			continue
		}
		if err := w.Write(postings.Record{Term: string(s.term(last)), DocID: last.docID, Freq: freq}); err != nil {
			f.Close()
			return fmt.Errorf("writing temp run %s: %w", path, err)
		}
		written++
		last = p
		freq = 1
	}
	if err := w.Write(postings.Record{Term: string(s.term(last)), DocID: last.docID, Freq: freq}); err != nil {
		f.Close()
		return fmt.Errorf("writing temp run %s: %w", path, err)
	}
	written++

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flushing temp run %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp run %s: %w", path, err)
	}

	s.runFiles = append(s.runFiles, path)
	s.totalPostings += int64(written)
	s.logger.Info("temp run flushed",
		"run", path,
		"raw_postings", len(s.postings),
		"collapsed_postings", written,
		"arena_bytes", len(s.arena),
	)

	s.postings = s.postings[:0]
	s.arena = s.arena[:0]
	s.docsSinceFlush = 0
	return nil
}

func (s *Spiller) term(p posting) []byte {
	return s.arena[p.termOff : p.termOff+p.termLen]
}

// Close flushes the trailing partial run and writes the page table.
func (s *Spiller) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	if err := s.table.WriteFile(s.cfg.PageTablePath); err != nil {
		return err
	}
	s.logger.Info("parser stage complete",
		"docs", s.totalDocs,
		"collapsed_postings", s.totalPostings,
		"temp_runs", len(s.runFiles),
	)
	return nil
}

// RunFiles returns the temp runs written so far, in flush order.
func (s *Spiller) RunFiles() []string { return s.runFiles }

// DocCount returns the number of documents processed.
func (s *Spiller) DocCount() int64 { return s.totalDocs }

// PostingCount returns the number of collapsed postings spilled.
func (s *Spiller) PostingCount() int64 { return s.totalPostings }
