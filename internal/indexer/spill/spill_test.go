package spill

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer/postings"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/pagetable"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/config"
	pkgerrors "github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, datasetSize, tempFileCount int) config.ParserConfig {
	dir := t.TempDir()
	return config.ParserConfig{
		TempDir:         dir,
		PageTablePath:   filepath.Join(dir, "page_table.txt"),
		DatasetSize:     datasetSize,
		TempFileCount:   tempFileCount,
		PostingBufferMB: 1,
		TermArenaMB:     1,
	}
}

func readRun(t *testing.T, path string) []postings.Record {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r := postings.NewReader(f)
	var records []postings.Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records
		}
		require.NoError(t, err)
		records = append(records, rec)
	}
}

func TestSortAndCollapse(t *testing.T) {
	s, err := New(testConfig(t, 1000, 1))
	require.NoError(t, err)

	require.NoError(t, s.AddDocument(2, "the cat and the hat"))
	require.NoError(t, s.AddDocument(1, "cat cat cat"))
	require.NoError(t, s.Close())

	runs := s.RunFiles()
	require.Len(t, runs, 1)
	got := readRun(t, runs[0])
	want := []postings.Record{
		{Term: "and", DocID: 2, Freq: 1},
		{Term: "cat", DocID: 1, Freq: 3},
		{Term: "cat", DocID: 2, Freq: 1},
		{Term: "hat", DocID: 2, Freq: 1},
		{Term: "the", DocID: 2, Freq: 2},
	}
	assert.Equal(t, want, got)
}

func TestFlushCadence(t *testing.T) {
	// datasetSize 4 over 2 temp files flushes every 2 documents.
	s, err := New(testConfig(t, 4, 2))
	require.NoError(t, err)

	require.NoError(t, s.AddDocument(1, "alpha"))
	assert.Empty(t, s.RunFiles())
	require.NoError(t, s.AddDocument(2, "beta"))
	assert.Len(t, s.RunFiles(), 1)
	require.NoError(t, s.AddDocument(3, "gamma"))
	require.NoError(t, s.AddDocument(4, "delta"))
	assert.Len(t, s.RunFiles(), 2)

	// No leftover postings, so Close adds no extra run.
	require.NoError(t, s.Close())
	assert.Len(t, s.RunFiles(), 2)
}

func TestDocIDNeverSpansRuns(t *testing.T) {
	s, err := New(testConfig(t, 4, 2))
	require.NoError(t, err)

	require.NoError(t, s.AddDocument(1, "apple banana"))
	require.NoError(t, s.AddDocument(2, "apple"))
	require.NoError(t, s.AddDocument(3, "banana apple"))
	require.NoError(t, s.Close())

	seen := make(map[int32]int)
	for i, run := range s.RunFiles() {
		for _, rec := range readRun(t, run) {
			if prev, ok := seen[rec.DocID]; ok {
				assert.Equal(t, prev, i, "docId %d appears in two runs", rec.DocID)
			}
			seen[rec.DocID] = i
		}
	}
}

func TestPageTableCountsTotalTokens(t *testing.T) {
	cfg := testConfig(t, 1000, 1)
	s, err := New(cfg)
	require.NoError(t, err)

	require.NoError(t, s.AddDocument(10, "dog dog dog cat"))
	require.NoError(t, s.AddDocument(11, ""))
	require.NoError(t, s.Close())

	table, err := pagetable.Load(cfg.PageTablePath)
	require.NoError(t, err)
	assert.Equal(t, pagetable.Table{10: 4, 11: 0}, table)
}

func TestOversizedDocumentOverflows(t *testing.T) {
	s, err := New(testConfig(t, 1000, 1))
	require.NoError(t, err)

	// Term bytes exceed the 1 MB arena even after a flush.
	huge := strings.Repeat("abcdefgh ", 200_000)
	err = s.AddDocument(1, huge)
	assert.ErrorIs(t, err, pkgerrors.ErrBufferOverflow)
}

func TestEmptyInputProducesNoRuns(t *testing.T) {
	s, err := New(testConfig(t, 1000, 1))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Empty(t, s.RunFiles())
}
