package merge

import (
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer/postings"
	pkgerrors "github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRun(t *testing.T, path string, records []postings.Record) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := postings.NewWriter(f)
	for _, rec := range records {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Flush())
	require.NoError(t, f.Close())
}

func readAll(t *testing.T, path string) []postings.Record {
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

func TestMergeTwoRuns(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "temp0.bin")
	b := filepath.Join(dir, "temp1.bin")
	out := filepath.Join(dir, "merged.bin")

	writeRun(t, a, []postings.Record{
		{Term: "a", DocID: 1, Freq: 1},
		{Term: "b", DocID: 2, Freq: 1},
	})
	writeRun(t, b, []postings.Record{
		{Term: "a", DocID: 2, Freq: 1},
		{Term: "c", DocID: 1, Freq: 1},
	})

	n, err := Merge([]string{a, b}, out, 1<<20)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	want := []postings.Record{
		{Term: "a", DocID: 1, Freq: 1},
		{Term: "a", DocID: 2, Freq: 1},
		{Term: "b", DocID: 2, Freq: 1},
		{Term: "c", DocID: 1, Freq: 1},
	}
	if diff := cmp.Diff(want, readAll(t, out)); diff != "" {
		t.Errorf("merged stream mismatch (-want +got):\n%s", diff)
	}
}

func TestMergePreservesMultisetAndOrder(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(42))
	terms := []string{"ant", "bee", "cow", "dog", "eel", "fox"}

	var all []postings.Record
	var inputs []string
	next := int32(0)
	for i := 0; i < 5; i++ {
		var run []postings.Record
		for _, term := range terms {
			if rng.Intn(2) == 0 {
				continue
			}
			// Unique docIds overall, sorted inside the run per term.
			for j := 0; j < 1+rng.Intn(4); j++ {
				next++
				run = append(run, postings.Record{Term: term, DocID: next, Freq: int32(1 + rng.Intn(5))})
			}
		}
		path := filepath.Join(dir, filepath.Base(dir)+string(rune('a'+i))+".bin")
		writeRun(t, path, run)
		inputs = append(inputs, path)
		all = append(all, run...)
	}

	out := filepath.Join(dir, "merged.bin")
	n, err := Merge(inputs, out, 1<<16)
	require.NoError(t, err)
	assert.EqualValues(t, len(all), n)

	got := readAll(t, out)
	sort.Slice(all, func(i, j int) bool { return all[i].Less(all[j]) })
	if diff := cmp.Diff(all, got); diff != "" {
		t.Errorf("merged stream mismatch (-want +got):\n%s", diff)
	}
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Less(got[i-1]), "output not sorted at %d", i)
	}
}

func TestMergeEmptyInputList(t *testing.T) {
	_, err := Merge(nil, filepath.Join(t.TempDir(), "out.bin"), 1<<16)
	assert.ErrorIs(t, err, pkgerrors.ErrNoInput)
}

func TestMergeMissingInputIsFatal(t *testing.T) {
	dir := t.TempDir()
	_, err := Merge([]string{filepath.Join(dir, "absent.bin")}, filepath.Join(dir, "out.bin"), 1<<16)
	assert.Error(t, err)
}

func TestMergeSkipsEmptyRun(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "temp0.bin")
	full := filepath.Join(dir, "temp1.bin")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	writeRun(t, full, []postings.Record{{Term: "x", DocID: 1, Freq: 1}})

	out := filepath.Join(dir, "merged.bin")
	n, err := Merge([]string{empty, full}, out, 1<<16)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
