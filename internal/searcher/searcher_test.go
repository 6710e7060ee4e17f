package searcher

import (
	"math"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer/block"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer/merge"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer/spill"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer/tokenizer"
	"github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/config"
	"github.com/stretchr/testify/require"
)

type doc struct {
	id   int32
	text string
}

// buildIndex runs the full pipeline (spill, merge, build) over the given
// passages and opens the result.
func buildIndex(t *testing.T, docs []doc) *Index {
	t.Helper()
	dir := t.TempDir()
	parserCfg := config.ParserConfig{
		TempDir:         filepath.Join(dir, "tmp"),
		PageTablePath:   filepath.Join(dir, "page_table.txt"),
		DatasetSize:     len(docs) * 2,
		TempFileCount:   2,
		PostingBufferMB: 1,
		TermArenaMB:     1,
	}
	s, err := spill.New(parserCfg)
	require.NoError(t, err)
	for _, d := range docs {
		require.NoError(t, s.AddDocument(d.id, d.text))
	}
	require.NoError(t, s.Close())

	indexCfg := config.IndexConfig{
		Dir:          filepath.Join(dir, "index"),
		IndexFile:    "index.bin",
		LexiconFile:  "lexicon.bin",
		MetadataFile: "metadata.bin",
		MergedPath:   filepath.Join(dir, "final_merged.bin"),
	}
	_, err = merge.Merge(s.RunFiles(), indexCfg.MergedPath, 1<<20)
	require.NoError(t, err)

	b, err := indexer.NewBuilder(indexCfg)
	require.NoError(t, err)
	_, err = b.Build()
	require.NoError(t, err)

	ix, err := Open(indexCfg, parserCfg.PageTablePath, Params{K1: 1.2, B: 0.75, CorpusSize: 1_000_000})
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })
	return ix
}

// referenceRank scores every document containing any query term the long
// way and returns the top k (score desc, docId asc on ties).
func referenceRank(docs []doc, query string, k int, params Params, pages map[uint32]uint32, avgLen float64) []ScoredDoc {
	df := make(map[string]int)
	tf := make(map[string]map[uint32]int)
	for _, d := range docs {
		counts := make(map[string]int)
		for _, term := range tokenizer.Terms(d.text) {
			counts[term]++
		}
		for term, n := range counts {
			df[term]++
			if tf[term] == nil {
				tf[term] = make(map[uint32]int)
			}
			tf[term][uint32(d.id)] = n
		}
	}

	scores := make(map[uint32]float64)
	for _, term := range tokenizer.Terms(query) {
		postings, ok := tf[term]
		if !ok {
			continue
		}
		idf := logIDF(params.CorpusSize, float64(df[term]))
		for docID, n := range postings {
			docLen := float64(pages[docID])
			bigK := params.K1 * ((1 - params.B) + params.B*(docLen/avgLen))
			scores[docID] += idf * (params.K1 + 1) * float64(n) / (bigK + float64(n))
		}
	}

	ranked := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		ranked = append(ranked, ScoredDoc{DocID: docID, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].DocID < ranked[j].DocID
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

func testCorpus() []doc {
	docs := []doc{
		{1, "the quick brown fox jumps over the lazy dog"},
		{2, "a fast brown dog chases the quick red fox"},
		{3, "information retrieval with inverted indexes"},
		{4, "compressed inverted indexes for passage retrieval"},
		{5, "the dog sleeps"},
		{6, "fox fox fox"},
		{7, "quick quick dog"},
		{8, "retrieval of brown passages"},
		{9, "an unrelated passage about sailing ships"},
		{10, "ships sail the quick seas"},
	}
	// A few identical documents exercise score ties.
	docs = append(docs,
		doc{11, "tied passage text"},
		doc{12, "tied passage text"},
		doc{13, "tied passage text"},
	)
	return docs
}

func pagesOf(docs []doc) (map[uint32]uint32, float64) {
	pages := make(map[uint32]uint32)
	var total uint64
	for _, d := range docs {
		n := uint32(len(tokenizer.Terms(d.text)))
		pages[uint32(d.id)] = n
		total += uint64(n)
	}
	return pages, float64(total) / float64(len(docs))
}

func TestEvaluateMatchesReference(t *testing.T) {
	docs := testCorpus()
	ix := buildIndex(t, docs)
	pages, avgLen := pagesOf(docs)
	params := Params{K1: 1.2, B: 0.75, CorpusSize: 1_000_000}

	queries := []string{
		"quick fox",
		"brown dog retrieval",
		"inverted indexes",
		"tied passage",
		"sailing the seas",
		"dog",
	}
	for _, q := range queries {
		t.Run(strings.ReplaceAll(q, " ", "_"), func(t *testing.T) {
			got, err := ix.Evaluate(q, 1000)
			require.NoError(t, err)
			want := referenceRank(docs, q, 1000, params, pages, avgLen)
			require.Equal(t, len(want), len(got), "result count")
			for i := range want {
				require.Equal(t, want[i].DocID, got[i].DocID, "rank %d", i)
				require.InDelta(t, want[i].Score, got[i].Score, 1e-9, "score at rank %d", i)
			}
		})
	}
}

func TestEvaluateSmallKMatchesReference(t *testing.T) {
	docs := testCorpus()
	ix := buildIndex(t, docs)
	pages, avgLen := pagesOf(docs)
	params := Params{K1: 1.2, B: 0.75, CorpusSize: 1_000_000}

	// k smaller than the match count forces heap evictions and pruning.
	for _, k := range []int{1, 2, 3} {
		got, err := ix.Evaluate("quick brown dog fox", k)
		require.NoError(t, err)
		want := referenceRank(docs, "quick brown dog fox", k, params, pages, avgLen)
		require.Equal(t, len(want), len(got))
		for i := range want {
			require.Equal(t, want[i].DocID, got[i].DocID, "k=%d rank %d", k, i)
			require.InDelta(t, want[i].Score, got[i].Score, 1e-9)
		}
	}
}

func TestEvaluateUnknownTermsDropped(t *testing.T) {
	ix := buildIndex(t, testCorpus())

	results, err := ix.Evaluate("fox zebrasaurus", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	results, err = ix.Evaluate("zebrasaurus quux", 10)
	require.NoError(t, err)
	require.Empty(t, results)

	results, err = ix.Evaluate("", 10)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestEvaluateDeterministic(t *testing.T) {
	ix := buildIndex(t, testCorpus())
	first, err := ix.Evaluate("quick brown fox", 1000)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := ix.Evaluate("quick brown fox", 1000)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestCursorWalkSpanningBlocks(t *testing.T) {
	// One rare leading term then one term with 300 postings spanning three
	// blocks, offset by the leading term's posting.
	var docs []doc
	docs = append(docs, doc{1, "aardvark common"})
	for i := 2; i <= 300; i++ {
		docs = append(docs, doc{int32(i * 7), "common"})
	}
	ix := buildIndex(t, docs)

	entry, ok := ix.Lookup("common")
	require.True(t, ok)
	require.EqualValues(t, 300, entry.ListLength)

	c := newCursor(ix, entry)
	require.NoError(t, c.loadBlock())

	var seen []uint32
	doc, err := c.nextGEQ(0)
	require.NoError(t, err)
	for doc != Exhausted {
		seen = append(seen, doc)
		next, err := c.nextGEQ(doc + 1)
		require.NoError(t, err)
		require.True(t, next == Exhausted || next > doc, "nextGEQ not monotonic")
		doc = next
	}
	require.Len(t, seen, 300, "cursor must yield exactly listLength postings")
	require.EqualValues(t, 1, seen[0])
	require.EqualValues(t, 2100, seen[len(seen)-1])
}

func TestCursorNextGEQJumps(t *testing.T) {
	var docs []doc
	for i := 1; i <= 200; i++ {
		docs = append(docs, doc{int32(i * 10), "hopscotch"})
	}
	ix := buildIndex(t, docs)
	entry, ok := ix.Lookup("hopscotch")
	require.True(t, ok)

	c := newCursor(ix, entry)
	require.NoError(t, c.loadBlock())

	doc, err := c.nextGEQ(995)
	require.NoError(t, err)
	require.EqualValues(t, 1000, doc)

	doc, err = c.nextGEQ(1500)
	require.NoError(t, err)
	require.EqualValues(t, 1500, doc)

	doc, err = c.nextGEQ(2001)
	require.NoError(t, err)
	require.EqualValues(t, Exhausted, doc)
}

func TestBM25KnownValues(t *testing.T) {
	// Reference document at the average length: K collapses to k1, so a
	// freq-1 term scores exactly its idf.
	ix := &Index{
		params:       Params{K1: 1.2, B: 0.75, CorpusSize: 1_000_000},
		avgDocLength: 40,
	}

	rare := newCursor(ix, lexEntry(10))
	rare.currentFreq = 1
	require.InDelta(t, 11.4641, rare.score(40, 40), 1e-3)

	frequent := newCursor(ix, lexEntry(100_000))
	frequent.currentFreq = 2
	require.InDelta(t, 3.0212, frequent.score(40, 40), 1e-3)

	require.InDelta(t, 14.4853, rare.score(40, 40)+frequent.score(40, 40), 1e-3)
}

func TestBM25NegativeIDFTolerated(t *testing.T) {
	ix := &Index{
		params:       Params{K1: 1.2, B: 0.75, CorpusSize: 1_000_000},
		avgDocLength: 40,
	}
	// df > N/2 drives the Robertson/Sparck-Jones idf negative.
	c := newCursor(ix, lexEntry(600_000))
	c.currentFreq = 3
	require.Less(t, c.score(40, 40), 0.0)
}

func lexEntry(listLength uint32) block.LexiconEntry {
	return block.LexiconEntry{ListLength: listLength}
}

func logIDF(n, df float64) float64 {
	return math.Log((n - df + 0.5) / (df + 0.5))
}
