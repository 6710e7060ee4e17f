package searcher

import (
	"container/heap"
	"sort"

	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer/tokenizer"
)

// ScoredDoc is one ranked result.
type ScoredDoc struct {
	DocID uint32  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Evaluate runs a disjunctive DAAT traversal for the query text and returns
// up to k results, highest score first. Query terms missing from the lexicon
// are dropped; if none survive the result is empty.
func (ix *Index) Evaluate(query string, k int) ([]ScoredDoc, error) {
	terms := tokenizer.Terms(query)
	cursors := make([]*cursor, 0, len(terms))
	for _, term := range terms {
		entry, ok := ix.Lookup(term)
		if !ok {
			continue
		}
		cursors = append(cursors, newCursor(ix, entry))
	}
	if len(cursors) == 0 {
		return nil, nil
	}
	defer func() {
		for _, c := range cursors {
			c.close()
		}
	}()

	currDoc := make([]uint32, len(cursors))
	for i, c := range cursors {
		if err := c.loadBlock(); err != nil {
			return nil, err
		}
		doc, err := c.nextGEQ(0)
		if err != nil {
			return nil, err
		}
		currDoc[i] = doc
	}

	// Upper bound per list from its theoretical ceiling frequency; cursors
	// are visited lowest-impact first so the pruning sum covers the
	// highest-impact lists still unmatched.
	bounds := make([]float64, len(cursors))
	for i, c := range cursors {
		bounds[i] = c.upperBound()
	}
	order := make([]int, len(cursors))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return bounds[order[i]] < bounds[order[j]]
	})

	topK := &scoredDocHeap{}
	heap.Init(topK)

	for {
		candidate := uint32(Exhausted)
		for _, doc := range currDoc {
			if doc != Exhausted && doc < candidate {
				candidate = doc
			}
		}
		if candidate == Exhausted {
			break
		}

		docLength := float64(ix.pages[candidate])
		score := 0.0
		remainingMax := 0.0
		for _, idx := range order {
			if currDoc[idx] == candidate {
				score += cursors[idx].score(docLength, ix.avgDocLength)
				doc, err := cursors[idx].nextGEQ(candidate + 1)
				if err != nil {
					return nil, err
				}
				currDoc[idx] = doc
			} else {
				remainingMax += bounds[idx]
			}
		}

		// Candidates that cannot displace the heap minimum are discarded;
		// their contributing lists have already moved past.
		if topK.Len() >= k && score+remainingMax <= (*topK)[0].Score {
			continue
		}

		if topK.Len() < k {
			heap.Push(topK, ScoredDoc{DocID: candidate, Score: score})
		} else if score > (*topK)[0].Score {
			heap.Pop(topK)
			heap.Push(topK, ScoredDoc{DocID: candidate, Score: score})
		}
	}

	results := make([]ScoredDoc, topK.Len())
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(topK).(ScoredDoc)
	}
	return results, nil
}

// scoredDocHeap is a min-heap by score; ties order larger docIds first out,
// so smaller docIds are preferentially retained.
type scoredDocHeap []ScoredDoc

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].DocID > h[j].DocID
}

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x interface{}) {
	*h = append(*h, x.(ScoredDoc))
}

func (h *scoredDocHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
