package searcher

import (
	"fmt"
	"io"
)

// WriteTrec writes one query's ranked results in TREC run format, truncated
// to the cutoff: "<queryId> Q0 <docId> <rank> <score> BM25", rank starting
// at 1 and scores fixed to six decimals.
func WriteTrec(w io.Writer, queryID uint32, results []ScoredDoc, cutoff int) error {
	for i, doc := range results {
		if i >= cutoff {
			break
		}
		if _, err := fmt.Fprintf(w, "%d Q0 %d %d %.6f BM25\n",
			queryID, doc.DocID, i+1, doc.Score); err != nil {
			return fmt.Errorf("writing trec line: %w", err)
		}
	}
	return nil
}
