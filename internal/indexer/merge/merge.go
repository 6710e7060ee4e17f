// Package merge implements the k-way merge of sorted temp runs into a single
// globally sorted posting stream, via a min-heap holding one head record per
// input.
package merge

import (
	"container/heap"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer/postings"
	pkgerrors "github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/errors"
)

// source is one temp run with its current head record.
type source struct {
	head   postings.Record
	reader *postings.Reader
	file   *os.File
}

type sourceHeap []*source

func (h sourceHeap) Len() int { return len(h) }

func (h sourceHeap) Less(i, j int) bool {
	return h[i].head.Less(h[j].head)
}

func (h sourceHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *sourceHeap) Push(x interface{}) {
	*h = append(*h, x.(*source))
}

func (h *sourceHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Merge merges the sorted input runs into output, writing through a buffer
// of bufBytes. It returns the number of records written.
func Merge(inputs []string, output string, bufBytes int) (int64, error) {
	if len(inputs) == 0 {
		return 0, pkgerrors.ErrNoInput
	}
	logger := slog.Default().With("component", "merge")

	h := make(sourceHeap, 0, len(inputs))
	defer func() {
		for _, src := range h {
			src.file.Close()
		}
	}()

	for _, path := range inputs {
		f, err := os.Open(path)
		if err != nil {
			return 0, fmt.Errorf("opening temp run %s: %w", path, err)
		}
		src := &source{reader: postings.NewReader(f), file: f}
		rec, err := src.reader.Next()
		if err == io.EOF {
			f.Close()
			continue
		}
		if err != nil {
			f.Close()
			return 0, fmt.Errorf("reading head of %s: %w", path, err)
		}
		src.head = rec
		h = append(h, src)
	}
	heap.Init(&h)

	out, err := os.Create(output)
	if err != nil {
		return 0, fmt.Errorf("creating merged output %s: %w", output, err)
	}
	defer out.Close()
	w := postings.NewWriterSize(out, bufBytes)

	var written int64
	for h.Len() > 0 {
		src := h[0]
		if err := w.Write(src.head); err != nil {
			return written, fmt.Errorf("writing merged record: %w", err)
		}
		written++

		rec, err := src.reader.Next()
		switch {
		case err == io.EOF:
			src.file.Close()
			heap.Pop(&h)
		case err != nil:
			return written, fmt.Errorf("advancing temp run: %w", err)
		default:
			src.head = rec
			heap.Fix(&h, 0)
		}
	}

	if err := w.Flush(); err != nil {
		return written, fmt.Errorf("flushing merged output: %w", err)
	}
	if err := out.Close(); err != nil {
		return written, fmt.Errorf("closing merged output: %w", err)
	}
	logger.Info("merge complete", "inputs", len(inputs), "records", written)
	return written, nil
}
