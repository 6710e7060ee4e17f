// Package pagetable maps docIds to document lengths (total token counts).
// The table is written once by the parser stage and re-read by the searcher
// for BM25 length normalisation.
package pagetable

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Table holds docId -> docLength.
type Table map[uint32]uint32

// Set records the length of a document. A duplicate docId overwrites the
// prior entry.
func (t Table) Set(docID, length uint32) {
	t[docID] = length
}

// AverageLength returns the arithmetic mean of all document lengths.
func (t Table) AverageLength() float64 {
	if len(t) == 0 {
		return 0
	}
	var total uint64
	for _, length := range t {
		total += uint64(length)
	}
	return float64(total) / float64(len(t))
}

// WriteFile writes the table as text, one "<docId>\t<docLength>" line per
// entry. Entries are emitted in docId order so rebuilds are byte-identical.
func (t Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating page table file: %w", err)
	}
	defer f.Close()

	docIDs := make([]uint32, 0, len(t))
	for docID := range t {
		docIDs = append(docIDs, docID)
	}
	sort.Slice(docIDs, func(i, j int) bool { return docIDs[i] < docIDs[j] })

	w := bufio.NewWriter(f)
	for _, docID := range docIDs {
		if _, err := fmt.Fprintf(w, "%d\t%d\n", docID, t[docID]); err != nil {
			return fmt.Errorf("writing page table entry: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing page table: %w", err)
	}
	return f.Close()
}

// Load reads a page table file. Line order is not significant; lines that do
// not parse as two integers are skipped.
func Load(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening page table: %w", err)
	}
	defer f.Close()

	table := make(Table)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		docID, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			continue
		}
		length, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			continue
		}
		table[uint32(docID)] = uint32(length)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading page table: %w", err)
	}
	return table, nil
}
