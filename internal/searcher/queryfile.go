package searcher

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer/tokenizer"
)

// LoadQueries reads a queries file of "<queryId><whitespace><text>" lines
// into a map of normalised query text. Lines without a leading integer are
// skipped.
func LoadQueries(path string) (map[uint32]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening queries file: %w", err)
	}
	defer f.Close()

	queries := make(map[uint32]string)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		id, rest, ok := splitLeadingID(line)
		if !ok {
			continue
		}
		queries[id] = tokenizer.Normalize(rest)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading queries file: %w", err)
	}
	return queries, nil
}

// UniqueQueryIDs enumerates the distinct query ids in a qrels file, in
// first-seen order. Only the first whitespace-separated integer per line is
// consumed, which covers both the three- and four-field qrels shapes.
func UniqueQueryIDs(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening qrels file: %w", err)
	}
	defer f.Close()

	seen := make(map[uint32]struct{})
	var ids []uint32
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id, _, ok := splitLeadingID(scanner.Text())
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading qrels file: %w", err)
	}
	return ids, nil
}

// splitLeadingID parses the first whitespace-delimited token of a line as a
// decimal id and returns the remainder.
func splitLeadingID(line string) (uint32, string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	end := strings.IndexAny(trimmed, " \t")
	head, rest := trimmed, ""
	if end >= 0 {
		head, rest = trimmed[:end], trimmed[end+1:]
	}
	id, err := strconv.ParseUint(head, 10, 32)
	if err != nil {
		return 0, "", false
	}
	return uint32(id), rest, true
}
