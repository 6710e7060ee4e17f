package corpus

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// FileSource reads "<docId><TAB or space><text>" lines from a TSV file.
type FileSource struct {
	path   string
	logger *slog.Logger
}

func NewFileSource(path string) *FileSource {
	return &FileSource{
		path:   path,
		logger: slog.Default().With("component", "corpus-file"),
	}
}

func (s *FileSource) Name() string { return "file:" + s.path }

// Each streams every parseable line. Lines without a leading integer docId
// are skipped; an unreadable file is fatal.
func (s *FileSource) Each(ctx context.Context, fn HandleFunc) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("opening corpus file %s: %w", s.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var skipped int64
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		docID, text, ok := ParseLine(scanner.Text())
		if !ok {
			skipped++
			continue
		}
		if err := fn(docID, text); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading corpus file %s: %w", s.path, err)
	}
	if skipped > 0 {
		s.logger.Warn("skipped malformed corpus lines", "count", skipped)
	}
	return nil
}

// ParseLine splits a corpus line into its docId and passage text.
func ParseLine(line string) (int32, string, bool) {
	end := strings.IndexAny(line, " \t")
	head, rest := line, ""
	if end >= 0 {
		head, rest = line[:end], line[end+1:]
	}
	docID, err := strconv.ParseInt(head, 10, 32)
	if err != nil || docID < 0 {
		return 0, "", false
	}
	return int32(docID), rest, true
}
