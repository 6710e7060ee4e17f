package block

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	pkgerrors "github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/errors"
)

const metadataRecordSize = 12

// LexiconWriter streams lexicon records in term-completion order:
// u32 termLen | term | u32 startBlock | u32 startIndex | u32 listLength.
type LexiconWriter struct {
	w *bufio.Writer
}

func NewLexiconWriter(w io.Writer) *LexiconWriter {
	return &LexiconWriter{w: bufio.NewWriter(w)}
}

func (lw *LexiconWriter) Write(term string, entry LexiconEntry) error {
	var buf [16]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(term)))
	if _, err := lw.w.Write(buf[0:4]); err != nil {
		return fmt.Errorf("writing term length: %w", err)
	}
	if _, err := lw.w.WriteString(term); err != nil {
		return fmt.Errorf("writing term: %w", err)
	}
	binary.LittleEndian.PutUint32(buf[0:4], entry.StartBlock)
	binary.LittleEndian.PutUint32(buf[4:8], entry.StartIndex)
	binary.LittleEndian.PutUint32(buf[8:12], entry.ListLength)
	if _, err := lw.w.Write(buf[0:12]); err != nil {
		return fmt.Errorf("writing lexicon entry: %w", err)
	}
	return nil
}

func (lw *LexiconWriter) Flush() error {
	return lw.w.Flush()
}

// ReadLexicon loads the whole lexicon file, returning terms and entries in
// file order plus a term-to-slot map.
func ReadLexicon(path string) ([]string, []LexiconEntry, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening lexicon: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var terms []string
	var entries []LexiconEntry
	termToIndex := make(map[string]int)
	var lenBuf [4]byte
	for {
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, nil, fmt.Errorf("reading lexicon term length: %w", pkgerrors.ErrTruncatedRecord)
		}
		termLen := binary.LittleEndian.Uint32(lenBuf[:])
		termBytes := make([]byte, termLen)
		if _, err := io.ReadFull(r, termBytes); err != nil {
			return nil, nil, nil, fmt.Errorf("reading lexicon term: %w", pkgerrors.ErrTruncatedRecord)
		}
		var entryBuf [12]byte
		if _, err := io.ReadFull(r, entryBuf[:]); err != nil {
			return nil, nil, nil, fmt.Errorf("reading lexicon entry: %w", pkgerrors.ErrTruncatedRecord)
		}
		term := string(termBytes)
		termToIndex[term] = len(entries)
		terms = append(terms, term)
		entries = append(entries, LexiconEntry{
			StartBlock: binary.LittleEndian.Uint32(entryBuf[0:4]),
			StartIndex: binary.LittleEndian.Uint32(entryBuf[4:8]),
			ListLength: binary.LittleEndian.Uint32(entryBuf[8:12]),
		})
	}
	return terms, entries, termToIndex, nil
}

// WriteMetadata writes the packed metadata vector:
// (u32 lastDocId, u32 docSize, u32 freqSize) per block.
func WriteMetadata(w io.Writer, metadata []Metadata) error {
	bw := bufio.NewWriter(w)
	var buf [metadataRecordSize]byte
	for _, m := range metadata {
		binary.LittleEndian.PutUint32(buf[0:4], m.LastDocID)
		binary.LittleEndian.PutUint32(buf[4:8], m.DocSize)
		binary.LittleEndian.PutUint32(buf[8:12], m.FreqSize)
		if _, err := bw.Write(buf[:]); err != nil {
			return fmt.Errorf("writing block metadata: %w", err)
		}
	}
	return bw.Flush()
}

// ReadMetadata loads the packed metadata file; the block count is inferred
// from the file size.
func ReadMetadata(path string) ([]Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening metadata: %w", err)
	}
	if len(data)%metadataRecordSize != 0 {
		return nil, fmt.Errorf("metadata size %d not a multiple of %d: %w",
			len(data), metadataRecordSize, pkgerrors.ErrCorruptIndex)
	}
	metadata := make([]Metadata, len(data)/metadataRecordSize)
	for i := range metadata {
		off := i * metadataRecordSize
		metadata[i] = Metadata{
			LastDocID: binary.LittleEndian.Uint32(data[off : off+4]),
			DocSize:   binary.LittleEndian.Uint32(data[off+4 : off+8]),
			FreqSize:  binary.LittleEndian.Uint32(data[off+8 : off+12]),
		}
	}
	return metadata, nil
}

// Offsets computes the byte offset of every block in the index file as the
// prefix sum of compressed block sizes.
func Offsets(metadata []Metadata) []uint64 {
	offsets := make([]uint64, len(metadata))
	var off uint64
	for i, m := range metadata {
		offsets[i] = off
		off += uint64(m.DocSize) + uint64(m.FreqSize)
	}
	return offsets
}
