// Package postings implements the intermediate binary posting record format
// shared by the temp runs and the merged stream: little-endian
// u32 termLen | term bytes | i32 docId | i32 freq, repeated until EOF.
package postings

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	pkgerrors "github.com/Pranav-Raghunath/Passage-Search-Platform/pkg/errors"
)

// Record is one (term, docId, freq) posting.
type Record struct {
	Term  string
	DocID int32
	Freq  int32
}

// Less orders records by (term, docId), the global sort order of the
// pipeline.
func (r Record) Less(other Record) bool {
	if r.Term != other.Term {
		return r.Term < other.Term
	}
	return r.DocID < other.DocID
}

// Writer streams records into an underlying writer.
type Writer struct {
	w       *bufio.Writer
	scratch [4]byte
}

// NewWriter wraps w with the default bufio size.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// NewWriterSize wraps w with an explicit buffer size. The merger uses this
// for its large output buffer.
func NewWriterSize(w io.Writer, size int) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, size)}
}

// Write appends one record.
func (w *Writer) Write(rec Record) error {
	binary.LittleEndian.PutUint32(w.scratch[:], uint32(len(rec.Term)))
	if _, err := w.w.Write(w.scratch[:]); err != nil {
		return fmt.Errorf("writing term length: %w", err)
	}
	if _, err := w.w.WriteString(rec.Term); err != nil {
		return fmt.Errorf("writing term: %w", err)
	}
	binary.LittleEndian.PutUint32(w.scratch[:], uint32(rec.DocID))
	if _, err := w.w.Write(w.scratch[:]); err != nil {
		return fmt.Errorf("writing docId: %w", err)
	}
	binary.LittleEndian.PutUint32(w.scratch[:], uint32(rec.Freq))
	if _, err := w.w.Write(w.scratch[:]); err != nil {
		return fmt.Errorf("writing freq: %w", err)
	}
	return nil
}

// Flush drains the buffered bytes to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Reader streams records out of an underlying reader.
type Reader struct {
	r       *bufio.Reader
	scratch []byte
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next record. It returns io.EOF on a clean record
// boundary (including the defensive zero-termLen sentinel) and
// ErrTruncatedRecord when the stream ends mid-record.
func (r *Reader) Next() (Record, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r.r, lenBuf[:]); err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("reading term length: %w", pkgerrors.ErrTruncatedRecord)
	}
	termLen := binary.LittleEndian.Uint32(lenBuf[:])
	if termLen == 0 {
		return Record{}, io.EOF
	}
	if int(termLen) > cap(r.scratch) {
		r.scratch = make([]byte, termLen)
	}
	term := r.scratch[:termLen]
	if _, err := io.ReadFull(r.r, term); err != nil {
		return Record{}, fmt.Errorf("reading term: %w", pkgerrors.ErrTruncatedRecord)
	}
	var tail [8]byte
	if _, err := io.ReadFull(r.r, tail[:]); err != nil {
		return Record{}, fmt.Errorf("reading docId and freq: %w", pkgerrors.ErrTruncatedRecord)
	}
	return Record{
		Term:  string(term),
		DocID: int32(binary.LittleEndian.Uint32(tail[0:4])),
		Freq:  int32(binary.LittleEndian.Uint32(tail[4:8])),
	}, nil
}
