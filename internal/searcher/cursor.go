package searcher

import (
	"fmt"
	"io"
	"math"

	"github.com/Pranav-Raghunath/Passage-Search-Platform/internal/indexer/block"
)

// Exhausted is returned by nextGEQ once a cursor has yielded all of its
// term's postings.
const Exhausted = math.MaxUint32

// cursor iterates one term's posting list, decoding one compressed block at
// a time. Cursors are value-like and live for a single query evaluation.
type cursor struct {
	ix    *Index
	entry block.LexiconEntry

	blockNum   uint32
	finalBlock uint32

	currentPos  uint32
	currentDoc  uint32
	currentFreq uint32
	prevDocID   uint32

	docBuf  []byte
	freqBuf []byte
	docPos  int
	freqPos int
}

func newCursor(ix *Index, entry block.LexiconEntry) *cursor {
	return &cursor{
		ix:         ix,
		entry:      entry,
		blockNum:   entry.StartBlock,
		finalBlock: entry.FinalBlock(),
	}
}

// loadBlock reads the current block's two compressed streams from the index
// file and resets the decode state. On the term's first block it skips the
// postings that belong to preceding terms.
func (c *cursor) loadBlock() error {
	if int(c.blockNum) >= len(c.ix.metadata) {
		return fmt.Errorf("block %d out of range (%d blocks)", c.blockNum, len(c.ix.metadata))
	}
	meta := c.ix.metadata[c.blockNum]
	offset := int64(c.ix.offsets[c.blockNum])

	need := int(meta.DocSize) + int(meta.FreqSize)
	if cap(c.docBuf) < need {
		c.docBuf = make([]byte, need)
	}
	buf := c.docBuf[:need]
	if n, err := c.ix.file.ReadAt(buf, offset); err != nil && !(n == need && err == io.EOF) {
		return fmt.Errorf("reading block %d: %w", c.blockNum, err)
	}
	c.docBuf = buf[:meta.DocSize]
	c.freqBuf = buf[meta.DocSize:need]
	c.docPos = 0
	c.freqPos = 0
	c.prevDocID = 0

	if c.blockNum == c.entry.StartBlock && c.entry.StartIndex > 0 {
		for i := uint32(0); i < c.entry.StartIndex; i++ {
			var gap uint32
			gap, c.docPos = block.DecodeUint32(c.docBuf, c.docPos)
			c.prevDocID += gap
			_, c.freqPos = block.DecodeUint32(c.freqBuf, c.freqPos)
		}
	}
	return nil
}

// nextGEQ advances to the first posting with docId >= target, returning
// Exhausted once the term's listLength postings are consumed. Each
// successful call leaves currentDoc/currentFreq on the returned posting.
func (c *cursor) nextGEQ(target uint32) (uint32, error) {
	for {
		if c.currentPos >= c.entry.ListLength {
			return Exhausted, nil
		}
		if c.docPos >= len(c.docBuf) {
			c.blockNum++
			if c.blockNum > c.finalBlock || int(c.blockNum) >= len(c.ix.metadata) {
				return Exhausted, nil
			}
			if err := c.loadBlock(); err != nil {
				return Exhausted, err
			}
		}

		var gap uint32
		gap, c.docPos = block.DecodeUint32(c.docBuf, c.docPos)
		doc := c.prevDocID + gap
		c.prevDocID = doc

		var freq uint32
		freq, c.freqPos = block.DecodeUint32(c.freqBuf, c.freqPos)

		c.currentPos++
		c.currentDoc = doc
		c.currentFreq = freq

		if doc >= target {
			return doc, nil
		}
	}
}

// score computes BM25 for the cursor's current posting. The idf is the
// Robertson/Sparck-Jones form and may go negative for very frequent terms.
func (c *cursor) score(docLength, avgDocLength float64) float64 {
	return c.scoreFreq(float64(c.currentFreq), docLength, avgDocLength)
}

// upperBound is the MaxScore ceiling for this cursor: the score it would
// reach if the term occurred listLength times in a document of the
// reference (average) length.
func (c *cursor) upperBound() float64 {
	return c.scoreFreq(float64(c.entry.ListLength), c.ix.avgDocLength, c.ix.avgDocLength)
}

func (c *cursor) scoreFreq(freq, docLength, avgDocLength float64) float64 {
	p := c.ix.params
	df := float64(c.entry.ListLength)
	idf := math.Log((p.CorpusSize - df + 0.5) / (df + 0.5))

	bigK := p.K1 * ((1 - p.B) + p.B*(docLength/avgDocLength))
	tf := (p.K1 + 1) * freq / (bigK + freq)
	return idf * tf
}

// close releases the cursor's block buffers.
func (c *cursor) close() {
	c.docBuf = nil
	c.freqBuf = nil
}
