package block

// Metadata describes one compressed block: the last docId it holds and the
// compressed byte lengths of its two streams. The byte offset of block i in
// the index file is the prefix sum of DocSize+FreqSize over blocks 0..i-1.
type Metadata struct {
	LastDocID uint32
	DocSize   uint32
	FreqSize  uint32
}

// LexiconEntry locates a term's posting list: the block holding its first
// posting, the posting's index within that block, and the list length.
type LexiconEntry struct {
	StartBlock uint32
	StartIndex uint32
	ListLength uint32
}

// FinalBlock returns the last block a term's postings reach. Postings wrap
// from index 127 of one block to index 0 of the next.
func (e LexiconEntry) FinalBlock() uint32 {
	var left uint32
	if e.ListLength > Size-e.StartIndex {
		left = e.ListLength - (Size - e.StartIndex)
	}
	return e.StartBlock + (left+Size-1)/Size
}

// Block accumulates up to Size postings before compression. Blocks are not
// term-aligned; one block may hold the tail of one term and the head of the
// next.
type Block struct {
	DocIDs []uint32
	Freqs  []uint32
}

// Append adds one posting.
func (b *Block) Append(docID, freq uint32) {
	b.DocIDs = append(b.DocIDs, docID)
	b.Freqs = append(b.Freqs, freq)
}

// Len returns the number of buffered postings.
func (b *Block) Len() int { return len(b.DocIDs) }

// Full reports whether the block holds Size postings.
func (b *Block) Full() bool { return len(b.DocIDs) == Size }

// Reset empties the block keeping its capacity.
func (b *Block) Reset() {
	b.DocIDs = b.DocIDs[:0]
	b.Freqs = b.Freqs[:0]
}

// Compress encodes the block body: docIds as varbyte gaps restarting from
// zero at the block boundary, freqs as raw varbyte. It returns the body
// bytes (doc stream then freq stream) and the block's metadata entry.
func (b *Block) Compress(scratch []byte) ([]byte, Metadata) {
	body := scratch[:0]
	var prev uint32
	for _, docID := range b.DocIDs {
		body = AppendUint32(body, docID-prev)
		prev = docID
	}
	docSize := uint32(len(body))
	for _, freq := range b.Freqs {
		body = AppendUint32(body, freq)
	}
	meta := Metadata{
		LastDocID: b.DocIDs[len(b.DocIDs)-1],
		DocSize:   docSize,
		FreqSize:  uint32(len(body)) - docSize,
	}
	return body, meta
}
