// Package block implements the compressed unit of the inverted index: fixed
// 128-posting blocks of delta-gapped varbyte docIds and raw varbyte freqs,
// together with the per-block metadata and lexicon records that locate a
// term's postings without scanning the index file.
package block

// Size is the number of postings per compressed block. Every block is full
// except possibly the last one emitted.
const Size = 128

// AppendUint32 varbyte-encodes n onto dst: little-endian 7-bit groups, high
// bit set on every byte except the last. Zero encodes as a single 0x00.
func AppendUint32(dst []byte, n uint32) []byte {
	for n >= 128 {
		dst = append(dst, byte(128+(n&127)))
		n >>= 7
	}
	return append(dst, byte(n))
}

// DecodeUint32 decodes one varbyte value starting at pos and returns the
// value and the position of the next encoded byte.
func DecodeUint32(buf []byte, pos int) (uint32, int) {
	var n uint32
	var shift uint
	for {
		c := buf[pos]
		pos++
		n += uint32(c&127) << shift
		shift += 7
		if c < 128 {
			return n, pos
		}
	}
}
