// Package tokenizer normalises passage and query text for whitespace
// tokenisation. The corpus is ASCII with stray UTF-8 misencodings, so every
// byte outside 7-bit ASCII is treated as a separator.
package tokenizer

import "strings"

// Normalize lowercases printable ASCII and replaces punctuation and any
// non-ASCII byte with a space. The result splits cleanly on whitespace.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c <= 127 && !isPunct(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// Terms normalises text and splits it into terms. Empty terms are discarded
// by the whitespace split.
func Terms(s string) []string {
	return strings.Fields(Normalize(s))
}

// isPunct mirrors C ispunct over the ASCII range: graphical characters that
// are neither letters nor digits.
func isPunct(c byte) bool {
	if c <= ' ' || c > '~' {
		return false
	}
	return !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z')
}
