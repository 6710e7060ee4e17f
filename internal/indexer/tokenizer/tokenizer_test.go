package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "Hello World", "hello world"},
		{"punctuation stripped", "it's a test, isn't it?", "it s a test  isn t it "},
		{"non ascii as separator", "caf\xc3\xa9 time", "caf   time"},
		{"digits kept", "route 66", "route 66"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"hello", "world"}, Terms("  Hello,   WORLD!! "))
	assert.Empty(t, Terms("!!! ... \xc3\xa9"))
	assert.Empty(t, Terms(""))
}

func TestTermsHighBytesSplit(t *testing.T) {
	// A multi-byte sequence inside a word splits it into two terms.
	assert.Equal(t, []string{"na", "ve"}, Terms("na\xc3\xafve"))
}
