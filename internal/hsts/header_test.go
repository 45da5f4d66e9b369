package hsts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		maxAge  int64
		include bool
		ok      bool
	}{
		{"max-age only", "max-age=31536000", 31536000, false, true},
		{"with subdomains", "max-age=63072000; includeSubDomains", 63072000, true, true},
		{"case-insensitive names", "Max-Age=100; INCLUDESUBDOMAINS", 100, true, true},
		{"zero max-age is a deletion signal", "max-age=0", 0, false, true},
		{"unknown directives ignored", "max-age=10; preload", 10, false, true},
		{"whitespace tolerated", "  max-age = 5 ; includeSubDomains ", 5, true, true},
		{"directive order irrelevant", "includeSubDomains; max-age=7", 7, true, true},
		{"missing max-age", "includeSubDomains", 0, false, false},
		{"empty value", "", 0, false, false},
		{"non-numeric max-age", "max-age=abc", 0, false, false},
		{"signed max-age", "max-age=-5", 0, false, false},
		{"valueless max-age", "max-age", 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maxAge, include, ok := ParseHeader(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.maxAge, maxAge)
			assert.Equal(t, tt.include, include)
		})
	}
}
