package util

import (
	"strings"
	"unicode"
)

// NormalizeUsername trims surrounding whitespace and drops control
// characters. An empty result means the name is unusable.
func NormalizeUsername(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
