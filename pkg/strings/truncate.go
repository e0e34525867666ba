// Package strings has small text helpers for rendering untrusted or
// unbounded strings in logs and terminal output.
package strings

import (
	"strings"
)

// minTruncateLen leaves room for at least one character plus the ellipsis.
const minTruncateLen = 4

// Flatten collapses every whitespace run in s, newlines included, into a
// single space. Multi-line input becomes one log-safe line.
func Flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate flattens s and shortens it to at most maxLen runes, appending
// "..." when something was cut. Operating on runes keeps multi-byte
// characters intact. maxLen values below 4 are clamped so the ellipsis
// still fits.
func Truncate(s string, maxLen int) string {
	if maxLen < minTruncateLen {
		maxLen = minTruncateLen
	}

	s = Flatten(s)

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
