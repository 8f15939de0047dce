package utils

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// NormalizeWhitespace replaces runs of whitespace with a single space.
func NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// Preview collapses whitespace and truncates str to maxWidth terminal columns.
// Wide (CJK) characters count as two columns.
func Preview(str string, maxWidth int) string {
	flat := NormalizeWhitespace(str)
	if runewidth.StringWidth(flat) <= maxWidth {
		return flat
	}

	return runewidth.Truncate(flat, maxWidth, "...")
}

// LastPathSegment returns whatever follows the final "/" of path.
func LastPathSegment(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return path
	}

	return path[idx+1:]
}
