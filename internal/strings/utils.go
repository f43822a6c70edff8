// Package strings provides rune-aware truncation shared by the digest
// and the terminal renderer.
package strings

import (
	"unicode/utf8"
)

// Ellipsis marks a cut.
const Ellipsis = "..."

// Clip keeps the first n runes of s and appends Ellipsis when anything was
// cut. The result may be up to n+3 runes long. n <= 0 returns s unchanged.
func Clip(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + Ellipsis
}

// Truncate shortens s to at most n runes, ellipsis included.
// If n < 4, uses n = 4 to ensure room for "...".
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n < 4 {
		n = 4
	}
	return string(runes[:n-3]) + Ellipsis
}

// Prefix returns the first n runes of s without any marker.
func Prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
