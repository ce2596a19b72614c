// Package textutil holds the small text helpers shared by the pipeline stages.
package textutil

import "unicode/utf8"

// Len returns the length of s in characters (runes), not bytes.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate returns the first max characters of s. The cut is a plain prefix
// cut on a rune boundary; no attempt is made to end on a word or sentence.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
