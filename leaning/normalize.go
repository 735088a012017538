package leaning

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText performs Unicode normalization and trims whitespace.
func NormalizeText(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.TrimSpace(normed)
	// Collapse internal control characters except newlines.
	normed = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
	return normed
}

// AnswerTexts extracts the normalized answer text of every item, preserving
// position. Absent or whitespace-only answers become the empty string so the
// batch keeps its shape. The second return reports whether any item carries
// text at all; when it is false the caller must short-circuit to an empty
// response without touching the classifier.
func AnswerTexts(items []QAItem) ([]string, bool) {
	texts := make([]string, len(items))
	any := false
	for i, item := range items {
		t := NormalizeText(item.Answer)
		texts[i] = t
		if t != "" {
			any = true
		}
	}
	return texts, any
}
