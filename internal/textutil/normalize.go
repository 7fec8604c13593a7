package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips combining marks so accented and plain spellings
// normalize to the same comparable form.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeComparable lowercases text, folds diacritics, and replaces
// punctuation with spaces. The result is suitable for similarity comparison
// and fingerprinting, not for display.
func NormalizeComparable(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return ""
	}
	if folded, _, err := transform.String(foldTransformer, lowered); err == nil {
		lowered = folded
	}
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize splits text into normalized comparison tokens.
func Tokenize(text string) []string {
	normalized := NormalizeComparable(text)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

// CollapseWhitespace trims text and collapses internal whitespace runs to a
// single space, preserving the original casing.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
