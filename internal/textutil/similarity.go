package textutil

import (
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

const (
	tokenWeight    = 0.6
	sequenceWeight = 0.4
)

// TokenOverlap returns the fraction of base tokens that also appear in the
// candidate text. Returns 0 when the base produces no tokens.
func TokenOverlap(base, candidate string) float64 {
	baseTokens := Tokenize(base)
	if len(baseTokens) == 0 {
		return 0
	}
	candSet := make(map[string]struct{})
	for _, token := range Tokenize(candidate) {
		candSet[token] = struct{}{}
	}
	var shared int
	seen := make(map[string]struct{}, len(baseTokens))
	for _, token := range baseTokens {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		if _, ok := candSet[token]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(seen))
}

// SequenceRatio computes a character-sequence similarity ratio between the
// normalized forms of a and b.
func SequenceRatio(a, b string) float64 {
	na := NormalizeComparable(a)
	nb := NormalizeComparable(b)
	if na == "" || nb == "" {
		return 0
	}
	return strutil.Similarity(na, nb, metrics.NewSorensenDice())
}

// Similarity blends token overlap with sequence similarity. Both inputs are
// normalized internally; the base string anchors the token-overlap term.
func Similarity(base, candidate string) float64 {
	if NormalizeComparable(base) == "" || NormalizeComparable(candidate) == "" {
		return 0
	}
	return tokenWeight*TokenOverlap(base, candidate) + sequenceWeight*SequenceRatio(base, candidate)
}

// DurationProximity maps the absolute difference between two durations in
// seconds onto a 0..1 score. A missing duration on either side scores a
// neutral 0.5 so duration never dominates when the data is absent.
func DurationProximity(a, b int) float64 {
	if a <= 0 || b <= 0 {
		return 0.5
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 2:
		return 1.0
	case diff <= 6:
		return 0.85
	case diff <= 12:
		return 0.7
	case diff <= 20:
		return 0.5
	default:
		return 0.2
	}
}
