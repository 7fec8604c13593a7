package textutil

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// Fingerprint derives a stable identity hash for a track from its normalized
// title, artist, and duration. Casing, punctuation, and whitespace variants of
// the same track produce the same fingerprint, which makes it safe to use for
// caching and idempotent decision lookups.
func Fingerprint(title, artist string, durationSec int) string {
	key := strings.Join([]string{
		NormalizeComparable(title),
		NormalizeComparable(artist),
		fmt.Sprintf("%d", durationSec),
	}, "|")
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}
