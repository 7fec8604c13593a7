package metadata

import (
	"regexp"
	"strings"

	"cadence/internal/textutil"
)

// noisePatterns are applied in order by Clean. Order matters: producer credits
// must go before the trailing-official strip, and bracketed tags before both,
// because later patterns assume the earlier cleanup already happened.
var noisePatterns = []*regexp.Regexp{
	// Bracketed or parenthesized platform tags.
	regexp.MustCompile(`(?i)[(\[][^)\]]*\b(official\s*(music\s*)?video|official\s*audio|video\s*oficial|videoclip|official|oficial|audio|video|lyrics?|lyric\s*video|letra|visuali[sz]er|explicit|clean|hd|hq|4k|full\s*album|remaster(ed)?(\s*\d{4})?|upgrade)\b[^)\]]*[)\]]`),
	// Producer credit suffixes, parenthesized or bare.
	regexp.MustCompile(`(?i)[(\[]?\s*prod(\.|uced)?\s*(by)?\b[^)\]]*[)\]]?\s*$`),
	// Leading track numbers ("16. ", "03 - ").
	regexp.MustCompile(`^\s*\d{1,2}\s*[.)-]\s+`),
	// Trailing channel suffixes.
	regexp.MustCompile(`(?i)\s+(official\s+channel|official|oficial)\s*$`),
	// Trailing "| …" segments.
	regexp.MustCompile(`\s*\|.*$`),
}

// Clean strips platform noise from a title or artist string. Empty results
// collapse to the "Unknown" sentinel so downstream code never deals with
// blank display fields.
func Clean(text string) string {
	cleaned := text
	for _, pattern := range noisePatterns {
		cleaned = pattern.ReplaceAllString(cleaned, " ")
	}
	cleaned = textutil.CollapseWhitespace(cleaned)
	cleaned = strings.Trim(cleaned, "-–—| ")
	if cleaned == "" {
		return TitleUnknown
	}
	return cleaned
}

// trackNumberPattern matches a leading track number even without trailing
// whitespace requirements, used by the query builder's stripped variant.
var trackNumberPattern = regexp.MustCompile(`^\s*\d{1,2}\s*[.)-]\s*`)

// StripTrackNumber removes a leading track number from a title, returning the
// input unchanged when none is present.
func StripTrackNumber(title string) string {
	return textutil.CollapseWhitespace(trackNumberPattern.ReplaceAllString(title, ""))
}

// artistPlaceholders are artist values that carry no signal at all.
var artistPlaceholders = map[string]struct{}{
	"":                {},
	"unknown":         {},
	"unknown artist":  {},
	"various":         {},
	"various artists": {},
	"va":              {},
	"n/a":             {},
}

// collectiveMarkers are substrings that indicate a label or channel brand
// rather than a performing artist.
var collectiveMarkers = []string{
	"records", "recordings", "label", "entertainment", "productions",
	"network", "studios", "media", "discos", "vevo", "official",
}

// channelHints are tokens typical of platform channel names.
var channelHints = map[string]struct{}{
	"official": {}, "oficial": {}, "vevo": {}, "topic": {},
	"tv": {}, "channel": {}, "music": {},
}

// LooksLikeChannel reports whether an artist string smells like a platform
// channel or label name instead of a performer. This is a heuristic: false
// positives are tolerated because the result only steers query construction,
// it never rewrites output directly.
func LooksLikeChannel(artist string) bool {
	lowered := strings.ToLower(strings.TrimSpace(artist))
	if _, ok := artistPlaceholders[lowered]; ok {
		return true
	}
	for _, marker := range collectiveMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	for _, token := range strings.Fields(lowered) {
		if _, ok := channelHints[strings.Trim(token, ".,-")]; ok {
			return true
		}
	}
	return false
}

// splitPattern matches the separators that divide "Artist - Title" style
// titles: spaced hyphen, en/em dash, pipe, or colon.
var splitPattern = regexp.MustCompile(`\s+[-–—|:]\s+`)

// SplitArtistTitle splits a title on its first separator, treating the left
// side as the artist candidate and the right side as the title candidate,
// both cleaned. When no separator exists the artist is empty and the title is
// returned cleaned.
func SplitArtistTitle(title string) (artist, rest string) {
	parts := splitPattern.Split(title, 2)
	if len(parts) != 2 {
		return "", Clean(title)
	}
	return Clean(parts[0]), Clean(parts[1])
}

// channelSuffixes are stripped from channel names in order when deriving
// artist variants. Compound suffixes come first so "TV Oficial" is removed
// whole before the single-word patterns run.
var channelSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+tv\s+oficial\s*$`),
	regexp.MustCompile(`(?i)\s+official\s+channel\s*$`),
	regexp.MustCompile(`(?i)\s*-\s*topic\s*$`),
	regexp.MustCompile(`(?i)\s+topic\s*$`),
	regexp.MustCompile(`(?i)\s*vevo\s*$`),
	regexp.MustCompile(`(?i)\s+oficial\s*$`),
	regexp.MustCompile(`(?i)\s+official\s*$`),
	regexp.MustCompile(`(?i)\s+records\s*$`),
	regexp.MustCompile(`(?i)\s+music\s*$`),
	regexp.MustCompile(`(?i)\s+tv\s*$`),
}

var (
	// camelInitialPattern matches a single camel-cased token ending in an
	// uppercase letter preceded by at least two lowercase letters ("KaseO").
	camelInitialPattern = regexp.MustCompile(`^([A-Z]?[a-z]+[a-z])([A-Z])$`)
	// spacedInitialPattern matches exactly two tokens where the second is a
	// single uppercase letter ("Kase O").
	spacedInitialPattern = regexp.MustCompile(`^(\S+)\s+([A-Z])$`)
)

// ChannelVariants derives canonical artist spellings from a channel-like
// name, most specific first, capped at three. Callers should gate on
// LooksLikeChannel.
func ChannelVariants(channelArtist string) []string {
	stripped := strings.TrimSpace(channelArtist)
	for _, pattern := range channelSuffixes {
		stripped = pattern.ReplaceAllString(stripped, "")
	}
	stripped = Clean(stripped)

	var variants []string
	appendVariant := func(v string) {
		if v == "" || v == TitleUnknown {
			return
		}
		for _, existing := range variants {
			if strings.EqualFold(existing, v) {
				return
			}
		}
		if len(variants) < 3 {
			variants = append(variants, v)
		}
	}

	if m := camelInitialPattern.FindStringSubmatch(stripped); m != nil {
		appendVariant(m[1] + "." + m[2])
	} else if m := spacedInitialPattern.FindStringSubmatch(stripped); m != nil {
		appendVariant(m[1] + "." + m[2])
	}
	if !strings.EqualFold(stripped, strings.TrimSpace(channelArtist)) {
		appendVariant(stripped)
	}
	appendVariant(Clean(channelArtist))
	return variants
}
