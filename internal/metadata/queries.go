package metadata

import "strings"

// maxQueries bounds worst-case provider calls per harmonization.
const maxQueries = 8

// BuildQueries constructs the ordered, deduplicated list of (artist, title)
// search pairs for a raw record: the cleaned base pair, a title-extracted
// pair, a track-number-stripped variant with its own extraction, and channel
// artist variants crossed with both title forms when the artist smells like a
// channel. Pairs with empty titles are dropped; the list is capped at eight.
func BuildQueries(raw RawRecord) []Query {
	cleanTitle := Clean(raw.Title)
	cleanArtist := Clean(raw.Artist)

	var queries []Query
	seen := make(map[string]struct{})
	add := func(artist, title string) {
		title = strings.TrimSpace(title)
		if title == "" || title == TitleUnknown {
			return
		}
		key := strings.ToLower(artist) + "\x00" + strings.ToLower(title)
		if _, dup := seen[key]; dup {
			return
		}
		if len(queries) >= maxQueries {
			return
		}
		seen[key] = struct{}{}
		queries = append(queries, Query{Artist: artist, Title: title})
	}

	add(cleanArtist, cleanTitle)

	extractedArtist, extractedTitle := SplitArtistTitle(raw.Title)
	if extractedArtist != "" {
		add(extractedArtist, extractedTitle)
	}

	stripped := StripTrackNumber(cleanTitle)
	if stripped != cleanTitle {
		add(cleanArtist, stripped)
		if a, t := SplitArtistTitle(stripped); a != "" {
			add(a, t)
		}
	}
	if extractedArtist != "" {
		if strippedExtract := StripTrackNumber(extractedTitle); strippedExtract != extractedTitle {
			add(extractedArtist, strippedExtract)
		}
	}

	// Channel variants apply when either the current artist or the original
	// pre-extraction artist looks like a channel.
	if LooksLikeChannel(cleanArtist) || LooksLikeChannel(raw.Artist) {
		titleForms := []string{cleanTitle}
		if best := bestTitleForm(raw); best != cleanTitle {
			titleForms = append(titleForms, best)
		}
		for _, variant := range ChannelVariants(raw.Artist) {
			for _, form := range titleForms {
				add(variant, form)
			}
		}
	}

	return queries
}

// bestTitleForm returns the most specific title form available: the
// track-number-stripped extraction when the title embeds an artist, otherwise
// the stripped clean title.
func bestTitleForm(raw RawRecord) string {
	if artist, title := SplitArtistTitle(raw.Title); artist != "" {
		return StripTrackNumber(title)
	}
	return StripTrackNumber(Clean(raw.Title))
}
