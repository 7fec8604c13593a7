package metadata

import "sort"

// SelectEnrichment re-scores every provider nominee against the (possibly
// refined) record using the lighter 0.45/0.40/0.15 weighting and returns the
// best one if it clears the threshold. Enrichment candidates may fill album
// and cover fields but never title or artist.
func SelectEnrichment(title, artist string, durationSec int, nominees map[Source]Candidate, threshold float64) (Candidate, bool) {
	sources := make([]Source, 0, len(nominees))
	for source := range nominees {
		sources = append(sources, source)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })

	var best Candidate
	bestScore := -1.0
	for _, source := range sources {
		cand := nominees[source]
		score := LightScore(title, artist, durationSec, cand)
		// Strictly greater keeps the higher-trust source on ties because of
		// the sorted iteration order.
		if score > bestScore {
			best, bestScore = cand, score
		}
	}
	if bestScore < threshold {
		return Candidate{}, false
	}
	return best, true
}

// CoverChoice is the result of cover-art source selection.
type CoverChoice struct {
	URL    string
	Source CoverSource
	// PremiumFailed is true unless the cover came from one of the catalog
	// providers or the music-platform-specific thumbnail.
	PremiumFailed bool
}

// SelectCover picks a cover URL using the strict priority order: catalog
// cover from the canonical or enrichment candidate, then the platform album
// art (music-flagged records only), then the generic thumbnail.
func SelectCover(raw RawRecord, canonical *Candidate, enrichment *Candidate) CoverChoice {
	for _, cand := range []*Candidate{canonical, enrichment} {
		if cand == nil || cand.CoverURL == "" {
			continue
		}
		return CoverChoice{URL: cand.CoverURL, Source: coverSourceFor(cand.Source)}
	}
	if raw.IsMusicContent && raw.AlbumArtURL != "" {
		return CoverChoice{URL: raw.AlbumArtURL, Source: CoverMusicPlatform}
	}
	if raw.ThumbnailURL != "" {
		return CoverChoice{URL: raw.ThumbnailURL, Source: CoverPlatformFallback, PremiumFailed: true}
	}
	return CoverChoice{Source: CoverNone, PremiumFailed: true}
}

// coverSourceFor maps a catalog source onto a cover source tag. A cover owned
// by an unrecognized catalog is conservatively attributed to the
// highest-trust catalog rather than invented as a new tag.
func coverSourceFor(source Source) CoverSource {
	switch source {
	case SourceITunes:
		return CoverITunes
	default:
		return CoverMusicBrainz
	}
}
