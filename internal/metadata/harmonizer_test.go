package metadata_test

import (
	"context"
	"testing"

	"cadence/internal/logging"
	"cadence/internal/metadata"
)

type stubAggregator struct {
	set   metadata.CandidateSet
	calls [][]metadata.Query
}

func (s *stubAggregator) Aggregate(_ context.Context, queries []metadata.Query) metadata.CandidateSet {
	s.calls = append(s.calls, queries)
	return s.set
}

func newHarmonizer(agg metadata.Aggregator) *metadata.Harmonizer {
	return metadata.NewHarmonizer(agg, logging.NewNop(), metadata.Options{})
}

func TestHarmonizeNoProvidersCleansAndDefaults(t *testing.T) {
	h := newHarmonizer(nil)
	out := h.Harmonize(context.Background(), metadata.RawRecord{
		Title:  "Numb [4K UPGRADE] – Linkin Park",
		Artist: "Linkin Park",
	}, "youtube")

	if out.Title != "Numb" {
		t.Fatalf("expected title Numb, got %q", out.Title)
	}
	if out.Artist != "Linkin Park" {
		t.Fatalf("expected artist Linkin Park, got %q", out.Artist)
	}
	if out.Album != metadata.AlbumSingles {
		t.Fatalf("expected album Singles, got %q", out.Album)
	}
	if out.State != metadata.StateFallback {
		t.Fatalf("expected fallback state, got %s", out.State)
	}
	if out.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %f", out.Confidence)
	}
	if out.DecisionID == "" || out.QueryFingerprint == "" {
		t.Fatal("expected decision id and fingerprint to be populated")
	}
}

func TestHarmonizeTwoProviderConsensus(t *testing.T) {
	agg := &stubAggregator{set: metadata.CandidateSet{
		metadata.SourceMusicBrainz: {{
			Title:       "Basureta (Tiempos Raros)",
			Artist:      "Kase.O",
			Album:       "El Círculo",
			DurationSec: 371,
			CoverURL:    "https://coverartarchive.org/release/abc/front",
			Source:      metadata.SourceMusicBrainz,
			CatalogID:   "mbid-abc",
		}},
		metadata.SourceITunes: {{
			Title:       "Basureta (Tiempos Raros)",
			Artist:      "Kase.O",
			Album:       "El Círculo",
			DurationSec: 371,
			Source:      metadata.SourceITunes,
			CatalogID:   "900001",
		}},
	}}
	h := newHarmonizer(agg)

	out := h.Harmonize(context.Background(), metadata.RawRecord{
		Title:       "KASE.O - 16. BASURETA (TIEMPOS RAROS) Prod. Cientouno",
		Artist:      "KaseO TV Oficial",
		DurationSec: 371,
	}, "youtube")

	if out.State != metadata.StateAutoResolved {
		t.Fatalf("expected auto_resolved, got %s (confidence %f)", out.State, out.Confidence)
	}
	if want := "Basureta (Tiempos Raros)"; out.Title != want {
		t.Fatalf("expected title %q, got %q", want, out.Title)
	}
	if out.Artist != "Kase.O" {
		t.Fatalf("expected artist Kase.O, got %q", out.Artist)
	}
	if out.Album != "El Círculo" {
		t.Fatalf("expected album from canonical, got %q", out.Album)
	}
	if out.CoverSource != metadata.CoverMusicBrainz {
		t.Fatalf("expected musicbrainz cover source, got %s", out.CoverSource)
	}
	if out.PremiumCoverFailed {
		t.Fatal("catalog cover must not flag premium failure")
	}
	if out.MusicBrainzID != "mbid-abc" {
		t.Fatalf("expected musicbrainz id propagated, got %q", out.MusicBrainzID)
	}
}

func TestHarmonizeSafetyInvariant(t *testing.T) {
	// A single weak provider match must leave title/artist untouched.
	agg := &stubAggregator{set: metadata.CandidateSet{
		metadata.SourceITunes: {{
			Title:       "Completely Different Song",
			Artist:      "Someone Else",
			DurationSec: 300,
			Source:      metadata.SourceITunes,
		}},
	}}
	h := newHarmonizer(agg)

	out := h.Harmonize(context.Background(), metadata.RawRecord{
		Title:       "Numb (Official Video)",
		Artist:      "Linkin Park",
		DurationSec: 185,
	}, "youtube")

	if out.State == metadata.StateAutoResolved {
		t.Fatalf("weak match must not auto-resolve, confidence %f", out.Confidence)
	}
	if out.Title != "Numb" || out.Artist != "Linkin Park" {
		t.Fatalf("non-auto decision must preserve cleaned input, got %q / %q", out.Title, out.Artist)
	}
}

func TestHarmonizeIdempotent(t *testing.T) {
	agg := &stubAggregator{set: metadata.CandidateSet{
		metadata.SourceMusicBrainz: {{
			Title:       "Numb",
			Artist:      "Linkin Park",
			Album:       "Meteora",
			DurationSec: 185,
			Source:      metadata.SourceMusicBrainz,
		}},
		metadata.SourceITunes: {{
			Title:       "Numb",
			Artist:      "Linkin Park",
			Album:       "Meteora",
			DurationSec: 185,
			Source:      metadata.SourceITunes,
		}},
	}}
	h := newHarmonizer(agg)

	first := h.Harmonize(context.Background(), metadata.RawRecord{
		Title:       "Numb (Official Video)",
		Artist:      "Linkin Park",
		DurationSec: 185,
	}, "youtube")

	second := h.Harmonize(context.Background(), metadata.RawRecord{
		Title:       first.Title,
		Artist:      first.Artist,
		Album:       first.Album,
		DurationSec: 185,
	}, "youtube")

	if first.Title != second.Title || first.Artist != second.Artist || first.Album != second.Album {
		t.Fatalf("harmonize is not idempotent: %q/%q/%q vs %q/%q/%q",
			first.Title, first.Artist, first.Album, second.Title, second.Artist, second.Album)
	}
}

func TestHarmonizeEnrichmentFillsAlbumWithoutTouchingTitle(t *testing.T) {
	// High-similarity nominee, but only one provider: pending review. Album
	// may still be enriched.
	agg := &stubAggregator{set: metadata.CandidateSet{
		metadata.SourceMusicBrainz: {{
			Title:       "Numb",
			Artist:      "Linkin Park",
			Album:       "Meteora",
			DurationSec: 186,
			CoverURL:    "https://coverartarchive.org/release/xyz/front",
			Source:      metadata.SourceMusicBrainz,
			CatalogID:   "mbid-xyz",
		}},
	}}
	h := metadata.NewHarmonizer(agg, logging.NewNop(), metadata.Options{
		Thresholds: metadata.Thresholds{AutoResolve: 0.99, SoloAutoResolve: 0.999, Review: 0.72},
	})

	out := h.Harmonize(context.Background(), metadata.RawRecord{
		Title:       "Numb (Lyrics)",
		Artist:      "Linkin Park",
		DurationSec: 185,
	}, "youtube")

	if out.State != metadata.StatePendingReview {
		t.Fatalf("expected pending_review, got %s (confidence %f)", out.State, out.Confidence)
	}
	if out.Title != "Numb" || out.Artist != "Linkin Park" {
		t.Fatalf("enrichment must not rewrite title/artist: %q / %q", out.Title, out.Artist)
	}
	if out.Album != "Meteora" {
		t.Fatalf("expected enriched album Meteora, got %q", out.Album)
	}
	if out.CoverSource != metadata.CoverMusicBrainz {
		t.Fatalf("expected enrichment cover, got %s", out.CoverSource)
	}
}

func TestHarmonizeFallbackAlbumPassUsesChannelVariant(t *testing.T) {
	agg := &variantAggregator{}
	h := newHarmonizer(agg)

	out := h.Harmonize(context.Background(), metadata.RawRecord{
		Title:       "Basureta (Tiempos Raros)",
		Artist:      "KaseO TV Oficial",
		DurationSec: 371,
	}, "youtube")

	if out.Album != "El Círculo" {
		t.Fatalf("expected album from channel-variant pass, got %q", out.Album)
	}
	if agg.variantCalls == 0 {
		t.Fatal("expected a channel-variant aggregation pass")
	}
}

// variantAggregator returns nothing for the primary pass and a good match
// only when queried with the dotted channel variant.
type variantAggregator struct {
	variantCalls int
}

func (v *variantAggregator) Aggregate(_ context.Context, queries []metadata.Query) metadata.CandidateSet {
	for _, q := range queries {
		if q.Artist == "Kase.O" && len(queries) == 1 {
			v.variantCalls++
			return metadata.CandidateSet{
				metadata.SourceMusicBrainz: {{
					Title:       "Basureta (Tiempos Raros)",
					Artist:      "Kase.O",
					Album:       "El Círculo",
					DurationSec: 371,
					Source:      metadata.SourceMusicBrainz,
				}},
			}
		}
	}
	return metadata.CandidateSet{}
}

func TestHarmonizeCoverPriority(t *testing.T) {
	// Catalog cover beats the music-platform thumbnail.
	agg := &stubAggregator{set: metadata.CandidateSet{
		metadata.SourceMusicBrainz: {{
			Title:       "Numb",
			Artist:      "Linkin Park",
			Album:       "Meteora",
			DurationSec: 185,
			CoverURL:    "https://coverartarchive.org/release/abc/front",
			Source:      metadata.SourceMusicBrainz,
		}},
	}}
	h := newHarmonizer(agg)
	out := h.Harmonize(context.Background(), metadata.RawRecord{
		Title:          "Numb",
		Artist:         "Linkin Park",
		DurationSec:    185,
		IsMusicContent: true,
		AlbumArtURL:    "https://platform.example/albumart.jpg",
		ThumbnailURL:   "https://platform.example/thumb.jpg",
	}, "youtube")
	if out.CoverSource != metadata.CoverMusicBrainz {
		t.Fatalf("catalog cover must win, got %s", out.CoverSource)
	}

	// Non-music content with no catalog cover falls to the generic thumbnail.
	h = newHarmonizer(nil)
	out = h.Harmonize(context.Background(), metadata.RawRecord{
		Title:        "Numb",
		Artist:       "Linkin Park",
		AlbumArtURL:  "https://platform.example/albumart.jpg",
		ThumbnailURL: "https://platform.example/thumb.jpg",
	}, "youtube")
	if out.CoverSource != metadata.CoverPlatformFallback {
		t.Fatalf("expected platform fallback, got %s", out.CoverSource)
	}
	if !out.PremiumCoverFailed {
		t.Fatal("generic thumbnail must flag premium cover failure")
	}
	if out.CoverURL != "https://platform.example/thumb.jpg" {
		t.Fatalf("expected thumbnail URL, got %s", out.CoverURL)
	}
}
