package metadata

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"cadence/internal/logging"
	"cadence/internal/textutil"
)

// artistAdoptMin is the similarity an extracted title segment must reach
// against the known artist (or one of its channel variants) before the
// extraction refines the base record.
const artistAdoptMin = 0.75

// Aggregator issues a query list against every configured provider and
// returns the per-provider candidate lists.
type Aggregator interface {
	Aggregate(ctx context.Context, queries []Query) CandidateSet
}

// Options tunes the harmonizer. Zero values fall back to the shipped
// defaults.
type Options struct {
	Thresholds          Thresholds
	EnrichmentThreshold float64
}

// Harmonizer runs the full consensus pipeline for one raw record.
type Harmonizer struct {
	aggregator Aggregator
	thresholds Thresholds
	enrichMin  float64
	logger     *slog.Logger
}

// NewHarmonizer constructs a Harmonizer. A nil aggregator is allowed; the
// engine then degrades to pure normalization with the fallback state.
func NewHarmonizer(aggregator Aggregator, logger *slog.Logger, opts Options) *Harmonizer {
	thresholds := opts.Thresholds
	if thresholds.AutoResolve == 0 {
		thresholds = DefaultThresholds()
	}
	enrichMin := opts.EnrichmentThreshold
	if enrichMin == 0 {
		enrichMin = 0.8
	}
	return &Harmonizer{
		aggregator: aggregator,
		thresholds: thresholds,
		enrichMin:  enrichMin,
		logger:     logging.NewComponentLogger(logger, "harmonizer"),
	}
}

// Harmonize resolves one raw record into harmonized metadata. It never fails
// on bad input: when the catalogs produce nothing usable the cleaned platform
// metadata is returned in the fallback state with zero confidence.
func (h *Harmonizer) Harmonize(ctx context.Context, raw RawRecord, sourceTag string) Harmonized {
	base := h.refineBase(raw)

	set := CandidateSet{}
	if h.aggregator != nil {
		set = h.aggregator.Aggregate(ctx, BuildQueries(raw))
	}

	decision := Decide(base, set, h.thresholds)
	h.logger.Info("consensus decision",
		logging.String("title", base.Title),
		logging.String("artist", base.Artist),
		logging.String(logging.FieldState, string(decision.State)),
		logging.Float64("confidence", decision.Confidence),
		logging.String("authority", decision.Authority),
		logging.Int("providers", len(decision.Nominees)))

	out := Harmonized{
		Title:            base.Title,
		Artist:           base.Artist,
		Album:            raw.Album,
		Year:             raw.Year,
		TrackNumber:      raw.TrackNumber,
		ISRC:             raw.ISRC,
		Confidence:       decision.Confidence,
		State:            decision.State,
		QueryFingerprint: textutil.Fingerprint(base.Title, base.Artist, raw.DurationSec),
		DecisionID:       uuid.NewString(),
		SourceTag:        sourceTag,
		Nominees:         decision.Nominees,
	}

	// Title and artist are overwritten only on a fully auto-resolved
	// decision; everything below enriches secondary fields.
	if decision.State == StateAutoResolved {
		out.Title = decision.Canonical.Title
		out.Artist = decision.Canonical.Artist
		out.AlbumArtist = decision.Canonical.AlbumArtist
		if decision.Canonical.Album != "" {
			out.Album = decision.Canonical.Album
		}
		if decision.Canonical.ISRC != "" {
			out.ISRC = decision.Canonical.ISRC
		}
		if decision.Canonical.Source == SourceMusicBrainz {
			out.MusicBrainzID = decision.Canonical.CatalogID
		}
	}

	enrichment := h.enrich(ctx, raw, base, &out, decision)

	if IsGenericAlbum(out.Album) {
		out.Album = AlbumSingles
	}
	if out.AlbumArtist == "" {
		out.AlbumArtist = out.Artist
	}

	cover := SelectCover(raw, decision.Canonical, enrichment)
	out.CoverURL = cover.URL
	out.CoverSource = cover.Source
	out.PremiumCoverFailed = cover.PremiumFailed

	return out
}

// refineBase cleans the raw title/artist and, when the title embeds the
// artist around a separator, adopts the extracted pair as the base record.
// Adoption requires the extracted segment to closely match the known artist
// or one of its channel variants, so a stray dash never rewrites the base.
func (h *Harmonizer) refineBase(raw RawRecord) ScoreBase {
	cleanTitle := StripTrackNumber(Clean(raw.Title))
	cleanArtist := Clean(raw.Artist)

	base := ScoreBase{
		Title:       cleanTitle,
		Artist:      cleanArtist,
		Album:       raw.Album,
		DurationSec: raw.DurationSec,
		ISRC:        raw.ISRC,
	}

	left, right := SplitArtistTitle(raw.Title)
	if left == "" {
		return base
	}

	references := []string{cleanArtist}
	if LooksLikeChannel(raw.Artist) {
		references = append(references, ChannelVariants(raw.Artist)...)
	}
	switch {
	case matchesAny(left, references):
		base.Artist = left
		base.Title = StripTrackNumber(right)
	case matchesAny(right, references):
		base.Artist = right
		base.Title = StripTrackNumber(left)
	}
	return base
}

// enrich fills album (and transitively cover) from the best-agreeing nominee,
// and when the primary pass leaves the album generic, runs one extra
// aggregation pass using a channel-derived artist variant.
func (h *Harmonizer) enrich(ctx context.Context, raw RawRecord, base ScoreBase, out *Harmonized, decision Decision) *Candidate {
	cand, ok := SelectEnrichment(out.Title, out.Artist, raw.DurationSec, decision.Nominees, h.enrichMin)
	if ok {
		h.applyEnrichment(out, cand)
		return &cand
	}

	// Fallback album-only pass: a channel-derived artist variant that differs
	// from the original artist may still locate the album.
	if h.aggregator == nil || !IsGenericAlbum(out.Album) || !LooksLikeChannel(raw.Artist) {
		return nil
	}
	for _, variant := range ChannelVariants(raw.Artist) {
		if strings.EqualFold(variant, base.Artist) {
			continue
		}
		variantQueries := []Query{{Artist: variant, Title: base.Title}}
		variantSet := h.aggregator.Aggregate(ctx, variantQueries)
		variantDecision := Decide(ScoreBase{
			Title:       base.Title,
			Artist:      variant,
			DurationSec: raw.DurationSec,
			ISRC:        raw.ISRC,
		}, variantSet, h.thresholds)
		if cand, ok := SelectEnrichment(base.Title, variant, raw.DurationSec, variantDecision.Nominees, h.enrichMin); ok {
			h.logger.Info("album filled via channel-variant lookup",
				logging.String("variant", variant),
				logging.String("album", cand.Album))
			h.applyEnrichment(out, cand)
			return &cand
		}
		break
	}
	return nil
}

func (h *Harmonizer) applyEnrichment(out *Harmonized, cand Candidate) {
	if IsGenericAlbum(out.Album) && cand.Album != "" {
		out.Album = cand.Album
		if cand.AlbumArtist != "" {
			out.AlbumArtist = cand.AlbumArtist
		}
	}
	if out.MusicBrainzID == "" && cand.Source == SourceMusicBrainz {
		out.MusicBrainzID = cand.CatalogID
	}
	if out.ISRC == "" && cand.ISRC != "" {
		out.ISRC = cand.ISRC
	}
}

func matchesAny(value string, references []string) bool {
	for _, ref := range references {
		if ref == "" || ref == TitleUnknown {
			continue
		}
		if textutil.Similarity(ref, value) >= artistAdoptMin {
			return true
		}
	}
	return false
}
