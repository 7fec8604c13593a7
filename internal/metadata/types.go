// Package metadata implements the consensus engine: normalization of noisy
// platform metadata, candidate query construction, multi-provider scoring,
// and safe enrichment of secondary fields.
package metadata

import "strings"

// Sentinel values used when no better information exists.
const (
	TitleUnknown = "Unknown"
	AlbumSingles = "Singles"
)

// Source identifies the external catalog a candidate came from.
type Source string

const (
	SourceMusicBrainz Source = "musicbrainz"
	SourceITunes      Source = "itunes"
)

// TrustWeight returns the provider trust applied to a nominee's raw score.
// The recording catalog is authoritative; the store catalog slightly less so;
// anything unrecognized is discounted further.
func (s Source) TrustWeight() float64 {
	switch s {
	case SourceMusicBrainz:
		return 1.0
	case SourceITunes:
		return 0.82
	default:
		return 0.75
	}
}

// State classifies the outcome of a consensus decision.
type State string

const (
	// StateAutoResolved means the evidence is strong enough to overwrite
	// title and artist from the canonical candidate.
	StateAutoResolved State = "auto_resolved"
	// StatePendingReview means a plausible match exists but a human must
	// confirm before title/artist change.
	StatePendingReview State = "pending_review"
	// StateFallback means the catalogs produced nothing usable; the cleaned
	// platform metadata stands.
	StateFallback State = "fallback_youtube"
)

// CoverSource identifies where the selected cover art came from.
type CoverSource string

const (
	CoverMusicBrainz      CoverSource = "musicbrainz"
	CoverITunes           CoverSource = "itunes"
	CoverMusicPlatform    CoverSource = "music_platform"
	CoverPlatformFallback CoverSource = "platform_fallback"
	CoverNone             CoverSource = "none"
)

// RawRecord is the noisy per-track input scraped from the video platform.
type RawRecord struct {
	Title       string
	Artist      string
	Album       string
	DurationSec int
	ISRC        string
	Year        int
	TrackNumber int
	// IsMusicContent marks records that came from the platform's dedicated
	// music surface, whose thumbnails are real album art.
	IsMusicContent bool
	ThumbnailURL   string
	// AlbumArtURL is the platform-provided square art, trustworthy only when
	// IsMusicContent is set.
	AlbumArtURL string
}

// Candidate is one normalized search result from one external catalog.
// Immutable once returned by an adapter.
type Candidate struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	DurationSec int
	ISRC        string
	CoverURL    string
	Source      Source
	CatalogID   string
}

// Query is one (artist, title) search pair issued against every provider.
type Query struct {
	Artist string
	Title  string
}

// CandidateSet maps each provider to its deduplicated candidate list in query
// order.
type CandidateSet map[Source][]Candidate

// Empty reports whether no provider returned any candidate.
func (s CandidateSet) Empty() bool {
	for _, list := range s {
		if len(list) > 0 {
			return false
		}
	}
	return true
}

// Decision is the outcome of consensus scoring across providers.
// Canonical is non-nil exactly when State is StateAutoResolved.
type Decision struct {
	State      State
	Confidence float64
	// Authority tags which provider backed the leading nominee.
	Authority string
	Canonical *Candidate
	// Nominees holds the best candidate per provider, kept for review.
	Nominees map[Source]Candidate
}

// Harmonized is the engine's final output for one track.
type Harmonized struct {
	Title              string
	Artist             string
	Album              string
	AlbumArtist        string
	Year               int
	TrackNumber        int
	CoverURL           string
	CoverSource        CoverSource
	PremiumCoverFailed bool
	MusicBrainzID      string
	ISRC               string

	Confidence       float64
	State            State
	QueryFingerprint string
	DecisionID       string
	SourceTag        string
	Nominees         map[Source]Candidate
}

// genericAlbums are placeholder album names that enrichment may replace.
var genericAlbums = map[string]struct{}{
	"":                {},
	"singles":         {},
	"unknown":         {},
	"manual":          {},
	"manual download": {},
	"none":            {},
}

// IsGenericAlbum reports whether an album value carries no real information
// and may be replaced by enrichment.
func IsGenericAlbum(album string) bool {
	_, ok := genericAlbums[strings.ToLower(strings.TrimSpace(album))]
	return ok
}
