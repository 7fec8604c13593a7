package metadata

import (
	"sort"
	"strings"

	"cadence/internal/textutil"
)

// Candidate score weights against the base record.
const (
	titleWeight    = 0.40
	artistWeight   = 0.35
	durationWeight = 0.20
	albumWeight    = 0.05

	// neutralAlbumScore is used when the base record has no album to compare.
	neutralAlbumScore = 0.5

	// isrcBonus is added on exact ISRC equality, capped at 1.0.
	isrcBonus = 0.20
)

// Agreement bonus parameters: pairwise nominee similarity above the floor is
// converted into extra confidence, scaled and capped so corroboration can
// nudge a decision over a threshold but never carry a weak leader alone.
const (
	agreementFloor = 0.6
	agreementScale = 0.45
	agreementCap   = 0.18
)

// Lighter-weight similarity used for nominee-vs-nominee agreement and for
// enrichment acceptance.
const (
	lightTitleWeight    = 0.45
	lightArtistWeight   = 0.40
	lightDurationWeight = 0.15
)

// ScoreBase is the record candidates are scored against: the cleaned (and
// possibly title-extracted) input metadata.
type ScoreBase struct {
	Title       string
	Artist      string
	Album       string
	DurationSec int
	ISRC        string
}

// Thresholds carries the tunable decision gates.
type Thresholds struct {
	AutoResolve     float64
	SoloAutoResolve float64
	Review          float64
}

// DefaultThresholds returns the decision gates the engine ships with.
func DefaultThresholds() Thresholds {
	return Thresholds{AutoResolve: 0.90, SoloAutoResolve: 0.97, Review: 0.72}
}

// ScoreCandidate computes the weighted similarity of a candidate to the base
// record: title 0.40, artist 0.35, duration proximity 0.20, album 0.05
// (neutral when the base has no album), plus a flat ISRC-equality bonus.
func ScoreCandidate(base ScoreBase, c Candidate) float64 {
	albumScore := neutralAlbumScore
	if !IsGenericAlbum(base.Album) {
		albumScore = textutil.Similarity(base.Album, c.Album)
	}
	score := titleWeight*textutil.Similarity(base.Title, c.Title) +
		artistWeight*textutil.Similarity(base.Artist, c.Artist) +
		durationWeight*textutil.DurationProximity(base.DurationSec, c.DurationSec) +
		albumWeight*albumScore
	if isrcEqual(base.ISRC, c.ISRC) {
		score += isrcBonus
	}
	return clamp1(score)
}

// LightScore computes the lighter-weight similarity of a candidate to a
// (title, artist, duration) triple: 0.45/0.40/0.15.
func LightScore(title, artist string, durationSec int, c Candidate) float64 {
	return lightTitleWeight*textutil.Similarity(title, c.Title) +
		lightArtistWeight*textutil.Similarity(artist, c.Artist) +
		lightDurationWeight*textutil.DurationProximity(durationSec, c.DurationSec)
}

// Decide selects the best candidate per provider, applies provider trust and
// the cross-provider agreement bonus, and classifies the outcome.
func Decide(base ScoreBase, set CandidateSet, th Thresholds) Decision {
	if set.Empty() {
		return Decision{State: StateFallback, Confidence: 0, Nominees: map[Source]Candidate{}}
	}

	type nominee struct {
		source   Source
		cand     Candidate
		raw      float64
		weighted float64
	}

	nominees := make([]nominee, 0, len(set))
	for source, candidates := range set {
		if len(candidates) == 0 {
			continue
		}
		best := candidates[0]
		bestScore := ScoreCandidate(base, best)
		for _, c := range candidates[1:] {
			if score := ScoreCandidate(base, c); score > bestScore {
				best, bestScore = c, score
			}
		}
		nominees = append(nominees, nominee{
			source:   source,
			cand:     best,
			raw:      bestScore,
			weighted: bestScore * source.TrustWeight(),
		})
	}
	if len(nominees) == 0 {
		return Decision{State: StateFallback, Confidence: 0, Nominees: map[Source]Candidate{}}
	}
	// Deterministic leader selection on weighted-score ties.
	sort.Slice(nominees, func(i, j int) bool {
		if nominees[i].weighted != nominees[j].weighted {
			return nominees[i].weighted > nominees[j].weighted
		}
		return nominees[i].source < nominees[j].source
	})
	leader := nominees[0]

	leadingScore := leader.weighted
	if isrcEqual(base.ISRC, leader.cand.ISRC) {
		leadingScore = clamp1(leadingScore + isrcBonus)
	}

	var maxAgreement float64
	for i := 0; i < len(nominees); i++ {
		for j := i + 1; j < len(nominees); j++ {
			a, b := nominees[i].cand, nominees[j].cand
			pairwise := LightScore(a.Title, a.Artist, a.DurationSec, b)
			if pairwise > maxAgreement {
				maxAgreement = pairwise
			}
		}
	}
	var bonus float64
	if excess := maxAgreement - agreementFloor; excess > 0 {
		bonus = excess * agreementScale
		if bonus > agreementCap {
			bonus = agreementCap
		}
	}

	final := clamp1(leadingScore + bonus)

	byProvider := make(map[Source]Candidate, len(nominees))
	for _, n := range nominees {
		byProvider[n.source] = n.cand
	}

	decision := Decision{
		Confidence: final,
		Authority:  string(leader.source),
		Nominees:   byProvider,
	}
	switch {
	case final >= th.AutoResolve && (len(nominees) >= 2 || leader.weighted >= th.SoloAutoResolve):
		canonical := leader.cand
		decision.State = StateAutoResolved
		decision.Canonical = &canonical
	case final >= th.Review:
		decision.State = StatePendingReview
	default:
		decision.State = StateFallback
	}
	return decision
}

func isrcEqual(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func clamp1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
