package library

import "time"

// JobStatus tracks a migration job through its lifecycle.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobPaused    JobStatus = "paused"
	JobCancelled JobStatus = "cancelled"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the job can no longer change state.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCancelled, JobCompleted, JobFailed:
		return true
	}
	return false
}

// AuditStatus records the per-track outcome of a migration pass.
type AuditStatus string

const (
	AuditApplied       AuditStatus = "applied"
	AuditWouldApply    AuditStatus = "would_apply"
	AuditSkippedLow    AuditStatus = "skipped_low_confidence"
	AuditPendingReview AuditStatus = "pending_review"
	AuditFailed        AuditStatus = "failed"
)

// ReviewStatus tracks a review-queue item.
type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "pending_review"
	ReviewResolved  ReviewStatus = "resolved"
	ReviewDismissed ReviewStatus = "dismissed"
)

// Track is a library track row. Metadata fields are mutated in place by the
// migration orchestrator when a decision is applied.
type Track struct {
	ID               int64
	Title            string
	Artist           string
	Album            string
	AlbumArtist      string
	Year             int
	TrackNumber      int
	DurationSec      int
	ISRC             string
	CoverURL         string
	CoverSource      string
	MusicBrainzID    string
	SourceTag        string
	MetadataState    string
	Confidence       float64
	QueryFingerprint string
	DecisionID       string
	MetadataVersion  int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Snapshot is the subset of track metadata captured in audit rows. Rollback
// restores exactly these fields.
type Snapshot struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	AlbumArtist string `json:"album_artist"`
	Year        int    `json:"year,omitempty"`
	TrackNumber int    `json:"track_number,omitempty"`
	CoverURL    string `json:"cover_url,omitempty"`
	CoverSource string `json:"cover_source,omitempty"`
}

// SnapshotOf captures the rollback-relevant fields of a track.
func SnapshotOf(track *Track) Snapshot {
	return Snapshot{
		Title:       track.Title,
		Artist:      track.Artist,
		Album:       track.Album,
		AlbumArtist: track.AlbumArtist,
		Year:        track.Year,
		TrackNumber: track.TrackNumber,
		CoverURL:    track.CoverURL,
		CoverSource: track.CoverSource,
	}
}

// Job is a migration job row. Only the orchestrator mutates it.
type Job struct {
	ID              string
	Status          JobStatus
	TotalTracks     int
	ProcessedTracks int
	AppliedTracks   int
	FailedTracks    int
	DryRun          bool
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AuditRow is an append-only record of one track's migration outcome and the
// sole source of truth for rollback.
type AuditRow struct {
	ID              int64
	JobID           string
	TrackID         int64
	Status          AuditStatus
	Confidence      float64
	OldSnapshotJSON string
	NewSnapshotJSON string
	ErrorMessage    string
	CreatedAt       time.Time
}

// ReviewItem is a queued inconclusive decision awaiting a human verdict.
type ReviewItem struct {
	ID             int64
	TrackID        int64
	SourceType     string
	Display        string
	MetadataState  string
	Confidence     float64
	Fingerprint    string
	CandidatesJSON string
	ProposedJSON   string
	Status         ReviewStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
