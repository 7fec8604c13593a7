// Package migration runs the harmonization pipeline over a whole library as a
// pausable, cancellable background job with per-track audit and rollback.
package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"cadence/internal/config"
	"cadence/internal/library"
	"cadence/internal/logging"
	"cadence/internal/metadata"
	"cadence/internal/services"
)

// Harmonizer is the per-track engine run by the orchestrator.
type Harmonizer interface {
	Harmonize(ctx context.Context, raw metadata.RawRecord, sourceTag string) metadata.Harmonized
}

// Orchestrator owns the migration job lifecycle. Construct one per library.
type Orchestrator struct {
	store      *library.Store
	harmonizer Harmonizer
	logger     *slog.Logger

	pausePoll time.Duration
	pacing    time.Duration

	fileLock *flock.Flock

	mu        sync.Mutex
	jobID     string
	paused    bool
	cancelled bool
	done      chan struct{}
}

// New creates an orchestrator bound to a store and harmonizer.
func New(store *library.Store, harmonizer Harmonizer, cfg *config.Config, logger *slog.Logger) *Orchestrator {
	lockPath := filepath.Join(cfg.Paths.LibraryDir, "migration.lock")
	return &Orchestrator{
		store:      store,
		harmonizer: harmonizer,
		logger:     logging.NewComponentLogger(logger, "migration"),
		pausePoll:  time.Duration(cfg.Migration.PausePollMillis) * time.Millisecond,
		pacing:     time.Duration(cfg.Migration.PacingMillis) * time.Millisecond,
		fileLock:   flock.New(lockPath),
	}
}

// Start launches a migration job over the current library snapshot. If a job
// is already active, in this process or another, it returns an empty job id
// and no error. An active row left behind by a dead process is reclaimed: the
// library lock being free proves its worker is gone, so the row is marked
// failed and a fresh job proceeds.
func (o *Orchestrator) Start(ctx context.Context, dryRun bool) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.jobID != "" {
		return "", nil
	}
	locked, err := o.fileLock.TryLock()
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "migration", "start", "acquire library lock", err)
	}
	if !locked {
		return "", nil
	}

	active, err := o.store.ActiveJob(ctx)
	if err != nil {
		_ = o.fileLock.Unlock()
		return "", services.Wrap(services.ErrTransient, "migration", "start", "query active job", err)
	}
	if active != nil {
		active.Status = library.JobFailed
		active.ErrorMessage = "interrupted: worker no longer running"
		if err := o.store.UpdateJob(ctx, active); err != nil {
			_ = o.fileLock.Unlock()
			return "", services.Wrap(services.ErrTransient, "migration", "start", "reclaim interrupted job", err)
		}
		o.logger.Warn("reclaimed interrupted job",
			logging.String(logging.FieldJobID, active.ID))
	}

	tracks, err := o.store.ListTracks(ctx)
	if err != nil {
		_ = o.fileLock.Unlock()
		return "", services.Wrap(services.ErrTransient, "migration", "start", "snapshot library", err)
	}

	job := &library.Job{
		ID:          uuid.NewString(),
		Status:      library.JobRunning,
		TotalTracks: len(tracks),
		DryRun:      dryRun,
	}
	if err := o.store.CreateJob(ctx, job); err != nil {
		_ = o.fileLock.Unlock()
		return "", services.Wrap(services.ErrTransient, "migration", "start", "create job", err)
	}

	o.jobID = job.ID
	o.paused = false
	o.cancelled = false
	o.done = make(chan struct{})

	o.logger.Info("migration started",
		logging.String(logging.FieldJobID, job.ID),
		logging.Int("total_tracks", job.TotalTracks),
		logging.Bool("dry_run", dryRun))

	go o.run(ctx, job, tracks)
	return job.ID, nil
}

// Pause requests a pause at the next track boundary.
func (o *Orchestrator) Pause(ctx context.Context) error {
	return o.setPaused(ctx, true)
}

// Resume clears a pause request.
func (o *Orchestrator) Resume(ctx context.Context) error {
	return o.setPaused(ctx, false)
}

func (o *Orchestrator) setPaused(ctx context.Context, paused bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.jobID == "" {
		return services.Wrap(services.ErrNotFound, "migration", "pause", "no active job", nil)
	}
	o.paused = paused

	job, err := o.store.GetJob(ctx, o.jobID)
	if err != nil || job == nil {
		return services.Wrap(services.ErrTransient, "migration", "pause", "load job", err)
	}
	if paused {
		job.Status = library.JobPaused
	} else {
		job.Status = library.JobRunning
	}
	return o.store.UpdateJob(ctx, job)
}

// Cancel requests termination at the next track boundary.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.jobID == "" {
		return services.Wrap(services.ErrNotFound, "migration", "cancel", "no active job", nil)
	}
	o.cancelled = true
	return nil
}

// Status returns the job by id, or the most recent job when id is empty. A
// missing job returns nil, nil.
func (o *Orchestrator) Status(ctx context.Context, jobID string) (*library.Job, error) {
	if jobID == "" {
		return o.store.LatestJob(ctx)
	}
	return o.store.GetJob(ctx, jobID)
}

// Wait blocks until the current job's worker exits. It returns immediately
// when no job is running.
func (o *Orchestrator) Wait() {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (o *Orchestrator) run(ctx context.Context, job *library.Job, tracks []*library.Track) {
	defer func() {
		o.mu.Lock()
		o.jobID = ""
		close(o.done)
		o.mu.Unlock()
		_ = o.fileLock.Unlock()
	}()

	for _, track := range tracks {
		if o.waitWhilePaused(ctx, job) {
			job.Status = library.JobCancelled
			if err := o.store.UpdateJob(ctx, job); err != nil {
				o.logger.Error("persist cancelled job", logging.Error(err))
			}
			o.logger.Info("migration cancelled", logging.String(logging.FieldJobID, job.ID))
			return
		}

		if err := o.processTrack(ctx, job, track); err != nil {
			// Store-level failure: the job cannot make progress.
			job.Status = library.JobFailed
			job.ErrorMessage = err.Error()
			if updateErr := o.store.UpdateJob(ctx, job); updateErr != nil {
				o.logger.Error("persist failed job", logging.Error(updateErr))
			}
			o.logger.Error("migration failed",
				logging.String(logging.FieldJobID, job.ID),
				logging.Error(err))
			return
		}

		job.ProcessedTracks++
		// A pause request may have landed mid-track; re-read the flag so the
		// progress write does not stomp the persisted paused status.
		job.Status = o.workerStatus()
		if err := o.store.UpdateJob(ctx, job); err != nil {
			o.logger.Error("persist job progress", logging.Error(err))
		}

		if o.pacing > 0 {
			time.Sleep(o.pacing)
		}
	}

	job.Status = library.JobCompleted
	if err := o.store.UpdateJob(ctx, job); err != nil {
		o.logger.Error("persist completed job", logging.Error(err))
	}
	o.logger.Info("migration completed",
		logging.String(logging.FieldJobID, job.ID),
		logging.Int("processed", job.ProcessedTracks),
		logging.Int("applied", job.AppliedTracks),
		logging.Int("failed", job.FailedTracks))
}

// workerStatus reflects the current pause flag as a job status for writes
// made from the worker goroutine.
func (o *Orchestrator) workerStatus() library.JobStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.paused {
		return library.JobPaused
	}
	return library.JobRunning
}

// waitWhilePaused blocks at a track boundary while paused, polling so a
// cancel request still gets through. When the worker parks it persists the
// paused status itself, in case a progress write raced the pause request. It
// reports whether the job was cancelled.
func (o *Orchestrator) waitWhilePaused(ctx context.Context, job *library.Job) bool {
	parked := false
	for {
		o.mu.Lock()
		cancelled := o.cancelled || ctx.Err() != nil
		paused := o.paused
		o.mu.Unlock()

		if cancelled {
			return true
		}
		if !paused {
			return false
		}
		if !parked {
			parked = true
			job.Status = library.JobPaused
			if err := o.store.UpdateJob(ctx, job); err != nil {
				o.logger.Error("persist paused job", logging.Error(err))
			}
		}
		time.Sleep(o.pausePoll)
	}
}

// processTrack harmonizes one track and records the outcome. Per-track errors
// become failed audit rows; only audit/store write failures propagate.
func (o *Orchestrator) processTrack(ctx context.Context, job *library.Job, track *library.Track) error {
	oldSnapshot, err := json.Marshal(library.SnapshotOf(track))
	if err != nil {
		return fmt.Errorf("marshal old snapshot: %w", err)
	}

	raw := metadata.RawRecord{
		Title:       track.Title,
		Artist:      track.Artist,
		Album:       track.Album,
		DurationSec: track.DurationSec,
		ISRC:        track.ISRC,
		Year:        track.Year,
		TrackNumber: track.TrackNumber,
	}
	sourceTag := track.SourceTag
	if sourceTag == "" {
		sourceTag = "library"
	}

	harmonized := o.harmonizer.Harmonize(ctx, raw, sourceTag)
	newSnapshot, err := json.Marshal(snapshotFromHarmonized(track, harmonized))
	if err != nil {
		return fmt.Errorf("marshal new snapshot: %w", err)
	}

	audit := &library.AuditRow{
		JobID:           job.ID,
		TrackID:         track.ID,
		Confidence:      harmonized.Confidence,
		OldSnapshotJSON: string(oldSnapshot),
		NewSnapshotJSON: string(newSnapshot),
	}

	switch harmonized.State {
	case metadata.StateAutoResolved:
		if job.DryRun {
			audit.Status = library.AuditWouldApply
		} else if applyErr := o.applyToTrack(ctx, track, harmonized); applyErr != nil {
			audit.Status = library.AuditFailed
			audit.ErrorMessage = applyErr.Error()
			job.FailedTracks++
			o.logger.Warn("track apply failed",
				logging.Int64(logging.FieldTrackID, track.ID),
				logging.Error(applyErr))
		} else {
			audit.Status = library.AuditApplied
			job.AppliedTracks++
		}
	case metadata.StatePendingReview:
		audit.Status = library.AuditPendingReview
		if !job.DryRun {
			if reviewErr := o.enqueueReview(ctx, track, harmonized); reviewErr != nil {
				o.logger.Warn("enqueue review failed",
					logging.Int64(logging.FieldTrackID, track.ID),
					logging.Error(reviewErr))
			}
		}
	default:
		audit.Status = library.AuditSkippedLow
	}

	if err := o.store.AppendAudit(ctx, audit); err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

func (o *Orchestrator) applyToTrack(ctx context.Context, track *library.Track, harmonized metadata.Harmonized) error {
	track.Title = harmonized.Title
	track.Artist = harmonized.Artist
	track.Album = harmonized.Album
	track.AlbumArtist = harmonized.AlbumArtist
	if harmonized.Year != 0 {
		track.Year = harmonized.Year
	}
	if harmonized.TrackNumber != 0 {
		track.TrackNumber = harmonized.TrackNumber
	}
	if harmonized.CoverURL != "" {
		track.CoverURL = harmonized.CoverURL
		track.CoverSource = string(harmonized.CoverSource)
	}
	if harmonized.ISRC != "" {
		track.ISRC = harmonized.ISRC
	}
	track.MusicBrainzID = harmonized.MusicBrainzID
	track.MetadataState = string(harmonized.State)
	track.Confidence = harmonized.Confidence
	track.QueryFingerprint = harmonized.QueryFingerprint
	track.DecisionID = harmonized.DecisionID
	return o.store.UpdateTrackMetadata(ctx, track)
}

func (o *Orchestrator) enqueueReview(ctx context.Context, track *library.Track, harmonized metadata.Harmonized) error {
	candidates, err := json.Marshal(harmonized.Nominees)
	if err != nil {
		return fmt.Errorf("marshal nominees: %w", err)
	}
	proposed, err := json.Marshal(snapshotFromHarmonized(track, harmonized))
	if err != nil {
		return fmt.Errorf("marshal proposed update: %w", err)
	}
	return o.store.EnqueueReview(ctx, &library.ReviewItem{
		TrackID:        track.ID,
		SourceType:     harmonized.SourceTag,
		Display:        track.Artist + " - " + track.Title,
		MetadataState:  string(harmonized.State),
		Confidence:     harmonized.Confidence,
		Fingerprint:    harmonized.QueryFingerprint,
		CandidatesJSON: string(candidates),
		ProposedJSON:   string(proposed),
	})
}

func snapshotFromHarmonized(track *library.Track, harmonized metadata.Harmonized) library.Snapshot {
	snapshot := library.Snapshot{
		Title:       harmonized.Title,
		Artist:      harmonized.Artist,
		Album:       harmonized.Album,
		AlbumArtist: harmonized.AlbumArtist,
		Year:        harmonized.Year,
		TrackNumber: harmonized.TrackNumber,
		CoverURL:    harmonized.CoverURL,
		CoverSource: string(harmonized.CoverSource),
	}
	if snapshot.Year == 0 {
		snapshot.Year = track.Year
	}
	if snapshot.TrackNumber == 0 {
		snapshot.TrackNumber = track.TrackNumber
	}
	return snapshot
}
