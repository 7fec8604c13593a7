package migration_test

import (
	"context"
	"testing"
	"time"

	"cadence/internal/library"
	"cadence/internal/logging"
	"cadence/internal/metadata"
	"cadence/internal/migration"
	"cadence/internal/testsupport"
)

// funcHarmonizer adapts a function to the Harmonizer interface.
type funcHarmonizer func(raw metadata.RawRecord) metadata.Harmonized

func (f funcHarmonizer) Harmonize(_ context.Context, raw metadata.RawRecord, _ string) metadata.Harmonized {
	return f(raw)
}

// gatedHarmonizer blocks each call until released, so tests can control where
// the worker is in its loop.
type gatedHarmonizer struct {
	entered chan string
	release chan struct{}
	inner   funcHarmonizer
}

func (g *gatedHarmonizer) Harmonize(ctx context.Context, raw metadata.RawRecord, tag string) metadata.Harmonized {
	g.entered <- raw.Title
	<-g.release
	return g.inner.Harmonize(ctx, raw, tag)
}

func autoResolved(raw metadata.RawRecord) metadata.Harmonized {
	return metadata.Harmonized{
		Title:      "Fixed " + raw.Title,
		Artist:     "Fixed " + raw.Artist,
		Album:      "Fixed Album",
		State:      metadata.StateAutoResolved,
		Confidence: 0.95,
	}
}

func passthrough(state metadata.State, confidence float64) funcHarmonizer {
	return func(raw metadata.RawRecord) metadata.Harmonized {
		return metadata.Harmonized{
			Title:      raw.Title,
			Artist:     raw.Artist,
			Album:      metadata.AlbumSingles,
			State:      state,
			Confidence: confidence,
		}
	}
}

func newOrchestrator(t *testing.T, h migration.Harmonizer) (*migration.Orchestrator, *library.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	return migration.New(store, h, cfg, logging.NewNop()), store
}

func waitTerminal(t *testing.T, o *migration.Orchestrator, jobID string) *library.Job {
	t.Helper()
	o.Wait()
	job, err := o.Status(context.Background(), jobID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if job == nil || !job.Status.Terminal() {
		t.Fatalf("expected terminal job, got %+v", job)
	}
	return job
}

func TestStartEmptyLibraryCompletes(t *testing.T) {
	o, _ := newOrchestrator(t, funcHarmonizer(autoResolved))
	jobID, err := o.Start(context.Background(), false)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if jobID == "" {
		t.Fatal("expected a job id")
	}
	job := waitTerminal(t, o, jobID)
	if job.Status != library.JobCompleted || job.TotalTracks != 0 {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestMigrationAppliesAndAudits(t *testing.T) {
	o, store := newOrchestrator(t, funcHarmonizer(autoResolved))
	ctx := context.Background()

	track := testsupport.SeedTrack(t, store, "Numb (Official Video)", "Linkin Park", 185)

	jobID, err := o.Start(ctx, false)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	job := waitTerminal(t, o, jobID)

	if job.Status != library.JobCompleted {
		t.Fatalf("expected completed, got %s", job.Status)
	}
	if job.ProcessedTracks != 1 || job.AppliedTracks != 1 || job.FailedTracks != 0 {
		t.Fatalf("unexpected counters %+v", job)
	}

	updated, err := store.GetTrack(ctx, track.ID)
	if err != nil {
		t.Fatalf("get track: %v", err)
	}
	if updated.Title != "Fixed Numb (Official Video)" || updated.Album != "Fixed Album" {
		t.Fatalf("expected applied metadata, got %+v", updated)
	}
	if updated.MetadataVersion != track.MetadataVersion+1 {
		t.Fatalf("expected metadata version bump, got %d", updated.MetadataVersion)
	}

	audit, err := store.AuditForJob(ctx, jobID)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(audit) != 1 || audit[0].Status != library.AuditApplied {
		t.Fatalf("unexpected audit %+v", audit)
	}
	if audit[0].OldSnapshotJSON == "" || audit[0].NewSnapshotJSON == "" {
		t.Fatal("audit row must carry both snapshots")
	}
}

func TestMigrationDryRunChangesNothing(t *testing.T) {
	o, store := newOrchestrator(t, funcHarmonizer(autoResolved))
	ctx := context.Background()

	track := testsupport.SeedTrack(t, store, "Numb", "Linkin Park", 185)

	jobID, err := o.Start(ctx, true)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	job := waitTerminal(t, o, jobID)
	if job.AppliedTracks != 0 {
		t.Fatalf("dry run must apply nothing, got %+v", job)
	}

	unchanged, err := store.GetTrack(ctx, track.ID)
	if err != nil {
		t.Fatalf("get track: %v", err)
	}
	if unchanged.Title != "Numb" || unchanged.MetadataVersion != 0 {
		t.Fatalf("dry run mutated the track: %+v", unchanged)
	}

	audit, err := store.AuditForJob(ctx, jobID)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(audit) != 1 || audit[0].Status != library.AuditWouldApply {
		t.Fatalf("expected would_apply audit, got %+v", audit)
	}
}

func TestMigrationEnqueuesReview(t *testing.T) {
	o, store := newOrchestrator(t, passthrough(metadata.StatePendingReview, 0.8))
	ctx := context.Background()

	track := testsupport.SeedTrack(t, store, "Numb", "Linkin Park", 185)

	jobID, err := o.Start(ctx, false)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	waitTerminal(t, o, jobID)

	pending, err := store.PendingReviews(ctx)
	if err != nil {
		t.Fatalf("pending reviews: %v", err)
	}
	if len(pending) != 1 || pending[0].TrackID != track.ID {
		t.Fatalf("expected one review item for the track, got %+v", pending)
	}

	audit, err := store.AuditForJob(ctx, jobID)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(audit) != 1 || audit[0].Status != library.AuditPendingReview {
		t.Fatalf("expected pending_review audit, got %+v", audit)
	}
}

func TestMigrationSkipsLowConfidence(t *testing.T) {
	o, store := newOrchestrator(t, passthrough(metadata.StateFallback, 0.1))
	ctx := context.Background()

	testsupport.SeedTrack(t, store, "Obscure Demo", "Nobody", 90)

	jobID, err := o.Start(ctx, false)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	waitTerminal(t, o, jobID)

	audit, err := store.AuditForJob(ctx, jobID)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(audit) != 1 || audit[0].Status != library.AuditSkippedLow {
		t.Fatalf("expected skipped_low_confidence audit, got %+v", audit)
	}
}

func TestSecondStartIsNoOp(t *testing.T) {
	gate := &gatedHarmonizer{
		entered: make(chan string, 8),
		release: make(chan struct{}),
		inner:   funcHarmonizer(autoResolved),
	}
	o, store := newOrchestrator(t, gate)
	ctx := context.Background()

	testsupport.SeedTrack(t, store, "Numb", "Linkin Park", 185)

	jobID, err := o.Start(ctx, false)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	<-gate.entered

	second, err := o.Start(ctx, false)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if second != "" {
		t.Fatalf("second start while running must return no job id, got %q", second)
	}

	close(gate.release)
	waitTerminal(t, o, jobID)
}

func TestPauseResumeCancel(t *testing.T) {
	gate := &gatedHarmonizer{
		entered: make(chan string, 8),
		release: make(chan struct{}, 8),
		inner:   funcHarmonizer(autoResolved),
	}
	o, store := newOrchestrator(t, gate)
	ctx := context.Background()

	testsupport.SeedTrack(t, store, "First", "A", 100)
	testsupport.SeedTrack(t, store, "Second", "B", 200)
	testsupport.SeedTrack(t, store, "Third", "C", 300)

	jobID, err := o.Start(ctx, false)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Hold the worker inside track one, pause, then let the track finish. The
	// worker must block at the next boundary.
	<-gate.entered
	if err := o.Pause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	gate.release <- struct{}{}

	deadline := time.After(2 * time.Second)
	for {
		job, err := o.Status(ctx, jobID)
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if job.Status == library.JobPaused && job.ProcessedTracks == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("job never paused after track one: %+v", job)
		case <-time.After(5 * time.Millisecond):
		}
	}
	select {
	case title := <-gate.entered:
		t.Fatalf("paused worker must not start track %q", title)
	case <-time.After(50 * time.Millisecond):
	}

	if err := o.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	<-gate.entered
	if err := o.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	gate.release <- struct{}{}

	job := waitTerminal(t, o, jobID)
	if job.Status != library.JobCancelled {
		t.Fatalf("expected cancelled, got %s", job.Status)
	}
	if job.ProcessedTracks != 2 {
		t.Fatalf("expected two processed tracks before cancel, got %d", job.ProcessedTracks)
	}

	// A fresh job can start once the previous one terminated.
	close(gate.release)
	go func() {
		for range gate.entered {
		}
	}()
	next, err := o.Start(ctx, true)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if next == "" {
		t.Fatal("expected a new job after cancellation")
	}
	waitTerminal(t, o, next)
}

func TestStartReclaimsInterruptedJob(t *testing.T) {
	o, store := newOrchestrator(t, funcHarmonizer(autoResolved))
	ctx := context.Background()

	// A running row with no live worker, as left behind by a killed process.
	stale := &library.Job{ID: "stale-job", Status: library.JobRunning, TotalTracks: 3}
	if err := store.CreateJob(ctx, stale); err != nil {
		t.Fatalf("create stale job: %v", err)
	}

	jobID, err := o.Start(ctx, true)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if jobID == "" {
		t.Fatal("stale job must not block a new start")
	}
	waitTerminal(t, o, jobID)

	reclaimed, err := store.GetJob(ctx, stale.ID)
	if err != nil {
		t.Fatalf("get stale job: %v", err)
	}
	if reclaimed.Status != library.JobFailed {
		t.Fatalf("expected stale job marked failed, got %s", reclaimed.Status)
	}
	if reclaimed.ErrorMessage == "" {
		t.Fatal("reclaimed job must record why it was failed")
	}
}

func TestRollbackRestoresSnapshots(t *testing.T) {
	o, store := newOrchestrator(t, funcHarmonizer(autoResolved))
	ctx := context.Background()

	first := testsupport.SeedTrack(t, store, "Numb", "Linkin Park", 185)
	second := testsupport.SeedTrack(t, store, "Basureta", "Kase.O", 371)

	jobID, err := o.Start(ctx, false)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	waitTerminal(t, o, jobID)

	restored, err := o.Rollback(ctx, jobID)
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if restored != 2 {
		t.Fatalf("expected 2 tracks restored, got %d", restored)
	}

	for _, seed := range []*library.Track{first, second} {
		got, err := store.GetTrack(ctx, seed.ID)
		if err != nil {
			t.Fatalf("get track: %v", err)
		}
		if got.Title != seed.Title || got.Artist != seed.Artist || got.Album != seed.Album {
			t.Fatalf("rollback must restore the snapshot bit-for-bit: %+v vs %+v", got, seed)
		}
	}
}

func TestRollbackGuards(t *testing.T) {
	o, store := newOrchestrator(t, funcHarmonizer(autoResolved))
	ctx := context.Background()

	if _, err := o.Rollback(ctx, "missing-job"); err == nil {
		t.Fatal("expected error for unknown job")
	}

	testsupport.SeedTrack(t, store, "Numb", "Linkin Park", 185)
	dryID, err := o.Start(ctx, true)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	waitTerminal(t, o, dryID)
	if _, err := o.Rollback(ctx, dryID); err == nil {
		t.Fatal("expected error rolling back a dry-run job")
	}
}

func TestRollbackSkipsMissingTracks(t *testing.T) {
	o, store := newOrchestrator(t, funcHarmonizer(autoResolved))
	ctx := context.Background()

	track := testsupport.SeedTrack(t, store, "Numb", "Linkin Park", 185)
	jobID, err := o.Start(ctx, false)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	waitTerminal(t, o, jobID)

	// Forge an audit row pointing at a track that no longer exists.
	if err := store.AppendAudit(ctx, &library.AuditRow{
		JobID:           jobID,
		TrackID:         track.ID + 1000,
		Status:          library.AuditApplied,
		OldSnapshotJSON: `{"title":"Ghost","artist":"Nobody"}`,
	}); err != nil {
		t.Fatalf("append audit: %v", err)
	}

	restored, err := o.Rollback(ctx, jobID)
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if restored != 1 {
		t.Fatalf("missing track must be skipped silently, got %d restored", restored)
	}
}
