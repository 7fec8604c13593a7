package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const jobColumns = "id, status, total_tracks, processed_tracks, applied_tracks, failed_tracks, dry_run, error_message, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id         string
		status     string
		total      int
		processed  int
		applied    int
		failed     int
		dryRun     int
		errMessage sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&id, &status, &total, &processed, &applied, &failed, &dryRun,
		&errMessage, &createdRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:              id,
		Status:          JobStatus(status),
		TotalTracks:     total,
		ProcessedTracks: processed,
		AppliedTracks:   applied,
		FailedTracks:    failed,
		DryRun:          dryRun != 0,
		ErrorMessage:    errMessage.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

// CreateJob inserts a new migration job.
func (s *Store) CreateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	timestamp := now.Format(time.RFC3339Nano)

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO metadata_migration_jobs (
            id, status, total_tracks, processed_tracks, applied_tracks,
            failed_tracks, dry_run, error_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		string(job.Status),
		job.TotalTracks,
		job.ProcessedTracks,
		job.AppliedTracks,
		job.FailedTracks,
		boolToInt(job.DryRun),
		nullableString(job.ErrorMessage),
		timestamp,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// UpdateJob persists a job's counters and status.
func (s *Store) UpdateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	job.UpdatedAt = time.Now().UTC()

	_, err := s.execWithRetry(
		ctx,
		`UPDATE metadata_migration_jobs SET
            status = ?, total_tracks = ?, processed_tracks = ?,
            applied_tracks = ?, failed_tracks = ?, error_message = ?, updated_at = ?
        WHERE id = ?`,
		string(job.Status),
		job.TotalTracks,
		job.ProcessedTracks,
		job.AppliedTracks,
		job.FailedTracks,
		nullableString(job.ErrorMessage),
		job.UpdatedAt.Format(time.RFC3339Nano),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// GetJob fetches a job by id. A missing job returns nil, nil.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM metadata_migration_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ActiveJob returns the running or paused job, if any.
func (s *Store) ActiveJob(ctx context.Context) (*Job, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+jobColumns+` FROM metadata_migration_jobs
         WHERE status IN (?, ?) ORDER BY created_at DESC LIMIT 1`,
		string(JobRunning),
		string(JobPaused),
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active job: %w", err)
	}
	return job, nil
}

// LatestJob returns the most recently created job, if any.
func (s *Store) LatestJob(ctx context.Context) (*Job, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+jobColumns+` FROM metadata_migration_jobs ORDER BY created_at DESC LIMIT 1`,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest job: %w", err)
	}
	return job, nil
}
