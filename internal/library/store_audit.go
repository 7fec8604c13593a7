package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const auditColumns = "id, job_id, track_id, status, confidence, old_snapshot_json, new_snapshot_json, error_message, created_at"

func scanAuditRow(scanner interface{ Scan(dest ...any) error }) (*AuditRow, error) {
	var (
		id          int64
		jobID       string
		trackID     int64
		status      string
		confidence  float64
		oldSnapshot sql.NullString
		newSnapshot sql.NullString
		errMessage  sql.NullString
		createdRaw  string
	)
	if err := scanner.Scan(
		&id, &jobID, &trackID, &status, &confidence,
		&oldSnapshot, &newSnapshot, &errMessage, &createdRaw,
	); err != nil {
		return nil, err
	}

	row := &AuditRow{
		ID:              id,
		JobID:           jobID,
		TrackID:         trackID,
		Status:          AuditStatus(status),
		Confidence:      confidence,
		OldSnapshotJSON: oldSnapshot.String,
		NewSnapshotJSON: newSnapshot.String,
		ErrorMessage:    errMessage.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		row.CreatedAt = created
	}
	return row, nil
}

// AppendAudit writes one append-only audit row. Rows are never updated.
func (s *Store) AppendAudit(ctx context.Context, row *AuditRow) error {
	if row == nil {
		return errors.New("audit row is nil")
	}
	row.CreatedAt = time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO metadata_migration_audit (
            job_id, track_id, status, confidence,
            old_snapshot_json, new_snapshot_json, error_message, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.JobID,
		row.TrackID,
		string(row.Status),
		row.Confidence,
		nullableString(row.OldSnapshotJSON),
		nullableString(row.NewSnapshotJSON),
		nullableString(row.ErrorMessage),
		row.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}
	if row.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

// AuditForJob returns the job's audit rows in insertion order.
func (s *Store) AuditForJob(ctx context.Context, jobID string) ([]*AuditRow, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+auditColumns+` FROM metadata_migration_audit WHERE job_id = ? ORDER BY id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("audit for job: %w", err)
	}
	defer rows.Close()

	var audit []*AuditRow
	for rows.Next() {
		row, err := scanAuditRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		audit = append(audit, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit rows: %w", err)
	}
	return audit, nil
}
