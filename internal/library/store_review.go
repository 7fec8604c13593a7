package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const reviewColumns = "id, track_id, source_type, display, metadata_state, confidence, fingerprint, candidates_json, proposed_json, status, created_at, updated_at"

// EnqueueReview records an inconclusive decision for human review.
func (s *Store) EnqueueReview(ctx context.Context, item *ReviewItem) error {
	if item == nil {
		return errors.New("review item is nil")
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Status == "" {
		item.Status = ReviewPending
	}
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO metadata_review_queue (
            track_id, source_type, display, metadata_state, confidence,
            fingerprint, candidates_json, proposed_json, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.TrackID,
		nullableString(item.SourceType),
		nullableString(item.Display),
		item.MetadataState,
		item.Confidence,
		nullableString(item.Fingerprint),
		nullableString(item.CandidatesJSON),
		nullableString(item.ProposedJSON),
		string(item.Status),
		timestamp,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("enqueue review: %w", err)
	}
	if item.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

// PendingReviews returns items awaiting a verdict, oldest first.
func (s *Store) PendingReviews(ctx context.Context) ([]*ReviewItem, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+reviewColumns+` FROM metadata_review_queue WHERE status = ? ORDER BY id`,
		string(ReviewPending),
	)
	if err != nil {
		return nil, fmt.Errorf("pending reviews: %w", err)
	}
	defer rows.Close()

	var items []*ReviewItem
	for rows.Next() {
		var (
			item        ReviewItem
			sourceType  sql.NullString
			display     sql.NullString
			fingerprint sql.NullString
			candidates  sql.NullString
			proposed    sql.NullString
			status      string
			createdRaw  string
			updatedRaw  string
		)
		if err := rows.Scan(
			&item.ID, &item.TrackID, &sourceType, &display, &item.MetadataState,
			&item.Confidence, &fingerprint, &candidates, &proposed, &status,
			&createdRaw, &updatedRaw,
		); err != nil {
			return nil, fmt.Errorf("scan review item: %w", err)
		}
		item.Status = ReviewStatus(status)
		item.SourceType = sourceType.String
		item.Display = display.String
		item.Fingerprint = fingerprint.String
		item.CandidatesJSON = candidates.String
		item.ProposedJSON = proposed.String
		if created, err := parseTimeString(createdRaw); err == nil {
			item.CreatedAt = created
		}
		if updated, err := parseTimeString(updatedRaw); err == nil {
			item.UpdatedAt = updated
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review items: %w", err)
	}
	return items, nil
}

// ResolveReview marks a pending item resolved.
func (s *Store) ResolveReview(ctx context.Context, id int64) error {
	return s.setReviewStatus(ctx, id, ReviewResolved)
}

// DismissReview marks a pending item dismissed.
func (s *Store) DismissReview(ctx context.Context, id int64) error {
	return s.setReviewStatus(ctx, id, ReviewDismissed)
}

func (s *Store) setReviewStatus(ctx context.Context, id int64, status ReviewStatus) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE metadata_review_queue SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(status),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		string(ReviewPending),
	)
	if err != nil {
		return fmt.Errorf("set review status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("review item %d not pending", id)
	}
	return nil
}
