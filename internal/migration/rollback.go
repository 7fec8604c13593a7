package migration

import (
	"context"
	"encoding/json"
	"fmt"

	"cadence/internal/library"
	"cadence/internal/logging"
	"cadence/internal/services"
)

// Rollback restores the pre-migration snapshot for every track the job
// applied. Tracks missing from the current library are skipped. It returns
// the number of tracks actually restored.
func (o *Orchestrator) Rollback(ctx context.Context, jobID string) (int, error) {
	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "migration", "rollback", "load job", err)
	}
	if job == nil {
		return 0, services.Wrap(services.ErrNotFound, "migration", "rollback",
			fmt.Sprintf("job %s not found", jobID), nil)
	}
	if !job.Status.Terminal() {
		return 0, services.Wrap(services.ErrConflict, "migration", "rollback",
			"job is still active", nil)
	}
	if job.DryRun {
		return 0, services.Wrap(services.ErrValidation, "migration", "rollback",
			"dry-run jobs apply nothing", nil)
	}

	audit, err := o.store.AuditForJob(ctx, jobID)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "migration", "rollback", "load audit", err)
	}

	restored := 0
	for _, row := range audit {
		if row.Status != library.AuditApplied {
			continue
		}
		var snapshot library.Snapshot
		if err := json.Unmarshal([]byte(row.OldSnapshotJSON), &snapshot); err != nil {
			o.logger.Warn("skip corrupt audit snapshot",
				logging.Int64(logging.FieldTrackID, row.TrackID),
				logging.Error(err))
			continue
		}
		track, err := o.store.GetTrack(ctx, row.TrackID)
		if err != nil {
			return restored, services.Wrap(services.ErrTransient, "migration", "rollback", "load track", err)
		}
		if track == nil {
			continue
		}

		track.Title = snapshot.Title
		track.Artist = snapshot.Artist
		track.Album = snapshot.Album
		track.AlbumArtist = snapshot.AlbumArtist
		track.Year = snapshot.Year
		track.TrackNumber = snapshot.TrackNumber
		track.CoverURL = snapshot.CoverURL
		track.CoverSource = snapshot.CoverSource
		track.MetadataState = ""
		track.Confidence = 0
		track.DecisionID = ""
		if err := o.store.UpdateTrackMetadata(ctx, track); err != nil {
			return restored, services.Wrap(services.ErrTransient, "migration", "rollback", "restore track", err)
		}
		restored++
	}

	o.logger.Info("rollback finished",
		logging.String(logging.FieldJobID, jobID),
		logging.Int("restored", restored))
	return restored, nil
}
