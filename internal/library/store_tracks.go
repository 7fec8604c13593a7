package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const trackColumns = "id, title, artist, album, album_artist, year, track_number, duration_sec, isrc, cover_url, cover_source, musicbrainz_id, source_tag, metadata_state, metadata_confidence, metadata_query_fingerprint, metadata_decision_id, metadata_version, created_at, updated_at"

func scanTrack(scanner interface{ Scan(dest ...any) error }) (*Track, error) {
	var (
		id            int64
		title         string
		artist        string
		album         sql.NullString
		albumArtist   sql.NullString
		year          sql.NullInt64
		trackNumber   sql.NullInt64
		durationSec   int64
		isrc          sql.NullString
		coverURL      sql.NullString
		coverSource   sql.NullString
		musicBrainzID sql.NullString
		sourceTag     sql.NullString
		state         sql.NullString
		confidence    float64
		fingerprint   sql.NullString
		decisionID    sql.NullString
		version       int64
		createdRaw    string
		updatedRaw    string
	)

	if err := scanner.Scan(
		&id,
		&title,
		&artist,
		&album,
		&albumArtist,
		&year,
		&trackNumber,
		&durationSec,
		&isrc,
		&coverURL,
		&coverSource,
		&musicBrainzID,
		&sourceTag,
		&state,
		&confidence,
		&fingerprint,
		&decisionID,
		&version,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	track := &Track{
		ID:               id,
		Title:            title,
		Artist:           artist,
		Album:            album.String,
		AlbumArtist:      albumArtist.String,
		Year:             int(year.Int64),
		TrackNumber:      int(trackNumber.Int64),
		DurationSec:      int(durationSec),
		ISRC:             isrc.String,
		CoverURL:         coverURL.String,
		CoverSource:      coverSource.String,
		MusicBrainzID:    musicBrainzID.String,
		SourceTag:        sourceTag.String,
		MetadataState:    state.String,
		Confidence:       confidence,
		QueryFingerprint: fingerprint.String,
		DecisionID:       decisionID.String,
		MetadataVersion:  version,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		track.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		track.UpdatedAt = updated
	}
	return track, nil
}

// InsertTrack adds a track to the library.
func (s *Store) InsertTrack(ctx context.Context, track *Track) (*Track, error) {
	if track == nil {
		return nil, errors.New("track is nil")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO tracks (
            title, artist, album, album_artist, year, track_number, duration_sec,
            isrc, cover_url, cover_source, musicbrainz_id, source_tag,
            metadata_state, metadata_confidence, metadata_query_fingerprint,
            metadata_decision_id, metadata_version, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		track.Title,
		track.Artist,
		nullableString(track.Album),
		nullableString(track.AlbumArtist),
		nullableInt(track.Year),
		nullableInt(track.TrackNumber),
		track.DurationSec,
		nullableString(track.ISRC),
		nullableString(track.CoverURL),
		nullableString(track.CoverSource),
		nullableString(track.MusicBrainzID),
		nullableString(track.SourceTag),
		nullableString(track.MetadataState),
		track.Confidence,
		nullableString(track.QueryFingerprint),
		nullableString(track.DecisionID),
		track.MetadataVersion,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert track: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetTrack(ctx, id)
}

// GetTrack fetches a track by identifier. A missing track returns nil, nil.
func (s *Store) GetTrack(ctx context.Context, id int64) (*Track, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get track: %w", err)
	}
	return track, nil
}

// ListTracks returns a snapshot of the whole library in id order.
func (s *Store) ListTracks(ctx context.Context) ([]*Track, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+trackColumns+` FROM tracks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}
	return tracks, nil
}

// CountTracks returns the library size.
func (s *Store) CountTracks(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM tracks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tracks: %w", err)
	}
	return count, nil
}

// UpdateTrackMetadata persists a track's metadata fields and bumps its
// metadata version so downstream sync can pick up the change.
func (s *Store) UpdateTrackMetadata(ctx context.Context, track *Track) error {
	if track == nil {
		return errors.New("track is nil")
	}
	track.MetadataVersion++
	track.UpdatedAt = time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`UPDATE tracks SET
            title = ?, artist = ?, album = ?, album_artist = ?, year = ?,
            track_number = ?, isrc = ?, cover_url = ?, cover_source = ?,
            musicbrainz_id = ?, source_tag = ?, metadata_state = ?,
            metadata_confidence = ?, metadata_query_fingerprint = ?,
            metadata_decision_id = ?, metadata_version = ?, updated_at = ?
        WHERE id = ?`,
		track.Title,
		track.Artist,
		nullableString(track.Album),
		nullableString(track.AlbumArtist),
		nullableInt(track.Year),
		nullableInt(track.TrackNumber),
		nullableString(track.ISRC),
		nullableString(track.CoverURL),
		nullableString(track.CoverSource),
		nullableString(track.MusicBrainzID),
		nullableString(track.SourceTag),
		nullableString(track.MetadataState),
		track.Confidence,
		nullableString(track.QueryFingerprint),
		nullableString(track.DecisionID),
		track.MetadataVersion,
		track.UpdatedAt.Format(time.RFC3339Nano),
		track.ID,
	)
	if err != nil {
		return fmt.Errorf("update track metadata: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update track metadata: track %d not found", track.ID)
	}
	return nil
}
