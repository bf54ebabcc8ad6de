package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/partyjukebox/server/internal/domain"
	"github.com/partyjukebox/server/internal/repository/room"
)

const trackColumns = `id, room_id, source, video_id, title, channel, duration_ms,
	thumbnail_url, added_by, up, down, score, status, created_at`

func (r repo) CreateTrack(ctx context.Context, params *room.CreateTrackParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)

	t := params.Track
	tag, err := r.db.Exec(ctx, `
		INSERT INTO tracks (`+trackColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT DO NOTHING`,
		t.ID, t.RoomID, t.Source, t.VideoID, t.Title, t.Channel, t.DurationMs,
		t.ThumbnailURL, t.AddedBy, t.Votes.Up, t.Votes.Down, t.Score, string(t.Status), t.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create track: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return room.ErrVideoQueued
	}

	return nil
}

func (r repo) scanTrack(row pgx.Row) (domain.Track, error) {
	var (
		t      domain.Track
		status string
	)
	if err := row.Scan(
		&t.ID, &t.RoomID, &t.Source, &t.VideoID, &t.Title, &t.Channel, &t.DurationMs,
		&t.ThumbnailURL, &t.AddedBy, &t.Votes.Up, &t.Votes.Down, &t.Score, &status, &t.CreatedAt,
	); err != nil {
		return domain.Track{}, err
	}

	t.Status = domain.TrackStatus(status)
	t.CreatedAt = t.CreatedAt.UTC()

	return t, nil
}

func (r repo) GetTrack(ctx context.Context, trackID string) (domain.Track, error) {
	r.logger.DebugContext(ctx, "called", "track_id", trackID)

	t, err := r.scanTrack(r.db.QueryRow(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = $1`, trackID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Track{}, room.ErrTrackNotFound
		}

		return domain.Track{}, fmt.Errorf("failed to get track: %w", err)
	}

	return t, nil
}

func (r repo) GetTracks(ctx context.Context, roomID string) ([]domain.Track, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomID)

	rows, err := r.db.Query(ctx, `
		SELECT `+trackColumns+` FROM tracks
		WHERE room_id = $1
		ORDER BY created_at, id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := []domain.Track{}
	for rows.Next() {
		t, err := r.scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}

		tracks = append(tracks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tracks: %w", err)
	}

	return tracks, nil
}

// RemoveTrack deletes the track; its votes go with it through the foreign key.
func (r repo) RemoveTrack(ctx context.Context, params *room.RemoveTrackParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)

	tag, err := r.db.Exec(ctx, `DELETE FROM tracks WHERE id = $1 AND room_id = $2`,
		params.Track.TrackID, params.Track.RoomID)
	if err != nil {
		return fmt.Errorf("failed to remove track: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return room.ErrTrackNotFound
	}

	return nil
}
