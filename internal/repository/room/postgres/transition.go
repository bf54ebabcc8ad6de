package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/partyjukebox/server/internal/domain"
	"github.com/partyjukebox/server/internal/repository/room"
)

func (r repo) ApplyTransition(ctx context.Context, params *room.TransitionParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var stored *string
	err = tx.QueryRow(ctx, `SELECT now_playing_track_id FROM rooms WHERE id = $1 FOR UPDATE`,
		params.RoomID).Scan(&stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return room.ErrRoomNotFound
		}
		return fmt.Errorf("failed to lock room: %w", err)
	}

	if !room.SameTrack(stored, params.ExpectedNowPlayingTrackID) {
		return room.ErrStaleRoom
	}

	if ref := params.Removed; ref != nil {
		tag, err := tx.Exec(ctx, `DELETE FROM tracks WHERE id = $1 AND room_id = $2`, ref.TrackID, ref.RoomID)
		if err != nil {
			return fmt.Errorf("failed to remove track: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return room.ErrTrackNotFound
		}
	}

	for _, ref := range params.Played {
		if _, err := tx.Exec(ctx, `UPDATE tracks SET status = $2 WHERE id = $1`,
			ref.TrackID, string(domain.TrackPlayed)); err != nil {
			return fmt.Errorf("failed to mark track played: %w", err)
		}
	}

	if params.Playing != nil {
		if _, err := tx.Exec(ctx, `UPDATE tracks SET status = $2 WHERE id = $1`,
			params.Playing.TrackID, string(domain.TrackPlaying)); err != nil {
			return fmt.Errorf("failed to mark track playing: %w", err)
		}
	}

	pb := params.Playback
	if params.SetNowPlaying {
		_, err = tx.Exec(ctx, `
			UPDATE rooms
			SET playback_status = $2, position_ms = $3, playback_updated_at = $4, now_playing_track_id = $5
			WHERE id = $1`,
			params.RoomID, string(pb.Status), pb.PositionMs, pb.UpdatedAt.UTC(), params.NowPlayingTrackID)
	} else {
		_, err = tx.Exec(ctx, `
			UPDATE rooms
			SET playback_status = $2, position_ms = $3, playback_updated_at = $4
			WHERE id = $1`,
			params.RoomID, string(pb.Status), pb.PositionMs, pb.UpdatedAt.UTC())
	}
	if err != nil {
		return fmt.Errorf("failed to update playback: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}

	return nil
}
