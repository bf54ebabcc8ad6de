package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/partyjukebox/server/internal/domain"
	"github.com/partyjukebox/server/internal/repository/room"
)

func (r repo) RecordVote(ctx context.Context, params *room.RecordVoteParams) (domain.VoteSummary, error) {
	r.logger.DebugContext(ctx, "called", "params", params)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.VoteSummary{}, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var one int
	if err := tx.QueryRow(ctx, `SELECT 1 FROM tracks WHERE id = $1 FOR UPDATE`, params.TrackID).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.VoteSummary{}, room.ErrTrackNotFound
		}

		return domain.VoteSummary{}, fmt.Errorf("failed to lock track: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO votes (id, room_id, track_id, user_id, value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (track_id, user_id) DO UPDATE SET value = EXCLUDED.value`,
		params.VoteID, params.RoomID, params.TrackID, params.UserID, int(params.Value), params.CreatedAt.UTC(),
	); err != nil {
		return domain.VoteSummary{}, fmt.Errorf("failed to upsert vote: %w", err)
	}

	var summary domain.VoteSummary
	if err := tx.QueryRow(ctx, `
		UPDATE tracks t
		SET up = v.up, down = v.down, score = v.up - v.down
		FROM (
			SELECT count(*) FILTER (WHERE value = 1) AS up,
			       count(*) FILTER (WHERE value = -1) AS down
			FROM votes WHERE track_id = $1
		) v
		WHERE t.id = $1
		RETURNING t.up, t.down`, params.TrackID,
	).Scan(&summary.Up, &summary.Down); err != nil {
		return domain.VoteSummary{}, fmt.Errorf("failed to recount votes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.VoteSummary{}, fmt.Errorf("failed to commit vote: %w", err)
	}

	return summary, nil
}

func (r repo) GetVote(ctx context.Context, trackID, userID string) (domain.Vote, error) {
	r.logger.DebugContext(ctx, "called", "track_id", trackID, "user_id", userID)

	var (
		v     domain.Vote
		value int
	)
	if err := r.db.QueryRow(ctx, `
		SELECT id, room_id, track_id, user_id, value, created_at
		FROM votes WHERE track_id = $1 AND user_id = $2`, trackID, userID,
	).Scan(&v.ID, &v.RoomID, &v.TrackID, &v.UserID, &value, &v.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Vote{}, room.ErrVoteNotFound
		}

		return domain.Vote{}, fmt.Errorf("failed to get vote: %w", err)
	}

	v.Value = domain.VoteValue(value)

	return v, nil
}
