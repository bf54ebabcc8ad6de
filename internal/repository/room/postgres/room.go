package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/partyjukebox/server/internal/domain"
	"github.com/partyjukebox/server/internal/repository/room"
)

const roomColumns = `id, code, host_secret, is_active, now_playing_track_id,
	playback_status, position_ms, playback_updated_at, created_at`

func (r repo) CreateRoom(ctx context.Context, params *room.CreateRoomParams) error {
	r.logger.DebugContext(ctx, "called", "room_id", params.RoomID, "code", params.Code)

	tag, err := r.db.Exec(ctx, `
		INSERT INTO rooms (`+roomColumns+`)
		VALUES ($1, $2, $3, TRUE, NULL, $4, 0, $5, $5)
		ON CONFLICT (code) DO NOTHING`,
		params.RoomID, params.Code, params.HostSecret, string(domain.PlaybackIdle), params.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return room.ErrCodeTaken
	}

	return nil
}

func (r repo) scanRoom(row pgx.Row) (domain.Room, error) {
	var (
		res        domain.Room
		status     string
		updatedAt  time.Time
		nowPlaying *string
	)
	if err := row.Scan(
		&res.ID, &res.Code, &res.HostSecret, &res.IsActive, &nowPlaying,
		&status, &res.PlaybackState.PositionMs, &updatedAt, &res.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Room{}, room.ErrRoomNotFound
		}

		return domain.Room{}, fmt.Errorf("failed to scan room: %w", err)
	}

	res.NowPlayingTrackID = nowPlaying
	res.PlaybackState.Status = domain.PlaybackStatus(status)
	res.PlaybackState.UpdatedAt = updatedAt.UTC()
	res.CreatedAt = res.CreatedAt.UTC()

	return res, nil
}

func (r repo) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomID)

	return r.scanRoom(r.db.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, roomID))
}

func (r repo) GetRoomByCode(ctx context.Context, code string) (domain.Room, error) {
	r.logger.DebugContext(ctx, "called", "code", code)

	return r.scanRoom(r.db.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE code = $1`, code))
}

func (r repo) SetUser(ctx context.Context, params *room.SetUserParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)

	if _, err := r.db.Exec(ctx, `
		INSERT INTO users (id, room_id, role, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role, display_name = EXCLUDED.display_name`,
		params.UserID, params.RoomID, string(params.Role), params.DisplayName, params.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("failed to set user: %w", err)
	}

	return nil
}

func (r repo) GetUser(ctx context.Context, userID string) (domain.UserProfile, error) {
	r.logger.DebugContext(ctx, "called", "user_id", userID)

	var (
		user domain.UserProfile
		role string
	)
	if err := r.db.QueryRow(ctx, `
		SELECT id, room_id, role, display_name, created_at, last_seen_at
		FROM users WHERE id = $1`, userID,
	).Scan(&user.ID, &user.RoomID, &role, &user.DisplayName, &user.CreatedAt, &user.LastSeenAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserProfile{}, room.ErrUserNotFound
		}

		return domain.UserProfile{}, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role = domain.Role(role)

	return user, nil
}

func (r repo) TouchUser(ctx context.Context, userID string, at time.Time) error {
	r.logger.DebugContext(ctx, "called", "user_id", userID)

	tag, err := r.db.Exec(ctx, `UPDATE users SET last_seen_at = $2 WHERE id = $1`, userID, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to touch user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return room.ErrUserNotFound
	}

	return nil
}
