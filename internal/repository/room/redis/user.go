package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/partyjukebox/server/internal/domain"
	"github.com/partyjukebox/server/internal/repository/room"
)

func (r repo) getUserKey(userID string) string {
	return "user:" + userID
}

type userRecord struct {
	ID          string `redis:"id"`
	RoomID      string `redis:"room_id"`
	Role        string `redis:"role"`
	DisplayName string `redis:"display_name"`
	CreatedAt   int64  `redis:"created_at"`
	LastSeenAt  int64  `redis:"last_seen_at"`
}

func (r repo) SetUser(ctx context.Context, params *room.SetUserParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)

	if err := r.rc.HSet(ctx, r.getUserKey(params.UserID), userRecord{
		ID:          params.UserID,
		RoomID:      params.RoomID,
		Role:        string(params.Role),
		DisplayName: params.DisplayName,
		CreatedAt:   r.timeToField(params.CreatedAt),
	}).Err(); err != nil {
		return fmt.Errorf("failed to set user: %w", err)
	}

	return nil
}

func (r repo) GetUser(ctx context.Context, userID string) (domain.UserProfile, error) {
	r.logger.DebugContext(ctx, "called", "user_id", userID)

	cmd := r.rc.HGetAll(ctx, r.getUserKey(userID))
	if err := cmd.Err(); err != nil {
		return domain.UserProfile{}, fmt.Errorf("failed to get user: %w", err)
	}

	if len(cmd.Val()) == 0 {
		return domain.UserProfile{}, room.ErrUserNotFound
	}

	var rec userRecord
	if err := cmd.Scan(&rec); err != nil {
		return domain.UserProfile{}, fmt.Errorf("failed to scan user: %w", err)
	}

	user := domain.UserProfile{
		ID:          rec.ID,
		RoomID:      rec.RoomID,
		Role:        domain.Role(rec.Role),
		DisplayName: rec.DisplayName,
		CreatedAt:   r.fieldToTime(rec.CreatedAt),
	}
	if rec.LastSeenAt != 0 {
		lastSeen := r.fieldToTime(rec.LastSeenAt)
		user.LastSeenAt = &lastSeen
	}

	return user, nil
}

func (r repo) TouchUser(ctx context.Context, userID string, at time.Time) error {
	r.logger.DebugContext(ctx, "called", "user_id", userID)

	key := r.getUserKey(userID)
	n, err := r.rc.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}

	if n == 0 {
		return room.ErrUserNotFound
	}

	if err := r.rc.HSet(ctx, key, "last_seen_at", r.timeToField(at)).Err(); err != nil {
		return fmt.Errorf("failed to touch user: %w", err)
	}

	return nil
}
