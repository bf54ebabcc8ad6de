package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/partyjukebox/server/internal/domain"
	"github.com/partyjukebox/server/internal/repository/room"
	"github.com/redis/go-redis/v9"
)

func (r repo) getRoomKey(roomID string) string {
	return "room:" + roomID
}

func (r repo) getRoomCodeKey(code string) string {
	return "room-code:" + code
}

type roomRecord struct {
	ID                string `redis:"id"`
	Code              string `redis:"code"`
	HostSecret        string `redis:"host_secret"`
	IsActive          bool   `redis:"is_active"`
	NowPlayingTrackID string `redis:"now_playing_track_id"`
	PlaybackStatus    string `redis:"playback_status"`
	PositionMs        int    `redis:"position_ms"`
	PlaybackUpdatedAt int64  `redis:"playback_updated_at"`
	CreatedAt         int64  `redis:"created_at"`
}

func (r repo) toRoom(rec roomRecord) domain.Room {
	res := domain.Room{
		ID:         rec.ID,
		Code:       rec.Code,
		HostSecret: rec.HostSecret,
		IsActive:   rec.IsActive,
		PlaybackState: domain.PlaybackState{
			Status:     domain.PlaybackStatus(rec.PlaybackStatus),
			PositionMs: rec.PositionMs,
			UpdatedAt:  r.fieldToTime(rec.PlaybackUpdatedAt),
		},
		CreatedAt: r.fieldToTime(rec.CreatedAt),
	}
	if rec.NowPlayingTrackID != "" {
		trackID := rec.NowPlayingTrackID
		res.NowPlayingTrackID = &trackID
	}

	return res
}

func (r repo) CreateRoom(ctx context.Context, params *room.CreateRoomParams) error {
	r.logger.DebugContext(ctx, "called", "room_id", params.RoomID, "code", params.Code)

	createdAt := r.timeToField(params.CreatedAt)
	res, err := r.claimScript.Run(ctx, r.rc,
		[]string{r.getRoomCodeKey(params.Code), r.getRoomKey(params.RoomID)},
		params.RoomID,
		"id", params.RoomID,
		"code", params.Code,
		"host_secret", params.HostSecret,
		"is_active", 1,
		"playback_status", string(domain.PlaybackIdle),
		"position_ms", 0,
		"playback_updated_at", createdAt,
		"created_at", createdAt,
	).Int()
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	if res == 0 {
		return room.ErrCodeTaken
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomID)

	var rec roomRecord
	cmd := r.rc.HGetAll(ctx, r.getRoomKey(roomID))
	if err := cmd.Err(); err != nil {
		return domain.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	if len(cmd.Val()) == 0 {
		return domain.Room{}, room.ErrRoomNotFound
	}

	if err := cmd.Scan(&rec); err != nil {
		return domain.Room{}, fmt.Errorf("failed to scan room: %w", err)
	}

	return r.toRoom(rec), nil
}

func (r repo) GetRoomByCode(ctx context.Context, code string) (domain.Room, error) {
	r.logger.DebugContext(ctx, "called", "code", code)

	roomID, err := r.rc.Get(ctx, r.getRoomCodeKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Room{}, room.ErrRoomNotFound
		}

		return domain.Room{}, fmt.Errorf("failed to get room id by code: %w", err)
	}

	return r.GetRoom(ctx, roomID)
}
