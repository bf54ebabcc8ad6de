package redis

import (
	"context"
	"fmt"

	"github.com/partyjukebox/server/internal/domain"
	"github.com/partyjukebox/server/internal/repository/room"
	"github.com/redis/go-redis/v9"
)

func (r repo) getTrackKey(trackID string) string {
	return "track:" + trackID
}

func (r repo) getRoomTracksKey(roomID string) string {
	return "room:" + roomID + ":tracks"
}

func (r repo) getVideoKey(roomID, videoID string) string {
	return "room:" + roomID + ":video:" + videoID
}

type trackRecord struct {
	ID           string `redis:"id"`
	RoomID       string `redis:"room_id"`
	Source       string `redis:"source"`
	VideoID      string `redis:"video_id"`
	Title        string `redis:"title"`
	Channel      string `redis:"channel"`
	DurationMs   int    `redis:"duration_ms"`
	ThumbnailURL string `redis:"thumbnail_url"`
	AddedBy      string `redis:"added_by"`
	Up           int    `redis:"up"`
	Down         int    `redis:"down"`
	Score        int    `redis:"score"`
	Status       string `redis:"status"`
	CreatedAt    int64  `redis:"created_at"`
}

func (r repo) toTrack(rec trackRecord) domain.Track {
	return domain.Track{
		ID:           rec.ID,
		RoomID:       rec.RoomID,
		Source:       rec.Source,
		VideoID:      rec.VideoID,
		Title:        rec.Title,
		Channel:      rec.Channel,
		DurationMs:   rec.DurationMs,
		ThumbnailURL: rec.ThumbnailURL,
		AddedBy:      rec.AddedBy,
		Votes:        domain.VoteSummary{Up: rec.Up, Down: rec.Down},
		Score:        rec.Score,
		Status:       domain.TrackStatus(rec.Status),
		CreatedAt:    r.fieldToTime(rec.CreatedAt),
	}
}

func (r repo) CreateTrack(ctx context.Context, params *room.CreateTrackParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)

	t := params.Track
	res, err := r.createTrackScript.Run(ctx, r.rc,
		[]string{
			r.getVideoKey(t.RoomID, t.VideoID),
			r.getTrackKey(t.ID),
			r.getRoomTracksKey(t.RoomID),
		},
		t.ID,
		t.CreatedAt.UnixMilli(),
		"id", t.ID,
		"room_id", t.RoomID,
		"source", t.Source,
		"video_id", t.VideoID,
		"title", t.Title,
		"channel", t.Channel,
		"duration_ms", t.DurationMs,
		"thumbnail_url", t.ThumbnailURL,
		"added_by", t.AddedBy,
		"up", t.Votes.Up,
		"down", t.Votes.Down,
		"score", t.Score,
		"status", string(t.Status),
		"created_at", r.timeToField(t.CreatedAt),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to create track: %w", err)
	}

	if res == 0 {
		return room.ErrVideoQueued
	}

	return nil
}

func (r repo) GetTrack(ctx context.Context, trackID string) (domain.Track, error) {
	r.logger.DebugContext(ctx, "called", "track_id", trackID)

	cmd := r.rc.HGetAll(ctx, r.getTrackKey(trackID))
	if err := cmd.Err(); err != nil {
		return domain.Track{}, fmt.Errorf("failed to get track: %w", err)
	}

	if len(cmd.Val()) == 0 {
		return domain.Track{}, room.ErrTrackNotFound
	}

	var rec trackRecord
	if err := cmd.Scan(&rec); err != nil {
		return domain.Track{}, fmt.Errorf("failed to scan track: %w", err)
	}

	return r.toTrack(rec), nil
}

// GetTracks returns every track of the room, Played ones included, in
// insertion order.
func (r repo) GetTracks(ctx context.Context, roomID string) ([]domain.Track, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomID)

	trackIDs, err := r.rc.ZRange(ctx, r.getRoomTracksKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get track ids: %w", err)
	}

	if len(trackIDs) == 0 {
		return []domain.Track{}, nil
	}

	pipe := r.rc.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, 0, len(trackIDs))
	for _, trackID := range trackIDs {
		cmds = append(cmds, pipe.HGetAll(ctx, r.getTrackKey(trackID)))
	}

	if err := r.executePipe(ctx, pipe); err != nil {
		return nil, fmt.Errorf("failed to get tracks: %w", err)
	}

	tracks := make([]domain.Track, 0, len(cmds))
	for _, cmd := range cmds {
		if len(cmd.Val()) == 0 {
			continue
		}

		var rec trackRecord
		if err := cmd.Scan(&rec); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}

		tracks = append(tracks, r.toTrack(rec))
	}

	return tracks, nil
}

func (r repo) RemoveTrack(ctx context.Context, params *room.RemoveTrackParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)

	ref := params.Track
	res, err := r.removeTrackScript.Run(ctx, r.rc,
		[]string{
			r.getTrackKey(ref.TrackID),
			r.getVotesKey(ref.TrackID),
			r.getVoteMetaKey(ref.TrackID),
			r.getRoomTracksKey(ref.RoomID),
			r.getVideoKey(ref.RoomID, ref.VideoID),
		},
		ref.TrackID,
	).Int()
	if err != nil {
		return fmt.Errorf("failed to remove track: %w", err)
	}

	if res == 0 {
		return room.ErrTrackNotFound
	}

	return nil
}
