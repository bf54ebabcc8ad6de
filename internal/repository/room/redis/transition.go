package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/partyjukebox/server/internal/domain"
	"github.com/partyjukebox/server/internal/repository/room"
	"github.com/redis/go-redis/v9"
)

func (r repo) ApplyTransition(ctx context.Context, params *room.TransitionParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)

	roomKey := r.getRoomKey(params.RoomID)
	watched := []string{roomKey}
	if params.Removed != nil {
		watched = append(watched,
			r.getTrackKey(params.Removed.TrackID),
			r.getVideoKey(params.Removed.RoomID, params.Removed.VideoID),
		)
	}

	err := r.rc.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, roomKey, "now_playing_track_id").Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to read now playing track: %w", err)
		}

		var stored *string
		if current != "" {
			stored = &current
		}

		if !room.SameTrack(stored, params.ExpectedNowPlayingTrackID) {
			return room.ErrStaleRoom
		}

		var releaseRemovedVideo bool
		if ref := params.Removed; ref != nil {
			exists, err := tx.Exists(ctx, r.getTrackKey(ref.TrackID)).Result()
			if err != nil {
				return fmt.Errorf("failed to check removed track: %w", err)
			}

			if exists == 0 {
				return room.ErrTrackNotFound
			}

			owner, err := tx.Get(ctx, r.getVideoKey(ref.RoomID, ref.VideoID)).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return fmt.Errorf("failed to read video owner: %w", err)
			}

			releaseRemovedVideo = owner == ref.TrackID
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if ref := params.Removed; ref != nil {
				pipe.Del(ctx, r.getTrackKey(ref.TrackID), r.getVotesKey(ref.TrackID), r.getVoteMetaKey(ref.TrackID))
				pipe.ZRem(ctx, r.getRoomTracksKey(ref.RoomID), ref.TrackID)
				if releaseRemovedVideo {
					pipe.Del(ctx, r.getVideoKey(ref.RoomID, ref.VideoID))
				}
			}

			for _, ref := range params.Played {
				pipe.HSet(ctx, r.getTrackKey(ref.TrackID), "status", string(domain.TrackPlayed))
				pipe.Del(ctx, r.getVideoKey(ref.RoomID, ref.VideoID))
			}

			if params.Playing != nil {
				pipe.HSet(ctx, r.getTrackKey(params.Playing.TrackID), "status", string(domain.TrackPlaying))
			}

			if params.SetNowPlaying {
				if params.NowPlayingTrackID == nil {
					pipe.HDel(ctx, roomKey, "now_playing_track_id")
				} else {
					pipe.HSet(ctx, roomKey, "now_playing_track_id", *params.NowPlayingTrackID)
				}
			}

			pipe.HSet(ctx, roomKey,
				"playback_status", string(params.Playback.Status),
				"position_ms", params.Playback.PositionMs,
				"playback_updated_at", r.timeToField(params.Playback.UpdatedAt),
			)

			return nil
		})

		return err
	}, watched...)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr), errors.Is(err, room.ErrStaleRoom):
		return room.ErrStaleRoom
	case errors.Is(err, room.ErrTrackNotFound):
		return room.ErrTrackNotFound
	default:
		return fmt.Errorf("failed to apply transition: %w", err)
	}
}
