package broadcast

import (
	"time"

	"github.com/partyjukebox/server/internal/domain"
)

const (
	TypeRoomSync      = "ROOM_SYNC"
	TypeQueueSync     = "QUEUE_SYNC"
	TypeTrackAdded    = "TRACK_ADDED"
	TypeTrackRemoved  = "TRACK_REMOVED"
	TypeQueueUpdated  = "QUEUE_UPDATED"
	TypePlaybackState = "PLAYBACK_STATE"
	TypeRoomHeartbeat = "ROOM_HEARTBEAT"
	TypeError         = "ERROR"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func RoomSync(room domain.Room, queue []domain.Track) Output {
	return Output{
		Type: TypeRoomSync,
		Payload: map[string]any{
			"room":  room,
			"queue": queue,
		},
	}
}

func QueueSync(queue []domain.Track) Output {
	return Output{
		Type: TypeQueueSync,
		Payload: map[string]any{
			"queue": queue,
		},
	}
}

func TrackAdded(track domain.Track) Output {
	return Output{
		Type: TypeTrackAdded,
		Payload: map[string]any{
			"track": track,
		},
	}
}

func TrackRemoved(trackID string) Output {
	return Output{
		Type: TypeTrackRemoved,
		Payload: map[string]any{
			"track_id": trackID,
		},
	}
}

// QueueUpdated is the minimal delta sent after a vote.
func QueueUpdated(track domain.Track) Output {
	return Output{
		Type: TypeQueueUpdated,
		Payload: map[string]any{
			"track_id": track.ID,
			"score":    track.Score,
			"status":   track.Status,
		},
	}
}

type PlaybackStatePayload struct {
	Status            domain.PlaybackStatus `json:"status"`
	PositionMs        int                   `json:"position_ms"`
	UpdatedAt         time.Time             `json:"updated_at"`
	NowPlayingTrackID *string               `json:"now_playing_track_id"`
}

func PlaybackState(room domain.Room) Output {
	return Output{
		Type: TypePlaybackState,
		Payload: PlaybackStatePayload{
			Status:            room.PlaybackState.Status,
			PositionMs:        room.PlaybackState.PositionMs,
			UpdatedAt:         room.PlaybackState.UpdatedAt,
			NowPlayingTrackID: room.NowPlayingTrackID,
		},
	}
}

func RoomHeartbeat(userID string) Output {
	return Output{
		Type: TypeRoomHeartbeat,
		Payload: map[string]any{
			"user_id": userID,
		},
	}
}

func Error(code, message string) Output {
	return Output{
		Type: TypeError,
		Payload: map[string]any{
			"code":    code,
			"message": message,
		},
	}
}
