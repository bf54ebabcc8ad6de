package domain

import "time"

type PlaybackStatus string

const (
	PlaybackIdle      PlaybackStatus = "idle"
	PlaybackBuffering PlaybackStatus = "buffering"
	PlaybackPlaying   PlaybackStatus = "playing"
	PlaybackPaused    PlaybackStatus = "paused"
	// PlaybackEnded is reserved for a natural end-of-track signal from the
	// playing client; no server transition produces it.
	PlaybackEnded PlaybackStatus = "ended"
)

func (s PlaybackStatus) Valid() bool {
	switch s {
	case PlaybackIdle, PlaybackBuffering, PlaybackPlaying, PlaybackPaused, PlaybackEnded:
		return true
	}
	return false
}

// PlaybackState is embedded in Room. PositionMs only carries meaning while
// the status is Playing or Paused.
type PlaybackState struct {
	Status     PlaybackStatus `json:"status"`
	PositionMs int            `json:"position_ms"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func NewPlaybackState(status PlaybackStatus, positionMs int, now time.Time) PlaybackState {
	return PlaybackState{
		Status:     status,
		PositionMs: positionMs,
		UpdatedAt:  now,
	}
}
