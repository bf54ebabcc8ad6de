package domain

import "time"

type Room struct {
	ID                string        `json:"id"`
	Code              string        `json:"code"`
	HostSecret        string        `json:"-"`
	IsActive          bool          `json:"is_active"`
	NowPlayingTrackID *string       `json:"now_playing_track_id"`
	PlaybackState     PlaybackState `json:"playback_state"`
	CreatedAt         time.Time     `json:"created_at"`
}

// IsNowPlaying reports whether trackID is bound to the room's playback.
func (r Room) IsNowPlaying(trackID string) bool {
	return r.NowPlayingTrackID != nil && *r.NowPlayingTrackID == trackID
}
