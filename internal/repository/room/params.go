package room

import (
	"time"

	"github.com/partyjukebox/server/internal/domain"
)

type CreateRoomParams struct {
	RoomID     string
	Code       string
	HostSecret string
	CreatedAt  time.Time
}

type SetUserParams struct {
	UserID      string
	RoomID      string
	Role        domain.Role
	DisplayName string
	CreatedAt   time.Time
}

type CreateTrackParams struct {
	Track domain.Track
}

// TrackRef carries what a store needs to touch a track and its
// (room, video) uniqueness entry.
type TrackRef struct {
	TrackID string
	RoomID  string
	VideoID string
}

func RefOf(t domain.Track) TrackRef {
	return TrackRef{
		TrackID: t.ID,
		RoomID:  t.RoomID,
		VideoID: t.VideoID,
	}
}

type RemoveTrackParams struct {
	Track TrackRef
}

type RecordVoteParams struct {
	VoteID    string
	RoomID    string
	TrackID   string
	UserID    string
	Value     domain.VoteValue
	CreatedAt time.Time
}

// TransitionParams is applied atomically and only while the room's stored
// now-playing pointer still equals ExpectedNowPlayingTrackID (nil means none);
// otherwise the store returns ErrStaleRoom and writes nothing. Removed is
// deleted with its votes, tracks in Played become Played (releasing their
// video id), Playing becomes Playing, then the room's now-playing pointer (if
// SetNowPlaying) and playback state are written.
type TransitionParams struct {
	RoomID                    string
	ExpectedNowPlayingTrackID *string
	Removed                   *TrackRef
	Played                    []TrackRef
	Playing                   *TrackRef
	SetNowPlaying             bool
	NowPlayingTrackID         *string
	Playback                  domain.PlaybackState
}

// SameTrack compares optional track ids.
func SameTrack(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return *a == *b
}
