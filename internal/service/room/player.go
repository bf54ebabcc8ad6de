package room

import (
	"context"
	"errors"

	"github.com/partyjukebox/server/internal/broadcast"
	"github.com/partyjukebox/server/internal/domain"
	roomrepo "github.com/partyjukebox/server/internal/repository/room"
)

// lockHostRoom takes the room lock and checks the host secret. The caller
// must call unlock on success.
func (s service) lockHostRoom(ctx context.Context, code, hostSecret string) (domain.Room, func(), error) {
	unlock, err := s.locks.lock(ctx, code)
	if err != nil {
		return domain.Room{}, nil, err
	}

	r, err := s.roomRepo.GetRoomByCode(ctx, code)
	if err != nil {
		unlock()
		return domain.Room{}, nil, storageError("get room", err)
	}

	if !s.EnsureHost(r, hostSecret) {
		unlock()
		return domain.Room{}, nil, ErrNotHost
	}

	return r, unlock, nil
}

// retireNowPlaying returns the ref of the now-playing track if it still has
// to be marked Played.
func (s service) retireNowPlaying(ctx context.Context, r domain.Room) ([]roomrepo.TrackRef, error) {
	if r.NowPlayingTrackID == nil {
		return nil, nil
	}

	current, err := s.getRoomTrack(ctx, r, *r.NowPlayingTrackID)
	if err != nil {
		if errors.Is(err, ErrTrackNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if current.Status == domain.TrackPlayed {
		return nil, nil
	}

	return []roomrepo.TrackRef{roomrepo.RefOf(current)}, nil
}

// queueAfter applies a committed transition to tracks read before it.
func queueAfter(tracks []domain.Track, t *roomrepo.TransitionParams) []domain.Track {
	out := make([]domain.Track, 0, len(tracks))
	for _, track := range tracks {
		if t.Removed != nil && t.Removed.TrackID == track.ID {
			continue
		}

		for _, ref := range t.Played {
			if ref.TrackID == track.ID {
				track.Status = domain.TrackPlayed
			}
		}

		if t.Playing != nil && t.Playing.TrackID == track.ID {
			track.Status = domain.TrackPlaying
		}

		out = append(out, track)
	}

	return domain.VisibleQueue(out)
}

func (s service) publishNowPlaying(ctx context.Context, code string, r domain.Room, queue []domain.Track) {
	s.broadcaster.Publish(ctx, code, broadcast.RoomSync(r, queue), broadcast.PlaybackState(r))
}

type PlayParams struct {
	Code       string
	TrackID    string
	HostSecret string
}

// Play binds the track to the room's playback and starts it at 0. The
// previous now-playing track is marked Played unless it is the same track.
func (s service) Play(ctx context.Context, params *PlayParams) error {
	code := NormalizeCode(params.Code)

	r, unlock, err := s.lockHostRoom(ctx, code, params.HostSecret)
	if err != nil {
		return err
	}
	defer unlock()

	track, err := s.getRoomTrack(ctx, r, params.TrackID)
	if err != nil {
		return err
	}

	if track.Status == domain.TrackPlayed {
		return ErrTrackAlreadyPlayed
	}

	var played []roomrepo.TrackRef
	if !r.IsNowPlaying(track.ID) {
		played, err = s.retireNowPlaying(ctx, r)
		if err != nil {
			return err
		}
	}

	tracks, err := s.roomRepo.GetTracks(ctx, r.ID)
	if err != nil {
		return storageError("get tracks", err)
	}

	ref := roomrepo.RefOf(track)
	transition := &roomrepo.TransitionParams{
		RoomID:                    r.ID,
		ExpectedNowPlayingTrackID: r.NowPlayingTrackID,
		Played:                    played,
		Playing:                   &ref,
		SetNowPlaying:             true,
		NowPlayingTrackID:         &track.ID,
		Playback:                  domain.NewPlaybackState(domain.PlaybackPlaying, 0, s.now()),
	}

	if err := s.roomRepo.ApplyTransition(ctx, transition); err != nil {
		return storageError("play track", err)
	}

	r.NowPlayingTrackID = transition.NowPlayingTrackID
	r.PlaybackState = transition.Playback

	s.logger.InfoContext(ctx, "track playing", "room_id", r.ID, "track_id", track.ID)

	s.publishNowPlaying(ctx, code, r, queueAfter(tracks, transition))

	return nil
}

type PauseParams struct {
	Code       string
	HostSecret string
	// nil keeps the last reported position
	PositionMs *int
}

func (s service) Pause(ctx context.Context, params *PauseParams) error {
	if params.PositionMs != nil && *params.PositionMs < 0 {
		return ErrInvalidPosition
	}

	code := NormalizeCode(params.Code)

	r, unlock, err := s.lockHostRoom(ctx, code, params.HostSecret)
	if err != nil {
		return err
	}
	defer unlock()

	position := r.PlaybackState.PositionMs
	if params.PositionMs != nil {
		position = *params.PositionMs
	}

	return s.setPlayback(ctx, code, r, domain.NewPlaybackState(domain.PlaybackPaused, position, s.now()))
}

type SeekParams struct {
	Code       string
	HostSecret string
	PositionMs int
}

// Seek moves the position and resumes playback.
func (s service) Seek(ctx context.Context, params *SeekParams) error {
	if params.PositionMs < 0 {
		return ErrInvalidPosition
	}

	code := NormalizeCode(params.Code)

	r, unlock, err := s.lockHostRoom(ctx, code, params.HostSecret)
	if err != nil {
		return err
	}
	defer unlock()

	return s.setPlayback(ctx, code, r, domain.NewPlaybackState(domain.PlaybackPlaying, params.PositionMs, s.now()))
}

func (s service) setPlayback(ctx context.Context, code string, r domain.Room, playback domain.PlaybackState) error {
	if err := s.roomRepo.ApplyTransition(ctx, &roomrepo.TransitionParams{
		RoomID:                    r.ID,
		ExpectedNowPlayingTrackID: r.NowPlayingTrackID,
		Playback:                  playback,
	}); err != nil {
		return storageError("update playback", err)
	}

	r.PlaybackState = playback

	s.broadcaster.Publish(ctx, code, broadcast.PlaybackState(r))

	return nil
}

type NextParams struct {
	Code       string
	HostSecret string
}

// Next retires the now-playing track and starts buffering the best
// candidate. It returns nil and leaves the room Idle when nothing is left.
func (s service) Next(ctx context.Context, params *NextParams) (*domain.Track, error) {
	code := NormalizeCode(params.Code)

	r, unlock, err := s.lockHostRoom(ctx, code, params.HostSecret)
	if err != nil {
		return nil, err
	}
	defer unlock()

	played, err := s.retireNowPlaying(ctx, r)
	if err != nil {
		return nil, err
	}

	tracks, err := s.roomRepo.GetTracks(ctx, r.ID)
	if err != nil {
		return nil, storageError("get tracks", err)
	}

	candidates := tracks[:0:0]
	for _, t := range tracks {
		if !r.IsNowPlaying(t.ID) {
			candidates = append(candidates, t)
		}
	}

	now := s.now()
	transition := &roomrepo.TransitionParams{
		RoomID:                    r.ID,
		ExpectedNowPlayingTrackID: r.NowPlayingTrackID,
		Played:                    played,
		SetNowPlaying:             true,
		Playback:                  domain.NewPlaybackState(domain.PlaybackIdle, 0, now),
	}

	next, ok := domain.PickNext(candidates)
	if ok {
		ref := roomrepo.RefOf(next)
		transition.Playing = &ref
		transition.NowPlayingTrackID = &next.ID
		transition.Playback = domain.NewPlaybackState(domain.PlaybackBuffering, 0, now)
		next.Status = domain.TrackPlaying
	}

	if err := s.roomRepo.ApplyTransition(ctx, transition); err != nil {
		return nil, storageError("advance queue", err)
	}

	r.NowPlayingTrackID = transition.NowPlayingTrackID
	r.PlaybackState = transition.Playback

	s.publishNowPlaying(ctx, code, r, queueAfter(tracks, transition))

	if !ok {
		s.logger.InfoContext(ctx, "queue exhausted", "room_id", r.ID)
		return nil, nil
	}

	s.logger.InfoContext(ctx, "advanced to next track", "room_id", r.ID, "track_id", next.ID)

	return &next, nil
}
