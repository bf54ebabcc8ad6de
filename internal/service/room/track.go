package room

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/partyjukebox/server/internal/broadcast"
	"github.com/partyjukebox/server/internal/domain"
	"github.com/partyjukebox/server/internal/metadata"
	"github.com/partyjukebox/server/internal/ratelimit"
	roomrepo "github.com/partyjukebox/server/internal/repository/room"
)

type AddTrackParams struct {
	Code   string
	UserID string
	// client supplied metadata
	VideoID      string
	Title        string
	Channel      string
	DurationMs   int
	ThumbnailURL string
	// server side resolution
	VideoURL string
	Query    string
}

func (p *AddTrackParams) hasClientMetadata() bool {
	return strings.TrimSpace(p.VideoID) != "" &&
		strings.TrimSpace(p.Title) != "" &&
		strings.TrimSpace(p.Channel) != ""
}

func (s service) resolveTrackSource(ctx context.Context, params *AddTrackParams) (metadata.Metadata, error) {
	switch {
	case params.hasClientMetadata():
		if params.DurationMs < 0 {
			return metadata.Metadata{}, newError(ErrInvalidInput, "duration must be non-negative")
		}

		return metadata.Metadata{
			VideoID:      strings.TrimSpace(params.VideoID),
			Title:        strings.TrimSpace(params.Title),
			Channel:      strings.TrimSpace(params.Channel),
			DurationMs:   params.DurationMs,
			ThumbnailURL: params.ThumbnailURL,
		}, nil
	case strings.TrimSpace(params.VideoURL) != "":
		s.logger.WarnContext(ctx, "track added without metadata, resolving on server", "input", params.VideoURL)

		md, err := s.resolver.Resolve(ctx, strings.TrimSpace(params.VideoURL))
		if err != nil {
			return metadata.Metadata{}, resolverError(err)
		}

		return md, nil
	case strings.TrimSpace(params.Query) != "":
		md, err := s.resolver.Search(ctx, strings.TrimSpace(params.Query))
		if err != nil {
			return metadata.Metadata{}, resolverError(err)
		}

		return md, nil
	default:
		return metadata.Metadata{}, ErrMissingTrackSource
	}
}

// AddTrack enqueues a Ready track. Client metadata wins over a URL, a URL
// wins over a search query. Metadata is resolved before the room lock is
// taken; the store enforces video uniqueness.
func (s service) AddTrack(ctx context.Context, params *AddTrackParams) (domain.Track, error) {
	code := NormalizeCode(params.Code)

	r, err := s.roomRepo.GetRoomByCode(ctx, code)
	if err != nil {
		return domain.Track{}, storageError("get room", err)
	}

	if _, err := s.getRoomUser(ctx, r, params.UserID); err != nil {
		return domain.Track{}, err
	}

	allowed, err := s.limiter.Allow(ctx, ratelimit.ActionAddTrack, code, params.UserID, s.cfg.TrackAddsPerMinute)
	if err != nil {
		return domain.Track{}, fmt.Errorf("failed to check rate limit: %w: %w", ErrStorageFailure, err)
	}

	if !allowed {
		return domain.Track{}, ErrTrackAddsRateLimited
	}

	md, err := s.resolveTrackSource(ctx, params)
	if err != nil {
		return domain.Track{}, err
	}

	if md.VideoID == "" {
		return domain.Track{}, ErrInvalidVideoRef
	}

	track := domain.Track{
		ID:           uuid.NewString(),
		RoomID:       r.ID,
		Source:       domain.SourceYoutube,
		VideoID:      md.VideoID,
		Title:        md.Title,
		Channel:      md.Channel,
		DurationMs:   md.DurationMs,
		ThumbnailURL: md.ThumbnailURL,
		AddedBy:      params.UserID,
		Status:       domain.TrackReady,
		CreatedAt:    s.now(),
	}

	unlock, err := s.locks.lock(ctx, code)
	if err != nil {
		return domain.Track{}, err
	}
	defer unlock()

	if err := s.roomRepo.CreateTrack(ctx, &roomrepo.CreateTrackParams{Track: track}); err != nil {
		return domain.Track{}, storageError("create track", err)
	}

	s.broadcaster.Publish(ctx, code, broadcast.TrackAdded(track))

	return track, nil
}

// getRoomTrack treats tracks of other rooms as unknown.
func (s service) getRoomTrack(ctx context.Context, r domain.Room, trackID string) (domain.Track, error) {
	if trackID == "" {
		return domain.Track{}, ErrTrackNotFound
	}

	track, err := s.roomRepo.GetTrack(ctx, trackID)
	if err != nil {
		return domain.Track{}, storageError("get track", err)
	}

	if track.RoomID != r.ID {
		return domain.Track{}, ErrTrackNotFound
	}

	return track, nil
}

type RemoveTrackParams struct {
	Code       string
	TrackID    string
	HostSecret string
}

// RemoveTrack deletes the track and its votes. Removing the now-playing
// track also stops playback.
func (s service) RemoveTrack(ctx context.Context, params *RemoveTrackParams) error {
	code := NormalizeCode(params.Code)

	unlock, err := s.locks.lock(ctx, code)
	if err != nil {
		return err
	}
	defer unlock()

	r, err := s.roomRepo.GetRoomByCode(ctx, code)
	if err != nil {
		return storageError("get room", err)
	}

	if !s.EnsureHost(r, params.HostSecret) {
		return ErrNotHost
	}

	track, err := s.getRoomTrack(ctx, r, params.TrackID)
	if err != nil {
		return err
	}

	ref := roomrepo.RefOf(track)
	if !r.IsNowPlaying(track.ID) {
		if err := s.roomRepo.RemoveTrack(ctx, &roomrepo.RemoveTrackParams{Track: ref}); err != nil {
			return storageError("remove track", err)
		}

		s.broadcaster.Publish(ctx, code, broadcast.TrackRemoved(track.ID))

		return nil
	}

	tracks, err := s.roomRepo.GetTracks(ctx, r.ID)
	if err != nil {
		return storageError("get tracks", err)
	}

	transition := &roomrepo.TransitionParams{
		RoomID:                    r.ID,
		ExpectedNowPlayingTrackID: r.NowPlayingTrackID,
		Removed:                   &ref,
		SetNowPlaying:             true,
		Playback:                  domain.NewPlaybackState(domain.PlaybackIdle, 0, s.now()),
	}

	if err := s.roomRepo.ApplyTransition(ctx, transition); err != nil {
		return storageError("remove now playing track", err)
	}

	r.NowPlayingTrackID = nil
	r.PlaybackState = transition.Playback

	s.broadcaster.Publish(ctx, code,
		broadcast.TrackRemoved(track.ID),
		broadcast.RoomSync(r, queueAfter(tracks, transition)),
		broadcast.PlaybackState(r),
	)

	return nil
}
