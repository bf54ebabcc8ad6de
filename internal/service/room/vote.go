package room

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/partyjukebox/server/internal/broadcast"
	"github.com/partyjukebox/server/internal/domain"
	"github.com/partyjukebox/server/internal/ratelimit"
	roomrepo "github.com/partyjukebox/server/internal/repository/room"
)

type VoteParams struct {
	Code    string
	TrackID string
	UserID  string
	Value   domain.VoteValue
}

// Vote records or replaces the user's vote and returns the track with its
// recounted score.
func (s service) Vote(ctx context.Context, params *VoteParams) (domain.Track, error) {
	if !params.Value.Valid() {
		return domain.Track{}, ErrInvalidVote
	}

	code := NormalizeCode(params.Code)

	unlock, err := s.locks.lock(ctx, code)
	if err != nil {
		return domain.Track{}, err
	}
	defer unlock()

	r, err := s.roomRepo.GetRoomByCode(ctx, code)
	if err != nil {
		return domain.Track{}, storageError("get room", err)
	}

	if _, err := s.getRoomUser(ctx, r, params.UserID); err != nil {
		return domain.Track{}, err
	}

	allowed, err := s.limiter.Allow(ctx, ratelimit.ActionVote, code, params.UserID, s.cfg.VotesPerMinute)
	if err != nil {
		return domain.Track{}, fmt.Errorf("failed to check rate limit: %w: %w", ErrStorageFailure, err)
	}

	if !allowed {
		return domain.Track{}, ErrVotesRateLimited
	}

	track, err := s.getRoomTrack(ctx, r, params.TrackID)
	if err != nil {
		return domain.Track{}, err
	}

	votes, err := s.roomRepo.RecordVote(ctx, &roomrepo.RecordVoteParams{
		VoteID:    uuid.NewString(),
		RoomID:    r.ID,
		TrackID:   track.ID,
		UserID:    params.UserID,
		Value:     params.Value,
		CreatedAt: s.now(),
	})
	if err != nil {
		return domain.Track{}, storageError("record vote", err)
	}

	track.Votes = votes
	track.Score = votes.Score()

	s.broadcaster.Publish(ctx, code, broadcast.QueueUpdated(track))

	return track, nil
}
