package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/partyjukebox/server/internal/domain"
	"github.com/partyjukebox/server/internal/repository/room"
	"github.com/redis/go-redis/v9"
)

func (r repo) getVotesKey(trackID string) string {
	return "track:" + trackID + ":votes"
}

func (r repo) getVoteMetaKey(trackID string) string {
	return "track:" + trackID + ":vote-meta"
}

// vote meta is "{vote id}|{room id}|{created at micros}", written once per
// (track, user) so replacing a vote keeps its identity.
func (r repo) encodeVoteMeta(params *room.RecordVoteParams) string {
	return params.VoteID + "|" + params.RoomID + "|" + strconv.FormatInt(r.timeToField(params.CreatedAt), 10)
}

// RecordVote upserts the user's vote and recomputes the track tallies from
// the full ledger in one script.
func (r repo) RecordVote(ctx context.Context, params *room.RecordVoteParams) (domain.VoteSummary, error) {
	r.logger.DebugContext(ctx, "called", "params", params)

	res, err := r.recordVoteScript.Run(ctx, r.rc,
		[]string{
			r.getTrackKey(params.TrackID),
			r.getVotesKey(params.TrackID),
			r.getVoteMetaKey(params.TrackID),
		},
		params.UserID,
		int(params.Value),
		r.encodeVoteMeta(params),
	).Int64Slice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.VoteSummary{}, room.ErrTrackNotFound
		}

		return domain.VoteSummary{}, fmt.Errorf("failed to record vote: %w", err)
	}

	if len(res) != 2 {
		return domain.VoteSummary{}, fmt.Errorf("unexpected vote script result: %v", res)
	}

	return domain.VoteSummary{Up: int(res[0]), Down: int(res[1])}, nil
}

func (r repo) GetVote(ctx context.Context, trackID, userID string) (domain.Vote, error) {
	r.logger.DebugContext(ctx, "called", "track_id", trackID, "user_id", userID)

	pipe := r.rc.Pipeline()
	valueCmd := pipe.HGet(ctx, r.getVotesKey(trackID), userID)
	metaCmd := pipe.HGet(ctx, r.getVoteMetaKey(trackID), userID)
	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Vote{}, room.ErrVoteNotFound
		}

		return domain.Vote{}, fmt.Errorf("failed to get vote: %w", err)
	}

	meta := strings.SplitN(metaCmd.Val(), "|", 3)
	if len(meta) != 3 {
		return domain.Vote{}, fmt.Errorf("malformed vote meta %q", metaCmd.Val())
	}

	return domain.Vote{
		ID:        meta[0],
		RoomID:    meta[1],
		TrackID:   trackID,
		UserID:    userID,
		Value:     domain.VoteValue(r.fieldToInt(valueCmd.Val())),
		CreatedAt: r.fieldToTime(r.fieldToInt64(meta[2])),
	}, nil
}
