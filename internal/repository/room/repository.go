package room

import (
	"context"
	"time"

	"github.com/partyjukebox/server/internal/domain"
)

// Repository is implemented by every storage backend.
type Repository interface {
	CreateRoom(context.Context, *CreateRoomParams) error
	GetRoom(ctx context.Context, roomID string) (domain.Room, error)
	GetRoomByCode(ctx context.Context, code string) (domain.Room, error)

	SetUser(context.Context, *SetUserParams) error
	GetUser(ctx context.Context, userID string) (domain.UserProfile, error)
	TouchUser(ctx context.Context, userID string, at time.Time) error

	CreateTrack(context.Context, *CreateTrackParams) error
	GetTrack(ctx context.Context, trackID string) (domain.Track, error)
	GetTracks(ctx context.Context, roomID string) ([]domain.Track, error)
	RemoveTrack(context.Context, *RemoveTrackParams) error

	RecordVote(context.Context, *RecordVoteParams) (domain.VoteSummary, error)
	GetVote(ctx context.Context, trackID, userID string) (domain.Vote, error)

	ApplyTransition(context.Context, *TransitionParams) error
}
