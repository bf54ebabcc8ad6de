package room

import (
	"context"
	"log/slog"
	"time"

	"github.com/partyjukebox/server/internal/broadcast"
	"github.com/partyjukebox/server/internal/domain"
	"github.com/partyjukebox/server/internal/metadata"
	"github.com/partyjukebox/server/internal/ratelimit"
	"github.com/partyjukebox/server/internal/repository/connection"
	roomrepo "github.com/partyjukebox/server/internal/repository/room"
)

type iRoomRepo interface {
	// room
	CreateRoom(context.Context, *roomrepo.CreateRoomParams) error
	GetRoom(ctx context.Context, roomID string) (domain.Room, error)
	GetRoomByCode(ctx context.Context, code string) (domain.Room, error)
	// user
	SetUser(context.Context, *roomrepo.SetUserParams) error
	GetUser(ctx context.Context, userID string) (domain.UserProfile, error)
	TouchUser(ctx context.Context, userID string, at time.Time) error
	// track
	CreateTrack(context.Context, *roomrepo.CreateTrackParams) error
	GetTrack(ctx context.Context, trackID string) (domain.Track, error)
	GetTracks(ctx context.Context, roomID string) ([]domain.Track, error)
	RemoveTrack(context.Context, *roomrepo.RemoveTrackParams) error
	// vote
	RecordVote(context.Context, *roomrepo.RecordVoteParams) (domain.VoteSummary, error)
	// playback
	ApplyTransition(context.Context, *roomrepo.TransitionParams) error
}

type iBroadcaster interface {
	Connect(ctx context.Context, sessionID, roomCode string, sender connection.Sender, snapshot broadcast.Output) error
	Disconnect(ctx context.Context, sessionID string)
	Publish(ctx context.Context, roomCode string, outs ...broadcast.Output)
}

type iRateLimiter interface {
	Allow(ctx context.Context, action ratelimit.Action, roomCode, identity string, limitPerMinute int) (bool, error)
}

type iResolver interface {
	Resolve(ctx context.Context, reference string) (metadata.Metadata, error)
	Search(ctx context.Context, query string) (metadata.Metadata, error)
}

type Config struct {
	Secret             string
	TrackAddsPerMinute int
	VotesPerMinute     int
	SessionTTL         time.Duration
}

type service struct {
	roomRepo    iRoomRepo
	broadcaster iBroadcaster
	limiter     iRateLimiter
	resolver    iResolver
	locks       *roomLocker
	cfg         Config
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(
	roomRepo iRoomRepo,
	broadcaster iBroadcaster,
	limiter iRateLimiter,
	resolver iResolver,
	cfg Config,
	logger *slog.Logger,
) *service {
	return &service{
		roomRepo:    roomRepo,
		broadcaster: broadcaster,
		limiter:     limiter,
		resolver:    resolver,
		locks:       newRoomLocker(),
		cfg:         cfg,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}
