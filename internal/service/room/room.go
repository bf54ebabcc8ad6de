package room

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/partyjukebox/server/internal/broadcast"
	"github.com/partyjukebox/server/internal/domain"
	roomrepo "github.com/partyjukebox/server/internal/repository/room"
	"github.com/partyjukebox/server/pkg/randstr"
)

const (
	// no 0/O or 1/I
	codeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength      = 6
	hostSecretBytes = 32
)

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// EnsureHost compares the supplied secret with the room's in constant time.
func (s service) EnsureHost(r domain.Room, secret string) bool {
	if secret == "" || r.HostSecret == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(r.HostSecret), []byte(secret)) == 1
}

type CreateRoomParams struct {
	DisplayName string
}

type CreateRoomResponse struct {
	Room         domain.Room
	Host         domain.UserProfile
	SessionToken string
}

func (s service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	hostSecret, err := randstr.Token(hostSecretBytes)
	if err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to generate host secret: %w", err)
	}

	roomID := uuid.NewString()
	now := s.now()

	var code string
	for {
		if err := ctx.Err(); err != nil {
			return CreateRoomResponse{}, err
		}

		code, err = randstr.String(codeAlphabet, codeLength)
		if err != nil {
			return CreateRoomResponse{}, fmt.Errorf("failed to generate room code: %w", err)
		}

		err = s.roomRepo.CreateRoom(ctx, &roomrepo.CreateRoomParams{
			RoomID:     roomID,
			Code:       code,
			HostSecret: hostSecret,
			CreatedAt:  now,
		})
		if err == nil {
			break
		}

		if !errors.Is(err, roomrepo.ErrCodeTaken) {
			return CreateRoomResponse{}, storageError("create room", err)
		}

		s.logger.DebugContext(ctx, "room code taken, retrying", "code", code)
	}

	host, err := s.addUser(ctx, roomID, domain.RoleHost, params.DisplayName)
	if err != nil {
		return CreateRoomResponse{}, err
	}

	token, err := s.generateSessionToken(host, code)
	if err != nil {
		return CreateRoomResponse{}, err
	}

	s.logger.InfoContext(ctx, "room created", "room_id", roomID, "code", code)

	return CreateRoomResponse{
		Room: domain.Room{
			ID:            roomID,
			Code:          code,
			HostSecret:    hostSecret,
			IsActive:      true,
			PlaybackState: domain.NewPlaybackState(domain.PlaybackIdle, 0, now),
			CreatedAt:     now,
		},
		Host:         host,
		SessionToken: token,
	}, nil
}

func (s service) addUser(ctx context.Context, roomID string, role domain.Role, displayName string) (domain.UserProfile, error) {
	user := domain.UserProfile{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		Role:        role,
		DisplayName: displayName,
		CreatedAt:   s.now(),
	}

	if err := s.roomRepo.SetUser(ctx, &roomrepo.SetUserParams{
		UserID:      user.ID,
		RoomID:      user.RoomID,
		Role:        user.Role,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
	}); err != nil {
		return domain.UserProfile{}, storageError("set user", err)
	}

	return user, nil
}

type JoinRoomParams struct {
	Code        string
	DisplayName string
	HostSecret  string
}

type JoinRoomResponse struct {
	Room         domain.Room
	User         domain.UserProfile
	SessionToken string
}

// JoinRoom always creates a new participant. The role is Host only when the
// supplied secret matches.
func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	code := NormalizeCode(params.Code)

	r, err := s.roomRepo.GetRoomByCode(ctx, code)
	if err != nil {
		return JoinRoomResponse{}, storageError("get room", err)
	}

	role := domain.RoleGuest
	if s.EnsureHost(r, params.HostSecret) {
		role = domain.RoleHost
	}

	user, err := s.addUser(ctx, r.ID, role, params.DisplayName)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	token, err := s.generateSessionToken(user, code)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	s.broadcaster.Publish(ctx, code, broadcast.RoomHeartbeat(user.ID))

	return JoinRoomResponse{
		Room:         r,
		User:         user,
		SessionToken: token,
	}, nil
}

func (s service) GetRoom(ctx context.Context, code string) (domain.Room, error) {
	r, err := s.roomRepo.GetRoomByCode(ctx, NormalizeCode(code))
	if err != nil {
		return domain.Room{}, storageError("get room", err)
	}

	return r, nil
}

func (s service) GetOrderedQueue(ctx context.Context, code string) ([]domain.Track, error) {
	snapshot, err := s.GetSnapshot(ctx, code)
	if err != nil {
		return nil, err
	}

	return snapshot.Queue, nil
}

// GetSnapshot reads the room and its visible queue under the room lock so
// both halves describe the same moment.
func (s service) GetSnapshot(ctx context.Context, code string) (Snapshot, error) {
	code = NormalizeCode(code)

	unlock, err := s.locks.lock(ctx, code)
	if err != nil {
		return Snapshot{}, err
	}
	defer unlock()

	return s.snapshot(ctx, code)
}

func (s service) snapshot(ctx context.Context, code string) (Snapshot, error) {
	r, err := s.roomRepo.GetRoomByCode(ctx, code)
	if err != nil {
		return Snapshot{}, storageError("get room", err)
	}

	tracks, err := s.roomRepo.GetTracks(ctx, r.ID)
	if err != nil {
		return Snapshot{}, storageError("get tracks", err)
	}

	return Snapshot{
		Room:  r,
		Queue: domain.VisibleQueue(tracks),
	}, nil
}

func (s service) Heartbeat(ctx context.Context, code, userID string) error {
	code = NormalizeCode(code)

	unlock, err := s.locks.lock(ctx, code)
	if err != nil {
		return err
	}
	defer unlock()

	r, err := s.roomRepo.GetRoomByCode(ctx, code)
	if err != nil {
		return storageError("get room", err)
	}

	if _, err := s.getRoomUser(ctx, r, userID); err != nil {
		return err
	}

	if err := s.roomRepo.TouchUser(ctx, userID, s.now()); err != nil {
		return storageError("touch user", err)
	}

	s.broadcaster.Publish(ctx, code, broadcast.RoomHeartbeat(userID))

	return nil
}

// getRoomUser treats users of other rooms as unknown.
func (s service) getRoomUser(ctx context.Context, r domain.Room, userID string) (domain.UserProfile, error) {
	if userID == "" {
		return domain.UserProfile{}, ErrUserNotFound
	}

	user, err := s.roomRepo.GetUser(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, storageError("get user", err)
	}

	if user.RoomID != r.ID {
		return domain.UserProfile{}, ErrUserNotFound
	}

	return user, nil
}
