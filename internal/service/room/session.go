package room

import (
	"context"

	"github.com/partyjukebox/server/internal/broadcast"
	"github.com/partyjukebox/server/internal/domain"
	"github.com/partyjukebox/server/internal/repository/connection"
)

type ConnectSessionParams struct {
	Code      string
	SessionID string
	// empty for read-only listeners
	SessionToken string
	Sender       connection.Sender
}

type ConnectSessionResponse struct {
	Code string
	// nil for read-only listeners
	User *domain.UserProfile
}

// ConnectSession subscribes a live session to the room and sends it a full
// snapshot. The room lock keeps the snapshot ordered before any later
// broadcast.
func (s service) ConnectSession(ctx context.Context, params *ConnectSessionParams) (ConnectSessionResponse, error) {
	code := NormalizeCode(params.Code)

	unlock, err := s.locks.lock(ctx, code)
	if err != nil {
		return ConnectSessionResponse{}, err
	}
	defer unlock()

	snapshot, err := s.snapshot(ctx, code)
	if err != nil {
		return ConnectSessionResponse{}, err
	}

	var user *domain.UserProfile
	if params.SessionToken != "" {
		u, err := s.sessionUser(ctx, snapshot.Room, params.SessionToken)
		if err != nil {
			return ConnectSessionResponse{}, err
		}
		user = &u
	}

	if err := s.broadcaster.Connect(ctx, params.SessionID, code, params.Sender,
		broadcast.RoomSync(snapshot.Room, snapshot.Queue)); err != nil {
		return ConnectSessionResponse{}, err
	}

	return ConnectSessionResponse{
		Code: code,
		User: user,
	}, nil
}

func (s service) sessionUser(ctx context.Context, r domain.Room, token string) (domain.UserProfile, error) {
	claims, err := s.parseSessionToken(token)
	if err != nil {
		s.logger.InfoContext(ctx, "invalid session token", "error", err)
		return domain.UserProfile{}, ErrInvalidSession
	}

	if claims.RoomID != r.ID {
		return domain.UserProfile{}, ErrInvalidSession
	}

	return s.getRoomUser(ctx, r, claims.UserID)
}

// SessionUser resolves a session token to its participant in the room.
func (s service) SessionUser(ctx context.Context, code, token string) (domain.UserProfile, error) {
	r, err := s.roomRepo.GetRoomByCode(ctx, NormalizeCode(code))
	if err != nil {
		return domain.UserProfile{}, storageError("get room", err)
	}

	return s.sessionUser(ctx, r, token)
}

func (s service) DisconnectSession(ctx context.Context, sessionID string) {
	s.broadcaster.Disconnect(ctx, sessionID)
}
