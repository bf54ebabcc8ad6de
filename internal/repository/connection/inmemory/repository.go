package inmemory

import (
	"log/slog"
	"sync"

	"github.com/partyjukebox/server/internal/repository/connection"
	"golang.org/x/exp/maps"
)

type session struct {
	roomCode string
	sender   connection.Sender
}

type repo struct {
	sessions map[string]session
	rooms    map[string]map[string]struct{}
	logger   *slog.Logger
	mu       sync.RWMutex
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		sessions: make(map[string]session),
		rooms:    make(map[string]map[string]struct{}),
		logger:   logger,
	}
}

func (r *repo) Add(sessionID, roomCode string, sender connection.Sender) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; ok {
		return connection.ErrAlreadyExists
	}

	r.sessions[sessionID] = session{roomCode: roomCode, sender: sender}
	if r.rooms[roomCode] == nil {
		r.rooms[roomCode] = make(map[string]struct{})
	}
	r.rooms[roomCode][sessionID] = struct{}{}

	r.logger.Debug("session added", "session_id", sessionID, "room_code", roomCode)
	return nil
}

// Remove unregisters the session and returns the room it belonged to.
func (r *repo) Remove(sessionID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return "", connection.ErrNotFound
	}

	delete(r.sessions, sessionID)
	delete(r.rooms[s.roomCode], sessionID)
	if len(r.rooms[s.roomCode]) == 0 {
		delete(r.rooms, s.roomCode)
	}

	r.logger.Debug("session removed", "session_id", sessionID, "room_code", s.roomCode)
	return s.roomCode, nil
}

// GetSenders returns a snapshot of every sender subscribed to the room.
func (r *repo) GetSenders(roomCode string) []connection.Sender {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := maps.Keys(r.rooms[roomCode])
	senders := make([]connection.Sender, 0, len(ids))
	for _, id := range ids {
		senders = append(senders, r.sessions[id].sender)
	}

	return senders
}

func (r *repo) Count(roomCode string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms[roomCode])
}
