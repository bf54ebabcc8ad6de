package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/partyjukebox/server/internal/domain"
	"github.com/partyjukebox/server/internal/service/room"
	"github.com/partyjukebox/server/pkg/validator"
	"github.com/partyjukebox/server/pkg/wsrouter"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (room.CreateRoomResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	GetRoom(ctx context.Context, code string) (domain.Room, error)
	GetOrderedQueue(ctx context.Context, code string) ([]domain.Track, error)
	AddTrack(context.Context, *room.AddTrackParams) (domain.Track, error)
	Vote(context.Context, *room.VoteParams) (domain.Track, error)
	RemoveTrack(context.Context, *room.RemoveTrackParams) error
	Play(context.Context, *room.PlayParams) error
	Pause(context.Context, *room.PauseParams) error
	Seek(context.Context, *room.SeekParams) error
	Next(context.Context, *room.NextParams) (*domain.Track, error)
	Heartbeat(ctx context.Context, code, userID string) error
	SessionUser(ctx context.Context, code, token string) (domain.UserProfile, error)
	ConnectSession(context.Context, *room.ConnectSessionParams) (room.ConnectSessionResponse, error)
	DisconnectSession(ctx context.Context, sessionID string)
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	wsRouter    *wsrouter.WSRouter
	validate    *validator.Validator
	logger      *slog.Logger
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		logger:      logger,
	}
	c.wsRouter = c.getWSRouter()

	return c
}
