package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/partyjukebox/server/internal/broadcast"
	"github.com/partyjukebox/server/internal/service/room"
	"github.com/partyjukebox/server/pkg/ctxlogger"
	"github.com/partyjukebox/server/pkg/validator"
	"github.com/partyjukebox/server/pkg/wsrouter"
)

const (
	closeForbidden = 4003
	closeNotFound  = 4004
)

// serveWS upgrades the request and subscribes the connection to the room.
// The first frame is always a ROOM_SYNC snapshot.
func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	code := c.getCode(r)
	token := r.URL.Query().Get("session-token")

	// unknown rooms are rejected before the upgrade
	if _, err := c.roomService.GetRoom(r.Context(), code); err != nil {
		c.writeError(w, r, err)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	sess := newSession(c.generateTimeBasedId(), conn)
	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("session_id", sess.id))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("room_code", code))

	resp, err := c.roomService.ConnectSession(ctx, &room.ConnectSessionParams{
		Code:         code,
		SessionID:    sess.id,
		SessionToken: token,
		Sender:       sess,
	})
	if err != nil {
		c.rejectConn(ctx, conn, err)
		return
	}
	defer c.roomService.DisconnectSession(ctx, sess.id)

	go sess.writePump()
	defer sess.closeWith(websocket.CloseNormalClosure, "")

	ctx = context.WithValue(ctx, roomCodeCtxKey, resp.Code)
	ctx = context.WithValue(ctx, sessionCtxKey, sess)
	if resp.User != nil {
		ctx = context.WithValue(ctx, userCtxKey, resp.User)
		ctx = ctxlogger.AppendCtx(ctx, slog.String("user_id", resp.User.ID))
	}

	c.logger.InfoContext(ctx, "session connected", "host", resp.User != nil && resp.User.IsHost())

	c.readPump(ctx, sess)

	c.logger.InfoContext(ctx, "session disconnected")
}

func (c controller) rejectConn(ctx context.Context, conn *websocket.Conn, err error) {
	defer conn.Close()

	info := describeError(err)
	c.logger.InfoContext(ctx, "session rejected", "error", err)

	if msg, err := json.Marshal(broadcast.Error(info.code, info.message)); err == nil {
		conn.WriteMessage(websocket.TextMessage, msg)
	}

	closeCode := websocket.CloseInternalServerErr
	switch info.status {
	case http.StatusForbidden:
		closeCode = closeForbidden
	case http.StatusNotFound:
		closeCode = closeNotFound
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(closeCode, info.code))
}

func (c controller) readPump(ctx context.Context, sess *session) {
	sess.conn.SetReadLimit(maxMessageSize)
	sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.InfoContext(ctx, "unexpected websocket close", "error", err)
			}
			return
		}

		if err := c.wsRouter.Dispatch(ctx, data); err != nil {
			c.sendWSError(ctx, sess, err)
		}
	}
}

func wsErrorInfo(err error) errorInfo {
	var validationErr validator.ValidationError
	switch {
	case errors.Is(err, wsrouter.ErrUnknownMessageType), errors.Is(err, wsrouter.ErrInvalidPayload):
		return errorInfo{http.StatusBadRequest, "invalid_input", err.Error()}
	case errors.As(err, &validationErr):
		return errorInfo{http.StatusBadRequest, "invalid_input", validationErr.Message}
	default:
		return describeError(err)
	}
}

func (c controller) sendWSError(ctx context.Context, sess *session, err error) {
	info := wsErrorInfo(err)
	if info.status >= http.StatusInternalServerError {
		c.logger.ErrorContext(ctx, "websocket message failed", "error", err)
	}

	msg, err := json.Marshal(broadcast.Error(info.code, info.message))
	if err != nil {
		c.logger.WarnContext(ctx, "failed to marshal error", "error", err)
		return
	}

	if !sess.Send(msg) {
		c.logger.WarnContext(ctx, "error frame dropped")
	}
}
