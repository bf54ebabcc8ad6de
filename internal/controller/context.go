package controller

import (
	"context"

	"github.com/partyjukebox/server/internal/domain"
)

type contextKey int

const (
	roomCodeCtxKey contextKey = iota
	userCtxKey
	sessionCtxKey
)

func (c controller) getRoomCodeFromCtx(ctx context.Context) string {
	code, ok := ctx.Value(roomCodeCtxKey).(string)
	if !ok {
		return ""
	}

	return code
}

// getUserFromCtx returns nil for read-only listeners.
func (c controller) getUserFromCtx(ctx context.Context) *domain.UserProfile {
	user, ok := ctx.Value(userCtxKey).(*domain.UserProfile)
	if !ok {
		return nil
	}

	return user
}

func (c controller) getSessionFromCtx(ctx context.Context) *session {
	sess, ok := ctx.Value(sessionCtxKey).(*session)
	if !ok {
		return nil
	}

	return sess
}
