package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type Action string

const (
	ActionAddTrack Action = "add-track"
	ActionVote     Action = "vote"
)

const window = time.Minute

type Limiter struct {
	rc     *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Limiter)

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

func New(rc *redis.Client, logger *slog.Logger, opts ...Option) *Limiter {
	l := &Limiter{
		rc:     rc,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Key buckets a call by action, room code, caller identity and UTC minute.
func Key(action Action, roomCode, identity string, at time.Time) string {
	return fmt.Sprintf("rl:%s:%s:%s:%s", action, roomCode, identity, at.UTC().Format("200601021504"))
}

// Allow consumes one unit of the caller's budget for the current minute and
// reports whether the call is within limitPerMinute.
func (l *Limiter) Allow(ctx context.Context, action Action, roomCode, identity string, limitPerMinute int) (bool, error) {
	now := l.now()
	key := Key(action, roomCode, identity, now)

	pipe := l.rc.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireAt(ctx, key, now.UTC().Truncate(window).Add(window))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	count := incr.Val()

	allowed := count <= int64(limitPerMinute)
	if !allowed {
		l.logger.InfoContext(ctx, "rate limited", "action", action, "room_code", roomCode, "identity", identity, "count", count)
	}

	return allowed, nil
}
