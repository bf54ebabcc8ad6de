package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/partyjukebox/server/internal/repository/connection"
	"github.com/redis/go-redis/v9"
)

const FanoutChannel = "jukebox:room-events"

type iConnRepo interface {
	Add(sessionID, roomCode string, sender connection.Sender) error
	Remove(sessionID string) (string, error)
	GetSenders(roomCode string) []connection.Sender
	Count(roomCode string) int
}

// fanoutMessage is what travels over Redis between server instances.
type fanoutMessage struct {
	Origin   string            `json:"origin"`
	RoomCode string            `json:"room_code"`
	Messages []json.RawMessage `json:"messages"`
}

type Broadcaster struct {
	conns      iConnRepo
	rc         *redis.Client
	instanceID string
	logger     *slog.Logger
}

type Option func(*Broadcaster)

// WithRedisFanout relays every room broadcast to the other server
// instances subscribed to FanoutChannel.
func WithRedisFanout(rc *redis.Client) Option {
	return func(b *Broadcaster) {
		b.rc = rc
	}
}

func New(conns iConnRepo, logger *slog.Logger, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		conns:      conns,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Connect registers the session and sends it the snapshot before any later
// room broadcast can reach it.
func (b *Broadcaster) Connect(ctx context.Context, sessionID, roomCode string, sender connection.Sender, snapshot Output) error {
	if err := b.conns.Add(sessionID, roomCode, sender); err != nil {
		return fmt.Errorf("failed to register session: %w", err)
	}

	if !b.Send(ctx, sender, snapshot) {
		b.logger.WarnContext(ctx, "snapshot dropped", "session_id", sessionID, "room_code", roomCode)
	}

	b.logger.DebugContext(ctx, "session joined room", "room_code", roomCode, "sessions", b.conns.Count(roomCode))

	return nil
}

func (b *Broadcaster) Disconnect(ctx context.Context, sessionID string) {
	roomCode, err := b.conns.Remove(sessionID)
	if err != nil {
		b.logger.DebugContext(ctx, "failed to remove session", "session_id", sessionID, "error", err)
		return
	}

	b.logger.DebugContext(ctx, "session left room", "room_code", roomCode, "sessions", b.conns.Count(roomCode))
}

// Send delivers to a single session.
func (b *Broadcaster) Send(ctx context.Context, sender connection.Sender, out Output) bool {
	data, err := json.Marshal(out)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to marshal output", "type", out.Type, "error", err)
		return false
	}

	return sender.Send(data)
}

// Publish delivers outputs, in order, to every session of the room. Delivery
// is best effort: a slow session drops messages and resyncs on reconnect.
func (b *Broadcaster) Publish(ctx context.Context, roomCode string, outs ...Output) {
	if len(outs) == 0 {
		return
	}

	messages := make([]json.RawMessage, 0, len(outs))
	for _, out := range outs {
		data, err := json.Marshal(out)
		if err != nil {
			b.logger.ErrorContext(ctx, "failed to marshal output", "type", out.Type, "error", err)
			return
		}

		messages = append(messages, data)
	}

	b.deliver(ctx, roomCode, messages)

	if b.rc == nil {
		return
	}

	data, err := json.Marshal(fanoutMessage{
		Origin:   b.instanceID,
		RoomCode: roomCode,
		Messages: messages,
	})
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to marshal fanout message", "error", err)
		return
	}

	if err := b.rc.Publish(ctx, FanoutChannel, data).Err(); err != nil {
		b.logger.WarnContext(ctx, "failed to publish fanout message", "room_code", roomCode, "error", err)
	}
}

func (b *Broadcaster) deliver(ctx context.Context, roomCode string, messages []json.RawMessage) {
	senders := b.conns.GetSenders(roomCode)
	dropped := 0
	for _, sender := range senders {
		for _, msg := range messages {
			if !sender.Send(msg) {
				dropped++
			}
		}
	}

	if dropped > 0 {
		b.logger.WarnContext(ctx, "dropped room messages", "room_code", roomCode, "dropped", dropped)
	}
}

// Run relays broadcasts from other instances to local sessions until ctx is
// done. Without Redis fan-out it only waits for ctx.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.rc == nil {
		<-ctx.Done()
		return nil
	}

	sub := b.rc.Subscribe(ctx, FanoutChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}

		return fmt.Errorf("failed to subscribe to %s: %w", FanoutChannel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var fm fanoutMessage
			if err := json.Unmarshal([]byte(msg.Payload), &fm); err != nil {
				b.logger.WarnContext(ctx, "malformed fanout message", "error", err)
				continue
			}

			if fm.Origin == b.instanceID {
				continue
			}

			b.deliver(ctx, fm.RoomCode, fm.Messages)
		}
	}
}
