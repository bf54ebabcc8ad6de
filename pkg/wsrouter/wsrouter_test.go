package wsrouter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type voteInput struct {
	TrackID string `json:"track_id"`
	Value   int    `json:"value"`
}

func TestDispatch(t *testing.T) {
	r := New()

	var calls []string
	r.Use(func(next HandlerFunc[any]) HandlerFunc[any] {
		return func(ctx context.Context, payload any) error {
			calls = append(calls, "outer:"+GetMessageTypeFromCtx(ctx))
			return next(ctx, payload)
		}
	}, func(next HandlerFunc[any]) HandlerFunc[any] {
		return func(ctx context.Context, payload any) error {
			calls = append(calls, "inner")
			return next(ctx, payload)
		}
	})

	var got voteInput
	Handle(r, "VOTE", func(ctx context.Context, in voteInput) error {
		got = in
		calls = append(calls, "handler")
		return nil
	})
	Handle(r, "HEARTBEAT", func(ctx context.Context, in struct{}) error {
		return nil
	})

	require.NoError(t, r.Dispatch(context.Background(), []byte(`{"type":"VOTE","payload":{"track_id":"t1","value":-1}}`)))
	assert.Equal(t, voteInput{TrackID: "t1", Value: -1}, got)
	assert.Equal(t, []string{"outer:VOTE", "inner", "handler"}, calls)

	assert.NoError(t, r.Dispatch(context.Background(), []byte(`{"type":"HEARTBEAT"}`)))

	err := r.Dispatch(context.Background(), []byte(`{"type":"NOPE","payload":{}}`))
	assert.ErrorIs(t, err, ErrUnknownMessageType)

	err = r.Dispatch(context.Background(), []byte(`{"type":"VOTE","payload":{"value":"up"}}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	err = r.Dispatch(context.Background(), []byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
