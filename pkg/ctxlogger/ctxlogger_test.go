package ctxlogger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendCtx(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(ContextHandler{slog.NewJSONHandler(&buf, nil)})

	parent := AppendCtx(context.Background(), slog.String("request_id", "r1"))
	child := AppendCtx(parent, slog.String("message_type", "VOTE"))

	logger.InfoContext(child, "handled")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "r1", rec["request_id"])
	assert.Equal(t, "VOTE", rec["message_type"])

	buf.Reset()
	logger.With("component", "test").InfoContext(parent, "parent only")
	var parentRec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parentRec))
	assert.Equal(t, "test", parentRec["component"])
	assert.Equal(t, "r1", parentRec["request_id"])
	_, ok := parentRec["message_type"]
	assert.False(t, ok)
}
