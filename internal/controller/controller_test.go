package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/partyjukebox/server/internal/broadcast"
	"github.com/partyjukebox/server/internal/metadata"
	"github.com/partyjukebox/server/internal/ratelimit"
	"github.com/partyjukebox/server/internal/repository/connection/inmemory"
	roomRedis "github.com/partyjukebox/server/internal/repository/room/redis"
	"github.com/partyjukebox/server/internal/service/room"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct{}

func (stubResolver) Resolve(context.Context, string) (metadata.Metadata, error) {
	return metadata.Metadata{VideoID: "resolved", Title: "Resolved", Channel: "Channel", DurationMs: 1000}, nil
}

func (stubResolver) Search(context.Context, string) (metadata.Metadata, error) {
	return metadata.Metadata{}, metadata.ErrNoResults
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := room.NewService(
		roomRedis.NewRepo(rc, logger),
		broadcast.New(inmemory.NewRepo(logger), logger),
		ratelimit.New(rc, logger),
		stubResolver{},
		room.Config{
			Secret:             "test-secret",
			TrackAddsPerMinute: 5,
			VotesPerMinute:     30,
			SessionTTL:         time.Hour,
		},
		logger,
	)

	srv := httptest.NewServer(NewController(svc, logger).GetMux())
	t.Cleanup(srv.Close)

	return srv
}

func doJSON(t *testing.T, method, url string, body any, header http.Header) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			reader = strings.NewReader(s)
		} else {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(b)
		}
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(bytes.TrimSpace(data)) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}

	return resp, out
}

type createdRoom struct {
	code, hostSecret, userID, token string
}

func createRoom(t *testing.T, srv *httptest.Server) createdRoom {
	t.Helper()

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/rooms", map[string]any{"display_name": "host"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return createdRoom{
		code:       body["code"].(string),
		hostSecret: body["host_secret"].(string),
		userID:     body["user_id"].(string),
		token:      body["session_token"].(string),
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestRoomFlow(t *testing.T) {
	srv := newTestServer(t)
	rm := createRoom(t, srv)
	base := srv.URL + "/api/rooms/" + strings.ToLower(rm.code)

	resp, body := doJSON(t, http.MethodPost, base+"/join", map[string]any{"display_name": "guest"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "guest", body["role"])
	guestID := body["user_id"].(string)

	resp, body = doJSON(t, http.MethodGet, base, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, rm.code, body["code"])
	assert.NotContains(t, body, "host_secret")
	assert.Nil(t, body["now_playing_track_id"])

	resp, track := doJSON(t, http.MethodPost, base+"/tracks", map[string]any{
		"youtube_url":      "https://youtu.be/resolved",
		"added_by_user_id": guestID,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "resolved", track["video_id"])
	assert.Equal(t, "ready", track["status"])
	trackID := track["id"].(string)

	resp, body = doJSON(t, http.MethodPost, base+"/tracks", map[string]any{
		"video_id": "resolved", "title": "t", "channel": "c", "added_by_user_id": guestID,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "conflict", body["code"])

	resp, body = doJSON(t, http.MethodPost, base+"/tracks", map[string]any{
		"query": "nothing", "added_by_user_id": guestID,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", body["code"])

	resp, body = doJSON(t, http.MethodPost, base+"/tracks/"+trackID+"/vote", map[string]any{"value": 1, "user_id": guestID}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["score"])

	resp, body = doJSON(t, http.MethodPost, base+"/tracks/"+trackID+"/vote", map[string]any{"value": 0, "user_id": guestID}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", body["code"])

	resp, body = doJSON(t, http.MethodGet, base+"/queue", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["tracks"], 1)

	resp, body = doJSON(t, http.MethodPost, base+"/playback/play", map[string]any{"track_id": trackID, "host_secret": "wrong"}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", body["code"])

	resp, _ = doJSON(t, http.MethodPost, base+"/playback/play", map[string]any{"track_id": trackID, "host_secret": rm.hostSecret}, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, base+"/playback/seek", map[string]any{"position_ms": 3000, "host_secret": rm.hostSecret}, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, base+"/playback/seek", map[string]any{"position_ms": -1, "host_secret": rm.hostSecret}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, base+"/playback/pause", map[string]any{"host_secret": rm.hostSecret}, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, base, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, trackID, body["now_playing_track_id"])
	playback := body["playback_state"].(map[string]any)
	assert.Equal(t, "paused", playback["status"])
	assert.EqualValues(t, 3000, playback["position_ms"])

	resp, body = doJSON(t, http.MethodPost, base+"/next", map[string]any{"host_secret": rm.hostSecret}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body)

	resp, _ = doJSON(t, http.MethodDelete, base+"/tracks/"+trackID, nil, http.Header{hostSecretHeader: {rm.hostSecret}})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, base+"/tracks/"+trackID, nil, http.Header{hostSecretHeader: {rm.hostSecret}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestParticipantSessionToken(t *testing.T) {
	srv := newTestServer(t)
	rm := createRoom(t, srv)
	other := createRoom(t, srv)
	base := srv.URL + "/api/rooms/" + rm.code

	resp, body := doJSON(t, http.MethodPost, base+"/join", map[string]any{"display_name": "guest"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	guestID := body["user_id"].(string)

	bearer := http.Header{"Authorization": {"Bearer " + rm.token}}

	// the token decides who adds, not the body
	resp, track := doJSON(t, http.MethodPost, base+"/tracks", map[string]any{
		"video_id": "v1", "title": "t", "channel": "c", "added_by_user_id": guestID,
	}, bearer)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, rm.userID, track["added_by"])
	trackID := track["id"].(string)

	resp, body = doJSON(t, http.MethodPost, base+"/tracks/"+trackID+"/vote", map[string]any{"value": -1}, bearer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, -1, body["score"])

	resp, body = doJSON(t, http.MethodPost, base+"/tracks/"+trackID+"/vote", map[string]any{"value": 1},
		http.Header{"Authorization": {"Bearer garbage"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", body["code"])

	resp, _ = doJSON(t, http.MethodPost, base+"/tracks", map[string]any{
		"video_id": "v2", "title": "t", "channel": "c",
	}, http.Header{"Authorization": {"Bearer " + other.token}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPost, base+"/tracks/"+trackID+"/vote", map[string]any{"value": 1}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", body["code"])
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/rooms", `{"display_name":`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", body["code"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/rooms", map[string]any{"display_name": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["errors"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/rooms", map[string]any{"display_name": "x", "extra": 1}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/rooms/ZZZZZZ", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["code"])
}

type frame struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

func dialRoom(t *testing.T, srv *httptest.Server, code, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/rooms/" + code
	if token != "" {
		u += "?session-token=" + url.QueryEscape(token)
	}

	return websocket.DefaultDialer.Dial(u, nil)
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestWebsocketSession(t *testing.T) {
	srv := newTestServer(t)
	rm := createRoom(t, srv)

	conn, _, err := dialRoom(t, srv, rm.code, rm.token)
	require.NoError(t, err)
	defer conn.Close()

	f := readFrame(t, conn)
	assert.Equal(t, broadcast.TypeRoomSync, f.Type)
	assert.Contains(t, f.Payload, "room")
	assert.Contains(t, f.Payload, "queue")

	listener, _, err := dialRoom(t, srv, strings.ToLower(rm.code), "")
	require.NoError(t, err)
	defer listener.Close()
	assert.Equal(t, broadcast.TypeRoomSync, readFrame(t, listener).Type)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "ADD_TRACK",
		"payload": map[string]any{"video_id": "abc", "title": "Song", "channel": "Band"},
	}))

	f = readFrame(t, conn)
	require.Equal(t, broadcast.TypeTrackAdded, f.Type)
	track := f.Payload["track"].(map[string]any)
	assert.Equal(t, rm.userID, track["added_by"])
	assert.Equal(t, broadcast.TypeTrackAdded, readFrame(t, listener).Type)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "HOST_PLAY",
		"payload": map[string]any{"track_id": track["id"], "host_secret": rm.hostSecret},
	}))
	assert.Equal(t, broadcast.TypeRoomSync, readFrame(t, conn).Type)
	f = readFrame(t, conn)
	assert.Equal(t, broadcast.TypePlaybackState, f.Type)
	assert.Equal(t, "playing", f.Payload["status"])

	assert.Equal(t, broadcast.TypeRoomSync, readFrame(t, listener).Type)
	assert.Equal(t, broadcast.TypePlaybackState, readFrame(t, listener).Type)

	// read-only listeners cannot vote
	require.NoError(t, listener.WriteJSON(map[string]any{
		"type":    "VOTE",
		"payload": map[string]any{"track_id": track["id"], "value": 1},
	}))
	f = readFrame(t, listener)
	assert.Equal(t, broadcast.TypeError, f.Type)
	assert.Equal(t, "forbidden", f.Payload["code"])

	// but they can ask for the queue again
	require.NoError(t, listener.WriteJSON(map[string]any{"type": "SYNC"}))
	f = readFrame(t, listener)
	require.Equal(t, broadcast.TypeQueueSync, f.Type)
	queue := f.Payload["queue"].([]any)
	require.Len(t, queue, 1)
	assert.Equal(t, track["id"], queue[0].(map[string]any)["id"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "DANCE"}))
	f = readFrame(t, conn)
	assert.Equal(t, broadcast.TypeError, f.Type)
	assert.Equal(t, "invalid_input", f.Payload["code"])

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "HOST_SEEK",
		"payload": map[string]any{"position_ms": 100, "host_secret": "wrong"},
	}))
	f = readFrame(t, conn)
	assert.Equal(t, broadcast.TypeError, f.Type)
	assert.Equal(t, "forbidden", f.Payload["code"])
}

func TestWebsocketRejections(t *testing.T) {
	srv := newTestServer(t)
	rm := createRoom(t, srv)
	other := createRoom(t, srv)

	_, resp, err := dialRoom(t, srv, "ZZZZZZ", "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	conn, _, err := dialRoom(t, srv, rm.code, other.token)
	require.NoError(t, err)
	defer conn.Close()

	f := readFrame(t, conn)
	assert.Equal(t, broadcast.TypeError, f.Type)
	assert.Equal(t, "forbidden", f.Payload["code"])

	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, closeForbidden, closeErr.Code)
}

func TestDescribeError(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, describeError(room.ErrRoomNotFound).status)
	assert.Equal(t, http.StatusForbidden, describeError(room.ErrNotHost).status)
	assert.Equal(t, "rate_limited", describeError(room.ErrVotesRateLimited).code)
	assert.Equal(t, "conflict", describeError(room.ErrTrackAlreadyQueued).code)
	assert.Equal(t, http.StatusBadGateway, describeError(room.ErrUpstreamUnavailable).status)
	assert.Equal(t, http.StatusInternalServerError, describeError(room.ErrStorageFailure).status)
	assert.Equal(t, "internal server error", describeError(context.Canceled).message)
}
