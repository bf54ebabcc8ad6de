package streamclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/resolve", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("input") == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"Invalid YouTube URL or id"}`))
			return
		}
		w.Write([]byte(`{"item":{"videoId":"dQw4w9WgXcQ","title":"Song","channel":"Band","durationMs":213000,"thumbnailUrl":"https://i.ytimg.com/x.jpg"}}`))
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "nothing" {
			w.Write([]byte(`{"items":[]}`))
			return
		}
		w.Write([]byte(`{"items":[{"videoId":"first123456","title":"First"},{"videoId":"second12345","title":"Second"}]}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestResolve(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL+"/", srv.Client())

	item, err := c.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, Item{
		VideoID:      "dQw4w9WgXcQ",
		Title:        "Song",
		Channel:      "Band",
		DurationMs:   213000,
		ThumbnailURL: "https://i.ytimg.com/x.jpg",
	}, item)

	_, err = c.Resolve(context.Background(), "bad")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "Invalid YouTube URL or id", statusErr.Message)
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, srv.Client())

	item, err := c.Search(context.Background(), "song")
	require.NoError(t, err)
	assert.Equal(t, "first123456", item.VideoID)

	_, err = c.Search(context.Background(), "nothing")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestCancelledContext(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, srv.Client())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Resolve(ctx, "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, context.Canceled)
}
