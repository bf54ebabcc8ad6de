package ytvideodata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ", true},
		{"youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://m.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://music.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://vimeo.com/12345", "", false},
		{"never gonna give you up", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ExtractVideoID(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("url") {
		case "https://www.youtube.com/watch?v=aaaaaaaaaaa":
			w.Write([]byte(`{"title":"Song","author_name":"Band","thumbnail_url":"https://i.ytimg.com/x.jpg"}`))
		case "https://www.youtube.com/watch?v=bbbbbbbbbbb":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Private Song - YouTube</title></head>
			<body><span itemprop="author"><link itemprop="name" content="Other Band"></span></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.Client(), WithBaseURLs(srv.URL+"/oembed", srv.URL+"/watch"))
	ctx := context.Background()

	data, err := c.Get(ctx, "aaaaaaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, &VideoData{VideoID: "aaaaaaaaaaa", Title: "Song", AuthorName: "Band", ThumbnailUrl: "https://i.ytimg.com/x.jpg"}, data)

	data, err = c.Get(ctx, "bbbbbbbbbbb")
	require.NoError(t, err)
	assert.Equal(t, "Private Song", data.Title)
	assert.Equal(t, "Other Band", data.AuthorName)

	_, err = c.Get(ctx, "ccccccccccc")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}
