package ytvideodata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

const (
	defaultOEmbedURL = "https://www.youtube.com/oembed"
	defaultPageURL   = "https://www.youtube.com/watch"
)

var (
	ErrVideoNotFound      = errors.New("video not found")
	ErrVideoNotEmbeddable = errors.New("video is not embeddable")
)

type VideoData struct {
	VideoID      string `json:"-"`
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailUrl string `json:"thumbnail_url"`
}

type Client struct {
	hc        *http.Client
	oembedURL string
	pageURL   string
}

type Option func(*Client)

// WithBaseURLs points the client at other oEmbed and watch page endpoints.
func WithBaseURLs(oembedURL, pageURL string) Option {
	return func(c *Client) {
		c.oembedURL = oembedURL
		c.pageURL = pageURL
	}
}

func New(hc *http.Client, opts ...Option) *Client {
	c := &Client{
		hc:        hc,
		oembedURL: defaultOEmbedURL,
		pageURL:   defaultPageURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get looks the video up through oEmbed and falls back to scraping the watch
// page when the video cannot be embedded.
func (c *Client) Get(ctx context.Context, videoID string) (*VideoData, error) {
	videoData, err := c.getWithEmbed(ctx, videoID)
	if err != nil {
		if !errors.Is(err, ErrVideoNotEmbeddable) {
			return nil, fmt.Errorf("failed to get video data with embed: %w", err)
		}

		videoData, err = c.getFromPage(ctx, videoID)
		if err != nil {
			return nil, fmt.Errorf("failed to get video data from page: %w", err)
		}
	}

	videoData.VideoID = videoID

	return videoData, nil
}
