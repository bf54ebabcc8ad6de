package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/partyjukebox/server/pkg/streamclient"
	"github.com/partyjukebox/server/pkg/ytvideodata"
)

var (
	ErrInvalidReference = errors.New("invalid video reference")
	ErrNoResults        = errors.New("no results for query")
	ErrUnavailable      = errors.New("metadata resolver unavailable")
)

type Metadata struct {
	VideoID      string
	Title        string
	Channel      string
	DurationMs   int
	ThumbnailURL string
}

type streamResolver struct {
	client  *streamclient.Client
	timeout time.Duration
}

// NewStreamResolver resolves through the stream service.
func NewStreamResolver(client *streamclient.Client, timeout time.Duration) *streamResolver {
	return &streamResolver{
		client:  client,
		timeout: timeout,
	}
}

func fromItem(item streamclient.Item) Metadata {
	return Metadata{
		VideoID:      item.VideoID,
		Title:        item.Title,
		Channel:      item.Channel,
		DurationMs:   item.DurationMs,
		ThumbnailURL: item.ThumbnailURL,
	}
}

func (r *streamResolver) mapError(err error) error {
	var statusErr *streamclient.StatusError
	switch {
	case errors.Is(err, streamclient.ErrNoResults):
		return ErrNoResults
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrInvalidReference, statusErr.Message)
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}

func (r *streamResolver) Resolve(ctx context.Context, reference string) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	item, err := r.client.Resolve(ctx, reference)
	if err != nil {
		return Metadata{}, r.mapError(err)
	}

	return fromItem(item), nil
}

func (r *streamResolver) Search(ctx context.Context, query string) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	item, err := r.client.Search(ctx, query)
	if err != nil {
		return Metadata{}, r.mapError(err)
	}

	return fromItem(item), nil
}

type youtubeResolver struct {
	client  *ytvideodata.Client
	timeout time.Duration
}

// NewYoutubeResolver talks to YouTube directly. It has no search and reports
// durations as 0.
func NewYoutubeResolver(client *ytvideodata.Client, timeout time.Duration) *youtubeResolver {
	return &youtubeResolver{
		client:  client,
		timeout: timeout,
	}
}

func (r *youtubeResolver) Resolve(ctx context.Context, reference string) (Metadata, error) {
	videoID, ok := ytvideodata.ExtractVideoID(reference)
	if !ok {
		return Metadata{}, ErrInvalidReference
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	data, err := r.client.Get(ctx, videoID)
	if err != nil {
		if errors.Is(err, ytvideodata.ErrVideoNotFound) {
			return Metadata{}, fmt.Errorf("%w: video %s not found", ErrInvalidReference, videoID)
		}

		return Metadata{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return Metadata{
		VideoID:      data.VideoID,
		Title:        data.Title,
		Channel:      data.AuthorName,
		ThumbnailURL: data.ThumbnailUrl,
	}, nil
}

func (r *youtubeResolver) Search(context.Context, string) (Metadata, error) {
	return Metadata{}, fmt.Errorf("%w: search requires the stream service", ErrUnavailable)
}
