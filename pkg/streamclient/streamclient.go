package streamclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var ErrNoResults = errors.New("no results")

type Item struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	Channel      string `json:"channel"`
	DurationMs   int    `json:"durationMs"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// StatusError is returned for any non-200 answer of the stream service.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("stream service responded %d", e.StatusCode)
	}

	return fmt.Sprintf("stream service responded %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	hc      *http.Client
}

func New(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      hc,
	}
}

// Resolve turns a video id or URL into metadata.
func (c *Client) Resolve(ctx context.Context, input string) (Item, error) {
	var resp struct {
		Item Item `json:"item"`
	}
	if err := c.get(ctx, "/resolve", url.Values{"input": {input}}, &resp); err != nil {
		return Item{}, fmt.Errorf("failed to resolve: %w", err)
	}

	return resp.Item, nil
}

// Search returns the first match for query or ErrNoResults.
func (c *Client) Search(ctx context.Context, query string) (Item, error) {
	var resp struct {
		Items []Item `json:"items"`
	}
	if err := c.get(ctx, "/search", url.Values{"q": {query}}, &resp); err != nil {
		return Item{}, fmt.Errorf("failed to search: %w", err)
	}

	if len(resp.Items) == 0 {
		return Item{}, ErrNoResults
	}

	return resp.Items[0], nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &StatusError{StatusCode: resp.StatusCode, Message: body.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
