package controller

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/partyjukebox/server/internal/broadcast"
	"github.com/partyjukebox/server/internal/domain"
	"github.com/partyjukebox/server/internal/service/room"
	"github.com/partyjukebox/server/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	r := wsrouter.New()
	r.Use(c.wsRequestIdWSMw(), c.loggerWSMw())

	wsrouter.Handle(r, "HEARTBEAT", c.handleHeartbeat)
	wsrouter.Handle(r, "SYNC", c.handleSync)
	wsrouter.Handle(r, "HOST_PLAY", c.handleHostPlay)
	wsrouter.Handle(r, "HOST_PAUSE", c.handleHostPause)
	wsrouter.Handle(r, "HOST_SEEK", c.handleHostSeek)
	wsrouter.Handle(r, "HOST_SKIP", c.handleHostSkip)
	wsrouter.Handle(r, "ADD_TRACK", c.handleAddTrack)
	wsrouter.Handle(r, "VOTE", c.handleVote)

	return r
}

// validateInput returns the first validation failure, if any.
func (c controller) validateInput(input any) error {
	if errs, ok := c.validate.Validate(input); !ok {
		return errs[0]
	}

	return nil
}

func (c controller) requireUser(ctx context.Context) (*domain.UserProfile, error) {
	user := c.getUserFromCtx(ctx)
	if user == nil {
		return nil, room.ErrInvalidSession
	}

	return user, nil
}

type emptyInput struct{}

func (c controller) handleHeartbeat(ctx context.Context, _ emptyInput) error {
	user, err := c.requireUser(ctx)
	if err != nil {
		return err
	}

	return c.roomService.Heartbeat(ctx, c.getRoomCodeFromCtx(ctx), user.ID)
}

// handleSync replies to the requesting session only. Listeners may use it
// after dropped frames.
func (c controller) handleSync(ctx context.Context, _ emptyInput) error {
	sess := c.getSessionFromCtx(ctx)
	if sess == nil {
		return errors.New("no session in context")
	}

	queue, err := c.roomService.GetOrderedQueue(ctx, c.getRoomCodeFromCtx(ctx))
	if err != nil {
		return err
	}

	msg, err := json.Marshal(broadcast.QueueSync(queue))
	if err != nil {
		return err
	}

	if !sess.Send(msg) {
		c.logger.WarnContext(ctx, "queue sync dropped")
	}

	return nil
}

type hostPlayInput struct {
	TrackID    string `json:"track_id" validate:"required"`
	HostSecret string `json:"host_secret"`
}

func (c controller) handleHostPlay(ctx context.Context, input hostPlayInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	return c.roomService.Play(ctx, &room.PlayParams{
		Code:       c.getRoomCodeFromCtx(ctx),
		TrackID:    input.TrackID,
		HostSecret: input.HostSecret,
	})
}

type hostPauseInput struct {
	HostSecret string `json:"host_secret"`
	PositionMs *int   `json:"position_ms" validate:"omitempty,gte=0"`
}

func (c controller) handleHostPause(ctx context.Context, input hostPauseInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	return c.roomService.Pause(ctx, &room.PauseParams{
		Code:       c.getRoomCodeFromCtx(ctx),
		HostSecret: input.HostSecret,
		PositionMs: input.PositionMs,
	})
}

type hostSeekInput struct {
	HostSecret string `json:"host_secret"`
	PositionMs int    `json:"position_ms" validate:"gte=0"`
}

func (c controller) handleHostSeek(ctx context.Context, input hostSeekInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	return c.roomService.Seek(ctx, &room.SeekParams{
		Code:       c.getRoomCodeFromCtx(ctx),
		HostSecret: input.HostSecret,
		PositionMs: input.PositionMs,
	})
}

type hostSkipInput struct {
	HostSecret string `json:"host_secret"`
}

func (c controller) handleHostSkip(ctx context.Context, input hostSkipInput) error {
	_, err := c.roomService.Next(ctx, &room.NextParams{
		Code:       c.getRoomCodeFromCtx(ctx),
		HostSecret: input.HostSecret,
	})

	return err
}

type wsAddTrackInput struct {
	YoutubeURL   string `json:"youtube_url" validate:"max=2048"`
	Query        string `json:"query" validate:"max=256"`
	VideoID      string `json:"video_id" validate:"max=64"`
	Title        string `json:"title" validate:"max=512"`
	Channel      string `json:"channel" validate:"max=256"`
	DurationMs   int    `json:"duration_ms" validate:"gte=0"`
	ThumbnailURL string `json:"thumbnail_url" validate:"max=2048"`
}

// handleAddTrack adds on behalf of the session's participant.
func (c controller) handleAddTrack(ctx context.Context, input wsAddTrackInput) error {
	user, err := c.requireUser(ctx)
	if err != nil {
		return err
	}

	if err := c.validateInput(input); err != nil {
		return err
	}

	_, err = c.roomService.AddTrack(ctx, addTrackInput{
		YoutubeURL:   input.YoutubeURL,
		Query:        input.Query,
		VideoID:      input.VideoID,
		Title:        input.Title,
		Channel:      input.Channel,
		DurationMs:   input.DurationMs,
		ThumbnailURL: input.ThumbnailURL,
	}.params(c.getRoomCodeFromCtx(ctx), user.ID))

	return err
}

type wsVoteInput struct {
	TrackID string `json:"track_id" validate:"required"`
	Value   int    `json:"value" validate:"oneof=1 -1"`
}

func (c controller) handleVote(ctx context.Context, input wsVoteInput) error {
	user, err := c.requireUser(ctx)
	if err != nil {
		return err
	}

	if err := c.validateInput(input); err != nil {
		return err
	}

	_, err = c.roomService.Vote(ctx, &room.VoteParams{
		Code:    c.getRoomCodeFromCtx(ctx),
		TrackID: input.TrackID,
		UserID:  user.ID,
		Value:   domain.VoteValue(input.Value),
	})

	return err
}
