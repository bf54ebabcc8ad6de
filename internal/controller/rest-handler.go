package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/partyjukebox/server/internal/domain"
	"github.com/partyjukebox/server/internal/service/room"
	"github.com/partyjukebox/server/pkg/rest"
)

func (c controller) health(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, r, http.StatusOK, rest.Envelope{"status": "ok"})
}

type createRoomInput struct {
	DisplayName string `json:"display_name" validate:"required,min=1,max=64"`
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	var input createRoomInput
	if !c.readInput(w, r, &input) {
		return
	}

	resp, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		DisplayName: input.DisplayName,
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	c.writeJSON(w, r, http.StatusCreated, rest.Envelope{
		"code":          resp.Room.Code,
		"host_secret":   resp.Room.HostSecret,
		"user_id":       resp.Host.ID,
		"session_token": resp.SessionToken,
	})
}

type joinRoomInput struct {
	DisplayName string `json:"display_name" validate:"required,min=1,max=64"`
	HostSecret  string `json:"host_secret"`
}

func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	var input joinRoomInput
	if !c.readInput(w, r, &input) {
		return
	}

	resp, err := c.roomService.JoinRoom(r.Context(), &room.JoinRoomParams{
		Code:        c.getCode(r),
		DisplayName: input.DisplayName,
		HostSecret:  input.HostSecret,
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	c.writeJSON(w, r, http.StatusOK, rest.Envelope{
		"user_id":       resp.User.ID,
		"role":          resp.User.Role,
		"session_token": resp.SessionToken,
	})
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	rm, err := c.roomService.GetRoom(r.Context(), c.getCode(r))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	c.writeJSON(w, r, http.StatusOK, rm)
}

func (c controller) getQueue(w http.ResponseWriter, r *http.Request) {
	tracks, err := c.roomService.GetOrderedQueue(r.Context(), c.getCode(r))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	c.writeJSON(w, r, http.StatusOK, rest.Envelope{"tracks": tracks})
}

type addTrackInput struct {
	YoutubeURL    string `json:"youtube_url" validate:"max=2048"`
	Query         string `json:"query" validate:"max=256"`
	VideoID       string `json:"video_id" validate:"max=64"`
	Title         string `json:"title" validate:"max=512"`
	Channel       string `json:"channel" validate:"max=256"`
	DurationMs    int    `json:"duration_ms" validate:"gte=0"`
	ThumbnailURL  string `json:"thumbnail_url" validate:"max=2048"`
	AddedByUserID string `json:"added_by_user_id" validate:"max=64"`
}

func (input addTrackInput) params(code, userID string) *room.AddTrackParams {
	return &room.AddTrackParams{
		Code:         code,
		UserID:       userID,
		VideoID:      input.VideoID,
		Title:        input.Title,
		Channel:      input.Channel,
		DurationMs:   input.DurationMs,
		ThumbnailURL: input.ThumbnailURL,
		VideoURL:     input.YoutubeURL,
		Query:        input.Query,
	}
}

func (c controller) addTrack(w http.ResponseWriter, r *http.Request) {
	var input addTrackInput
	if !c.readInput(w, r, &input) {
		return
	}

	userID, ok := c.requestUserID(w, r, input.AddedByUserID)
	if !ok {
		return
	}

	track, err := c.roomService.AddTrack(r.Context(), input.params(c.getCode(r), userID))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	c.writeJSON(w, r, http.StatusCreated, track)
}

type voteInput struct {
	Value  int    `json:"value" validate:"oneof=1 -1"`
	UserID string `json:"user_id" validate:"max=64"`
}

func (c controller) vote(w http.ResponseWriter, r *http.Request) {
	var input voteInput
	if !c.readInput(w, r, &input) {
		return
	}

	userID, ok := c.requestUserID(w, r, input.UserID)
	if !ok {
		return
	}

	track, err := c.roomService.Vote(r.Context(), &room.VoteParams{
		Code:    c.getCode(r),
		TrackID: chi.URLParam(r, "track-id"),
		UserID:  userID,
		Value:   domain.VoteValue(input.Value),
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	c.writeJSON(w, r, http.StatusOK, track)
}

func (c controller) removeTrack(w http.ResponseWriter, r *http.Request) {
	if err := c.roomService.RemoveTrack(r.Context(), &room.RemoveTrackParams{
		Code:       c.getCode(r),
		TrackID:    chi.URLParam(r, "track-id"),
		HostSecret: r.Header.Get(hostSecretHeader),
	}); err != nil {
		c.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type hostInput struct {
	HostSecret string `json:"host_secret"`
}

func (c controller) next(w http.ResponseWriter, r *http.Request) {
	var input hostInput
	if !c.readInput(w, r, &input) {
		return
	}

	track, err := c.roomService.Next(r.Context(), &room.NextParams{
		Code:       c.getCode(r),
		HostSecret: input.HostSecret,
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	if track == nil {
		c.writeJSON(w, r, http.StatusOK, rest.Envelope{})
		return
	}

	c.writeJSON(w, r, http.StatusOK, track)
}

type playInput struct {
	TrackID    string `json:"track_id" validate:"required"`
	HostSecret string `json:"host_secret"`
}

func (c controller) play(w http.ResponseWriter, r *http.Request) {
	var input playInput
	if !c.readInput(w, r, &input) {
		return
	}

	if err := c.roomService.Play(r.Context(), &room.PlayParams{
		Code:       c.getCode(r),
		TrackID:    input.TrackID,
		HostSecret: input.HostSecret,
	}); err != nil {
		c.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type pauseInput struct {
	HostSecret string `json:"host_secret"`
	PositionMs *int   `json:"position_ms" validate:"omitempty,gte=0"`
}

func (c controller) pause(w http.ResponseWriter, r *http.Request) {
	var input pauseInput
	if !c.readInput(w, r, &input) {
		return
	}

	if err := c.roomService.Pause(r.Context(), &room.PauseParams{
		Code:       c.getCode(r),
		HostSecret: input.HostSecret,
		PositionMs: input.PositionMs,
	}); err != nil {
		c.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type seekInput struct {
	HostSecret string `json:"host_secret"`
	PositionMs int    `json:"position_ms" validate:"gte=0"`
}

func (c controller) seek(w http.ResponseWriter, r *http.Request) {
	var input seekInput
	if !c.readInput(w, r, &input) {
		return
	}

	if err := c.roomService.Seek(r.Context(), &room.SeekParams{
		Code:       c.getCode(r),
		HostSecret: input.HostSecret,
		PositionMs: input.PositionMs,
	}); err != nil {
		c.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
