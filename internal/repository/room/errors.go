package room

import "errors"

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrCodeTaken     = errors.New("room code already taken")
	ErrUserNotFound  = errors.New("user not found")
	ErrTrackNotFound = errors.New("track not found")
	ErrVideoQueued   = errors.New("video already queued")
	ErrVoteNotFound  = errors.New("vote not found")
	ErrStaleRoom     = errors.New("room state changed concurrently")
)
