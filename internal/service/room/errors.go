package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/partyjukebox/server/internal/metadata"
	roomrepo "github.com/partyjukebox/server/internal/repository/room"
)

// error kinds
var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConflict            = errors.New("conflict")
	ErrRateLimited         = errors.New("rate limited")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrStorageFailure      = errors.New("storage failure")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string {
	return e.msg
}

func (e *kindError) Unwrap() error {
	return e.kind
}

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	ErrRoomNotFound         = newError(ErrNotFound, "room not found")
	ErrTrackNotFound        = newError(ErrNotFound, "track not found")
	ErrUserNotFound         = newError(ErrNotFound, "user not found")
	ErrNotHost              = newError(ErrForbidden, "host secret is missing or invalid")
	ErrInvalidSession       = newError(ErrForbidden, "session token is invalid")
	ErrInvalidVote          = newError(ErrInvalidInput, "vote value must be 1 or -1")
	ErrInvalidPosition      = newError(ErrInvalidInput, "position must be non-negative")
	ErrMissingTrackSource   = newError(ErrInvalidInput, "either youtube url, query or client metadata is required")
	ErrNoResults            = newError(ErrInvalidInput, "no results for query")
	ErrInvalidVideoRef      = newError(ErrInvalidInput, "invalid youtube url or id")
	ErrTrackAlreadyQueued   = newError(ErrConflict, "track already in queue")
	ErrTrackAlreadyPlayed   = newError(ErrConflict, "track already played")
	ErrRoomStateChanged     = newError(ErrConflict, "room state changed, try again")
	ErrTrackAddsRateLimited = newError(ErrRateLimited, "too many tracks added, try again in a minute")
	ErrVotesRateLimited     = newError(ErrRateLimited, "too many votes, try again in a minute")
)

// storageError translates store sentinels and wraps everything else as a
// storage failure.
func storageError(op string, err error) error {
	switch {
	case errors.Is(err, roomrepo.ErrRoomNotFound):
		return ErrRoomNotFound
	case errors.Is(err, roomrepo.ErrTrackNotFound):
		return ErrTrackNotFound
	case errors.Is(err, roomrepo.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, roomrepo.ErrVideoQueued):
		return ErrTrackAlreadyQueued
	case errors.Is(err, roomrepo.ErrStaleRoom):
		return ErrRoomStateChanged
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("failed to %s: %w", op, err)
	default:
		return fmt.Errorf("failed to %s: %w: %w", op, ErrStorageFailure, err)
	}
}

func resolverError(err error) error {
	switch {
	case errors.Is(err, metadata.ErrNoResults):
		return ErrNoResults
	case errors.Is(err, metadata.ErrInvalidReference):
		return ErrInvalidVideoRef
	default:
		return fmt.Errorf("failed to resolve metadata: %w: %w", ErrUpstreamUnavailable, err)
	}
}
