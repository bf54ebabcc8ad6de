package connection

import "errors"

var (
	ErrAlreadyExists = errors.New("session already registered")
	ErrNotFound      = errors.New("session not found")
)

// Sender delivers an encoded message to one live session. Send must not
// block; it reports false when the message was dropped.
type Sender interface {
	Send(msg []byte) bool
}
