package core

import "errors"

// Error codes for domain errors that reach the wire.
const (
	ErrCodeAlreadyJoined = "already_joined"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeRateLimited   = "rate_limited"
)

var (
	// ErrAlreadyBound rejects a second join on a connection that already has a room.
	ErrAlreadyBound = errors.New("connection already bound to a room")
	// ErrNotBound marks a message from a connection without a room. Callers ignore it.
	ErrNotBound = errors.New("connection not bound to a room")
	// ErrEmptyHistory means the actor has no stroke left to undo.
	ErrEmptyHistory = errors.New("nothing to undo")
	// ErrEmptyUndoStack means there is nothing to redo.
	ErrEmptyUndoStack = errors.New("nothing to redo")
	// ErrBadRequest marks a command the core cannot apply as given.
	ErrBadRequest = errors.New("bad request")

	errRoomClosed = errors.New("room closed")
)

// Ignorable reports whether err is one of the expected races that must produce no effect.
func Ignorable(err error) bool {
	return errors.Is(err, ErrNotBound) ||
		errors.Is(err, ErrEmptyHistory) ||
		errors.Is(err, ErrEmptyUndoStack)
}

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
