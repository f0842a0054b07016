package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInputKind rejects a selection whose declared media type is
	// not image/*. The selection leaves the session untouched.
	ErrInvalidInputKind = errors.New("selected file is not an image")

	// ErrEditInFlight signals that a submission was ignored because one is
	// already running.
	ErrEditInFlight = errors.New("an edit request is already in flight")

	// ErrEditRequestFailed wraps every failure cause of a submission:
	// transport errors, non-success statuses and malformed payloads.
	ErrEditRequestFailed = errors.New("edit request failed")

	ErrNoResult      = errors.New("no edited image available")
	ErrSessionClosed = errors.New("session is closed")

	ErrSendingReplyFailed = errors.New("failed to send reply")
)

// MissingInputError reports which required input a submission lacked.
type MissingInputError struct {
	Input string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing input: %s", e.Input)
}
