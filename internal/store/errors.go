package store

import "errors"

var (
	// ErrNoState indicates the state row has not been written yet, or was
	// cleared at shutdown.
	ErrNoState = errors.New("no state row")

	// ErrNotFound indicates a command id that does not exist or is already
	// handled.
	ErrNotFound = errors.New("command not found")
)
