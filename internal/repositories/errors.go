package repositories

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNotAuthorized is returned when the requester does not own the
	// record it is trying to mutate.
	ErrNotAuthorized = errors.New("not authorized")
)
