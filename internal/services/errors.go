package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidMedia is returned when the uploaded file is not an
	// acceptable story medium.
	ErrInvalidMedia = errors.New("invalid media")
	// ErrMediaTooLarge is returned when the upload exceeds the size
	// ceiling.
	ErrMediaTooLarge = errors.New("media exceeds size limit")
)

// ContentRejectedError is returned when the moderation collaborator blocks a
// caption or comment. It carries the violation reasons for the user.
type ContentRejectedError struct {
	Violations []string
}

func (e *ContentRejectedError) Error() string {
	if len(e.Violations) == 0 {
		return "content rejected"
	}
	return fmt.Sprintf("content rejected: %s", strings.Join(e.Violations, ", "))
}
