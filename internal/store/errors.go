package store

import "errors"

// ErrNotFound is returned when no webhook exists for the requested id.
var ErrNotFound = errors.New("webhook not found")

// ValidationError describes rejected input. The message is user-facing and
// returned verbatim by the API layer.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
