package datastore

import (
	"errors"
	"fmt"
)

// Sentinel errors for data store operations.
var (
	// ErrRequestFailed indicates the remote service answered with a non-2xx status.
	ErrRequestFailed = errors.New("datastore: request failed")

	// ErrInvalidBaseURL indicates the configured base URL cannot be used.
	ErrInvalidBaseURL = errors.New("datastore: invalid base URL")
)

// StatusError carries the details of a non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int

	// Body is a bounded prefix of the response body, for diagnostics.
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("datastore: %s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("datastore: %s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Unwrap makes errors.Is(err, ErrRequestFailed) hold.
func (e *StatusError) Unwrap() error {
	return ErrRequestFailed
}
