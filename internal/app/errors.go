package app

import (
	"errors"
	"fmt"
)

// ErrToggleRejected and related errors describe application-level failures.
var (
	ErrToggleRejected = errors.New("habit toggle rejected by server")
	ErrEmptyTitle     = errors.New("empty title")
)

// NetworkError reports a request that never reached the server.
type NetworkError struct {
	Op  string
	Err error
}

// Error renders the failed operation and its cause.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

// Unwrap exposes the transport cause for errors.Is/As.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError reports a non-success response from the backend.
type ServerError struct {
	Op         string
	StatusCode int
	Body       string
}

// Error renders the failed operation and the response status.
func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: server responded %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: server responded %d: %s", e.Op, e.StatusCode, e.Body)
}
