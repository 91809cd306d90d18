package client

import (
	"errors"
	"fmt"
)

var (
	// ErrServerNotRunning is returned when nothing listens on the socket.
	ErrServerNotRunning = errors.New("session server not running")

	// ErrPermissionDenied is returned when the socket cannot be opened.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when the server answers 404.
	ErrNotFound = errors.New("404 not found")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("got %d: %s", e.Code, e.Message)
}
