package api

import (
	"errors"
	"fmt"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Message is the "message" field of the JSON error body, if any.
	Message string

	// Endpoint is the request path, for diagnostics.
	Endpoint string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Endpoint, e.StatusCode)
}

// ErrMissingToken is returned when a login response carries no token.
var ErrMissingToken = errors.New("login response has no auth token")

// ErrDecode wraps malformed 2xx response bodies.
var ErrDecode = errors.New("malformed response body")

// ServerMessage extracts the server-provided message from err, if any.
func ServerMessage(err error) (string, bool) {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message, true
	}
	return "", false
}

// IsStatusError reports whether err came from a completed HTTP exchange
// with a non-2xx status.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}
