package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/feedsync/internal/api"
)

// ErrorKind categorizes operation failures.
type ErrorKind string

const (
	// KindValidation indicates the input was rejected before any request was made.
	KindValidation ErrorKind = "ValidationError"

	// KindAuthRequired indicates the operation needs a session and none exists.
	// No request is made.
	KindAuthRequired ErrorKind = "AuthRequired"

	// KindRemote indicates the server answered with a non-2xx status.
	KindRemote ErrorKind = "RemoteError"

	// KindNetwork indicates the request never produced a usable response.
	KindNetwork ErrorKind = "NetworkError"

	// KindStorage indicates the persisted token could not be read or written.
	KindStorage ErrorKind = "StorageError"

	// KindStopped indicates the engine is no longer running.
	KindStopped ErrorKind = "Stopped"
)

// Fallback messages reported when the server gives no message of its own.
const (
	msgLoginFailed    = "Login failed"
	msgFetchPosts     = "Failed to fetch posts"
	msgSendPost       = "Failed to send post"
	msgSendReply      = "Failed to send reply"
	msgFetchReplies   = "Failed to fetch replies"
	msgUpdateReaction = "Failed to update reaction"
)

// OpError is the failure half of a Result.
//
// Message is the user-facing text: the server's message when it sent one,
// otherwise the fixed fallback for the operation. Err holds the underlying
// cause, if any.
type OpError struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s (%v)", e.Op, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *OpError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *OpError of the given kind.
// Uses errors.As to handle wrapped errors.
func IsKind(err error, kind ErrorKind) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}

// IsAuthRequired returns true if the error is an AuthRequired failure.
func IsAuthRequired(err error) bool {
	return IsKind(err, KindAuthRequired)
}

// IsValidation returns true if the error is a ValidationError failure.
func IsValidation(err error) bool {
	return IsKind(err, KindValidation)
}

// IsStopped returns true if the operation was refused because the engine stopped.
func IsStopped(err error) bool {
	return IsKind(err, KindStopped)
}

func validationError(op, msg string) *OpError {
	return &OpError{Kind: KindValidation, Op: op, Message: msg}
}

func authRequired(op string) *OpError {
	return &OpError{Kind: KindAuthRequired, Op: op, Message: "login required"}
}

func stoppedError(op string) *OpError {
	return &OpError{Kind: KindStopped, Op: op, Message: "engine stopped"}
}

func storageError(op string, err error) *OpError {
	return &OpError{Kind: KindStorage, Op: op, Message: "token storage failed", Err: err}
}

// remoteFailure maps a gateway error to an OpError. A message from the
// server's error body wins; anything else reports the fallback.
func remoteFailure(op, fallback string, err error) *OpError {
	if msg, ok := api.ServerMessage(err); ok {
		return &OpError{Kind: KindRemote, Op: op, Message: msg, Err: err}
	}
	if api.IsStatusError(err) {
		return &OpError{Kind: KindRemote, Op: op, Message: fallback, Err: err}
	}
	return &OpError{Kind: KindNetwork, Op: op, Message: fallback, Err: err}
}

// Result is the outcome of an engine operation.
//
// Err is nil on success. The one exception is a Login whose token could not
// be saved: it carries both the session Value and a StorageError.
// Applied reports whether the completion changed engine state; it is false
// for rejected operations and for completions discarded as stale or as
// belonging to a session that has since ended.
type Result[T any] struct {
	Value   T
	Err     *OpError
	Applied bool
}

// OK reports whether the operation succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Error returns the failure as an error, or nil on success.
func (r Result[T]) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

func failed[T any](err *OpError) Result[T] {
	return Result[T]{Err: err}
}
