package mockclient

import "errors"

var (
	// ErrTimeout is returned when no response arrives in time.
	ErrTimeout = errors.New("mockclient: request timed out")

	// ErrRejected is returned when the mock answers with success=false.
	ErrRejected = errors.New("mockclient: request rejected")

	// ErrClosed is returned for calls made after, or pending during, Close.
	ErrClosed = errors.New("mockclient: client closed")

	// ErrOffline is returned by every Offline call.
	ErrOffline = errors.New("mockclient: broker unreachable")

	// ErrBadResponse is returned when a response payload cannot be decoded.
	ErrBadResponse = errors.New("mockclient: malformed response")
)
