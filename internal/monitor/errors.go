package monitor

import (
	"errors"
	"fmt"
)

// Sentinel errors for the monitor engine.
var (
	// ErrChannelUnavailable is returned when the push update channel cannot
	// be subscribed. The router falls back to polling.
	ErrChannelUnavailable = errors.New("monitor: push channel unavailable")

	// ErrRemoteCall wraps every failed call to the remote mock.
	ErrRemoteCall = errors.New("monitor: remote call failed")

	// ErrRenderTargetMissing is returned when a row has not been
	// materialised yet.
	ErrRenderTargetMissing = errors.New("monitor: row not rendered")

	// ErrNoSession is returned when an edit operation runs with no open session.
	ErrNoSession = errors.New("monitor: no edit session open")

	// ErrLoopStopped is returned when work is submitted after the loop exited.
	ErrLoopStopped = errors.New("monitor: loop stopped")
)

// RemoteCallError records which remote operation failed.
type RemoteCallError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both ErrRemoteCall and the underlying cause to errors.Is.
func (e *RemoteCallError) Unwrap() []error {
	return []error{ErrRemoteCall, e.Err}
}
