package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the controller.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called while a session is active.
	ErrAlreadyRunning = errors.New("slither: already running")

	// ErrNotRunning is returned when Stop() is called with no active session.
	ErrNotRunning = errors.New("slither: not running")

	// ErrInvalidConfig is returned when joint or gait configuration validation fails.
	ErrInvalidConfig = errors.New("slither: invalid configuration")

	// ErrConnection is matched by every *ConnectionError.
	ErrConnection = errors.New("slither: connection error")

	// ErrUnknownGait is returned for a gait kind the controller does not implement.
	ErrUnknownGait = errors.New("slither: unknown gait")

	// ErrUnknownPose is returned by SetPose for a pose name that is not configured.
	ErrUnknownPose = errors.New("slither: unknown pose")
)

// ConnectionError reports a transport open or send failure.
// It terminates the current session only.
type ConnectionError struct {
	// Op is the failed operation: "dial", "send" or "close".
	Op string

	// Endpoint is the endpoint string the link was opened with.
	Endpoint string

	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("slither: %s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is reports true for ErrConnection so callers need not use errors.As.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// invalidf wraps ErrInvalidConfig with a formatted detail message.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// ErrShutdownTimeout is returned when a session does not exit within the
// shutdown deadline.
var ErrShutdownTimeout = errors.New("slither: shutdown timeout")
