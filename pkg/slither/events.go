package slither

import (
	"time"

	"github.com/bft-labs/slither/internal/app"
)

// State is the controller's session state.
type State int

const (
	// StateIdle means no session is active; Start is accepted.
	StateIdle State = iota

	// StateRunning means a session is streaming frames.
	StateRunning

	// StateStopping means a stop was requested and the session is closing its link.
	StateStopping
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

// StateChangeEvent is emitted on every controller state transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// SessionEndedEvent is emitted once per session, after the controller is
// back in StateIdle.
type SessionEndedEvent struct {
	Session SessionInfo

	// Frames is the number of frames written before the session ended.
	Frames   uint64
	Duration time.Duration

	// Err is nil when the session was stopped on request, otherwise the
	// link failure that ended it.
	Err error
}

// EventHandler receives controller notifications.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnSessionEnded(event SessionEndedEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to
// override only the events you need.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)   {}
func (BaseEventHandler) OnSessionEnded(SessionEndedEvent) {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnSessionEnded(ev app.SessionEndedEvent) {
	if e.handler == nil {
		return
	}
	e.handler.OnSessionEnded(SessionEndedEvent{
		Session:  convertSession(ev.Session),
		Frames:   ev.Frames,
		Duration: ev.Duration,
		Err:      ev.Err,
	})
}

func convertState(s app.State) State {
	switch s {
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	default:
		return StateIdle
	}
}

func convertSession(s app.SessionInfo) SessionInfo {
	return SessionInfo{
		ID:        s.ID,
		Gait:      s.Kind,
		Endpoint:  s.Endpoint,
		StartedAt: s.StartedAt,
	}
}
