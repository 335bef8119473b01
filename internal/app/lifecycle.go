package app

import (
	"context"
	"sync"

	"github.com/bft-labs/slither/internal/domain"
	"github.com/bft-labs/slither/internal/ports"
)

// State represents the supervisor's session state.
type State int

const (
	StateIdle State = iota
	StateRunning
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

// Lifecycle manages the Idle -> Running -> Stopping -> Idle state machine.
// Every check-and-set happens inside one critical section, so concurrent
// callers can never both leave Idle.
type Lifecycle struct {
	mu           sync.RWMutex
	state        State
	cancel       context.CancelFunc
	done         chan struct{}
	logger       ports.Logger
	eventEmitter EventEmitter
}

// EventEmitter is called when lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// NewLifecycle creates a new lifecycle manager in StateIdle.
func NewLifecycle(logger ports.Logger, emitter EventEmitter) *Lifecycle {
	done := make(chan struct{})
	close(done)
	return &Lifecycle{
		state:        StateIdle,
		done:         done,
		logger:       logger,
		eventEmitter: emitter,
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Begin moves Idle -> Running and records the session's cancel function
// and a fresh Done channel in the same critical section. Any other state
// yields ErrAlreadyRunning and leaves the state untouched.
func (l *Lifecycle) Begin(cancel context.CancelFunc, reason string) error {
	l.mu.Lock()
	if l.state != StateIdle {
		l.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	l.state = StateRunning
	l.cancel = cancel
	l.done = make(chan struct{})
	l.mu.Unlock()

	l.emit(StateIdle, StateRunning, reason)
	return nil
}

// Done returns the channel of the session started by the last Begin. The
// session owner closes it on exit. Before any Begin it is already closed.
func (l *Lifecycle) Done() chan struct{} {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.done
}

// TransitionTo attempts to transition to a new state.
// Returns an error if the transition is not valid.
func (l *Lifecycle) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state

	// Validate transition
	switch oldState {
	case StateIdle:
		if newState != StateRunning {
			l.mu.Unlock()
			return domain.ErrNotRunning
		}
	case StateRunning:
		if newState != StateStopping {
			l.mu.Unlock()
			return domain.ErrAlreadyRunning
		}
	case StateStopping:
		if newState != StateIdle {
			l.mu.Unlock()
			return domain.ErrAlreadyRunning
		}
	}

	l.state = newState
	if newState == StateIdle {
		l.cancel = nil
	}
	l.mu.Unlock()

	l.emit(oldState, newState, reason)
	return nil
}

// CanStart returns true if Start() can be called.
func (l *Lifecycle) CanStart() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateIdle
}

// CanStop returns true if Stop() has anything to stop.
func (l *Lifecycle) CanStop() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateRunning
}

// Cancel signals the running session to stop.
func (l *Lifecycle) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (l *Lifecycle) emit(from, to State, reason string) {
	// Emit event outside of lock
	if l.eventEmitter != nil {
		l.eventEmitter.OnStateChange(from, to, reason)
	}

	l.logger.Info("state transition",
		ports.String("from", from.String()),
		ports.String("to", to.String()),
		ports.String("reason", reason),
	)
}
