package app

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bft-labs/slither/internal/domain"
	"github.com/bft-labs/slither/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// mockEmitter tracks state change events for testing.
type mockEmitter struct {
	mu     sync.Mutex
	events []stateChangeEvent
}

type stateChangeEvent struct {
	previous State
	current  State
	reason   string
}

func (m *mockEmitter) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChangeEvent{previous, current, reason})
}

func (m *mockEmitter) Events() []stateChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChangeEvent{}, m.events...)
}

func TestNewLifecycle(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	if l == nil {
		t.Fatal("NewLifecycle returned nil")
	}
	if l.State() != StateIdle {
		t.Errorf("initial state = %v, want StateIdle", l.State())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "Idle"},
		{StateRunning, "Running"},
		{StateStopping, "Stopping"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		got := tt.state.String()
		if got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestLifecycle_TransitionTo_ValidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
	}{
		{"idle to running", StateIdle, StateRunning},
		{"running to stopping", StateRunning, StateStopping},
		{"stopping to idle", StateStopping, StateIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.from

			if err := l.TransitionTo(tt.to, "test"); err != nil {
				t.Errorf("TransitionTo() error = %v", err)
			}
			if l.State() != tt.to {
				t.Errorf("state = %v after transition, want %v", l.State(), tt.to)
			}
		})
	}
}

func TestLifecycle_TransitionTo_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr error
	}{
		{"idle to stopping", StateIdle, StateStopping, domain.ErrNotRunning},
		{"idle to idle", StateIdle, StateIdle, domain.ErrNotRunning},
		{"running to running", StateRunning, StateRunning, domain.ErrAlreadyRunning},
		{"running to idle", StateRunning, StateIdle, domain.ErrAlreadyRunning},
		{"stopping to running", StateStopping, StateRunning, domain.ErrAlreadyRunning},
		{"stopping to stopping", StateStopping, StateStopping, domain.ErrAlreadyRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.from

			err := l.TransitionTo(tt.to, "test")

			if err != tt.wantErr {
				t.Errorf("TransitionTo() error = %v, want %v", err, tt.wantErr)
			}
			// State should not change on invalid transition
			if l.State() != tt.from {
				t.Errorf("state changed to %v on invalid transition, want %v", l.State(), tt.from)
			}
		})
	}
}

func TestLifecycle_TransitionTo_EmitsEvents(t *testing.T) {
	emitter := &mockEmitter{}
	l := NewLifecycle(&mockLogger{}, emitter)

	_ = l.Begin(func() {}, "start test")
	_ = l.TransitionTo(StateStopping, "stop test")
	_ = l.TransitionTo(StateIdle, "stopped")

	events := emitter.Events()
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	if events[0].previous != StateIdle || events[0].current != StateRunning {
		t.Errorf("event 0: got %v->%v, want Idle->Running", events[0].previous, events[0].current)
	}
	if events[1].previous != StateRunning || events[1].current != StateStopping {
		t.Errorf("event 1: got %v->%v, want Running->Stopping", events[1].previous, events[1].current)
	}
	if events[2].reason != "stopped" {
		t.Errorf("event 2 reason = %q, want %q", events[2].reason, "stopped")
	}
}

func TestLifecycle_Begin(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := l.Begin(cancel, "first"); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if l.State() != StateRunning {
		t.Fatalf("state = %v, want Running", l.State())
	}

	// A second Begin must not replace the recorded cancel.
	var replaced atomic.Bool
	if err := l.Begin(func() { replaced.Store(true) }, "second"); err != domain.ErrAlreadyRunning {
		t.Errorf("second Begin() error = %v, want ErrAlreadyRunning", err)
	}

	l.Cancel()
	select {
	case <-ctx.Done():
	default:
		t.Error("first session's context was not canceled")
	}
	if replaced.Load() {
		t.Error("second Begin() overwrote the cancel function")
	}
}

func TestLifecycle_DonePublishedByBegin(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	select {
	case <-l.Done():
	default:
		t.Fatal("Done() open before any Begin")
	}

	if err := l.Begin(func() {}, "first"); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	done := l.Done()
	select {
	case <-done:
		t.Fatal("Done() closed right after Begin")
	default:
	}

	// A refused Begin leaves the running session's channel in place.
	_ = l.Begin(func() {}, "second")
	if l.Done() != done {
		t.Error("refused Begin replaced Done()")
	}

	close(done)
	_ = l.TransitionTo(StateStopping, "stop")
	_ = l.TransitionTo(StateIdle, "stopped")
	if l.Done() != done {
		t.Error("returning to Idle replaced Done()")
	}
}

func TestLifecycle_Begin_WhileStopping(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)
	l.state = StateStopping

	if err := l.Begin(func() {}, "test"); err != domain.ErrAlreadyRunning {
		t.Errorf("Begin() error = %v, want ErrAlreadyRunning", err)
	}
	if l.State() != StateStopping {
		t.Errorf("state = %v, want Stopping", l.State())
	}
}

func TestLifecycle_IdleClearsCancel(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	var calls atomic.Int32
	_ = l.Begin(func() { calls.Add(1) }, "test")
	_ = l.TransitionTo(StateStopping, "test")
	_ = l.TransitionTo(StateIdle, "test")

	l.Cancel()
	if calls.Load() != 0 {
		t.Errorf("cancel called %d times after returning to Idle", calls.Load())
	}
}

func TestLifecycle_CanStart(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateIdle, true},
		{StateRunning, false},
		{StateStopping, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.state

			got := l.CanStart()
			if got != tt.want {
				t.Errorf("CanStart() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLifecycle_CanStop(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateIdle, false},
		{StateRunning, true},
		{StateStopping, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.state

			got := l.CanStop()
			if got != tt.want {
				t.Errorf("CanStop() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLifecycle_Cancel_NilSafe(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	// Should not panic when cancel is nil
	l.Cancel()
}

func TestLifecycle_ConcurrentBegin(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	const callers = 32
	var (
		wg      sync.WaitGroup
		started atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Begin(func() {}, "race") == nil {
				started.Add(1)
			}
			_ = l.State()
			_ = l.CanStart()
		}()
	}
	wg.Wait()

	if started.Load() != 1 {
		t.Errorf("%d callers left Idle, want exactly 1", started.Load())
	}
}
