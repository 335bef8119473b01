package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/slither/internal/clock"
	"github.com/bft-labs/slither/internal/domain"
	"github.com/bft-labs/slither/internal/gait"
	"github.com/bft-labs/slither/internal/ports"
)

// DefaultPoseSettle is how long a pose link stays open after its frame is sent.
const DefaultPoseSettle = 50 * time.Millisecond

// SupervisorConfig contains configuration for the session supervisor.
type SupervisorConfig struct {
	// MotorEndpoint receives gait frames.
	MotorEndpoint string

	// PoseEndpoint receives single-value pose frames.
	PoseEndpoint string

	Tick       time.Duration
	PoseSettle time.Duration

	// Poses maps a pose name to its angle.
	Poses map[string]int

	Profile domain.Profile
}

// SessionInfo describes a running session.
type SessionInfo struct {
	ID        string
	Kind      domain.GaitKind
	Endpoint  string
	StartedAt time.Time
}

// Status is a snapshot of the supervisor.
type Status struct {
	State   State
	Session *SessionInfo

	// Frames is the number of frames the current session has sent.
	Frames uint64
}

// SessionEndedEvent is emitted once per session after the supervisor is
// back in StateIdle. Err is nil for a requested stop.
type SessionEndedEvent struct {
	Session  SessionInfo
	Frames   uint64
	Duration time.Duration
	Err      error
}

// EventHandler receives supervisor notifications. Calls are synchronous
// and must return quickly.
type EventHandler interface {
	EventEmitter
	OnSessionEnded(event SessionEndedEvent)
}

// Supervisor arbitrates gait sessions: at most one runs at any instant.
// All methods are safe for concurrent use.
type Supervisor struct {
	config    SupervisorConfig
	dialer    ports.Dialer
	clock     clock.Clock
	logger    ports.Logger
	events    EventHandler
	lifecycle *Lifecycle

	mu      sync.Mutex
	profile domain.Profile
	current *SessionInfo
	session *Session
}

// NewSupervisor creates a supervisor in StateIdle. The configuration must
// already be validated; events may be nil.
func NewSupervisor(
	config SupervisorConfig,
	dialer ports.Dialer,
	clk clock.Clock,
	logger ports.Logger,
	events EventHandler,
) *Supervisor {
	if config.Tick <= 0 {
		config.Tick = DefaultTick
	}
	if config.PoseSettle < 0 {
		config.PoseSettle = 0
	}

	var emitter EventEmitter
	if events != nil {
		emitter = events
	}

	return &Supervisor{
		config:    config,
		dialer:    dialer,
		clock:     clk,
		logger:    logger,
		events:    events,
		lifecycle: NewLifecycle(logger, emitter),
		profile:   config.Profile.Clone(),
	}
}

// Start launches a session for kind. It returns ErrAlreadyRunning without
// touching the state if a session is Running or Stopping. Link failures
// are reported through OnSessionEnded, not here.
func (s *Supervisor) Start(kind domain.GaitKind) (SessionInfo, error) {
	s.mu.Lock()
	profile := s.profile
	s.mu.Unlock()

	fn, norm, err := gait.ForKind(kind, profile)
	if err != nil {
		return SessionInfo{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.lifecycle.Begin(cancel, fmt.Sprintf("start %s", kind)); err != nil {
		cancel()
		return SessionInfo{}, err
	}
	// Only this session's run goroutine can return to Idle, and it has not
	// been launched yet, so Done is still ours.
	done := s.lifecycle.Done()

	info := SessionInfo{
		ID:        uuid.NewString(),
		Kind:      kind,
		Endpoint:  s.config.MotorEndpoint,
		StartedAt: s.clock.Now(),
	}
	session := NewSession(SessionConfig{
		ID:       info.ID,
		Kind:     kind,
		Endpoint: s.config.MotorEndpoint,
		Tick:     s.config.Tick,
	}, fn, norm, s.dialer, s.clock, s.logger)

	s.mu.Lock()
	s.current = &info
	s.session = session
	s.mu.Unlock()

	go s.run(ctx, cancel, info, session, done)
	return info, nil
}

func (s *Supervisor) run(ctx context.Context, cancel context.CancelFunc, info SessionInfo, session *Session, done chan struct{}) {
	defer close(done)

	err := session.Run(ctx)
	cancel()

	reason := "session stopped"
	if err != nil {
		reason = err.Error()
		s.logger.Error("session ended with error",
			ports.String("session", info.ID),
			ports.Err(err),
		)
	}

	// A link failure arrives while still Running; a Stop() has already
	// moved the state to Stopping.
	if s.lifecycle.State() == StateRunning {
		_ = s.lifecycle.TransitionTo(StateStopping, reason)
	}

	s.mu.Lock()
	s.current = nil
	s.session = nil
	s.mu.Unlock()

	if err := s.lifecycle.TransitionTo(StateIdle, reason); err != nil {
		s.logger.Error("failed to return to idle", ports.Err(err))
	}

	if s.events != nil {
		s.events.OnSessionEnded(SessionEndedEvent{
			Session:  info,
			Frames:   session.Frames(),
			Duration: s.clock.Since(info.StartedAt),
			Err:      err,
		})
	}
}

// Stop requests the running session to end. It returns ErrNotRunning when
// Idle and is a no-op while already Stopping. Stop does not wait for the
// link to close; use Wait for that.
func (s *Supervisor) Stop() error {
	err := s.lifecycle.TransitionTo(StateStopping, "Stop() called")
	switch {
	case err == nil:
		s.lifecycle.Cancel()
		return nil
	case errors.Is(err, domain.ErrNotRunning):
		return domain.ErrNotRunning
	default:
		// Already stopping.
		return nil
	}
}

// Wait blocks until the current session (if any) has exited and the
// supervisor is Idle, or ctx is done.
func (s *Supervisor) Wait(ctx context.Context) error {
	select {
	case <-s.lifecycle.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops any session and waits up to timeout for it to exit.
func (s *Supervisor) Shutdown(timeout time.Duration) error {
	if err := s.Stop(); err != nil && !errors.Is(err, domain.ErrNotRunning) {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		s.logger.Warn("shutdown timeout, abandoning session",
			ports.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
	return nil
}

// SetPose sends one pose frame over a short-lived link to the pose
// endpoint. It is independent of any streaming session.
func (s *Supervisor) SetPose(ctx context.Context, name string) error {
	angle, ok := s.config.Poses[name]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownPose, name)
	}

	link, err := s.dialer.Dial(ctx, s.config.PoseEndpoint)
	if err != nil {
		s.logger.Error("pose link failed", ports.String("pose", name), ports.Err(err))
		return err
	}

	sendErr := link.Send(domain.EncodePose(angle))
	if sendErr == nil && s.config.PoseSettle > 0 {
		timer := s.clock.NewTimer(s.config.PoseSettle)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C():
		}
	}
	closeErr := link.Close()

	if sendErr != nil {
		s.logger.Error("pose send failed", ports.String("pose", name), ports.Err(sendErr))
		return sendErr
	}
	if closeErr != nil {
		s.logger.Warn("pose link close failed", ports.String("pose", name), ports.Err(closeErr))
	}

	s.logger.Info("pose sent",
		ports.String("pose", name),
		ports.Int("angle", angle),
		ports.String("endpoint", s.config.PoseEndpoint),
	)
	return nil
}

// Status returns a snapshot of the supervisor state.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{State: s.lifecycle.State()}
	if s.current != nil {
		info := *s.current
		st.Session = &info
	}
	if s.session != nil {
		st.Frames = s.session.Frames()
	}
	return st
}

// Profile returns a copy of the profile the next session will use.
func (s *Supervisor) Profile() domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

// UpdateProfile replaces the gait parameters for sessions started after
// this call. A running session keeps the parameters it started with.
func (s *Supervisor) UpdateProfile(p domain.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.profile = p.Clone()
	s.mu.Unlock()

	s.logger.Info("gait profile updated", ports.Int("joints", p.Joints.Len()))
	return nil
}

// PoseNames returns the configured pose names.
func (s *Supervisor) PoseNames() []string {
	names := make([]string, 0, len(s.config.Poses))
	for name := range s.config.Poses {
		names = append(names, name)
	}
	return names
}
