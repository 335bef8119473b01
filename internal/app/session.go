package app

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bft-labs/slither/internal/clock"
	"github.com/bft-labs/slither/internal/domain"
	"github.com/bft-labs/slither/internal/gait"
	"github.com/bft-labs/slither/internal/ports"
)

// DefaultTick is the interval between frames.
const DefaultTick = 50 * time.Millisecond

// SessionState is the state of one streaming session.
type SessionState int32

const (
	SessionOpening SessionState = iota
	SessionStreaming
	SessionClosed
)

// String returns a human-readable representation of the state.
func (s SessionState) String() string {
	switch s {
	case SessionOpening:
		return "Opening"
	case SessionStreaming:
		return "Streaming"
	case SessionClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// SessionConfig contains configuration for one streaming session.
type SessionConfig struct {
	ID       string
	Kind     domain.GaitKind
	Endpoint string
	Tick     time.Duration
}

// Session streams one gait over one link until its context is canceled
// or the link fails. A Session runs once.
type Session struct {
	config SessionConfig
	fn     gait.Function
	norm   gait.Normalizer
	dialer ports.Dialer
	clock  clock.Clock
	logger ports.Logger

	state  atomic.Int32
	frames atomic.Uint64
}

// NewSession creates a session in SessionOpening.
func NewSession(
	config SessionConfig,
	fn gait.Function,
	norm gait.Normalizer,
	dialer ports.Dialer,
	clk clock.Clock,
	logger ports.Logger,
) *Session {
	if config.Tick <= 0 {
		config.Tick = DefaultTick
	}
	return &Session{
		config: config,
		fn:     fn,
		norm:   norm,
		dialer: dialer,
		clock:  clk,
		logger: logger,
	}
}

// State returns the current session state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Frames returns the number of frames sent so far.
func (s *Session) Frames() uint64 {
	return s.frames.Load()
}

// Run opens the link and streams frames, one per tick, until ctx is
// canceled (returns nil) or the link fails (returns a *domain.ConnectionError).
// Cancellation is observed at the top of every tick and while waiting for
// the next one, so a stop takes effect within one tick period.
func (s *Session) Run(ctx context.Context) error {
	link, err := s.dialer.Dial(ctx, s.config.Endpoint)
	if err != nil {
		s.state.Store(int32(SessionClosed))
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer s.close(link)

	s.state.Store(int32(SessionStreaming))
	s.logger.Info("session streaming",
		ports.String("session", s.config.ID),
		ports.String("gait", string(s.config.Kind)),
		ports.String("endpoint", s.config.Endpoint),
		ports.Duration("tick", s.config.Tick),
	)

	start := s.clock.Now()
	for {
		if ctx.Err() != nil {
			return nil
		}

		tickStart := s.clock.Now()
		// Phase depends on absolute elapsed time, not tick count, so send
		// latency never accumulates into drift.
		frame := gait.Compute(s.fn, s.norm, s.clock.Since(start))
		if err := link.Send(frame.Encode()); err != nil {
			s.logger.Error("send failed",
				ports.String("session", s.config.ID),
				ports.Uint64("frames", s.frames.Load()),
				ports.Err(err),
			)
			return err
		}
		s.frames.Add(1)
		s.logger.Debug("frame sent", ports.String("frame", frame.String()))

		wait := s.config.Tick - s.clock.Since(tickStart)
		if wait <= 0 {
			continue
		}
		timer := s.clock.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C():
		}
	}
}

// close releases the link unconditionally; a broken link is closed too.
func (s *Session) close(link ports.Link) {
	if err := link.Close(); err != nil {
		s.logger.Warn("link close failed",
			ports.String("session", s.config.ID),
			ports.Err(err),
		)
	}
	s.state.Store(int32(SessionClosed))
}
