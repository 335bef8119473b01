package actuator

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/bft-labs/slither/internal/domain"
	"github.com/bft-labs/slither/internal/ports"
)

// Simulator plays the servo controller: it accepts links, decodes frames
// and records the duty each servo would be driven with. Joints beyond
// Servos are ignored, as on the board.
type Simulator struct {
	servos int
	logger ports.Logger

	mu    sync.Mutex
	duty  []uint16
	last  domain.Frame
	onFrm func(domain.Frame)

	frames atomic.Uint64
	errors atomic.Uint64
}

// NewSimulator creates a simulator driving servos outputs.
func NewSimulator(servos int, logger ports.Logger) *Simulator {
	return &Simulator{
		servos: servos,
		logger: logger,
		duty:   make([]uint16, servos),
	}
}

// OnFrame registers fn to be called with every decoded frame.
func (s *Simulator) OnFrame(fn func(domain.Frame)) {
	s.mu.Lock()
	s.onFrm = fn
	s.mu.Unlock()
}

// Serve accepts connections on ln until ctx is done. Each connection is
// handled on its own goroutine.
func (s *Simulator) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.logger.Info("simulator listening", ports.String("addr", ln.Addr().String()))

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.logger.Info("client connected", ports.String("remote", conn.RemoteAddr().String()))
			if err := s.ServeStream(ctx, conn); err != nil {
				s.logger.Warn("client stream ended", ports.Err(err))
			}
			s.logger.Info("client disconnected", ports.String("remote", conn.RemoteAddr().String()))
		}()
	}
}

// ServeStream decodes frames from rw until EOF or ctx is done, then closes rw.
// It is used for accepted TCP connections and for an open serial port.
func (s *Simulator) ServeStream(ctx context.Context, rw io.ReadCloser) error {
	stop := context.AfterFunc(ctx, func() { rw.Close() })
	defer stop()
	defer rw.Close()

	dec := NewDecoder(rw)
	for {
		frame, err := dec.Next()
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				s.errors.Add(1)
				s.logger.Warn("bad frame", ports.String("line", pe.Line), ports.Err(pe.Err))
				continue
			}
			if errors.Is(err, io.EOF) || ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.apply(frame)
	}
}

func (s *Simulator) apply(frame domain.Frame) {
	s.mu.Lock()
	for i, angle := range frame {
		if i >= s.servos {
			break
		}
		s.duty[i] = DutyU16(angle)
	}
	s.last = append(s.last[:0], frame...)
	fn := s.onFrm
	s.mu.Unlock()

	n := s.frames.Add(1)
	s.logger.Debug("frame applied",
		ports.String("frame", frame.String()),
		ports.Duration("pulse0", PulseWidth(frame[0])),
		ports.Uint64("n", n),
	)
	if fn != nil {
		fn(frame)
	}
}

// Duty returns a copy of the duty currently applied to each servo.
func (s *Simulator) Duty() []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint16(nil), s.duty...)
}

// Last returns the most recently applied frame.
func (s *Simulator) Last() domain.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(domain.Frame(nil), s.last...)
}

// Frames returns the number of frames applied.
func (s *Simulator) Frames() uint64 { return s.frames.Load() }

// ParseErrors returns the number of lines rejected.
func (s *Simulator) ParseErrors() uint64 { return s.errors.Load() }
