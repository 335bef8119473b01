package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bft-labs/slither/internal/clock"
	"github.com/bft-labs/slither/internal/domain"
	"github.com/bft-labs/slither/internal/gait"
)

func newTestSession(t *testing.T, kind domain.GaitKind, dialer *fakeDialer, clk clock.Clock) (*Session, gait.Function, gait.Normalizer) {
	t.Helper()
	fn, norm, err := gait.ForKind(kind, domain.DefaultProfile())
	if err != nil {
		t.Fatalf("ForKind() error = %v", err)
	}
	s := NewSession(SessionConfig{
		ID:       "test",
		Kind:     kind,
		Endpoint: "motor:8080",
		Tick:     DefaultTick,
	}, fn, norm, dialer, clk, mockLogger{})
	return s, fn, norm
}

func TestSessionState_String(t *testing.T) {
	tests := []struct {
		state SessionState
		want  string
	}{
		{SessionOpening, "Opening"},
		{SessionStreaming, "Streaming"},
		{SessionClosed, "Closed"},
		{SessionState(7), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("SessionState(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestSession_StreamsOneFramePerTick(t *testing.T) {
	clk := clock.NewMock(time.Unix(0, 0))
	dialer := &fakeDialer{}
	s, fn, norm := newTestSession(t, domain.Serpentine, dialer, clk)

	if s.State() != SessionOpening {
		t.Fatalf("initial state = %v, want Opening", s.State())
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	for i := 1; i <= 4; i++ {
		waitFor(t, "tick timer", func() bool { return clk.Pending() == 1 && s.Frames() == uint64(i) })
		if i < 4 {
			clk.Advance(DefaultTick)
		}
	}
	if s.State() != SessionStreaming {
		t.Errorf("state while streaming = %v, want Streaming", s.State())
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run() error = %v, want nil after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	links := dialer.Links()
	if len(links) != 1 {
		t.Fatalf("dialed %d links, want 1", len(links))
	}
	got := links[0].Frames()
	if len(got) != 4 {
		t.Fatalf("sent %d frames, want 4", len(got))
	}
	if got[0] != "90,70,142,60,38,90\r\n" {
		t.Errorf("first frame = %q", got[0])
	}
	for i, frame := range got {
		want := string(gait.Compute(fn, norm, time.Duration(i)*DefaultTick).Encode())
		if frame != want {
			t.Errorf("frame %d = %q, want %q", i, frame, want)
		}
	}
	if !links[0].closed.Load() {
		t.Error("link not closed after cancel")
	}
	if s.State() != SessionClosed {
		t.Errorf("final state = %v, want Closed", s.State())
	}
}

func TestSession_CancelBeforeFirstTick(t *testing.T) {
	clk := clock.NewMock(time.Unix(0, 0))
	dialer := &fakeDialer{}
	s, _, _ := newTestSession(t, domain.Sidewinding, dialer, clk)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.Frames() != 0 {
		t.Errorf("Frames() = %d, want 0", s.Frames())
	}
	if s.State() != SessionClosed {
		t.Errorf("state = %v, want Closed", s.State())
	}
}

func TestSession_SendFailureClosesLink(t *testing.T) {
	clk := clock.NewMock(time.Unix(0, 0))
	dialer := &fakeDialer{failAfter: 2}
	s, _, _ := newTestSession(t, domain.Serpentine, dialer, clk)

	errc := make(chan error, 1)
	go func() { errc <- s.Run(context.Background()) }()

	waitFor(t, "first tick", func() bool { return clk.Pending() == 1 })
	clk.Advance(DefaultTick)
	waitFor(t, "second tick", func() bool { return clk.Pending() == 1 && s.Frames() == 2 })
	clk.Advance(DefaultTick)

	var err error
	select {
	case err = <-errc:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after send failure")
	}

	if !errors.Is(err, domain.ErrConnection) {
		t.Errorf("Run() error = %v, want ErrConnection", err)
	}
	if !errors.Is(err, errBrokenPipe) {
		t.Errorf("Run() error = %v, want cause preserved", err)
	}
	if s.State() != SessionClosed {
		t.Errorf("state = %v, want Closed", s.State())
	}
	if !dialer.Links()[0].closed.Load() {
		t.Error("broken link was not closed")
	}
}

func TestSession_DialFailure(t *testing.T) {
	clk := clock.NewMock(time.Unix(0, 0))
	dialer := &fakeDialer{err: errors.New("connection refused")}
	s, _, _ := newTestSession(t, domain.Serpentine, dialer, clk)

	err := s.Run(context.Background())
	var ce *domain.ConnectionError
	if !errors.As(err, &ce) || ce.Op != "dial" {
		t.Fatalf("Run() error = %v, want dial ConnectionError", err)
	}
	if s.State() != SessionClosed {
		t.Errorf("state = %v, want Closed", s.State())
	}
}

func TestSession_DialCanceled(t *testing.T) {
	clk := clock.NewMock(time.Unix(0, 0))
	dialer := &fakeDialer{block: true}
	s, _, _ := newTestSession(t, domain.Serpentine, dialer, clk)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run() error = %v, want nil for a canceled dial", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
