package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bft-labs/slither/internal/domain"
	"github.com/bft-labs/slither/internal/ports"
)

var errBrokenPipe = errors.New("broken pipe")

// fakeLink records every payload it is asked to send.
type fakeLink struct {
	endpoint string

	mu     sync.Mutex
	frames []string

	// failAfter makes Send fail once this many frames went through; 0 never fails.
	failAfter int
	closed    atomic.Bool
}

func (l *fakeLink) Send(p []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed.Load() {
		return &domain.ConnectionError{Op: "send", Endpoint: l.endpoint, Err: errors.New("closed")}
	}
	if l.failAfter > 0 && len(l.frames) >= l.failAfter {
		return &domain.ConnectionError{Op: "send", Endpoint: l.endpoint, Err: errBrokenPipe}
	}
	l.frames = append(l.frames, string(p))
	return nil
}

func (l *fakeLink) Close() error {
	l.closed.Store(true)
	return nil
}

func (l *fakeLink) Frames() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.frames...)
}

// fakeDialer hands out fakeLinks and remembers them.
type fakeDialer struct {
	mu    sync.Mutex
	links []*fakeLink

	// err is returned from Dial when set.
	err error

	// block makes Dial wait for ctx to be canceled.
	block bool

	// failAfter is copied into every new link.
	failAfter int
}

func (d *fakeDialer) Dial(ctx context.Context, endpoint string) (ports.Link, error) {
	if d.block {
		<-ctx.Done()
		return nil, &domain.ConnectionError{Op: "dial", Endpoint: endpoint, Err: ctx.Err()}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, &domain.ConnectionError{Op: "dial", Endpoint: endpoint, Err: d.err}
	}
	l := &fakeLink{endpoint: endpoint, failAfter: d.failAfter}
	d.links = append(d.links, l)
	return l, nil
}

func (d *fakeDialer) Links() []*fakeLink {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeLink(nil), d.links...)
}

func (d *fakeDialer) setFailAfter(n int) {
	d.mu.Lock()
	d.failAfter = n
	d.mu.Unlock()
}

// waitFor polls cond until it holds or the test deadline of two seconds expires.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
