package config

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/slither/internal/domain"
	"github.com/bft-labs/slither/internal/ports"
)

type mockLogger struct {
	mu    sync.Mutex
	warns []string
}

func (*mockLogger) Debug(string, ...ports.Field) {}
func (*mockLogger) Info(string, ...ports.Field)  {}
func (m *mockLogger) Warn(msg string, _ ...ports.Field) {
	m.mu.Lock()
	m.warns = append(m.warns, msg)
	m.mu.Unlock()
}
func (*mockLogger) Error(string, ...ports.Field) {}

func TestProfileWatcher_Reload(t *testing.T) {
	path := writeConfig(t, "[serpentine]\nomega = 3.5\n")

	var got []domain.Profile
	w := NewProfileWatcher(path, domain.DefaultProfile(), func(p domain.Profile) error {
		got = append(got, p)
		return nil
	}, &mockLogger{})

	if err := w.Reload(); err != nil {
		t.Fatalf("Reload() = %v", err)
	}
	if len(got) != 1 || got[0].Serpentine.Omega != 3.5 {
		t.Fatalf("applied profiles = %+v", got)
	}
}

func TestProfileWatcher_InvalidReloadIsIgnored(t *testing.T) {
	path := writeConfig(t, "[serpentine]\nactive_joints = 0\n")
	logger := &mockLogger{}

	applied := false
	w := NewProfileWatcher(path, domain.DefaultProfile(), func(domain.Profile) error {
		applied = true
		return nil
	}, logger)

	if err := w.Reload(); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("Reload() = %v, want ErrInvalidConfig", err)
	}
	if applied {
		t.Error("invalid profile was applied")
	}
	if len(logger.warns) != 1 {
		t.Errorf("warnings = %v, want one", logger.warns)
	}
}

func TestProfileWatcher_RunPicksUpWrites(t *testing.T) {
	path := writeConfig(t, "[serpentine]\namplitude = 60\n")

	applied := make(chan domain.Profile, 8)
	w := NewProfileWatcher(path, domain.DefaultProfile(), func(p domain.Profile) error {
		applied <- p
		return nil
	}, &mockLogger{})
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Rewrite until the watcher is registered and sees a change.
	deadline := time.After(3 * time.Second)
	for {
		if err := os.WriteFile(path, []byte("[serpentine]\namplitude = 45\n"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
		select {
		case p := <-applied:
			if p.Serpentine.Amplitude != 45 {
				t.Fatalf("Amplitude = %v, want 45", p.Serpentine.Amplitude)
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Run() = %v", err)
			}
			return
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("watcher never reloaded the profile")
		}
	}
}
