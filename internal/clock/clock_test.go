package clock

import (
	"testing"
	"time"
)

func TestReal_Since(t *testing.T) {
	c := Real{}
	past := c.Now().Add(-time.Second)
	if d := c.Since(past); d < time.Second {
		t.Errorf("Since() returned %v, expected >= 1s", d)
	}
}

func TestReal_NewTimer(t *testing.T) {
	timer := Real{}.NewTimer(10 * time.Millisecond)
	defer timer.Stop()

	select {
	case <-timer.C():
	case <-time.After(time.Second):
		t.Error("timer did not fire")
	}
}

func TestMock_AdvanceFiresTimer(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMock(start)
	timer := c.NewTimer(50 * time.Millisecond)

	if c.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", c.Pending())
	}

	c.Advance(49 * time.Millisecond)
	select {
	case <-timer.C():
		t.Fatal("timer fired early")
	default:
	}

	c.Advance(time.Millisecond)
	select {
	case got := <-timer.C():
		if !got.Equal(start.Add(50 * time.Millisecond)) {
			t.Errorf("fired at %v", got)
		}
	default:
		t.Fatal("timer did not fire at its deadline")
	}

	if c.Pending() != 0 {
		t.Errorf("Pending() = %d after fire, want 0", c.Pending())
	}
	if c.Since(start) != 50*time.Millisecond {
		t.Errorf("Since(start) = %v", c.Since(start))
	}
}

func TestMock_StoppedTimerDoesNotFire(t *testing.T) {
	c := NewMock(time.Time{})
	timer := c.NewTimer(time.Millisecond)

	if !timer.Stop() {
		t.Error("Stop() = false for an active timer")
	}
	c.Advance(time.Second)

	select {
	case <-timer.C():
		t.Error("stopped timer fired")
	default:
	}
	if timer.Stop() {
		t.Error("second Stop() = true")
	}
}

func TestMock_ZeroDurationFiresImmediately(t *testing.T) {
	c := NewMock(time.Time{})
	timer := c.NewTimer(0)

	select {
	case <-timer.C():
	default:
		t.Error("zero-duration timer did not fire")
	}
}
