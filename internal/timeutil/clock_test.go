package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	past := time.Now().Add(-time.Second)

	if d := clock.Since(past); d < time.Second {
		t.Errorf("Since() returned %v, expected >= 1s", d)
	}
}

func TestMockClock_SetAndAdvance(t *testing.T) {
	start := time.Date(2025, 6, 23, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	if !clock.Now().Equal(start) {
		t.Fatal("expected Now to return the initial time")
	}

	clock.Advance(90 * time.Second)
	if got := clock.Since(start); got != 90*time.Second {
		t.Errorf("Since = %v, want 90s", got)
	}

	later := start.Add(time.Hour)
	clock.Set(later)
	if !clock.Now().Equal(later) {
		t.Error("Set did not take effect")
	}
}

func TestMockClock_AutoAdvance(t *testing.T) {
	start := time.Date(2025, 6, 23, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)
	clock.AutoAdvance(time.Second)

	first := clock.Now()
	second := clock.Now()
	if second.Sub(first) != time.Second {
		t.Errorf("expected successive Now calls one second apart, got %v", second.Sub(first))
	}
	if clock.Since(start) != 2*time.Second {
		t.Errorf("Since = %v, want 2s", clock.Since(start))
	}
}

func TestClockInterface(t *testing.T) {
	var _ Clock = RealClock{}
	var _ Clock = NewMockClock(time.Time{})
}
