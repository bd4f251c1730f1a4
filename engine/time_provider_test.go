package engine

import (
	"testing"
	"time"

	"github.com/lixenwraith/skyfight/parameter"
)

func TestMonotonicTimeProvider(t *testing.T) {
	provider := NewMonotonicTimeProvider()

	t1 := provider.Now()
	time.Sleep(5 * time.Millisecond)
	t2 := provider.Now()

	if d := t2.Sub(t1); d < 5*time.Millisecond {
		t.Errorf("expected at least 5ms difference, got %v", d)
	}
}

func TestMockTimeProvider(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock := NewMockTimeProvider(start)

	if !mock.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", mock.Now(), start)
	}

	mock.Advance(time.Second)
	if d := mock.AdvanceTicks(3); d != 3*parameter.FixedStep {
		t.Errorf("AdvanceTicks(3) = %v", d)
	}
	want := start.Add(time.Second + 3*parameter.FixedStep)
	if !mock.Now().Equal(want) {
		t.Errorf("Now() = %v, want %v", mock.Now(), want)
	}

	mock.SetTime(start)
	if !mock.Now().Equal(start) {
		t.Error("SetTime did not rewind")
	}
}

var (
	_ TimeProvider = (*MonotonicTimeProvider)(nil)
	_ TimeProvider = (*MockTimeProvider)(nil)
	_ Updater      = (*Session)(nil)
)
