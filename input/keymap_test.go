package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatchHoldsUntilExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	l := NewLatch(100 * time.Millisecond)

	l.Press(ControlForward|ControlYawLeft, now)
	s := l.Sample(7, now.Add(50*time.Millisecond))
	assert.True(t, s.Forward)
	assert.True(t, s.YawLeft)
	assert.False(t, s.Backward)
	assert.Equal(t, uint64(7), s.Tick)
	assert.Equal(t, now.Add(50*time.Millisecond).UnixMilli(), s.Timestamp)

	// Repeat refreshes only the pressed control
	l.Press(ControlForward, now.Add(80*time.Millisecond))
	held := l.Held(now.Add(150 * time.Millisecond))
	assert.Equal(t, ControlForward, held)

	assert.Zero(t, l.Held(now.Add(time.Second)))
}

func TestLatchRelease(t *testing.T) {
	now := time.Now()
	l := NewLatch(time.Second)
	l.Press(ControlPitchUp|ControlRollRight, now)
	l.Release()
	assert.Zero(t, l.Held(now))
}

func TestDefaultKeyMapCoversEveryControl(t *testing.T) {
	var all Control
	actions := map[Action]bool{}
	for _, b := range DefaultKeyMap() {
		all |= b.Control
		actions[b.Action] = true
	}
	assert.Equal(t, Control(1<<12-1), all)
	for _, a := range []Action{ActionQuit, ActionSwitchVehicle, ActionFire, ActionRespawn, ActionToggleMute} {
		assert.True(t, actions[a], "action %d unbound", a)
	}
}
