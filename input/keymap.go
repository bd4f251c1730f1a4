package input

import (
	"time"

	"github.com/lixenwraith/skyfight/core"
)

// Control is one held flight control, a bit in a Controls set
type Control uint16

const (
	ControlForward Control = 1 << iota
	ControlBackward
	ControlLeft
	ControlRight
	ControlUp
	ControlDown
	ControlPitchUp
	ControlPitchDown
	ControlYawLeft
	ControlYawRight
	ControlRollLeft
	ControlRollRight
)

// Action is a one-shot command that is not part of an InputSample
type Action uint8

const (
	ActionNone Action = iota
	ActionQuit
	ActionSwitchVehicle
	ActionFire
	ActionRespawn
	ActionToggleMute
)

// Binding is what a key does: hold a control or trigger an action
type Binding struct {
	Control Control
	Action  Action
}

// KeyMap maps runes to bindings; named keys are bound by the terminal layer
type KeyMap map[rune]Binding

// DefaultKeyMap binds WASD for throttle and yaw, IJKL for pitch and roll, R/F for lift
func DefaultKeyMap() KeyMap {
	return KeyMap{
		'w': {Control: ControlForward},
		's': {Control: ControlBackward},
		'a': {Control: ControlYawLeft},
		'd': {Control: ControlYawRight},
		'q': {Control: ControlLeft},
		'e': {Control: ControlRight},
		'r': {Control: ControlUp},
		'f': {Control: ControlDown},
		'i': {Control: ControlPitchDown},
		'k': {Control: ControlPitchUp},
		'j': {Control: ControlRollLeft},
		'l': {Control: ControlRollRight},

		' ':  {Action: ActionFire},
		'\t': {Action: ActionSwitchVehicle},
		'n':  {Action: ActionRespawn},
		'm':  {Action: ActionToggleMute},
		'x':  {Action: ActionQuit},
	}
}

// Latch turns key presses into held controls
// Terminals report presses and repeats but no releases, so a control stays
// held until hold elapses without another press
type Latch struct {
	hold    time.Duration
	expires [16]time.Time
}

// NewLatch holds each control for hold after its last press
func NewLatch(hold time.Duration) *Latch {
	return &Latch{hold: hold}
}

// Press refreshes every control bit in c
func (l *Latch) Press(c Control, now time.Time) {
	for bit := 0; bit < len(l.expires); bit++ {
		if c&(1<<bit) != 0 {
			l.expires[bit] = now.Add(l.hold)
		}
	}
}

// Release drops every held control
func (l *Latch) Release() {
	l.expires = [16]time.Time{}
}

// Held returns the set of controls still held at now
func (l *Latch) Held(now time.Time) Control {
	var c Control
	for bit, exp := range l.expires {
		if now.Before(exp) {
			c |= 1 << bit
		}
	}
	return c
}

// Sample builds the input frame for tick from controls held at now
func (l *Latch) Sample(tick uint64, now time.Time) core.InputSample {
	c := l.Held(now)
	return core.InputSample{
		Tick:      tick,
		Timestamp: now.UnixMilli(),
		Forward:   c&ControlForward != 0,
		Backward:  c&ControlBackward != 0,
		Left:      c&ControlLeft != 0,
		Right:     c&ControlRight != 0,
		Up:        c&ControlUp != 0,
		Down:      c&ControlDown != 0,
		PitchUp:   c&ControlPitchUp != 0,
		PitchDown: c&ControlPitchDown != 0,
		YawLeft:   c&ControlYawLeft != 0,
		YawRight:  c&ControlYawRight != 0,
		RollLeft:  c&ControlRollLeft != 0,
		RollRight: c&ControlRollRight != 0,
	}
}
