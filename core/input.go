package core

import "math"

// MouseDelta is a continuous look input in device units
type MouseDelta struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// InputSample is one client control frame, immutable once enqueued
type InputSample struct {
	Tick      uint64 `json:"tick" msgpack:"tick"`
	Timestamp int64  `json:"timestamp" msgpack:"ts"`

	Forward   bool `json:"forward" msgpack:"f"`
	Backward  bool `json:"backward" msgpack:"b"`
	Left      bool `json:"left" msgpack:"l"`
	Right     bool `json:"right" msgpack:"r"`
	Up        bool `json:"up" msgpack:"u"`
	Down      bool `json:"down" msgpack:"d"`
	PitchUp   bool `json:"pitchUp" msgpack:"pu"`
	PitchDown bool `json:"pitchDown" msgpack:"pd"`
	YawLeft   bool `json:"yawLeft" msgpack:"yl"`
	YawRight  bool `json:"yawRight" msgpack:"yr"`
	RollLeft  bool `json:"rollLeft" msgpack:"rl"`
	RollRight bool `json:"rollRight" msgpack:"rr"`

	// MouseDelta is optional, nil means no look input
	MouseDelta *MouseDelta `json:"mouseDelta,omitempty" msgpack:"m,omitempty"`
}

// IdleSample is the synthetic all-false input applied when nothing new arrived
func IdleSample(tick uint64) InputSample {
	return InputSample{Tick: tick}
}

// Mouse returns the look delta, zero when absent or non-finite
func (s InputSample) Mouse() (x, y float64) {
	if s.MouseDelta == nil {
		return 0, 0
	}
	x, y = s.MouseDelta.X, s.MouseDelta.Y
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0
	}
	return x, y
}

// Axis maps a pair of opposing flags to -1, 0, or 1
func Axis(pos, neg bool) float64 {
	switch {
	case pos && !neg:
		return 1
	case neg && !pos:
		return -1
	}
	return 0
}

// IsIdle reports whether no control is active
func (s InputSample) IsIdle() bool {
	mx, my := s.Mouse()
	return !s.Forward && !s.Backward && !s.Left && !s.Right && !s.Up && !s.Down &&
		!s.PitchUp && !s.PitchDown && !s.YawLeft && !s.YawRight &&
		!s.RollLeft && !s.RollRight && mx == 0 && my == 0
}
