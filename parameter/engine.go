package parameter

import "time"

// Simulation Loop Timing
const (
	// TickRate is the authoritative simulation rate in Hz
	TickRate = 60

	// FixedStep is the duration of one simulation tick
	FixedStep = time.Second / TickRate

	// FixedStepSeconds is FixedStep as float seconds, the dt passed to controllers
	FixedStepSeconds = 1.0 / TickRate

	// MaxSubsteps bounds ticks executed per external update call
	MaxSubsteps = 3

	// MaxAccumulatedSteps bounds carried-over time after a stall, excess wall time is dropped
	MaxAccumulatedSteps = 3

	// ClockFrameInterval is the wall-clock cadence of the scheduler driver
	ClockFrameInterval = 8 * time.Millisecond
)

// World Defaults
const (
	// Gravity is the downward acceleration in m/s²
	Gravity = 9.81

	// GroundLevel is the Y coordinate of the ground plane
	GroundLevel = 0.0

	// DefaultSessionSeed seeds collision impulse jitter when none is configured
	DefaultSessionSeed = 0x5EED5EED
)
