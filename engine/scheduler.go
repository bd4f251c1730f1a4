package engine

import (
	"time"

	"github.com/lixenwraith/skyfight/parameter"
)

// Scheduler converts variable wall-clock deltas into whole fixed steps
// Not goroutine-safe, owned by a Session
type Scheduler struct {
	step        time.Duration
	maxSubsteps int
	maxCarry    time.Duration

	accumulator time.Duration
}

// NewScheduler creates an accumulator for the given step
// maxSubsteps bounds ticks per Advance, maxCarrySteps bounds leftover time in steps
func NewScheduler(step time.Duration, maxSubsteps, maxCarrySteps int) *Scheduler {
	if step <= 0 {
		step = parameter.FixedStep
	}
	if maxSubsteps < 1 {
		maxSubsteps = parameter.MaxSubsteps
	}
	if maxCarrySteps < 1 {
		maxCarrySteps = parameter.MaxAccumulatedSteps
	}
	return &Scheduler{
		step:        step,
		maxSubsteps: maxSubsteps,
		maxCarry:    time.Duration(maxCarrySteps) * step,
	}
}

// Step returns the fixed step duration
func (s *Scheduler) Step() time.Duration {
	return s.step
}

// Accumulator returns the carried-over time
func (s *Scheduler) Accumulator() time.Duration {
	return s.accumulator
}

// Advance adds dt and runs tick once per whole step, at most maxSubsteps times
// Leftover beyond maxCarry is discarded and returned as dropped: a stall shows up
// as a time skip instead of an unbounded catch-up
func (s *Scheduler) Advance(dt time.Duration, tick func()) (substeps int, dropped time.Duration) {
	if dt > 0 {
		s.accumulator += dt
	}

	for s.accumulator >= s.step && substeps < s.maxSubsteps {
		tick()
		s.accumulator -= s.step
		substeps++
	}

	if s.accumulator > s.maxCarry {
		dropped = s.accumulator - s.maxCarry
		s.accumulator = s.maxCarry
	}
	return substeps, dropped
}

// Reset clears carried-over time
func (s *Scheduler) Reset() {
	s.accumulator = 0
}
