package input

import (
	"errors"
	"fmt"
	"time"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/parameter"
)

var (
	// ErrStaleInput rejects samples older than the latency allowance
	ErrStaleInput = errors.New("stale input")
	// ErrFutureInput rejects samples stamped beyond the allowance ahead of server time
	ErrFutureInput = errors.New("input from the future")
)

// Gate is the transport-side staleness check applied before AddInput
// Allowance is Budget + rtt/2 so high-latency peers are not starved
type Gate struct {
	Budget time.Duration
}

// NewGate creates a gate, budget <= 0 uses the default
func NewGate(budget time.Duration) Gate {
	if budget <= 0 {
		budget = parameter.InputLatencyBudget
	}
	return Gate{Budget: budget}
}

// Allowance returns the maximum accepted sample age for a peer with the given rtt
func (g Gate) Allowance(rtt time.Duration) time.Duration {
	if rtt < 0 {
		rtt = 0
	}
	return g.Budget + rtt/2
}

// Admit checks s against server wall time now
func (g Gate) Admit(s core.InputSample, now time.Time, rtt time.Duration) error {
	allow := g.Allowance(rtt)
	age := time.Duration(now.UnixMilli()-s.Timestamp) * time.Millisecond
	switch {
	case age > allow:
		return fmt.Errorf("%w: tick %d age %v > %v", ErrStaleInput, s.Tick, age, allow)
	case -age > allow:
		return fmt.Errorf("%w: tick %d ahead by %v", ErrFutureInput, s.Tick, -age)
	}
	return nil
}
