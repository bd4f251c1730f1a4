package vehicle

import "github.com/lixenwraith/skyfight/vmath"

// PID is a single-axis controller with a clamped integral
// Derivative acts on the measured rate, so retargeting causes no kick
type PID struct {
	Kp, Ki, Kd    float64
	IntegralLimit float64

	integral float64
}

// Step returns the correction for error e with measured rate of change rate
func (p *PID) Step(e, rate, dt float64) float64 {
	p.integral += e * dt
	if p.IntegralLimit > 0 {
		p.integral = vmath.Clamp(p.integral, -p.IntegralLimit, p.IntegralLimit)
	}
	return p.Kp*e + p.Ki*p.integral - p.Kd*rate
}

func (p *PID) Integral() float64 {
	return p.integral
}

func (p *PID) Reset() {
	p.integral = 0
}
