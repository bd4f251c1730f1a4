package vehicle

import (
	"math"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/vmath"
)

// Plane is a fixed-wing aircraft. Control authority, lift and effective weight
// all scale with flight influence, which grows with forward airspeed
// The influence mass cut is applied to gravity too (Body.GravityScale), so a
// fast plane falls slower than free-fall; lift constants are tuned against that
// Forward is throttle, Backward is brake
type Plane struct {
	base
	params PlaneParams

	enginePower float64
	lastDrag    float64
	lastLift    float64
	influence   float64
}

func newPlane(b base, p PlaneParams) *Plane {
	return &Plane{base: b, params: p}
}

// EnginePower is the throttle state in [0, 1]
func (pl *Plane) EnginePower() float64 { return pl.enginePower }

// LastLift is the lift velocity increment applied by the previous Update
func (pl *Plane) LastLift() float64 { return pl.lastLift }

// Influence is the flight-mode influence computed by the previous Update
func (pl *Plane) Influence() float64 { return pl.influence }

func (pl *Plane) Update(dt float64, in core.InputSample) {
	body := pl.body
	p := &pl.params

	throttle, brake := in.Forward, in.Backward
	switch {
	case throttle && !brake:
		pl.enginePower = math.Min(pl.enginePower+p.ThrottleRate, 1)
	case brake && !throttle:
		pl.enginePower = math.Max(pl.enginePower-p.ThrottleRate, 0)
	}

	forward := body.Forward()
	up := body.Up()
	right := body.Right()

	speed := vmath.V3Mag(body.Velocity)
	forwardSpeed := vmath.V3Dot(body.Velocity, forward)

	pl.influence = 0
	if p.InfluenceSpeed > 0 {
		pl.influence = vmath.Clamp(forwardSpeed/p.InfluenceSpeed, 0, 1)
	}
	inf := pl.influence

	// Airborne planes shed effective weight: lighter in collisions and under gravity
	shed := 1 - p.MassReduction*inf
	body.Mass = pl.common.Mass * shed
	body.GravityScale = shed

	pitchUp := in.PitchUp || in.Up
	pitchDown := in.PitchDown || in.Down
	rollLeft := in.RollLeft || in.Left
	rollRight := in.RollRight || in.Right

	w := body.AngularVelocity
	if a := core.Axis(pitchUp, pitchDown); a != 0 {
		w = vmath.V3AddScaled(w, right, a*p.PitchTorque*inf)
	}
	if a := core.Axis(in.YawLeft, in.YawRight); a != 0 {
		w = vmath.V3AddScaled(w, up, a*p.YawTorque*inf)
	}
	if a := core.Axis(rollRight, rollLeft); a != 0 {
		w = vmath.V3AddScaled(w, forward, a*p.RollTorque*inf)
	}
	if mx, my := in.Mouse(); mx != 0 || my != 0 {
		w = vmath.V3AddScaled(w, up, -mx*p.MouseSensitivity*inf)
		w = vmath.V3AddScaled(w, right, -my*p.MouseSensitivity*inf)
	}

	// Weathercocking: nose follows the velocity vector, except in a powered pull-up
	if speed > p.WeathercockSpeed && !(throttle && pitchUp) {
		heading := vmath.V3Scale(body.Velocity, 1/speed)
		w = vmath.V3AddScaled(w, vmath.V3Cross(forward, heading), p.WeathercockGain*inf*dt)
	}

	body.AngularVelocity = vmath.V3Scale(w, 1-p.AngularDampingFactor*inf)

	v := body.Velocity

	pl.lastLift = 0
	if forwardSpeed > p.MinLiftSpeed {
		pl.lastLift = vmath.Clamp(math.Pow(speed, p.LiftExponent)*pl.enginePower*p.LiftFactor, 0, p.MaxLift)
		v = vmath.V3AddScaled(v, up, pl.lastLift)
	}

	drag := math.Min(speed*p.DragFactor*pl.enginePower, 1)
	v = vmath.V3AddScaled(v, v, -drag)
	pl.lastDrag = drag

	modifier := p.ThrustCruise
	switch {
	case throttle && !brake:
		modifier = p.ThrustClimb
	case brake && !throttle:
		modifier = p.ThrustDescend
	}
	v = vmath.V3AddScaled(v, forward, (speed*pl.lastDrag+modifier)*pl.enginePower)

	body.Velocity = v
	pl.clampMotion()
}

func (pl *Plane) SetState(st core.VehicleState) {
	pl.setState(st)
}
