package vehicle

import (
	"math"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/vmath"
)

// Drone is a multirotor: altitude-hold thrust along body-up, velocity-additive
// translation on the horizontal body axes and self-leveling roll
type Drone struct {
	base
	params DroneParams

	pid            PID
	targetAltitude float64
}

func newDrone(b base, p DroneParams) *Drone {
	return &Drone{
		base:   b,
		params: p,
		pid: PID{
			Kp:            p.Kp,
			Ki:            p.Ki,
			Kd:            p.Kd,
			IntegralLimit: p.IntegralLimit,
		},
		targetAltitude: b.body.Position.Y,
	}
}

// TargetAltitude is the height the PID holds
func (d *Drone) TargetAltitude() float64 {
	return d.targetAltitude
}

// Integral exposes the PID integral term
func (d *Drone) Integral() float64 {
	return d.pid.Integral()
}

func (d *Drone) Update(dt float64, in core.InputSample) {
	body := d.body
	p := &d.params

	d.rotate(in)
	d.level()

	// Horizontal translation, additive on velocity
	fwd, right := d.horizontalAxes()
	if a := core.Axis(in.Forward, in.Backward); a != 0 {
		body.Velocity = vmath.V3AddScaled(body.Velocity, fwd, a*p.MoveAccel*dt)
	}
	if a := core.Axis(in.Right, in.Left); a != 0 {
		body.Velocity = vmath.V3AddScaled(body.Velocity, right, a*p.MoveAccel*dt)
	}

	if a := core.Axis(in.Up, in.Down); a != 0 {
		d.targetAltitude += a * p.ClimbRate * dt
	}

	// Altitude hold: base thrust plus PID correction, both along body-up
	correction := d.pid.Step(d.targetAltitude-body.Position.Y, body.Velocity.Y, dt)
	accel := (p.BaseThrust + correction) / d.common.Mass
	body.Velocity = vmath.V3AddScaled(body.Velocity, body.Up(), accel*dt)

	body.Velocity = vmath.V3Scale(body.Velocity, 1-p.LinearDrag)
	body.AngularVelocity = vmath.V3Scale(body.AngularVelocity, p.AngularDamping)

	d.clampMotion()
}

// rotate applies key torques as angular velocity increments and mouse look as
// direct orientation changes, then enforces the pitch limit
func (d *Drone) rotate(in core.InputSample) {
	body := d.body
	p := &d.params

	if a := core.Axis(in.PitchUp, in.PitchDown); a != 0 {
		body.AngularVelocity = vmath.V3AddScaled(body.AngularVelocity, body.Right(), a*p.TurnRate)
	}
	if a := core.Axis(in.YawLeft, in.YawRight); a != 0 {
		body.AngularVelocity = vmath.V3AddScaled(body.AngularVelocity, vmath.WorldUp, a*p.TurnRate)
	}
	// Positive rotation about body forward (-Z) drops the right side
	if a := core.Axis(in.RollRight, in.RollLeft); a != 0 {
		body.AngularVelocity = vmath.V3AddScaled(body.AngularVelocity, body.Forward(), a*p.TurnRate)
	}

	mx, my := in.Mouse()
	if mx != 0 || my != 0 {
		q := body.Orientation
		q = vmath.QMul(vmath.QFromAxisAngle(vmath.WorldUp, -mx*p.MouseSensitivity), q)
		q = vmath.QMul(q, vmath.QFromAxisAngle(vmath.Right, -my*p.MouseSensitivity))
		body.Orientation = vmath.QNormalize(q)
	}

	pitch, yaw, roll := vmath.QToEuler(body.Orientation)
	if p.PitchLimit > 0 && math.Abs(pitch) > p.PitchLimit {
		body.Orientation = vmath.QFromEuler(vmath.Clamp(pitch, -p.PitchLimit, p.PitchLimit), yaw, roll)
		// Drop the pitch component of spin so the clamp holds next step
		body.AngularVelocity = vmath.V3ProjectPlane(body.AngularVelocity, body.Right())
	}
}

// level adds corrective spin when the body tilts off world-up: roll about body
// forward while the right wing leaves the horizon, pitch about body right while
// the nose does
func (d *Drone) level() {
	body := d.body
	p := &d.params

	pitch, _, roll := vmath.QToEuler(body.Orientation)
	if math.Abs(roll) > p.LevelingThreshold {
		tilt := math.Asin(vmath.Clamp(body.Right().Y, -1, 1))
		body.AngularVelocity = vmath.V3AddScaled(body.AngularVelocity, body.Forward(), p.LevelingGain*tilt)
	}
	// Positive spin about body right raises the nose
	if math.Abs(pitch) > p.LevelingThreshold {
		nose := math.Asin(vmath.Clamp(body.Forward().Y, -1, 1))
		body.AngularVelocity = vmath.V3AddScaled(body.AngularVelocity, body.Right(), -p.LevelingGain*nose)
	}
}

// SetState imports st, retargeting altitude hold when the position moves
func (d *Drone) SetState(st core.VehicleState) {
	moved := !vmath.V3Near(st.Position, d.body.Position, 1e-9)
	d.setState(st)
	if moved {
		d.targetAltitude = st.Position.Y
		d.pid.Reset()
	}
}
