package physics

import (
	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/vmath"
)

// BodyType selects how the solver treats a body
type BodyType uint8

const (
	// Dynamic bodies integrate gravity and velocity and receive impulses
	Dynamic BodyType = iota
	// Static bodies never move
	Static
)

// Shape is the collision primitive of a body
type Shape uint8

const (
	ShapeSphere Shape = iota
	// ShapePlane is an infinite horizontal plane at Position.Y with normal +Y
	ShapePlane
)

// Body is a rigid body owned by the World arena
// Index and Owner are the body's user data: O(1) lookup back to the owning vehicle
type Body struct {
	Index int
	Owner core.VehicleID
	Group core.Group

	Type   BodyType
	Shape  Shape
	Radius float64
	Mass   float64

	// GravityScale multiplies world gravity, 0 disables it
	GravityScale float64

	// Sensor bodies report contacts but are never resolved
	Sensor bool

	// TTL counts steps until automatic removal, 0 means unlimited
	TTL int

	Position        vmath.Vec3
	Orientation     vmath.Quat
	Velocity        vmath.Vec3
	AngularVelocity vmath.Vec3

	alive bool
}

// Ref returns the event-facing reference to b
func (b *Body) Ref() core.BodyRef {
	return core.BodyRef{Index: b.Index, Owner: b.Owner, Group: b.Group}
}

// Alive reports whether the body is still in its world
func (b *Body) Alive() bool {
	return b != nil && b.alive
}

// InverseMass is zero for static or massless bodies
func (b *Body) InverseMass() float64 {
	if b.Type != Dynamic || b.Mass <= 0 {
		return 0
	}
	return 1.0 / b.Mass
}

// Up returns the body-space up axis in world space
func (b *Body) Up() vmath.Vec3 {
	return vmath.QRotate(b.Orientation, vmath.Up)
}

// Forward returns the body-space forward axis (-Z) in world space
func (b *Body) Forward() vmath.Vec3 {
	return vmath.QRotate(b.Orientation, vmath.Forward)
}

// Right returns the body-space right axis in world space
func (b *Body) Right() vmath.Vec3 {
	return vmath.QRotate(b.Orientation, vmath.Right)
}

// Transform copies the kinematic state
func (b *Body) Transform() core.Transform {
	return core.Transform{
		Position:        b.Position,
		Orientation:     b.Orientation,
		LinearVelocity:  b.Velocity,
		AngularVelocity: b.AngularVelocity,
	}
}

// SetTransform overwrites the kinematic state, orientation is renormalized
func (b *Body) SetTransform(t core.Transform) {
	b.Position = t.Position
	b.Orientation = vmath.QNormalize(t.Orientation)
	b.Velocity = t.LinearVelocity
	b.AngularVelocity = t.AngularVelocity
}

// NewSphere returns a dynamic sphere body with unit gravity scale
func NewSphere(owner core.VehicleID, group core.Group, radius, mass float64) *Body {
	return &Body{
		Owner:        owner,
		Group:        group,
		Type:         Dynamic,
		Shape:        ShapeSphere,
		Radius:       radius,
		Mass:         mass,
		GravityScale: 1,
		Orientation:  vmath.QIdentity,
	}
}
