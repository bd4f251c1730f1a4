package vehicle

import (
	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/physics"
	"github.com/lixenwraith/skyfight/vmath"
)

// Controller converts inputs into body velocity changes for one vehicle
// All methods are called from the tick loop only
type Controller interface {
	// Update applies one input sample over dt seconds, before the world step
	Update(dt float64, in core.InputSample)
	// State exports transform plus tick metadata
	State() core.VehicleState
	// SetState imports transform plus tick metadata
	SetState(core.VehicleState)
	// Cleanup removes the body from the world, idempotent
	Cleanup()

	ID() core.VehicleID
	Kind() core.Kind
	Team() core.Team
	Body() *physics.Body

	Health() float64
	ApplyDamage(amount float64) float64
}

// New builds the controller for cfg.Kind and inserts its body into world
func New(world *physics.World, id core.VehicleID, team core.Team, cfg Config, spawn core.Transform) (Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	body := physics.NewSphere(id, core.GroupForKind(cfg.Kind), cfg.Common.Radius, cfg.Common.Mass)
	body.SetTransform(spawn)
	world.Add(body)

	b := base{
		id:     id,
		team:   team,
		kind:   cfg.Kind,
		world:  world,
		body:   body,
		common: cfg.Common,
		health: cfg.Common.Health,
	}

	switch cfg.Kind {
	case core.KindDrone:
		return newDrone(b, *cfg.Drone), nil
	default:
		return newPlane(b, *cfg.Plane), nil
	}
}

// base carries what every kind shares
type base struct {
	id     core.VehicleID
	team   core.Team
	kind   core.Kind
	world  *physics.World
	body   *physics.Body
	common BodyParams
	meta   core.TickMeta
	health float64
}

func (b *base) ID() core.VehicleID  { return b.id }
func (b *base) Kind() core.Kind     { return b.kind }
func (b *base) Team() core.Team     { return b.team }
func (b *base) Body() *physics.Body { return b.body }
func (b *base) Health() float64     { return b.health }

// ApplyDamage subtracts amount, floored at zero, and returns remaining health
func (b *base) ApplyDamage(amount float64) float64 {
	if amount > 0 {
		b.health = max(b.health-amount, 0)
	}
	return b.health
}

func (b *base) State() core.VehicleState {
	return core.VehicleState{Transform: b.body.Transform(), TickMeta: b.meta}
}

func (b *base) setState(st core.VehicleState) {
	b.body.SetTransform(st.Transform)
	b.meta = st.TickMeta
}

func (b *base) Cleanup() {
	if b.body.Alive() {
		b.world.Remove(b.body)
	}
}

// clampMotion enforces the configured speed limits
func (b *base) clampMotion() {
	b.body.Velocity = vmath.V3ClampMagnitude(b.body.Velocity, b.common.MaxSpeed)
	b.body.AngularVelocity = vmath.V3ClampMagnitude(b.body.AngularVelocity, b.common.MaxAngularSpeed)
}

// horizontalAxes returns the body forward and right projected on the ground plane
// Falls back to world axes when the projection degenerates (nose straight up or down)
func (b *base) horizontalAxes() (forward, right vmath.Vec3) {
	forward = vmath.V3Normalize(vmath.V3ProjectPlane(b.body.Forward(), vmath.WorldUp))
	if forward == vmath.Zero {
		forward = vmath.Forward
	}
	right = vmath.V3Cross(forward, vmath.WorldUp)
	return forward, right
}
