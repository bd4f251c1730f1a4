package physics

import (
	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/parameter"
	"github.com/lixenwraith/skyfight/vmath"
)

// Contact is a began-touching event produced by one Step
type Contact struct {
	A, B *Body
	// Normal is the unit vector from A toward B
	Normal vmath.Vec3
	Point  vmath.Vec3
	Depth  float64
	// ImpactVelocity is the closing speed along Normal before resolution
	ImpactVelocity float64
}

type pairKey struct {
	lo, hi int
}

func makePair(a, b int) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// World is a minimal rigid-body world: spheres and a ground plane, begin-contact events
// Not goroutine-safe, owned by one session tick loop
type World struct {
	Gravity     vmath.Vec3
	Restitution float64

	bodies []*Body
	free   []int

	touching     map[pairKey]struct{}
	nextTouching map[pairKey]struct{}
	contacts     []Contact
}

// NewWorld creates an empty world with the given gravity vector
func NewWorld(gravity vmath.Vec3) *World {
	return &World{
		Gravity:      gravity,
		Restitution:  parameter.SolverRestitution,
		bodies:       make([]*Body, 0, 64),
		touching:     make(map[pairKey]struct{}),
		nextTouching: make(map[pairKey]struct{}),
	}
}

// Add inserts b into the arena and assigns its Index
// Freed slots are reused lowest-first so identical op sequences yield identical indices
func (w *World) Add(b *Body) *Body {
	if b.Orientation == (vmath.Quat{}) {
		b.Orientation = vmath.QIdentity
	}
	if n := len(w.free); n > 0 {
		idx := w.free[n-1]
		w.free = w.free[:n-1]
		b.Index = idx
		w.bodies[idx] = b
	} else {
		b.Index = len(w.bodies)
		w.bodies = append(w.bodies, b)
	}
	b.alive = true
	return b
}

// AddGround inserts a static ground plane at the given height
func (w *World) AddGround(level float64) *Body {
	return w.Add(&Body{
		Group:       core.GroupGround,
		Type:        Static,
		Shape:       ShapePlane,
		Position:    vmath.Vec3{Y: level},
		Orientation: vmath.QIdentity,
	})
}

// AddObstacle inserts a static sphere in the environment group
func (w *World) AddObstacle(pos vmath.Vec3, radius float64) *Body {
	b := &Body{
		Group:       core.GroupEnvironment,
		Type:        Static,
		Shape:       ShapeSphere,
		Radius:      radius,
		Position:    pos,
		Orientation: vmath.QIdentity,
	}
	return w.Add(b)
}

// Remove detaches b, no-op for bodies not in this world
func (w *World) Remove(b *Body) {
	if !b.Alive() || b.Index < 0 || b.Index >= len(w.bodies) || w.bodies[b.Index] != b {
		return
	}
	idx := b.Index
	w.bodies[idx] = nil
	b.alive = false

	// Keep free list sorted descending so pops return the lowest slot
	pos := len(w.free)
	for i, f := range w.free {
		if f < idx {
			pos = i
			break
		}
	}
	w.free = append(w.free, 0)
	copy(w.free[pos+1:], w.free[pos:])
	w.free[pos] = idx

	for k := range w.touching {
		if k.lo == idx || k.hi == idx {
			delete(w.touching, k)
		}
	}
}

// Body returns the live body at arena index
func (w *World) Body(index int) (*Body, bool) {
	if index < 0 || index >= len(w.bodies) || w.bodies[index] == nil {
		return nil, false
	}
	return w.bodies[index], true
}

// Len returns the number of live bodies
func (w *World) Len() int {
	return len(w.bodies) - len(w.free)
}

// Contacts returns contacts that began during the last Step
// The slice is reused by the next Step
func (w *World) Contacts() []Contact {
	return w.contacts
}

// Step advances the world by dt seconds
func (w *World) Step(dt float64) {
	w.contacts = w.contacts[:0]
	if dt <= 0 {
		return
	}

	w.integrate(dt)
	w.collide()
	w.expire()
}

func (w *World) integrate(dt float64) {
	for _, b := range w.bodies {
		if b == nil || b.Type != Dynamic {
			continue
		}
		if b.GravityScale != 0 {
			b.Velocity = vmath.V3AddScaled(b.Velocity, w.Gravity, b.GravityScale*dt)
		}
		b.Position = vmath.V3AddScaled(b.Position, b.Velocity, dt)
		b.Orientation = vmath.QIntegrate(b.Orientation, b.AngularVelocity, dt)
	}
}

func (w *World) collide() {
	clear(w.nextTouching)

	n := len(w.bodies)
	for i := 0; i < n; i++ {
		a := w.bodies[i]
		if a == nil {
			continue
		}
		for j := i + 1; j < n; j++ {
			b := w.bodies[j]
			if b == nil {
				continue
			}
			if a.Type != Dynamic && b.Type != Dynamic {
				continue
			}
			if !a.Group.Interacts(b.Group) {
				continue
			}

			normal, depth, point, ok := narrowphase(a, b)
			if !ok {
				continue
			}

			key := makePair(a.Index, b.Index)
			w.nextTouching[key] = struct{}{}

			impact := vmath.V3Dot(vmath.V3Sub(a.Velocity, b.Velocity), normal)
			if _, was := w.touching[key]; !was {
				w.contacts = append(w.contacts, Contact{
					A:              a,
					B:              b,
					Normal:         normal,
					Point:          point,
					Depth:          depth,
					ImpactVelocity: impact,
				})
			}

			if a.Sensor || b.Sensor {
				continue
			}
			SeparateOverlap(a, b, normal, depth, parameter.OverlapMargin)
			ElasticCollision(a, b, normal, w.Restitution)
		}
	}

	w.touching, w.nextTouching = w.nextTouching, w.touching
}

// narrowphase dispatches on shape pair, normal always points a→b
func narrowphase(a, b *Body) (vmath.Vec3, float64, vmath.Vec3, bool) {
	switch {
	case a.Shape == ShapeSphere && b.Shape == ShapeSphere:
		return sphereSphere(a, b)
	case a.Shape == ShapePlane && b.Shape == ShapeSphere:
		return planeSphere(a, b)
	case a.Shape == ShapeSphere && b.Shape == ShapePlane:
		n, depth, point, ok := planeSphere(b, a)
		return vmath.V3Scale(n, -1), depth, point, ok
	}
	return vmath.Vec3{}, 0, vmath.Vec3{}, false
}

func (w *World) expire() {
	for _, b := range w.bodies {
		if b == nil || b.TTL <= 0 {
			continue
		}
		b.TTL--
		if b.TTL == 0 {
			w.Remove(b)
		}
	}
}
