package physics

import (
	"math"

	"github.com/lixenwraith/skyfight/vmath"
)

// ElasticCollision applies the normal impulse between two dynamic bodies in place
// n is the unit normal from a toward b. Returns false when already separating
func ElasticCollision(a, b *Body, n vmath.Vec3, restitution float64) bool {
	rel := vmath.V3Sub(a.Velocity, b.Velocity)
	vn := vmath.V3Dot(rel, n)
	if vn <= 0 {
		return false
	}

	invA := a.InverseMass()
	invB := b.InverseMass()
	invSum := invA + invB
	if invSum == 0 {
		return false
	}

	j := (1.0 + restitution) * vn / invSum

	a.Velocity = vmath.V3AddScaled(a.Velocity, n, -j*invA)
	b.Velocity = vmath.V3AddScaled(b.Velocity, n, j*invB)
	return true
}

// SeparateOverlap pushes two bodies apart along n by depth, split by inverse mass
func SeparateOverlap(a, b *Body, n vmath.Vec3, depth float64, margin float64) bool {
	if depth <= 0 {
		return false
	}
	invA := a.InverseMass()
	invB := b.InverseMass()
	invSum := invA + invB
	if invSum == 0 {
		return false
	}

	push := depth + margin
	a.Position = vmath.V3AddScaled(a.Position, n, -push*invA/invSum)
	b.Position = vmath.V3AddScaled(b.Position, n, push*invB/invSum)
	return true
}

// sphereSphere tests two spheres, returning normal a→b, depth and contact point
func sphereSphere(a, b *Body) (n vmath.Vec3, depth float64, point vmath.Vec3, ok bool) {
	delta := vmath.V3Sub(b.Position, a.Position)
	distSq := vmath.V3MagSq(delta)
	minDist := a.Radius + b.Radius
	if distSq >= minDist*minDist {
		return n, 0, point, false
	}

	dist := math.Sqrt(distSq)
	if dist == 0 {
		// Coincident centers, pick a stable axis
		n = vmath.WorldUp
	} else {
		n = vmath.V3Scale(delta, 1.0/dist)
	}
	depth = minDist - dist
	point = vmath.V3AddScaled(a.Position, n, a.Radius-depth*0.5)
	return n, depth, point, true
}

// planeSphere tests a ground plane against a sphere, normal points plane→sphere
func planeSphere(plane, sphere *Body) (n vmath.Vec3, depth float64, point vmath.Vec3, ok bool) {
	height := sphere.Position.Y - plane.Position.Y
	if height >= sphere.Radius {
		return n, 0, point, false
	}
	n = vmath.WorldUp
	depth = sphere.Radius - height
	point = vmath.Vec3{X: sphere.Position.X, Y: plane.Position.Y, Z: sphere.Position.Z}
	return n, depth, point, true
}
