package vmath

import (
	"math"
)

// Vec3 is a float64 3D vector used by all simulation state
// Y is world-up, -Z is the body forward axis
type Vec3 struct {
	X, Y, Z float64
}

// Axis constants in body and world frames
var (
	Zero    = Vec3{}
	WorldUp = Vec3{0, 1, 0}
	Forward = Vec3{0, 0, -1}
	Right   = Vec3{1, 0, 0}
	Up      = Vec3{0, 1, 0}
)

func V3Add(a, b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func V3Sub(a, b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func V3Scale(v Vec3, s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// V3AddScaled returns a + b*s without an intermediate vector
func V3AddScaled(a, b Vec3, s float64) Vec3 {
	return Vec3{a.X + b.X*s, a.Y + b.Y*s, a.Z + b.Z*s}
}

func V3Dot(a, b Vec3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func V3Cross(a, b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

func V3MagSq(v Vec3) float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func V3Mag(v Vec3) float64 {
	return math.Sqrt(V3MagSq(v))
}

// V3Normalize returns the unit vector, zero-safe
func V3Normalize(v Vec3) Vec3 {
	mag := V3Mag(v)
	if mag == 0 {
		return Vec3{}
	}
	inv := 1.0 / mag
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}
}

// V3ClampMagnitude limits vector magnitude, maxMag <= 0 disables the clamp
func V3ClampMagnitude(v Vec3, maxMag float64) Vec3 {
	if maxMag <= 0 {
		return v
	}
	magSq := V3MagSq(v)
	if magSq <= maxMag*maxMag {
		return v
	}
	return V3Scale(v, maxMag/math.Sqrt(magSq))
}

// V3Reflect mirrors v about the plane with unit normal n
func V3Reflect(v, n Vec3) Vec3 {
	d := 2 * V3Dot(v, n)
	return Vec3{v.X - d*n.X, v.Y - d*n.Y, v.Z - d*n.Z}
}

// V3ProjectPlane removes the component of v along unit normal n
func V3ProjectPlane(v, n Vec3) Vec3 {
	return V3AddScaled(v, n, -V3Dot(v, n))
}

func V3Lerp(a, b Vec3, t float64) Vec3 {
	return Vec3{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t, a.Z + (b.Z-a.Z)*t}
}

// V3Near reports whether all components differ by at most eps
func V3Near(a, b Vec3, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps && math.Abs(a.Z-b.Z) <= eps
}

// V3IsFinite rejects NaN and Inf components
func V3IsFinite(v Vec3) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsNaN(v.Z) &&
		!math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0) && !math.IsInf(v.Z, 0)
}
