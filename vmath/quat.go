package vmath

import (
	"math"
)

// Quat is a unit rotation quaternion, W is the scalar part
type Quat struct {
	X, Y, Z, W float64
}

// QIdentity is the zero rotation
var QIdentity = Quat{0, 0, 0, 1}

func QMul(a, b Quat) Quat {
	return Quat{
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y,
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X,
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W,
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z,
	}
}

func QConjugate(q Quat) Quat {
	return Quat{-q.X, -q.Y, -q.Z, q.W}
}

// QNormalize returns the unit quaternion, identity for a degenerate input
func QNormalize(q Quat) Quat {
	mag := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if mag == 0 || math.IsNaN(mag) {
		return QIdentity
	}
	inv := 1.0 / mag
	return Quat{q.X * inv, q.Y * inv, q.Z * inv, q.W * inv}
}

// QFromAxisAngle builds a rotation of angle radians about axis (need not be unit)
func QFromAxisAngle(axis Vec3, angle float64) Quat {
	n := V3Normalize(axis)
	if n == (Vec3{}) {
		return QIdentity
	}
	s, c := math.Sincos(angle * 0.5)
	return Quat{n.X * s, n.Y * s, n.Z * s, c}
}

// QRotate applies q to v
// Uses the t = 2(q.xyz × v) expansion, avoids building a matrix
func QRotate(q Quat, v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := V3Scale(V3Cross(u, v), 2)
	return V3Add(V3AddScaled(v, t, q.W), V3Cross(u, t))
}

// QIntegrate advances orientation by world-frame angular velocity w over dt
func QIntegrate(q Quat, w Vec3, dt float64) Quat {
	angle := V3Mag(w) * dt
	if angle == 0 {
		return q
	}
	return QNormalize(QMul(QFromAxisAngle(w, angle), q))
}

// QFromEuler composes yaw (Y), pitch (X) and roll (Z) in YXZ order
func QFromEuler(pitch, yaw, roll float64) Quat {
	qy := QFromAxisAngle(Up, yaw)
	qx := QFromAxisAngle(Right, pitch)
	qz := QFromAxisAngle(Vec3{0, 0, 1}, roll)
	return QMul(QMul(qy, qx), qz)
}

// QToEuler decomposes q into YXZ angles (pitch about X, yaw about Y, roll about Z)
func QToEuler(q Quat) (pitch, yaw, roll float64) {
	x, y, z, w := q.X, q.Y, q.Z, q.W

	// Rotation matrix terms needed for YXZ extraction
	m11 := 1 - 2*(y*y+z*z)
	m13 := 2 * (x*z + y*w)
	m21 := 2 * (x*y + z*w)
	m22 := 1 - 2*(x*x+z*z)
	m23 := 2 * (y*z - x*w)
	m31 := 2 * (x*z - y*w)
	m33 := 1 - 2*(x*x+y*y)

	pitch = math.Asin(-Clamp(m23, -1, 1))
	if math.Abs(m23) < 0.9999999 {
		yaw = math.Atan2(m13, m33)
		roll = math.Atan2(m21, m22)
	} else {
		yaw = math.Atan2(-m31, m11)
		roll = 0
	}
	return pitch, yaw, roll
}

// QAngle returns the rotation angle between two orientations
func QAngle(a, b Quat) float64 {
	d := math.Abs(a.X*b.X + a.Y*b.Y + a.Z*b.Z + a.W*b.W)
	return 2 * math.Acos(Clamp(d, -1, 1))
}
