package core

import "github.com/lixenwraith/skyfight/vmath"

// CollisionType classifies what a vehicle touched
type CollisionType uint8

const (
	VehicleEnvironment CollisionType = iota
	VehicleVehicle
	VehicleProjectile
	VehicleFlag
)

func (t CollisionType) String() string {
	switch t {
	case VehicleVehicle:
		return "vehicle_vehicle"
	case VehicleEnvironment:
		return "vehicle_environment"
	case VehicleProjectile:
		return "vehicle_projectile"
	case VehicleFlag:
		return "vehicle_flag"
	}
	return "unknown"
}

// Severity is the impact tier derived from normal impact speed
type Severity uint8

const (
	SeverityLight Severity = iota
	SeverityMedium
	SeverityHeavy
)

func (s Severity) String() string {
	switch s {
	case SeverityLight:
		return "light"
	case SeverityMedium:
		return "medium"
	case SeverityHeavy:
		return "heavy"
	}
	return "unknown"
}

// BodyRef identifies a rigid body by arena slot, with its owning vehicle if any
type BodyRef struct {
	Index int
	Owner VehicleID
	Group Group
}

// CollisionEvent is one classified contact
type CollisionEvent struct {
	BodyA          BodyRef
	BodyB          BodyRef
	Type           CollisionType
	Severity       Severity
	ImpactVelocity float64
	ContactPoint   vmath.Vec3
	// Normal points from BodyA toward BodyB
	Normal    vmath.Vec3
	Timestamp int64
}

// Involves reports whether id owns either body
func (e CollisionEvent) Involves(id VehicleID) bool {
	return id != "" && (e.BodyA.Owner == id || e.BodyB.Owner == id)
}

// Other returns the body opposite to the one owned by id
func (e CollisionEvent) Other(id VehicleID) BodyRef {
	if e.BodyA.Owner == id {
		return e.BodyB
	}
	return e.BodyA
}
