package collision

import (
	"math"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/parameter"
)

// Classify derives the collision type from the two body groups
// Order-independent: only the union of groups is inspected
func Classify(a, b core.Group) core.CollisionType {
	union := a | b
	switch {
	case union&core.GroupGround != 0:
		return core.VehicleEnvironment
	case union&core.GroupProjectile != 0:
		return core.VehicleProjectile
	case union&core.GroupFlag != 0:
		return core.VehicleFlag
	case a.IsVehicle() && b.IsVehicle():
		return core.VehicleVehicle
	}
	return core.VehicleEnvironment
}

// SeverityOf tiers the impact speed along the contact normal
func SeverityOf(impactVelocity float64) core.Severity {
	v := math.Abs(impactVelocity)
	switch {
	case v >= parameter.SeverityHeavyThreshold:
		return core.SeverityHeavy
	case v >= parameter.SeverityMediumThreshold:
		return core.SeverityMedium
	}
	return core.SeverityLight
}

// Damage returns the health cost of a severity tier
func Damage(s core.Severity) float64 {
	switch s {
	case core.SeverityHeavy:
		return parameter.DamageHeavy
	case core.SeverityMedium:
		return parameter.DamageMedium
	}
	return 0
}
