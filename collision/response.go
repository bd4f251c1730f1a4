package collision

import (
	"math"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/parameter"
	"github.com/lixenwraith/skyfight/physics"
	"github.com/lixenwraith/skyfight/vmath"
)

// Restitution returns the bounce factor for heavy impacts of type t, 0 when none applies
func Restitution(t core.CollisionType) float64 {
	switch t {
	case core.VehicleEnvironment:
		return parameter.RestitutionEnvironment
	case core.VehicleVehicle:
		return parameter.RestitutionVehicle
	}
	return 0
}

// Respond applies the heavy-impact bounce to body, one side of ev
// The normal component becomes the impact speed × restitution pointing away from
// the other body, tangential velocity is kept, and random spin proportional to
// the impact is added. Returns false when ev does not warrant a response
func Respond(body *physics.Body, ev core.CollisionEvent, rng *vmath.FastRand) bool {
	if ev.Severity != core.SeverityHeavy || body.Type != physics.Dynamic {
		return false
	}
	e := Restitution(ev.Type)
	if e == 0 {
		return false
	}

	away := ev.Normal
	if body.Index == ev.BodyA.Index {
		away = vmath.V3Scale(away, -1)
	}

	impact := math.Abs(ev.ImpactVelocity)
	tangential := vmath.V3ProjectPlane(body.Velocity, away)
	body.Velocity = vmath.V3AddScaled(tangential, away, impact*e)

	spin := rng.UnitVec3()
	body.AngularVelocity = vmath.V3AddScaled(body.AngularVelocity, spin, impact*parameter.AngularImpulseScale)
	return true
}
