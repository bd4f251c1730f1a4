package parameter

import "math"

// Drone flight model defaults
const (
	DroneMass            = 2.5
	DroneRadius          = 0.6
	DroneBaseThrust      = 25.0
	DronePIDProportional = 2.0
	DronePIDIntegral     = 0.5
	DronePIDDerivative   = 0.5
	DroneIntegralLimit   = 20.0

	// DroneLinearDrag is the fraction of velocity removed per tick
	DroneLinearDrag = 0.02

	// DroneAngularDamping multiplies angular velocity every tick
	DroneAngularDamping = 0.96

	// DroneMoveAccel is the horizontal velocity added per second of held input
	DroneMoveAccel = 12.0

	// DroneClimbRate is the target altitude change per second of Up/Down
	DroneClimbRate = 4.0

	// DroneTurnRate is the angular velocity increment per tick of key rotation
	DroneTurnRate = 0.08

	// DroneLevelingGain scales self-leveling corrective torque
	DroneLevelingGain = 0.25

	// DroneLevelingThreshold is the roll or pitch below which that axis is not leveled
	DroneLevelingThreshold = 0.01

	DroneMouseSensitivity = 0.002
	DroneMaxSpeed         = 30.0
	DroneMaxAngularSpeed  = 6.0
	DroneHealth           = 100.0
)

// DronePitchLimit is the hard pitch clamp in radians
const DronePitchLimit = math.Pi / 2.5

// Plane flight model defaults
const (
	PlaneMass   = 50.0
	PlaneRadius = 1.5

	// PlaneThrottleRate is the engine power change per tick
	PlaneThrottleRate = 0.01

	// PlaneMassReduction is the maximum fraction of mass shed at full flight influence
	PlaneMassReduction = 0.6

	// PlaneInfluenceSpeed is the forward speed at which flight influence saturates
	PlaneInfluenceSpeed = 10.0

	PlaneLiftFactor   = 0.005
	PlaneLiftExponent = 1.0
	PlaneMaxLift      = 0.05
	PlaneMinLiftSpeed = 1.0
	PlaneDragFactor   = 0.003

	PlaneThrustClimb   = 0.06
	PlaneThrustDescend = -0.05
	PlaneThrustCruise  = 0.02

	// PlaneWeathercockSpeed is the minimum speed for nose-into-wind correction
	PlaneWeathercockSpeed = 1.0
	PlaneWeathercockGain  = 0.3

	PlanePitchTorque = 0.04
	PlaneYawTorque   = 0.02
	PlaneRollTorque  = 0.06

	// PlaneAngularDampingFactor is scaled by flight influence: w *= 1 - f*influence
	PlaneAngularDampingFactor = 0.02

	PlaneMouseSensitivity = 0.001
	PlaneMaxSpeed         = 80.0
	PlaneMaxAngularSpeed  = 4.0
	PlaneHealth           = 150.0
)
