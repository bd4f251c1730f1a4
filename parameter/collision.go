package parameter

// Collision severity thresholds on impact speed along the contact normal (m/s)
const (
	SeverityMediumThreshold = 10.0
	SeverityHeavyThreshold  = 15.0
)

// Collision response
const (
	// RestitutionEnvironment scales reflected velocity against ground and obstacles
	RestitutionEnvironment = 0.5

	// RestitutionVehicle scales reflected velocity between vehicles
	RestitutionVehicle = 0.7

	// SolverRestitution is the bounce the solver applies on every contact
	SolverRestitution = 0.2

	// AngularImpulseScale converts impact speed into random spin magnitude
	AngularImpulseScale = 0.15

	// OverlapMargin is extra separation applied when pushing bodies apart
	OverlapMargin = 0.01
)

// Damage applied to vehicle health per severity tier
const (
	DamageMedium = 5.0
	DamageHeavy  = 20.0
)
