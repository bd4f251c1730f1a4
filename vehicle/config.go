package vehicle

import (
	"errors"
	"fmt"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/parameter"
)

// ErrMissingParams rejects a Config whose variant does not match its Kind
var ErrMissingParams = errors.New("vehicle params missing for kind")

// BodyParams are shared by every vehicle kind
type BodyParams struct {
	Mass            float64 `mapstructure:"mass"`
	Radius          float64 `mapstructure:"radius"`
	MaxSpeed        float64 `mapstructure:"max_speed"`
	MaxAngularSpeed float64 `mapstructure:"max_angular_speed"`
	Health          float64 `mapstructure:"health"`
}

// DroneParams tune the multirotor model
type DroneParams struct {
	BaseThrust        float64 `mapstructure:"base_thrust"`
	Kp                float64 `mapstructure:"kp"`
	Ki                float64 `mapstructure:"ki"`
	Kd                float64 `mapstructure:"kd"`
	IntegralLimit     float64 `mapstructure:"integral_limit"`
	LinearDrag        float64 `mapstructure:"linear_drag"`
	AngularDamping    float64 `mapstructure:"angular_damping"`
	MoveAccel         float64 `mapstructure:"move_accel"`
	ClimbRate         float64 `mapstructure:"climb_rate"`
	TurnRate          float64 `mapstructure:"turn_rate"`
	LevelingGain      float64 `mapstructure:"leveling_gain"`
	LevelingThreshold float64 `mapstructure:"leveling_threshold"`
	MouseSensitivity  float64 `mapstructure:"mouse_sensitivity"`
	PitchLimit        float64 `mapstructure:"pitch_limit"`
}

// PlaneParams tune the fixed-wing model
type PlaneParams struct {
	ThrottleRate         float64 `mapstructure:"throttle_rate"`
	MassReduction        float64 `mapstructure:"mass_reduction"`
	InfluenceSpeed       float64 `mapstructure:"influence_speed"`
	LiftFactor           float64 `mapstructure:"lift_factor"`
	LiftExponent         float64 `mapstructure:"lift_exponent"`
	MaxLift              float64 `mapstructure:"max_lift"`
	MinLiftSpeed         float64 `mapstructure:"min_lift_speed"`
	DragFactor           float64 `mapstructure:"drag_factor"`
	ThrustClimb          float64 `mapstructure:"thrust_climb"`
	ThrustDescend        float64 `mapstructure:"thrust_descend"`
	ThrustCruise         float64 `mapstructure:"thrust_cruise"`
	WeathercockSpeed     float64 `mapstructure:"weathercock_speed"`
	WeathercockGain      float64 `mapstructure:"weathercock_gain"`
	PitchTorque          float64 `mapstructure:"pitch_torque"`
	YawTorque            float64 `mapstructure:"yaw_torque"`
	RollTorque           float64 `mapstructure:"roll_torque"`
	AngularDampingFactor float64 `mapstructure:"angular_damping_factor"`
	MouseSensitivity     float64 `mapstructure:"mouse_sensitivity"`
}

// Config is a tagged variant: exactly the params matching Kind must be set
type Config struct {
	Kind   core.Kind
	Common BodyParams
	Drone  *DroneParams
	Plane  *PlaneParams
}

// Validate checks the variant tag against the populated params
func (c Config) Validate() error {
	switch c.Kind {
	case core.KindDrone:
		if c.Drone == nil {
			return fmt.Errorf("%w: %s", ErrMissingParams, c.Kind)
		}
	case core.KindPlane:
		if c.Plane == nil {
			return fmt.Errorf("%w: %s", ErrMissingParams, c.Kind)
		}
	default:
		return fmt.Errorf("%w: %d", core.ErrUnknownKind, c.Kind)
	}
	if c.Common.Mass <= 0 || c.Common.Radius <= 0 {
		return fmt.Errorf("%s: mass and radius must be positive", c.Kind)
	}
	return nil
}

func DefaultDroneParams() DroneParams {
	return DroneParams{
		BaseThrust:        parameter.DroneBaseThrust,
		Kp:                parameter.DronePIDProportional,
		Ki:                parameter.DronePIDIntegral,
		Kd:                parameter.DronePIDDerivative,
		IntegralLimit:     parameter.DroneIntegralLimit,
		LinearDrag:        parameter.DroneLinearDrag,
		AngularDamping:    parameter.DroneAngularDamping,
		MoveAccel:         parameter.DroneMoveAccel,
		ClimbRate:         parameter.DroneClimbRate,
		TurnRate:          parameter.DroneTurnRate,
		LevelingGain:      parameter.DroneLevelingGain,
		LevelingThreshold: parameter.DroneLevelingThreshold,
		MouseSensitivity:  parameter.DroneMouseSensitivity,
		PitchLimit:        parameter.DronePitchLimit,
	}
}

func DefaultPlaneParams() PlaneParams {
	return PlaneParams{
		ThrottleRate:         parameter.PlaneThrottleRate,
		MassReduction:        parameter.PlaneMassReduction,
		InfluenceSpeed:       parameter.PlaneInfluenceSpeed,
		LiftFactor:           parameter.PlaneLiftFactor,
		LiftExponent:         parameter.PlaneLiftExponent,
		MaxLift:              parameter.PlaneMaxLift,
		MinLiftSpeed:         parameter.PlaneMinLiftSpeed,
		DragFactor:           parameter.PlaneDragFactor,
		ThrustClimb:          parameter.PlaneThrustClimb,
		ThrustDescend:        parameter.PlaneThrustDescend,
		ThrustCruise:         parameter.PlaneThrustCruise,
		WeathercockSpeed:     parameter.PlaneWeathercockSpeed,
		WeathercockGain:      parameter.PlaneWeathercockGain,
		PitchTorque:          parameter.PlanePitchTorque,
		YawTorque:            parameter.PlaneYawTorque,
		RollTorque:           parameter.PlaneRollTorque,
		AngularDampingFactor: parameter.PlaneAngularDampingFactor,
		MouseSensitivity:     parameter.PlaneMouseSensitivity,
	}
}

// DefaultConfig returns the built-in tuning for kind
func DefaultConfig(kind core.Kind) (Config, error) {
	switch kind {
	case core.KindDrone:
		p := DefaultDroneParams()
		return Config{
			Kind: kind,
			Common: BodyParams{
				Mass:            parameter.DroneMass,
				Radius:          parameter.DroneRadius,
				MaxSpeed:        parameter.DroneMaxSpeed,
				MaxAngularSpeed: parameter.DroneMaxAngularSpeed,
				Health:          parameter.DroneHealth,
			},
			Drone: &p,
		}, nil
	case core.KindPlane:
		p := DefaultPlaneParams()
		return Config{
			Kind: kind,
			Common: BodyParams{
				Mass:            parameter.PlaneMass,
				Radius:          parameter.PlaneRadius,
				MaxSpeed:        parameter.PlaneMaxSpeed,
				MaxAngularSpeed: parameter.PlaneMaxAngularSpeed,
				Health:          parameter.PlaneHealth,
			},
			Plane: &p,
		}, nil
	}
	return Config{}, fmt.Errorf("%w: %d", core.ErrUnknownKind, kind)
}

// Registry maps each kind to its active Config
type Registry map[core.Kind]Config

// DefaultRegistry holds the built-in config of every kind
func DefaultRegistry() Registry {
	r := make(Registry, 2)
	for _, k := range []core.Kind{core.KindDrone, core.KindPlane} {
		cfg, _ := DefaultConfig(k)
		r[k] = cfg
	}
	return r
}

// Lookup returns the config for kind
func (r Registry) Lookup(kind core.Kind) (Config, error) {
	cfg, ok := r[kind]
	if !ok {
		return Config{}, fmt.Errorf("%w: %s", core.ErrUnknownKind, kind)
	}
	return cfg, nil
}
