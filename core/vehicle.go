package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lixenwraith/skyfight/vmath"
)

// ErrUnknownKind rejects vehicle kinds outside the closed Kind set
var ErrUnknownKind = errors.New("unknown vehicle kind")

// VehicleID is the opaque session-scoped vehicle identifier
type VehicleID string

// Kind is the closed set of simulated vehicle types
type Kind uint8

const (
	KindDrone Kind = iota + 1
	KindPlane
)

// String returns the lowercase wire name
func (k Kind) String() string {
	switch k {
	case KindDrone:
		return "drone"
	case KindPlane:
		return "plane"
	default:
		return "unknown"
	}
}

// Valid reports membership in the closed set
func (k Kind) Valid() bool {
	return k == KindDrone || k == KindPlane
}

// ParseKind validates a wire name at the system boundary
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drone":
		return KindDrone, nil
	case "plane":
		return KindPlane, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Team is an opaque side identifier, the core attaches no rules to it
type Team uint8

// Transform is the full kinematic state of a body
type Transform struct {
	Position        vmath.Vec3 `json:"position" msgpack:"p"`
	Orientation     vmath.Quat `json:"orientation" msgpack:"o"`
	LinearVelocity  vmath.Vec3 `json:"linearVelocity" msgpack:"v"`
	AngularVelocity vmath.Vec3 `json:"angularVelocity" msgpack:"w"`
}

// SpawnAt returns an at-rest transform at pos facing yaw radians
func SpawnAt(pos vmath.Vec3, yaw float64) Transform {
	return Transform{
		Position:    pos,
		Orientation: vmath.QFromAxisAngle(vmath.Up, yaw),
	}
}

// TickMeta tags state with the authoritative clock and input progress
type TickMeta struct {
	Tick               uint64 `json:"tick" msgpack:"t"`
	Timestamp          int64  `json:"timestamp" msgpack:"ts"`
	LastInputTick      uint64 `json:"lastProcessedInputTick" msgpack:"lt"`
	LastInputTimestamp int64  `json:"lastProcessedInputTimestamp" msgpack:"lts"`
}

// VehicleState is the controller import/export unit
type VehicleState struct {
	Transform
	TickMeta
}
