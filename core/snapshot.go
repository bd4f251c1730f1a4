package core

import "github.com/lixenwraith/skyfight/vmath"

// PhysicsSnapshot is the read-only replicated state of one vehicle at one tick
type PhysicsSnapshot struct {
	ID              VehicleID  `json:"id" msgpack:"id"`
	Kind            Kind       `json:"kind" msgpack:"k"`
	Team            Team       `json:"team" msgpack:"tm"`
	Health          float64    `json:"health" msgpack:"h"`
	Position        vmath.Vec3 `json:"position" msgpack:"p"`
	Orientation     vmath.Quat `json:"orientation" msgpack:"o"`
	LinearVelocity  vmath.Vec3 `json:"linearVelocity" msgpack:"v"`
	AngularVelocity vmath.Vec3 `json:"angularVelocity" msgpack:"w"`

	Tick                        uint64 `json:"tick" msgpack:"t"`
	Timestamp                   int64  `json:"timestamp" msgpack:"ts"`
	LastProcessedInputTick      uint64 `json:"lastProcessedInputTick" msgpack:"lt"`
	LastProcessedInputTimestamp int64  `json:"lastProcessedInputTimestamp" msgpack:"lts"`
}
