package engine

import (
	"time"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/snapshot"
)

// Observer receives session diagnostics
// Called synchronously from the tick loop with the session lock held:
// implementations must not block and must not call back into the Session
type Observer interface {
	// TickCompleted fires once per simulated tick with its wall duration
	TickCompleted(tick uint64, vehicles int, took time.Duration)
	// UpdateCompleted fires once per Update call
	UpdateCompleted(substeps int, dropped time.Duration)
	// UpdateRejected fires when Update is called while a tick is in progress
	UpdateRejected()

	InputDropped(id core.VehicleID, tick uint64)
	IdleInput(id core.VehicleID, tick uint64)

	Collision(ev core.CollisionEvent)
	VehicleFault(id core.VehicleID, err error)
	// CallbackFault reports a recovered panic in a collision handler or snapshot sink
	CallbackFault(source string, err error)

	VehicleAdded(id core.VehicleID, kind core.Kind)
	VehicleRemoved(id core.VehicleID)
}

// NopObserver discards everything, embed it to implement a subset
type NopObserver struct{}

func (NopObserver) TickCompleted(uint64, int, time.Duration)  {}
func (NopObserver) UpdateCompleted(int, time.Duration)        {}
func (NopObserver) UpdateRejected()                           {}
func (NopObserver) InputDropped(core.VehicleID, uint64)       {}
func (NopObserver) IdleInput(core.VehicleID, uint64)          {}
func (NopObserver) Collision(core.CollisionEvent)             {}
func (NopObserver) VehicleFault(core.VehicleID, error)        {}
func (NopObserver) CallbackFault(string, error)               {}
func (NopObserver) VehicleAdded(core.VehicleID, core.Kind)    {}
func (NopObserver) VehicleRemoved(core.VehicleID)             {}

// SnapshotSink receives every tick's batch
// The batch is shared read-only between sinks; sinks doing I/O must copy or
// hand off and return without blocking
type SnapshotSink interface {
	OnSnapshot(batch snapshot.Batch)
}

// SinkFunc adapts a function to SnapshotSink
type SinkFunc func(snapshot.Batch)

func (f SinkFunc) OnSnapshot(b snapshot.Batch) { f(b) }
