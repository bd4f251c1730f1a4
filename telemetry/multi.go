package telemetry

import (
	"time"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/engine"
)

// Multi fans every notification out to each observer in order
type Multi []engine.Observer

func (m Multi) TickCompleted(tick uint64, vehicles int, took time.Duration) {
	for _, o := range m {
		o.TickCompleted(tick, vehicles, took)
	}
}

func (m Multi) UpdateCompleted(substeps int, dropped time.Duration) {
	for _, o := range m {
		o.UpdateCompleted(substeps, dropped)
	}
}

func (m Multi) UpdateRejected() {
	for _, o := range m {
		o.UpdateRejected()
	}
}

func (m Multi) InputDropped(id core.VehicleID, tick uint64) {
	for _, o := range m {
		o.InputDropped(id, tick)
	}
}

func (m Multi) IdleInput(id core.VehicleID, tick uint64) {
	for _, o := range m {
		o.IdleInput(id, tick)
	}
}

func (m Multi) Collision(ev core.CollisionEvent) {
	for _, o := range m {
		o.Collision(ev)
	}
}

func (m Multi) VehicleFault(id core.VehicleID, err error) {
	for _, o := range m {
		o.VehicleFault(id, err)
	}
}

func (m Multi) CallbackFault(source string, err error) {
	for _, o := range m {
		o.CallbackFault(source, err)
	}
}

func (m Multi) VehicleAdded(id core.VehicleID, kind core.Kind) {
	for _, o := range m {
		o.VehicleAdded(id, kind)
	}
}

func (m Multi) VehicleRemoved(id core.VehicleID) {
	for _, o := range m {
		o.VehicleRemoved(id)
	}
}

var (
	_ engine.Observer = Multi(nil)
	_ engine.Observer = (*Counters)(nil)
	_ engine.Observer = (*OTelObserver)(nil)
	_ engine.Observer = (*LogObserver)(nil)
)
