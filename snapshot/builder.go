package snapshot

import (
	"github.com/lixenwraith/skyfight/core"
)

// Entry is one vehicle's exported state at the end of a tick
type Entry struct {
	ID     core.VehicleID
	Kind   core.Kind
	Team   core.Team
	Health float64
	State  core.VehicleState
}

// Batch is every vehicle snapshot of one tick, the broadcast unit
type Batch struct {
	Tick      uint64                 `json:"tick" msgpack:"t"`
	Timestamp int64                  `json:"timestamp" msgpack:"ts"`
	Vehicles  []core.PhysicsSnapshot `json:"vehicles" msgpack:"v"`
}

// Find returns the snapshot for id
func (b *Batch) Find(id core.VehicleID) (core.PhysicsSnapshot, bool) {
	for _, s := range b.Vehicles {
		if s.ID == id {
			return s, true
		}
	}
	return core.PhysicsSnapshot{}, false
}

// Clone returns a deep copy safe to hand to another goroutine
func (b Batch) Clone() Batch {
	out := b
	out.Vehicles = append([]core.PhysicsSnapshot(nil), b.Vehicles...)
	return out
}

// Builder exports tick-tagged snapshots
// Not goroutine-safe, the returned batch aliases an internal buffer until the next Build
type Builder struct {
	buf []core.PhysicsSnapshot
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build stamps every entry with the scheduler's tick and timestamp
// Per-controller tick metadata is ignored for the clock fields so a batch is never mixed
func (b *Builder) Build(tick uint64, timestamp int64, entries []Entry) Batch {
	b.buf = b.buf[:0]
	for i := range entries {
		e := &entries[i]
		st := e.State
		b.buf = append(b.buf, core.PhysicsSnapshot{
			ID:                          e.ID,
			Kind:                        e.Kind,
			Team:                        e.Team,
			Health:                      e.Health,
			Position:                    st.Position,
			Orientation:                 st.Orientation,
			LinearVelocity:              st.LinearVelocity,
			AngularVelocity:             st.AngularVelocity,
			Tick:                        tick,
			Timestamp:                   timestamp,
			LastProcessedInputTick:      st.LastInputTick,
			LastProcessedInputTimestamp: st.LastInputTimestamp,
		})
	}
	return Batch{Tick: tick, Timestamp: timestamp, Vehicles: b.buf}
}
