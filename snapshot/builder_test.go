package snapshot

import (
	"testing"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/vmath"
)

func entries() []Entry {
	return []Entry{
		{
			ID:     "d1",
			Kind:   core.KindDrone,
			Health: 80,
			State: core.VehicleState{
				Transform: core.SpawnAt(vmath.Vec3{Y: 10}, 0),
				// Stale per-controller clock must not leak into the batch
				TickMeta: core.TickMeta{Tick: 3, Timestamp: 1, LastInputTick: 41, LastInputTimestamp: 999},
			},
		},
		{
			ID:   "p1",
			Kind: core.KindPlane,
			Team: 2,
			State: core.VehicleState{
				Transform: core.Transform{
					Position:       vmath.Vec3{X: 5, Y: 100},
					Orientation:    vmath.QIdentity,
					LinearVelocity: vmath.Vec3{Z: -30},
				},
				TickMeta: core.TickMeta{Tick: 44},
			},
		},
	}
}

func TestBuildStampsSchedulerClock(t *testing.T) {
	b := NewBuilder()
	batch := b.Build(42, 1_700_000_000_000, entries())

	if batch.Tick != 42 || len(batch.Vehicles) != 2 {
		t.Fatalf("batch = %+v", batch)
	}
	for _, s := range batch.Vehicles {
		if s.Tick != 42 || s.Timestamp != 1_700_000_000_000 {
			t.Errorf("%s: tick/timestamp = %d/%d, want 42/1700000000000", s.ID, s.Tick, s.Timestamp)
		}
	}

	d, ok := batch.Find("d1")
	if !ok {
		t.Fatal("d1 missing")
	}
	if d.LastProcessedInputTick != 41 || d.LastProcessedInputTimestamp != 999 || d.Health != 80 {
		t.Errorf("d1 = %+v", d)
	}
	if _, ok := batch.Find("nope"); ok {
		t.Error("Find matched unknown id")
	}
}

func TestBatchCloneIsolated(t *testing.T) {
	b := NewBuilder()
	clone := b.Build(1, 1, entries()).Clone()

	b.Build(2, 2, entries()[:1])
	if clone.Vehicles[0].Tick != 1 || len(clone.Vehicles) != 2 {
		t.Errorf("clone mutated by later Build: %+v", clone)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	in := NewBuilder().Build(7, 123, entries()).Clone()

	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if out.Tick != 7 || out.Timestamp != 123 || len(out.Vehicles) != 2 {
		t.Fatalf("decoded = %+v", out)
	}
	p, _ := out.Find("p1")
	if p.Kind != core.KindPlane || p.Team != 2 || p.LinearVelocity.Z != -30 {
		t.Errorf("p1 = %+v", p)
	}

	if _, err := Unmarshal([]byte{0xc1}); err == nil {
		t.Error("Unmarshal accepted garbage")
	}
}
