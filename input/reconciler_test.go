package input

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lixenwraith/skyfight/core"
)

const vid core.VehicleID = "v1"

func sample(tick uint64) core.InputSample {
	return core.InputSample{Tick: tick, Forward: true}
}

// collect runs Process and returns applied ticks, marking idle with its tick too
func collect(r *Reconciler, horizon uint64) ([]uint64, Result) {
	var got []uint64
	res := r.Process(vid, horizon, 1000, func(s core.InputSample) {
		got = append(got, s.Tick)
	})
	return got, res
}

func newReconciler() *Reconciler {
	b := NewBuffer(0)
	b.Register(vid)
	return NewReconciler(b)
}

func equalTicks(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestProcessOutOfOrder(t *testing.T) {
	r := newReconciler()
	r.Buffer().AddInput(vid, sample(5))
	r.Buffer().AddInput(vid, sample(3))

	got, res := collect(r, 10)
	if !equalTicks(got, []uint64{3, 5}) {
		t.Fatalf("applied %v, want [3 5]", got)
	}
	if res.Last != 5 || res.Idle {
		t.Errorf("Result = %+v, want Last 5 non-idle", res)
	}
	if last, ts := r.Buffer().LastProcessed(vid); last != 5 || ts != 1000 {
		t.Errorf("LastProcessed = %d, %d; want 5, 1000", last, ts)
	}
	if n := len(r.Buffer().Pending(vid)); n != 0 {
		t.Errorf("queue len = %d, want 0", n)
	}
}

func TestProcessDuplicateAppliedOnce(t *testing.T) {
	r := newReconciler()
	r.Buffer().AddInput(vid, sample(4))
	r.Buffer().AddInput(vid, sample(4))

	got, _ := collect(r, 10)
	if !equalTicks(got, []uint64{4}) {
		t.Fatalf("applied %v, want [4]", got)
	}

	// Late duplicate after the tick was applied
	r.Buffer().AddInput(vid, sample(4))
	got, res := collect(r, 11)
	if !equalTicks(got, []uint64{5}) || !res.Idle {
		t.Fatalf("applied %v idle=%v, want idle sample 5", got, res.Idle)
	}
	if res.Last != 4 {
		t.Errorf("idle advanced cursor to %d", res.Last)
	}
}

func TestProcessIdleDoesNotAdvance(t *testing.T) {
	r := newReconciler()

	for i := 0; i < 3; i++ {
		got, res := collect(r, uint64(i+1))
		if !equalTicks(got, []uint64{1}) || !res.Idle {
			t.Fatalf("call %d applied %v, want idle tick 1", i, got)
		}
	}
	if last, _ := r.Buffer().LastProcessed(vid); last != 0 {
		t.Errorf("LastProcessed = %d after idle, want 0", last)
	}
}

func TestProcessHorizonKeepsFuture(t *testing.T) {
	r := newReconciler()
	for _, tick := range []uint64{2, 1, 7, 3} {
		r.Buffer().AddInput(vid, sample(tick))
	}

	got, res := collect(r, 3)
	if !equalTicks(got, []uint64{1, 2, 3}) || res.Last != 3 {
		t.Fatalf("applied %v last %d, want [1 2 3] last 3", got, res.Last)
	}

	pending := r.Buffer().Pending(vid)
	if len(pending) != 1 || pending[0].Tick != 7 {
		t.Fatalf("pending = %+v, want tick 7 held", pending)
	}

	got, _ = collect(r, 7)
	if !equalTicks(got, []uint64{7}) {
		t.Errorf("applied %v, want [7]", got)
	}
}

func TestProcessClientAheadStarves(t *testing.T) {
	r := newReconciler()
	var drops int
	r.Buffer().SetDropHook(func(core.VehicleID, core.InputSample) { drops++ })

	// Client numbering 100 ticks ahead of a server at tick 5
	for tick := uint64(101); tick <= 170; tick++ {
		r.Buffer().AddInput(vid, sample(tick))
	}
	got, res := collect(r, 5)
	if !res.Idle || !equalTicks(got, []uint64{1}) {
		t.Fatalf("applied %v idle %v, want idle tick 1", got, res.Idle)
	}
	if n := len(r.Buffer().Pending(vid)); n != 60 || drops != 10 {
		t.Errorf("pending %d drops %d, want 60 and 10", n, drops)
	}

	// Realigned to the server tick, input applies immediately
	r.Buffer().AddInput(vid, sample(6))
	got, res = collect(r, 6)
	if !equalTicks(got, []uint64{6}) || res.Last != 6 {
		t.Errorf("applied %v last %d, want [6] last 6", got, res.Last)
	}
}

func TestQueueOverflowEvictsOldest(t *testing.T) {
	b := NewBuffer(0)
	b.Register(vid)

	var drops []uint64
	b.SetDropHook(func(id core.VehicleID, s core.InputSample) {
		drops = append(drops, s.Tick)
	})

	for tick := uint64(1); tick <= 61; tick++ {
		b.AddInput(vid, sample(tick))
	}

	pending := b.Pending(vid)
	if len(pending) != 60 {
		t.Fatalf("queue len = %d, want 60", len(pending))
	}
	if pending[0].Tick != 2 {
		t.Errorf("oldest tick = %d, want 2", pending[0].Tick)
	}
	if !equalTicks(drops, []uint64{1}) {
		t.Errorf("drops = %v, want [1]", drops)
	}
}

func TestBufferUnknownAndRemove(t *testing.T) {
	b := NewBuffer(4)
	if b.AddInput("ghost", sample(1)) {
		t.Error("AddInput accepted unknown id")
	}

	b.Register(vid)
	b.AddInput(vid, sample(1))
	r := NewReconciler(b)
	collect(r, 5)
	b.Remove(vid)

	if b.Has(vid) || b.Pending(vid) != nil {
		t.Error("Remove left state behind")
	}
	if last, ts := b.LastProcessed(vid); last != 0 || ts != 0 {
		t.Errorf("LastProcessed after remove = %d, %d", last, ts)
	}
	res := r.Process(vid, 5, 0, func(core.InputSample) { t.Error("applied to removed vehicle") })
	if res != (Result{}) {
		t.Errorf("Process on removed id = %+v", res)
	}
}

func TestBufferConcurrentProducers(t *testing.T) {
	b := NewBuffer(1000)
	b.Register(vid)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(base uint64) {
			defer wg.Done()
			for i := uint64(0); i < 100; i++ {
				b.AddInput(vid, sample(base+i))
			}
		}(uint64(w*100 + 1))
	}
	wg.Wait()

	r := NewReconciler(b)
	got, res := collect(r, 400)
	if len(got) != 400 || res.Last != 400 {
		t.Fatalf("applied %d samples last %d, want 400", len(got), res.Last)
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("out of order at %d: %d after %d", i, got[i], got[i-1])
		}
	}
}

func TestGateAdmit(t *testing.T) {
	g := NewGate(100 * time.Millisecond)
	now := time.UnixMilli(10_000)

	tests := []struct {
		name string
		ts   int64
		rtt  time.Duration
		want error
	}{
		{"fresh", 9_950, 0, nil},
		{"stale", 9_800, 0, ErrStaleInput},
		{"rtt compensated", 9_800, 300 * time.Millisecond, nil},
		{"future", 10_500, 0, ErrFutureInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Admit(core.InputSample{Timestamp: tt.ts}, now, tt.rtt)
			if !errors.Is(err, tt.want) {
				t.Errorf("Admit() = %v, want %v", err, tt.want)
			}
		})
	}
}
