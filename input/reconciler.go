package input

import (
	"github.com/lixenwraith/skyfight/core"
)

// ApplyFunc feeds one sample into a vehicle controller
type ApplyFunc func(core.InputSample)

// Result summarizes one Process call
type Result struct {
	Applied int
	// Idle is set when no queued sample qualified and an idle sample was applied
	Idle bool
	Last uint64
}

// Reconciler applies buffered samples in strict tick order, each at most once
// Single consumer: only the tick loop calls Process
type Reconciler struct {
	buffer *Buffer
}

func NewReconciler(buffer *Buffer) *Reconciler {
	return &Reconciler{buffer: buffer}
}

// Buffer returns the backing buffer
func (r *Reconciler) Buffer() *Buffer {
	return r.buffer
}

// Process applies every queued sample for id with last < tick <= horizon in
// ascending tick order. horizon is the authoritative tick being produced, so the
// processed cursor never runs ahead of the simulation
// With nothing eligible, IdleSample(last+1) is applied and the cursor stays put
// nowMs is recorded as the processing wall time
// Samples stamped beyond horizon wait in the bounded queue and are evicted once
// it overflows, so clients must number their ticks from Welcome.Tick rather
// than running ahead of the server
func (r *Reconciler) Process(id core.VehicleID, horizon uint64, nowMs int64, apply ApplyFunc) Result {
	p := r.buffer.entry(id)
	if p == nil {
		return Result{}
	}

	r.buffer.mu.RLock()
	last := p.lastTick
	r.buffer.mu.RUnlock()

	samples := p.queue.take(last, horizon)

	res := Result{Last: last, Applied: len(samples)}
	if len(samples) > 0 {
		res.Last = samples[len(samples)-1].Tick
	}
	// Cursor moves before application so a faulting controller cannot replay a tick
	r.buffer.record(p, res.Last, nowMs)

	if len(samples) == 0 {
		res.Idle = true
		apply(core.IdleSample(last + 1))
		return res
	}
	for _, s := range samples {
		apply(s)
	}
	return res
}
