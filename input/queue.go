package input

import (
	"sort"
	"sync"

	"github.com/lixenwraith/skyfight/core"
)

// Queue is a bounded per-vehicle input queue
// Thread-Safety:
//   - Push: mutex guarded, multiple producers OK (network goroutines)
//   - drain: single consumer (tick loop)
//
// Overflow: oldest sample evicted when full
type Queue struct {
	mu       sync.Mutex
	items    []core.InputSample
	capacity int
}

// NewQueue creates a queue holding at most capacity samples, minimum 1
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		items:    make([]core.InputSample, 0, capacity),
		capacity: capacity,
	}
}

// Push appends s, returning the evicted sample when the queue was full
func (q *Queue) Push(s core.InputSample) (evicted core.InputSample, dropped bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.capacity {
		evicted = q.items[0]
		copy(q.items, q.items[1:])
		q.items = q.items[:len(q.items)-1]
		dropped = true
	}
	q.items = append(q.items, s)
	return evicted, dropped
}

// Len returns the number of queued samples
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pending returns a copy of the queued samples in arrival order
func (q *Queue) Pending() []core.InputSample {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]core.InputSample, len(q.items))
	copy(out, q.items)
	return out
}

// Clear drops every queued sample
func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = q.items[:0]
	q.mu.Unlock()
}

// take stable-sorts by tick and removes the samples eligible for application:
// ticks in (last, horizon], one per tick. Stale samples (tick <= last) are dropped,
// samples above horizon stay queued
func (q *Queue) take(last, horizon uint64) []core.InputSample {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}

	sort.SliceStable(q.items, func(i, j int) bool {
		return q.items[i].Tick < q.items[j].Tick
	})

	var out []core.InputSample
	n := 0
	for _, s := range q.items {
		switch {
		case s.Tick <= last:
			// stale or duplicate of an applied tick
		case s.Tick <= horizon:
			out = append(out, s)
			last = s.Tick
		default:
			q.items[n] = s
			n++
		}
	}
	// Zero the tail so dropped MouseDelta pointers are released
	clear(q.items[n:])
	q.items = q.items[:n]
	return out
}
