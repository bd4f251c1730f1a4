package input

import (
	"sync"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/parameter"
)

// DropFunc observes samples evicted by queue overflow
type DropFunc func(id core.VehicleID, evicted core.InputSample)

// progress is the reconciliation cursor of one vehicle
type progress struct {
	queue         *Queue
	lastTick      uint64
	lastTimestamp int64
}

// Buffer owns every vehicle's input queue and reconciliation cursor
// Registration and removal keep queue and cursor in lockstep so a vehicle never
// has one without the other
type Buffer struct {
	mu       sync.RWMutex
	entries  map[core.VehicleID]*progress
	capacity int
	onDrop   DropFunc
}

// NewBuffer creates a buffer with per-vehicle capacity, <= 0 uses the default
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = parameter.InputQueueCapacity
	}
	return &Buffer{
		entries:  make(map[core.VehicleID]*progress),
		capacity: capacity,
	}
}

// SetDropHook installs fn as the overflow observer, nil disables it
func (b *Buffer) SetDropHook(fn DropFunc) {
	b.mu.Lock()
	b.onDrop = fn
	b.mu.Unlock()
}

// Register creates an empty queue for id, resetting any previous cursor
func (b *Buffer) Register(id core.VehicleID) {
	b.mu.Lock()
	b.entries[id] = &progress{queue: NewQueue(b.capacity)}
	b.mu.Unlock()
}

// Remove purges queue and cursor for id
func (b *Buffer) Remove(id core.VehicleID) {
	b.mu.Lock()
	if p, ok := b.entries[id]; ok {
		p.queue.Clear()
		delete(b.entries, id)
	}
	b.mu.Unlock()
}

// Has reports whether id is registered
func (b *Buffer) Has(id core.VehicleID) bool {
	b.mu.RLock()
	_, ok := b.entries[id]
	b.mu.RUnlock()
	return ok
}

// AddInput enqueues s for id, unknown ids are ignored
// Safe for concurrent producers
func (b *Buffer) AddInput(id core.VehicleID, s core.InputSample) bool {
	b.mu.RLock()
	p, ok := b.entries[id]
	hook := b.onDrop
	b.mu.RUnlock()
	if !ok {
		return false
	}

	if evicted, dropped := p.queue.Push(s); dropped && hook != nil {
		hook(id, evicted)
	}
	return true
}

// Pending returns a copy of id's queued samples
func (b *Buffer) Pending(id core.VehicleID) []core.InputSample {
	b.mu.RLock()
	p, ok := b.entries[id]
	b.mu.RUnlock()
	if !ok {
		return nil
	}
	return p.queue.Pending()
}

// LastProcessed returns the highest applied tick and the wall time (ms) it was recorded
func (b *Buffer) LastProcessed(id core.VehicleID) (tick uint64, timestamp int64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if p, ok := b.entries[id]; ok {
		return p.lastTick, p.lastTimestamp
	}
	return 0, 0
}

func (b *Buffer) entry(id core.VehicleID) *progress {
	b.mu.RLock()
	p := b.entries[id]
	b.mu.RUnlock()
	return p
}

func (b *Buffer) record(p *progress, tick uint64, timestamp int64) {
	b.mu.Lock()
	p.lastTick = tick
	p.lastTimestamp = timestamp
	b.mu.Unlock()
}
