package collision

import (
	"sync"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/physics"
)

// Handler receives one classified collision
type Handler func(core.CollisionEvent)

// FaultFunc observes a recovered handler panic
type FaultFunc func(ev core.CollisionEvent, err error)

// Manager converts world contacts into events and dispatches them
// Dispatch order per event: handlers of A's owner, then B's owner, then global,
// each in registration order. A panicking handler never blocks the rest
type Manager struct {
	mu        sync.RWMutex
	byVehicle map[core.VehicleID][]Handler
	global    []Handler
	onFault   FaultFunc

	events []core.CollisionEvent
}

func NewManager() *Manager {
	return &Manager{
		byVehicle: make(map[core.VehicleID][]Handler),
	}
}

// OnVehicle registers h for events involving id
func (m *Manager) OnVehicle(id core.VehicleID, h Handler) {
	m.mu.Lock()
	m.byVehicle[id] = append(m.byVehicle[id], h)
	m.mu.Unlock()
}

// OnAny registers h for every event
func (m *Manager) OnAny(h Handler) {
	m.mu.Lock()
	m.global = append(m.global, h)
	m.mu.Unlock()
}

// Forget drops every handler registered for id
func (m *Manager) Forget(id core.VehicleID) {
	m.mu.Lock()
	delete(m.byVehicle, id)
	m.mu.Unlock()
}

// SetFaultHook installs fn to observe handler panics
func (m *Manager) SetFaultHook(fn FaultFunc) {
	m.mu.Lock()
	m.onFault = fn
	m.mu.Unlock()
}

// HandlerCount returns per-vehicle handler count for id, for leak checks
func (m *Manager) HandlerCount(id core.VehicleID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byVehicle[id])
}

// Event builds the classified event for one contact
func Event(c physics.Contact, timestamp int64) core.CollisionEvent {
	return core.CollisionEvent{
		BodyA:          c.A.Ref(),
		BodyB:          c.B.Ref(),
		Type:           Classify(c.A.Group, c.B.Group),
		Severity:       SeverityOf(c.ImpactVelocity),
		ImpactVelocity: c.ImpactVelocity,
		ContactPoint:   c.Point,
		Normal:         c.Normal,
		Timestamp:      timestamp,
	}
}

// Consume classifies and dispatches contacts
// Returned slice is reused by the next call
func (m *Manager) Consume(contacts []physics.Contact, timestamp int64) []core.CollisionEvent {
	m.events = m.events[:0]
	for _, c := range contacts {
		ev := Event(c, timestamp)
		m.events = append(m.events, ev)
		m.dispatch(ev)
	}
	return m.events
}

func (m *Manager) dispatch(ev core.CollisionEvent) {
	// Snapshot handler lists so handlers may register or forget during dispatch
	m.mu.RLock()
	var handlers []Handler
	if id := ev.BodyA.Owner; id != "" {
		handlers = append(handlers, m.byVehicle[id]...)
	}
	if id := ev.BodyB.Owner; id != "" && id != ev.BodyA.Owner {
		handlers = append(handlers, m.byVehicle[id]...)
	}
	handlers = append(handlers, m.global...)
	onFault := m.onFault
	m.mu.RUnlock()

	for _, h := range handlers {
		if err := core.RunSafe(func() { h(ev) }); err != nil && onFault != nil {
			onFault(ev, err)
		}
	}
}
