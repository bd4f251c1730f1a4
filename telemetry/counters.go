package telemetry

import (
	"sync/atomic"
	"time"

	"github.com/lixenwraith/skyfight/core"
)

// Metric keys written by Counters
const (
	KeyTicks           = "session.ticks"
	KeyUpdates         = "session.updates"
	KeyRejected        = "session.updates_rejected"
	KeySubsteps        = "session.substeps"
	KeyDroppedNanos    = "session.dropped_ns"
	KeyVehicles        = "session.vehicles"
	KeyInputDropped    = "input.dropped"
	KeyInputIdle       = "input.idle"
	KeyVehicleFaults   = "vehicle.faults"
	KeyCallbackFaults  = "callback.faults"
	KeyTickMillis      = "tick.last_ms"
	KeyTickMaxMillis   = "tick.max_ms"
	KeyMaxImpact       = "collision.max_impact"
	KeyLastFault       = "fault.last"
	keyCollisionPrefix = "collision."
)

// Counters is an engine.Observer over lock-free atomic metrics
// Hot-path pointers are resolved once in NewCounters
type Counters struct {
	Ints   *MetricMap[atomic.Int64]
	Floats *MetricMap[Gauge]
	Labels *MetricMap[Label]

	ticks, updates, rejected, substeps, dropped *atomic.Int64
	vehicles, inputDropped, inputIdle           *atomic.Int64
	vehicleFaults, callbackFaults               *atomic.Int64
	tickMs, tickMaxMs, maxImpact                *Gauge
	lastFault                                   *Label
}

// NewCounters creates an empty metric set
func NewCounters() *Counters {
	c := &Counters{
		Ints:   NewMetricMap[atomic.Int64](),
		Floats: NewMetricMap[Gauge](),
		Labels: NewMetricMap[Label](),
	}
	c.ticks = c.Ints.Get(KeyTicks)
	c.updates = c.Ints.Get(KeyUpdates)
	c.rejected = c.Ints.Get(KeyRejected)
	c.substeps = c.Ints.Get(KeySubsteps)
	c.dropped = c.Ints.Get(KeyDroppedNanos)
	c.vehicles = c.Ints.Get(KeyVehicles)
	c.inputDropped = c.Ints.Get(KeyInputDropped)
	c.inputIdle = c.Ints.Get(KeyInputIdle)
	c.vehicleFaults = c.Ints.Get(KeyVehicleFaults)
	c.callbackFaults = c.Ints.Get(KeyCallbackFaults)
	c.tickMs = c.Floats.Get(KeyTickMillis)
	c.tickMaxMs = c.Floats.Get(KeyTickMaxMillis)
	c.maxImpact = c.Floats.Get(KeyMaxImpact)
	c.lastFault = c.Labels.Get(KeyLastFault)
	return c
}

// TotalCount returns the number of registered metrics of all types
func (c *Counters) TotalCount() int {
	return c.Ints.Count() + c.Floats.Count() + c.Labels.Count()
}

// Int reads an integer metric, 0 if never written
func (c *Counters) Int(key string) int64 {
	if !c.Ints.Has(key) {
		return 0
	}
	return c.Ints.Get(key).Load()
}

// Float reads a gauge, 0 if never written
func (c *Counters) Float(key string) float64 {
	if !c.Floats.Has(key) {
		return 0
	}
	return c.Floats.Get(key).Get()
}

// CollisionKey is the counter key for one collision type and severity
func CollisionKey(t core.CollisionType, s core.Severity) string {
	return keyCollisionPrefix + t.String() + "." + s.String()
}

func (c *Counters) TickCompleted(_ uint64, vehicles int, took time.Duration) {
	c.ticks.Add(1)
	c.vehicles.Store(int64(vehicles))
	ms := float64(took) / float64(time.Millisecond)
	c.tickMs.Set(ms)
	c.tickMaxMs.Max(ms)
}

func (c *Counters) UpdateCompleted(substeps int, dropped time.Duration) {
	c.updates.Add(1)
	c.substeps.Add(int64(substeps))
	c.dropped.Add(int64(dropped))
}

func (c *Counters) UpdateRejected() { c.rejected.Add(1) }

func (c *Counters) InputDropped(core.VehicleID, uint64) { c.inputDropped.Add(1) }

func (c *Counters) IdleInput(core.VehicleID, uint64) { c.inputIdle.Add(1) }

func (c *Counters) Collision(ev core.CollisionEvent) {
	c.Ints.Get(CollisionKey(ev.Type, ev.Severity)).Add(1)
	c.maxImpact.Max(ev.ImpactVelocity)
}

func (c *Counters) VehicleFault(id core.VehicleID, err error) {
	c.vehicleFaults.Add(1)
	c.lastFault.Store(string(id) + ": " + err.Error())
}

func (c *Counters) CallbackFault(source string, err error) {
	c.callbackFaults.Add(1)
	c.lastFault.Store(source + ": " + err.Error())
}

func (c *Counters) VehicleAdded(core.VehicleID, core.Kind) {}

func (c *Counters) VehicleRemoved(core.VehicleID) {}
