package engine

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/skyfight/collision"
	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/input"
	"github.com/lixenwraith/skyfight/parameter"
	"github.com/lixenwraith/skyfight/physics"
	"github.com/lixenwraith/skyfight/snapshot"
	"github.com/lixenwraith/skyfight/vehicle"
	"github.com/lixenwraith/skyfight/vmath"
)

var (
	// ErrVehicleExists rejects CreateVehicle for an id already in the session
	ErrVehicleExists = errors.New("vehicle already exists")
)

// Option configures a Session at construction
type Option func(*Session)

// WithClock sets the wall time source, default is the system clock
func WithClock(tp TimeProvider) Option {
	return func(s *Session) { s.clock = tp }
}

// WithObserver sets the diagnostics sink
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithSeed seeds collision impulse jitter
func WithSeed(seed uint64) Option {
	return func(s *Session) { s.rng = vmath.NewFastRand(seed) }
}

// WithVehicleConfigs replaces the per-kind vehicle tuning
func WithVehicleConfigs(r vehicle.Registry) Option {
	return func(s *Session) { s.configs = r }
}

// WithGravity overrides world gravity magnitude (m/s², pointing down)
func WithGravity(g float64) Option {
	return func(s *Session) { s.world.Gravity = vmath.Vec3{Y: -g} }
}

// WithInputCapacity overrides the per-vehicle queue capacity
func WithInputCapacity(n int) Option {
	return func(s *Session) { s.buffer = input.NewBuffer(n) }
}

// WithScheduler overrides fixed step and catch-up bounds
func WithScheduler(step time.Duration, maxSubsteps, maxCarrySteps int) Option {
	return func(s *Session) { s.sched = NewScheduler(step, maxSubsteps, maxCarrySteps) }
}

type vehicleSlot struct {
	ctrl vehicle.Controller
}

// Session is one authoritative simulation: world, vehicles, input buffers and tick clock
// Thread-Safety:
//   - AddInput: safe from any goroutine, does not take the session lock
//   - everything else: serialized by the session lock
//   - Update: additionally guarded against re-entry from observers, handlers and sinks
//   - collision handlers and snapshot sinks run under the session lock; they may
//     call AddInput, Tick, FixedStep, OnCollision and OnAnyCollision, but any
//     other Session method deadlocks. Record ids in the handler and act on them
//     after Update returns
type Session struct {
	mu      sync.Mutex
	ticking atomic.Bool

	world      *physics.World
	buffer     *input.Buffer
	reconciler *input.Reconciler
	collisions *collision.Manager
	builder    *snapshot.Builder
	sched      *Scheduler

	clock    TimeProvider
	observer Observer
	rng      *vmath.FastRand
	configs  vehicle.Registry

	vehicles map[core.VehicleID]*vehicleSlot
	order    []core.VehicleID

	tick      atomic.Uint64
	sinks     []SnapshotSink
	lastBatch snapshot.Batch
	entries   []snapshot.Entry
}

// NewSession creates an empty session with a ground plane at parameter.GroundLevel
func NewSession(opts ...Option) *Session {
	s := &Session{
		world:      physics.NewWorld(vmath.Vec3{Y: -parameter.Gravity}),
		buffer:     input.NewBuffer(parameter.InputQueueCapacity),
		collisions: collision.NewManager(),
		builder:    snapshot.NewBuilder(),
		sched:      NewScheduler(parameter.FixedStep, parameter.MaxSubsteps, parameter.MaxAccumulatedSteps),
		clock:      NewMonotonicTimeProvider(),
		observer:   NopObserver{},
		rng:        vmath.NewFastRand(parameter.DefaultSessionSeed),
		configs:    vehicle.DefaultRegistry(),
		vehicles:   make(map[core.VehicleID]*vehicleSlot),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.reconciler = input.NewReconciler(s.buffer)
	s.buffer.SetDropHook(func(id core.VehicleID, evicted core.InputSample) {
		s.observer.InputDropped(id, evicted.Tick)
	})
	s.collisions.SetFaultHook(func(_ core.CollisionEvent, err error) {
		s.observer.CallbackFault("collision", err)
	})
	s.world.AddGround(parameter.GroundLevel)
	return s
}

// Tick returns the last completed tick
func (s *Session) Tick() uint64 {
	return s.tick.Load()
}

// FixedStep returns the simulation step duration
func (s *Session) FixedStep() time.Duration {
	return s.sched.Step()
}

// CreateVehicle spawns a vehicle of kind at spawn
func (s *Session) CreateVehicle(id core.VehicleID, kind core.Kind, team core.Team, spawn core.Transform) error {
	if !kind.Valid() {
		return fmt.Errorf("create %q: %w: %d", id, core.ErrUnknownKind, kind)
	}
	cfg, err := s.configs.Lookup(kind)
	if err != nil {
		return fmt.Errorf("create %q: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vehicles[id]; ok {
		return fmt.Errorf("create %q: %w", id, ErrVehicleExists)
	}

	ctrl, err := vehicle.New(s.world, id, team, cfg, spawn)
	if err != nil {
		return fmt.Errorf("create %q: %w", id, err)
	}

	st := ctrl.State()
	st.TickMeta = core.TickMeta{Tick: s.tick.Load(), Timestamp: s.clock.Now().UnixMilli()}
	ctrl.SetState(st)

	s.vehicles[id] = &vehicleSlot{ctrl: ctrl}
	s.order = append(s.order, id)
	s.buffer.Register(id)
	s.observer.VehicleAdded(id, kind)
	return nil
}

// RemoveVehicle destroys id together with its body, queue, cursor and handlers
// Unknown ids are ignored
func (s *Session) RemoveVehicle(id core.VehicleID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.vehicles[id]
	if !ok {
		return false
	}
	slot.ctrl.Cleanup()
	s.buffer.Remove(id)
	s.collisions.Forget(id)
	delete(s.vehicles, id)
	s.order = slices.DeleteFunc(s.order, func(v core.VehicleID) bool { return v == id })
	s.observer.VehicleRemoved(id)
	return true
}

// AddInput queues a sample for id, unknown ids are ignored
func (s *Session) AddInput(id core.VehicleID, sample core.InputSample) bool {
	return s.buffer.AddInput(id, sample)
}

// HasVehicle reports whether id is in the session
func (s *Session) HasVehicle(id core.VehicleID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.vehicles[id]
	return ok
}

// Vehicles returns ids in creation order
func (s *Session) Vehicles() []core.VehicleID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// VehicleState exports the current state of id
func (s *Session) VehicleState(id core.VehicleID) (core.VehicleState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.vehicles[id]
	if !ok {
		return core.VehicleState{}, false
	}
	return slot.ctrl.State(), true
}

// SetVehicleState overrides the transform of id, tick metadata is kept
func (s *Session) SetVehicleState(id core.VehicleID, t core.Transform) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.vehicles[id]
	if !ok {
		return false
	}
	st := slot.ctrl.State()
	st.Transform = t
	slot.ctrl.SetState(st)
	return true
}

// OnCollision registers h for events involving id
func (s *Session) OnCollision(id core.VehicleID, h collision.Handler) {
	s.collisions.OnVehicle(id, h)
}

// OnAnyCollision registers h for every event
func (s *Session) OnAnyCollision(h collision.Handler) {
	s.collisions.OnAny(h)
}

// AddSink registers a snapshot consumer
func (s *Session) AddSink(sink SnapshotSink) {
	s.mu.Lock()
	s.sinks = append(s.sinks, sink)
	s.mu.Unlock()
}

// AddObstacle places a static environment sphere, returns its body index
func (s *Session) AddObstacle(pos vmath.Vec3, radius float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.AddObstacle(pos, radius).Index
}

// AddFlag places a static flag sensor, returns its body index
func (s *Session) AddFlag(pos vmath.Vec3, radius float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.world.Add(&physics.Body{
		Group:    core.GroupFlag,
		Type:     physics.Static,
		Shape:    physics.ShapeSphere,
		Radius:   radius,
		Position: pos,
		Sensor:   true,
	})
	return b.Index
}

// SpawnProjectile launches a gravity-free sensor sphere living ttl ticks
func (s *Session) SpawnProjectile(pos, vel vmath.Vec3, radius float64, ttl int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := physics.NewSphere("", core.GroupProjectile, radius, 0)
	b.GravityScale = 0
	b.Sensor = true
	b.TTL = ttl
	b.Position = pos
	b.Velocity = vel
	return s.world.Add(b).Index
}

// Snapshot returns a copy of the last emitted batch
func (s *Session) Snapshot() snapshot.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBatch.Clone()
}

// Update advances the simulation by wall time dt in whole fixed steps
// Returns the number of ticks executed, 0 when rejected for re-entry
func (s *Session) Update(dt time.Duration) int {
	if !s.ticking.CompareAndSwap(false, true) {
		s.observer.UpdateRejected()
		return 0
	}
	defer s.ticking.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	substeps, dropped := s.sched.Advance(dt, s.runTick)
	s.observer.UpdateCompleted(substeps, dropped)
	return substeps
}

// runTick executes one fixed step with the session lock held
func (s *Session) runTick() {
	started := time.Now()
	dt := s.sched.Step().Seconds()
	next := s.tick.Load() + 1
	nowMs := s.clock.Now().UnixMilli()

	for _, id := range s.order {
		s.processVehicle(id, next, nowMs, dt)
	}

	s.world.Step(dt)

	for _, ev := range s.collisions.Consume(s.world.Contacts(), nowMs) {
		s.observer.Collision(ev)
		s.applyCollision(ev)
	}

	s.tick.Store(next)
	s.stampAndEmit(next, nowMs)
	s.observer.TickCompleted(next, len(s.order), time.Since(started))
}

func (s *Session) processVehicle(id core.VehicleID, horizon uint64, nowMs int64, dt float64) {
	ctrl := s.vehicles[id].ctrl
	err := core.RunSafe(func() {
		res := s.reconciler.Process(id, horizon, nowMs, func(in core.InputSample) {
			ctrl.Update(dt, in)
		})
		if res.Idle {
			s.observer.IdleInput(id, res.Last+1)
		}
	})
	if err != nil {
		s.observer.VehicleFault(id, err)
	}
}

// applyCollision runs the built-in response: heavy bounce, damage, projectile expiry
func (s *Session) applyCollision(ev core.CollisionEvent) {
	for _, ref := range [2]core.BodyRef{ev.BodyA, ev.BodyB} {
		body, ok := s.world.Body(ref.Index)
		if !ok {
			continue
		}
		switch {
		case ref.Group == core.GroupProjectile:
			s.world.Remove(body)
		case ref.Owner != "":
			slot, ok := s.vehicles[ref.Owner]
			if !ok || slot.ctrl.Body() != body {
				continue
			}
			collision.Respond(body, ev, s.rng)
			if ev.Type != core.VehicleFlag {
				slot.ctrl.ApplyDamage(collision.Damage(ev.Severity))
			}
		}
	}
}

func (s *Session) stampAndEmit(tick uint64, nowMs int64) {
	s.entries = s.entries[:0]
	for _, id := range s.order {
		ctrl := s.vehicles[id].ctrl
		last, lastTs := s.buffer.LastProcessed(id)

		st := ctrl.State()
		st.TickMeta = core.TickMeta{
			Tick:               tick,
			Timestamp:          nowMs,
			LastInputTick:      last,
			LastInputTimestamp: lastTs,
		}
		ctrl.SetState(st)

		s.entries = append(s.entries, snapshot.Entry{
			ID:     id,
			Kind:   ctrl.Kind(),
			Team:   ctrl.Team(),
			Health: ctrl.Health(),
			State:  st,
		})
	}

	s.lastBatch = s.builder.Build(tick, nowMs, s.entries).Clone()
	for _, sink := range s.sinks {
		batch := s.lastBatch
		if err := core.RunSafe(func() { sink.OnSnapshot(batch) }); err != nil {
			s.observer.CallbackFault("sink", err)
		}
	}
}
