// Package recorder persists match history: collision events and sampled
// snapshots go to a gorm database, per-tick timing goes to InfluxDB
package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/engine"
	"github.com/lixenwraith/skyfight/service"
	"github.com/lixenwraith/skyfight/snapshot"
)

const (
	defaultQueue     = 1024
	defaultBatchSize = 128
	flushInterval    = 500 * time.Millisecond
)

// Config controls sampling and buffering
type Config struct {
	// SampleEvery records one snapshot batch per n ticks, 0 disables snapshots
	SampleEvery int
	Queue       int
	BatchSize   int
	// Settings is stored on the match row as JSON
	Settings any
}

// record is one queued row, exactly one field is set
type record struct {
	collision *CollisionRecord
	snapshot  *SnapshotRecord
}

// Recorder is a service that writes one Match and its rows
// Session callbacks only enqueue; a full queue drops the row
type Recorder struct {
	session *engine.Session
	db      *gorm.DB
	cfg     Config
	log     zerolog.Logger
	sampled zerolog.Logger

	match   Match
	queue   chan record
	stopCh  chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
	running atomic.Bool

	written atomic.Int64
	dropped atomic.Int64
}

// New records session into db
func New(session *engine.Session, db *gorm.DB, cfg Config, log zerolog.Logger) *Recorder {
	if cfg.Queue <= 0 {
		cfg.Queue = defaultQueue
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &Recorder{
		session: session,
		db:      db,
		cfg:     cfg,
		log:     log,
		sampled: log.Sample(&zerolog.BasicSampler{N: 100}),
		queue:   make(chan record, cfg.Queue),
		stopCh:  make(chan struct{}),
	}
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) Dependencies() []string { return []string{service.SimulationName} }

// Init creates the match row and subscribes to the session
func (r *Recorder) Init() error {
	if r.db == nil {
		return errors.New("recorder has no database")
	}

	settings, err := json.Marshal(r.cfg.Settings)
	if err != nil {
		return err
	}
	step := r.session.FixedStep()
	rate := 0
	if step > 0 {
		rate = int(time.Second / step)
	}
	r.match = Match{
		ID:        uuid.New(),
		StartedAt: time.Now().UTC(),
		TickRate:  rate,
		Settings:  datatypes.JSON(settings),
	}
	if err := r.db.Create(&r.match).Error; err != nil {
		return err
	}

	r.session.OnAnyCollision(r.onCollision)
	if r.cfg.SampleEvery > 0 {
		r.session.AddSink(r)
	}
	r.log.Info().Str("match", r.match.ID.String()).Msg("Recording match")
	return nil
}

func (r *Recorder) Start(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return nil
	}
	r.wg.Add(1)
	core.Go(func() {
		defer r.wg.Done()
		r.run(ctx)
	}, func(err error) {
		r.log.Error().Err(err).Msg("Recorder worker panicked")
	})
	return nil
}

// Stop flushes queued rows and closes the match
func (r *Recorder) Stop() error {
	r.stopped.Do(func() { close(r.stopCh) })
	r.wg.Wait()
	r.running.Store(false)

	if r.db == nil || r.match.ID == uuid.Nil {
		return nil
	}
	ended := time.Now().UTC()
	return r.db.Model(&Match{}).Where("id = ?", r.match.ID).Updates(map[string]any{
		"ended_at":  ended,
		"last_tick": r.session.Tick(),
	}).Error
}

// MatchID returns the id of the recorded match, nil before Init
func (r *Recorder) MatchID() uuid.UUID { return r.match.ID }

// Stats returns rows written and rows dropped on a full queue
func (r *Recorder) Stats() (written, dropped int64) {
	return r.written.Load(), r.dropped.Load()
}

// onCollision runs inside the tick, so the tick being simulated is one past the last completed
func (r *Recorder) onCollision(ev core.CollisionEvent) {
	if !r.running.Load() {
		return
	}
	contact, _ := json.Marshal(struct {
		Point  [3]float64 `json:"point"`
		Normal [3]float64 `json:"normal"`
	}{
		Point:  [3]float64{ev.ContactPoint.X, ev.ContactPoint.Y, ev.ContactPoint.Z},
		Normal: [3]float64{ev.Normal.X, ev.Normal.Y, ev.Normal.Z},
	})
	r.enqueue(record{collision: &CollisionRecord{
		MatchID:   r.match.ID,
		Tick:      r.session.Tick() + 1,
		Timestamp: ev.Timestamp,
		Type:      ev.Type.String(),
		Severity:  ev.Severity.String(),
		VehicleA:  string(ev.BodyA.Owner),
		VehicleB:  string(ev.BodyB.Owner),
		Impact:    ev.ImpactVelocity,
		Contact:   datatypes.JSON(contact),
	}})
}

// OnSnapshot implements engine.SnapshotSink
func (r *Recorder) OnSnapshot(b snapshot.Batch) {
	if !r.running.Load() || b.Tick%uint64(r.cfg.SampleEvery) != 0 {
		return
	}
	data, err := json.Marshal(b.Vehicles)
	if err != nil {
		r.sampled.Warn().Err(err).Uint64("tick", b.Tick).Msg("Snapshot encode failed")
		return
	}
	r.enqueue(record{snapshot: &SnapshotRecord{
		MatchID:   r.match.ID,
		Tick:      b.Tick,
		Timestamp: b.Timestamp,
		Vehicles:  len(b.Vehicles),
		Data:      datatypes.JSON(data),
	}})
}

func (r *Recorder) enqueue(rec record) {
	select {
	case r.queue <- rec:
	default:
		r.dropped.Add(1)
	}
}

func (r *Recorder) run(ctx context.Context) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	var collisions []CollisionRecord
	var snapshots []SnapshotRecord

	flush := func() {
		if len(collisions) > 0 {
			r.write(&collisions, len(collisions))
			collisions = collisions[:0]
		}
		if len(snapshots) > 0 {
			r.write(&snapshots, len(snapshots))
			snapshots = snapshots[:0]
		}
	}
	add := func(rec record) {
		switch {
		case rec.collision != nil:
			collisions = append(collisions, *rec.collision)
		case rec.snapshot != nil:
			snapshots = append(snapshots, *rec.snapshot)
		}
		if len(collisions)+len(snapshots) >= r.cfg.BatchSize {
			flush()
		}
	}

	for {
		select {
		case rec := <-r.queue:
			add(rec)
		case <-ticker.C:
			flush()
		case <-r.stopCh:
			for {
				select {
				case rec := <-r.queue:
					add(rec)
				default:
					flush()
					return
				}
			}
		case <-ctx.Done():
			flush()
			return
		}
	}
}

func (r *Recorder) write(rows any, n int) {
	if err := r.db.CreateInBatches(rows, r.cfg.BatchSize).Error; err != nil {
		r.sampled.Warn().Err(err).Int("rows", n).Msg("Recorder write failed")
		return
	}
	r.written.Add(int64(n))
}
