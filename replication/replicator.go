// Package replication fans tick snapshots out to external stores off the tick goroutine
package replication

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/engine"
	"github.com/lixenwraith/skyfight/service"
	"github.com/lixenwraith/skyfight/snapshot"
)

// Target receives batches on the replicator goroutine
type Target interface {
	Name() string
	Replicate(ctx context.Context, b snapshot.Batch) error
	Close() error
}

// Replicator is a SnapshotSink that hands batches to Targets asynchronously
// OnSnapshot copies and enqueues without blocking; a full queue drops the batch
type Replicator struct {
	session *engine.Session
	targets []Target
	every   uint64
	timeout time.Duration
	log     zerolog.Logger
	sampled zerolog.Logger

	queue    chan snapshot.Batch
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool

	sent    atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewReplicator forwards every nth batch of session to targets
func NewReplicator(session *engine.Session, every int, queue int, log zerolog.Logger, targets ...Target) *Replicator {
	if every <= 0 {
		every = 1
	}
	if queue <= 0 {
		queue = 64
	}
	return &Replicator{
		session: session,
		targets: targets,
		every:   uint64(every),
		timeout: 2 * time.Second,
		log:     log,
		sampled: log.Sample(&zerolog.BasicSampler{N: 50}),
		queue:   make(chan snapshot.Batch, queue),
		stopCh:  make(chan struct{}),
	}
}

func (r *Replicator) Name() string { return "replication" }

func (r *Replicator) Dependencies() []string { return []string{service.SimulationName} }

func (r *Replicator) Init() error {
	if len(r.targets) == 0 {
		return errors.New("replication enabled without targets")
	}
	r.session.AddSink(r)
	return nil
}

func (r *Replicator) Start(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return nil
	}
	r.wg.Add(1)
	core.Go(func() {
		defer r.wg.Done()
		r.run(ctx)
	}, func(err error) {
		r.log.Error().Err(err).Msg("Replication worker panicked")
	})
	return nil
}

// Stop drains queued batches, then closes targets
func (r *Replicator) Stop() error {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
	r.running.Store(false)

	var errs []error
	for _, t := range r.targets {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OnSnapshot implements engine.SnapshotSink
func (r *Replicator) OnSnapshot(b snapshot.Batch) {
	if !r.running.Load() || b.Tick%r.every != 0 {
		return
	}
	select {
	case r.queue <- b.Clone():
	default:
		r.dropped.Add(1)
	}
}

// Stats returns batches delivered, dropped on a full queue, and target failures
func (r *Replicator) Stats() (sent, dropped, failed int64) {
	return r.sent.Load(), r.dropped.Load(), r.failed.Load()
}

func (r *Replicator) run(ctx context.Context) {
	for {
		select {
		case b := <-r.queue:
			r.deliver(ctx, b)
		case <-r.stopCh:
			for {
				select {
				case b := <-r.queue:
					r.deliver(context.Background(), b)
				default:
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (r *Replicator) deliver(ctx context.Context, b snapshot.Batch) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ok := true
	for _, t := range r.targets {
		if err := t.Replicate(ctx, b); err != nil {
			ok = false
			r.failed.Add(1)
			r.sampled.Warn().Err(err).Str("target", t.Name()).Uint64("tick", b.Tick).Msg("Replication failed")
		}
	}
	if ok {
		r.sent.Add(1)
	}
}
