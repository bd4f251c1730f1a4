package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/parameter"
)

// Updater is what ClockScheduler drives, satisfied by *Session
type Updater interface {
	Update(dt time.Duration) int
}

// ClockScheduler feeds measured wall time into a Session on a fixed frame cadence
// Frame cadence is independent of the simulation step: the session's accumulator
// converts whatever elapsed into whole ticks
type ClockScheduler struct {
	target   Updater
	clock    TimeProvider
	interval time.Duration

	lastFrame    time.Time
	nextDeadline time.Time
	mu           sync.Mutex

	frameCount atomic.Uint64
	tickCount  atomic.Uint64

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool

	onCrash func(error)
}

// NewClockScheduler creates a driver for target, interval <= 0 uses the default frame cadence
func NewClockScheduler(target Updater, clock TimeProvider, interval time.Duration) *ClockScheduler {
	if interval <= 0 {
		interval = parameter.ClockFrameInterval
	}
	if clock == nil {
		clock = NewMonotonicTimeProvider()
	}
	return &ClockScheduler{
		target:   target,
		clock:    clock,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// OnCrash sets the handler for a panic escaping a frame, must be called before Start
func (cs *ClockScheduler) OnCrash(fn func(error)) {
	cs.onCrash = fn
}

// Start begins the frame loop, repeated calls are no-ops
func (cs *ClockScheduler) Start() {
	if cs.running.CompareAndSwap(false, true) {
		cs.wg.Add(1)
		core.Go(cs.schedulerLoop, cs.onCrash)
	}
}

// Stop halts the frame loop and waits for the in-flight frame, repeated calls are no-ops
func (cs *ClockScheduler) Stop() {
	cs.stopOnce.Do(func() {
		if cs.running.CompareAndSwap(true, false) {
			close(cs.stopChan)
			cs.wg.Wait()
		}
	})
}

// Running reports whether the loop is active
func (cs *ClockScheduler) Running() bool {
	return cs.running.Load()
}

// Frames returns the number of frames driven
func (cs *ClockScheduler) Frames() uint64 {
	return cs.frameCount.Load()
}

// Ticks returns the number of simulation ticks executed through this driver
func (cs *ClockScheduler) Ticks() uint64 {
	return cs.tickCount.Load()
}

func (cs *ClockScheduler) schedulerLoop() {
	defer cs.wg.Done()

	now := cs.clock.Now()
	cs.mu.Lock()
	cs.lastFrame = now
	cs.nextDeadline = now.Add(cs.interval)
	cs.mu.Unlock()

	timer := time.NewTimer(cs.interval)
	defer timer.Stop()

	for {
		select {
		case <-cs.stopChan:
			return
		case <-timer.C:
		}

		cs.frame()

		cs.mu.Lock()
		sleep := cs.nextDeadline.Sub(cs.clock.Now())
		cs.mu.Unlock()
		if sleep < 0 {
			sleep = 0
		}
		timer.Reset(sleep)
	}
}

// frame runs one update with measured elapsed time and advances the deadline
// A panic inside the session is reported and the loop keeps running
func (cs *ClockScheduler) frame() {
	now := cs.clock.Now()

	cs.mu.Lock()
	elapsed := now.Sub(cs.lastFrame)
	cs.lastFrame = now
	cs.nextDeadline = cs.nextDeadline.Add(cs.interval)
	// Drift correction: re-anchor instead of bursting after a long stall
	if now.Sub(cs.nextDeadline) > cs.interval*2 {
		cs.nextDeadline = now.Add(cs.interval)
	}
	cs.mu.Unlock()

	var ticks int
	if err := core.RunSafe(func() { ticks = cs.target.Update(elapsed) }); err != nil && cs.onCrash != nil {
		cs.onCrash(err)
	}
	cs.frameCount.Add(1)
	cs.tickCount.Add(uint64(ticks))
}
