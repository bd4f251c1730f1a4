package telemetry

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/skyfight/core"
)

// LogObserver writes session diagnostics to a zerolog logger
// Per-tick and per-input events are sampled, faults and lifecycle always log
type LogObserver struct {
	log     zerolog.Logger
	sampled zerolog.Logger
	slow    time.Duration
}

// NewLogObserver logs through log, keeping one in every sampleN high-rate events
// Ticks slower than slow are logged unsampled at warn, 0 disables
func NewLogObserver(log zerolog.Logger, sampleN uint32, slow time.Duration) *LogObserver {
	if sampleN == 0 {
		sampleN = 1
	}
	return &LogObserver{
		log:     log,
		sampled: log.Sample(&zerolog.BasicSampler{N: sampleN}),
		slow:    slow,
	}
}

func (l *LogObserver) TickCompleted(tick uint64, vehicles int, took time.Duration) {
	if l.slow > 0 && took > l.slow {
		l.log.Warn().Uint64("tick", tick).Int("vehicles", vehicles).Dur("took", took).Msg("Slow tick")
		return
	}
	l.sampled.Trace().Uint64("tick", tick).Int("vehicles", vehicles).Dur("took", took).Msg("Tick")
}

func (l *LogObserver) UpdateCompleted(substeps int, dropped time.Duration) {
	if dropped > 0 {
		l.sampled.Warn().Int("substeps", substeps).Dur("dropped", dropped).Msg("Simulation fell behind, time dropped")
	}
}

func (l *LogObserver) UpdateRejected() {
	l.sampled.Warn().Msg("Re-entrant update rejected")
}

func (l *LogObserver) InputDropped(id core.VehicleID, tick uint64) {
	l.sampled.Debug().Str("vehicle", string(id)).Uint64("tick", tick).Msg("Input queue full, oldest sample dropped")
}

func (l *LogObserver) IdleInput(id core.VehicleID, tick uint64) {
	l.sampled.Trace().Str("vehicle", string(id)).Uint64("tick", tick).Msg("No input, idle applied")
}

func (l *LogObserver) Collision(ev core.CollisionEvent) {
	e := l.sampled.Debug()
	if ev.Severity == core.SeverityHeavy {
		e = l.log.Info()
	}
	e.Str("type", ev.Type.String()).
		Str("severity", ev.Severity.String()).
		Str("a", string(ev.BodyA.Owner)).
		Str("b", string(ev.BodyB.Owner)).
		Float64("impact", ev.ImpactVelocity).
		Msg("Collision")
}

func (l *LogObserver) VehicleFault(id core.VehicleID, err error) {
	l.log.Error().Err(err).Str("vehicle", string(id)).Msg("Vehicle update panicked")
}

func (l *LogObserver) CallbackFault(source string, err error) {
	l.log.Error().Err(err).Str("source", source).Msg("Callback panicked")
}

func (l *LogObserver) VehicleAdded(id core.VehicleID, kind core.Kind) {
	l.log.Info().Str("vehicle", string(id)).Str("kind", kind.String()).Msg("Vehicle added")
}

func (l *LogObserver) VehicleRemoved(id core.VehicleID) {
	l.log.Info().Str("vehicle", string(id)).Msg("Vehicle removed")
}
