package telemetry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/lixenwraith/skyfight/core"
)

const instrumentationName = "github.com/lixenwraith/skyfight/telemetry"

// OTelObserver records session diagnostics as OpenTelemetry instruments
// Instrument calls are non-blocking, safe to run inside the tick
type OTelObserver struct {
	ticks      metric.Int64Counter
	tickTime   metric.Float64Histogram
	substeps   metric.Int64Counter
	dropped    metric.Float64Counter
	rejected   metric.Int64Counter
	inputs     metric.Int64Counter
	collisions metric.Int64Counter
	impacts    metric.Float64Histogram
	faults     metric.Int64Counter
	vehicles   metric.Int64ObservableGauge

	liveVehicles atomic.Int64
}

// NewOTelObserver creates instruments on m, nil uses the global meter provider
func NewOTelObserver(m metric.Meter) (*OTelObserver, error) {
	if m == nil {
		m = otel.Meter(instrumentationName)
	}
	o := &OTelObserver{}

	var err error
	if o.ticks, err = m.Int64Counter("session.ticks",
		metric.WithDescription("Simulated fixed steps")); err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}
	if o.tickTime, err = m.Float64Histogram("session.tick.duration",
		metric.WithDescription("Wall time spent per tick"),
		metric.WithUnit("ms")); err != nil {
		return nil, fmt.Errorf("creating tick histogram: %w", err)
	}
	if o.substeps, err = m.Int64Counter("session.substeps",
		metric.WithDescription("Ticks run from external updates")); err != nil {
		return nil, fmt.Errorf("creating substep counter: %w", err)
	}
	if o.dropped, err = m.Float64Counter("session.time.dropped",
		metric.WithDescription("Elapsed time discarded by the carry clamp"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating dropped time counter: %w", err)
	}
	if o.rejected, err = m.Int64Counter("session.updates.rejected",
		metric.WithDescription("Re-entrant updates refused")); err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}
	if o.inputs, err = m.Int64Counter("input.events",
		metric.WithDescription("Input queue overflow and idle substitutions")); err != nil {
		return nil, fmt.Errorf("creating input counter: %w", err)
	}
	if o.collisions, err = m.Int64Counter("collision.events",
		metric.WithDescription("Classified collisions")); err != nil {
		return nil, fmt.Errorf("creating collision counter: %w", err)
	}
	if o.impacts, err = m.Float64Histogram("collision.impact",
		metric.WithDescription("Normal impact speed"),
		metric.WithUnit("m/s")); err != nil {
		return nil, fmt.Errorf("creating impact histogram: %w", err)
	}
	if o.faults, err = m.Int64Counter("session.faults",
		metric.WithDescription("Recovered panics by source")); err != nil {
		return nil, fmt.Errorf("creating fault counter: %w", err)
	}
	if o.vehicles, err = m.Int64ObservableGauge("session.vehicles",
		metric.WithDescription("Vehicles currently simulated")); err != nil {
		return nil, fmt.Errorf("creating vehicle gauge: %w", err)
	}
	if _, err = m.RegisterCallback(func(_ context.Context, ob metric.Observer) error {
		ob.ObserveInt64(o.vehicles, o.liveVehicles.Load())
		return nil
	}, o.vehicles); err != nil {
		return nil, fmt.Errorf("registering vehicle callback: %w", err)
	}

	return o, nil
}

func (o *OTelObserver) TickCompleted(_ uint64, vehicles int, took time.Duration) {
	ctx := context.Background()
	o.ticks.Add(ctx, 1)
	o.tickTime.Record(ctx, float64(took)/float64(time.Millisecond))
	o.liveVehicles.Store(int64(vehicles))
}

func (o *OTelObserver) UpdateCompleted(substeps int, dropped time.Duration) {
	ctx := context.Background()
	o.substeps.Add(ctx, int64(substeps))
	if dropped > 0 {
		o.dropped.Add(ctx, dropped.Seconds())
	}
}

func (o *OTelObserver) UpdateRejected() {
	o.rejected.Add(context.Background(), 1)
}

func (o *OTelObserver) InputDropped(core.VehicleID, uint64) {
	o.inputs.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", "overflow")))
}

func (o *OTelObserver) IdleInput(core.VehicleID, uint64) {
	o.inputs.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", "idle")))
}

func (o *OTelObserver) Collision(ev core.CollisionEvent) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("type", ev.Type.String()),
		attribute.String("severity", ev.Severity.String()),
	)
	o.collisions.Add(ctx, 1, attrs)
	o.impacts.Record(ctx, ev.ImpactVelocity, metric.WithAttributes(attribute.String("type", ev.Type.String())))
}

func (o *OTelObserver) VehicleFault(core.VehicleID, error) {
	o.faults.Add(context.Background(), 1, metric.WithAttributes(attribute.String("source", "vehicle")))
}

func (o *OTelObserver) CallbackFault(source string, _ error) {
	o.faults.Add(context.Background(), 1, metric.WithAttributes(attribute.String("source", source)))
}

func (o *OTelObserver) VehicleAdded(core.VehicleID, core.Kind) { o.liveVehicles.Add(1) }

func (o *OTelObserver) VehicleRemoved(core.VehicleID) { o.liveVehicles.Add(-1) }
