package telemetry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/engine"
	"github.com/lixenwraith/skyfight/vmath"
)

func heavyHit() core.CollisionEvent {
	return core.CollisionEvent{
		BodyA:          core.BodyRef{Owner: "d1"},
		Type:           core.VehicleEnvironment,
		Severity:       core.SeverityHeavy,
		ImpactVelocity: 18,
	}
}

func TestCountersRecordsEvents(t *testing.T) {
	c := NewCounters()

	c.TickCompleted(1, 2, 3*time.Millisecond)
	c.TickCompleted(2, 2, time.Millisecond)
	c.UpdateCompleted(2, 5*time.Millisecond)
	c.UpdateRejected()
	c.InputDropped("d1", 7)
	c.IdleInput("d1", 8)
	c.Collision(heavyHit())
	c.Collision(core.CollisionEvent{Type: core.VehicleEnvironment, Severity: core.SeverityHeavy, ImpactVelocity: 16})
	c.VehicleFault("d1", errors.New("boom"))
	c.CallbackFault("sink", errors.New("bad sink"))

	assert.Equal(t, int64(2), c.Int(KeyTicks))
	assert.Equal(t, int64(2), c.Int(KeyVehicles))
	assert.Equal(t, int64(1), c.Int(KeyUpdates))
	assert.Equal(t, int64(2), c.Int(KeySubsteps))
	assert.Equal(t, int64(5*time.Millisecond), c.Int(KeyDroppedNanos))
	assert.Equal(t, int64(1), c.Int(KeyRejected))
	assert.Equal(t, int64(1), c.Int(KeyInputDropped))
	assert.Equal(t, int64(1), c.Int(KeyInputIdle))
	assert.Equal(t, int64(2), c.Int(CollisionKey(core.VehicleEnvironment, core.SeverityHeavy)))
	assert.Equal(t, int64(0), c.Int(CollisionKey(core.VehicleVehicle, core.SeverityLight)))
	assert.InDelta(t, 1.0, c.Float(KeyTickMillis), 1e-9)
	assert.InDelta(t, 3.0, c.Float(KeyTickMaxMillis), 1e-9)
	assert.InDelta(t, 18.0, c.Float(KeyMaxImpact), 1e-9)
	assert.Equal(t, int64(1), c.Int(KeyVehicleFaults))
	assert.Equal(t, int64(1), c.Int(KeyCallbackFaults))
	assert.Equal(t, "sink: bad sink", c.Labels.Get(KeyLastFault).Load())
}

func TestCountersConcurrent(t *testing.T) {
	c := NewCounters()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.InputDropped("d1", uint64(j))
				c.Collision(heavyHit())
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(8000), c.Int(KeyInputDropped))
	assert.Equal(t, int64(8000), c.Int(CollisionKey(core.VehicleEnvironment, core.SeverityHeavy)))
}

func TestMetricMapRangeSorted(t *testing.T) {
	m := NewMetricMap[Gauge]()
	m.Get("b").Set(2)
	m.Get("a").Set(1)
	m.Get("c").Set(3)
	assert.Same(t, m.Get("a"), m.Get("a"))

	var keys []string
	var sum float64
	m.Range(func(k string, g *Gauge) {
		keys = append(keys, k)
		sum += g.Get()
	})
	assert.Equal(t, []string{"a", "b", "c"}, keys)
	assert.Equal(t, 6.0, sum)
	assert.Equal(t, 3, m.Count())
	assert.False(t, m.Has("d"))
}

func TestLabelTruncates(t *testing.T) {
	var l Label
	assert.Equal(t, "", l.Load())
	l.Store(strings.Repeat("x", MaxLabelLen+10))
	assert.Len(t, l.Load(), MaxLabelLen)
}

func TestCountersWithSession(t *testing.T) {
	c := NewCounters()
	clock := engine.NewMockTimeProvider(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	s := engine.NewSession(engine.WithClock(clock), engine.WithObserver(c))
	require.NoError(t, s.CreateVehicle("d1", core.KindDrone, 1, core.SpawnAt(vmath.Vec3{Y: 10}, 0)))

	ran := s.Update(clock.AdvanceTicks(2))

	assert.Equal(t, 2, ran)
	assert.Equal(t, int64(2), c.Int(KeyTicks))
	assert.Equal(t, int64(1), c.Int(KeyVehicles))
	assert.Equal(t, int64(2), c.Int(KeyInputIdle))
}

// collect gathers all metrics from the reader keyed by name
func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumInt(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	data, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is %T", m.Name, m.Data)
	var total int64
	for _, dp := range data.DataPoints {
		total += dp.Value
	}
	return total
}

func TestOTelObserver(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	o, err := NewOTelObserver(provider.Meter("test"))
	require.NoError(t, err)

	o.VehicleAdded("d1", core.KindDrone)
	o.VehicleAdded("p1", core.KindPlane)
	o.VehicleRemoved("p1")
	o.TickCompleted(1, 1, 2*time.Millisecond)
	o.TickCompleted(2, 1, 2*time.Millisecond)
	o.UpdateCompleted(2, 0)
	o.InputDropped("d1", 3)
	o.IdleInput("d1", 4)
	o.Collision(heavyHit())
	o.CallbackFault("sink", errors.New("x"))
	o.VehicleFault("d1", errors.New("y"))

	metrics := collect(t, reader)

	assert.Equal(t, int64(2), sumInt(t, metrics["session.ticks"]))
	assert.Equal(t, int64(2), sumInt(t, metrics["session.substeps"]))
	assert.Equal(t, int64(2), sumInt(t, metrics["input.events"]))
	assert.Equal(t, int64(1), sumInt(t, metrics["collision.events"]))
	assert.Equal(t, int64(2), sumInt(t, metrics["session.faults"]))

	gauge, ok := metrics["session.vehicles"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(1), gauge.DataPoints[0].Value)

	hist, ok := metrics["session.tick.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.InDelta(t, 4.0, hist.DataPoints[0].Sum, 1e-9)
}

func TestLogObserverSamplesHighRate(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	o := NewLogObserver(log, 3, 0)

	for i := 0; i < 3; i++ {
		o.InputDropped("d1", uint64(i))
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"), buf.String())

	buf.Reset()
	o.VehicleFault("d1", errors.New("boom"))
	o.CallbackFault("collision", errors.New("bad"))
	o.Collision(heavyHit())
	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "\n"), out)
	assert.Contains(t, out, `"vehicle":"d1"`)
	assert.Contains(t, out, `"source":"collision"`)
	assert.Contains(t, out, `"severity":"heavy"`)
}

func TestLogObserverSlowTick(t *testing.T) {
	var buf bytes.Buffer
	o := NewLogObserver(zerolog.New(&buf).Level(zerolog.InfoLevel), 1, 10*time.Millisecond)

	o.TickCompleted(1, 0, time.Millisecond)
	assert.Empty(t, buf.String())

	o.TickCompleted(2, 0, 20*time.Millisecond)
	assert.Contains(t, buf.String(), "Slow tick")
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewCounters(), NewCounters()
	m := Multi{a, b, engine.NopObserver{}}

	m.TickCompleted(1, 0, 0)
	m.UpdateRejected()

	for _, c := range []*Counters{a, b} {
		assert.Equal(t, int64(1), c.Int(KeyTicks))
		assert.Equal(t, int64(1), c.Int(KeyRejected))
	}
}

func TestMeterServiceSummary(t *testing.T) {
	svc := NewMeterService(0, zerolog.Nop())
	t.Cleanup(func() { _ = svc.Stop() })

	o, err := NewOTelObserver(svc.Meter())
	require.NoError(t, err)
	o.TickCompleted(1, 1, time.Millisecond)
	o.TickCompleted(2, 1, time.Millisecond)
	o.TickCompleted(3, 1, time.Millisecond)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.0, summary["session.ticks"])
	assert.Equal(t, 3.0, summary["session.tick.duration"])
	require.NoError(t, svc.Start(context.Background()))
}
