package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// MeterService owns the process meter provider and periodically logs a
// summary of collected instruments
type MeterService struct {
	provider *sdkmetric.MeterProvider
	reader   *sdkmetric.ManualReader
	interval time.Duration
	log      zerolog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMeterService installs a provider as the global meter provider
// interval <= 0 disables the periodic summary
func NewMeterService(interval time.Duration, log zerolog.Logger) *MeterService {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	return &MeterService{
		provider: provider,
		reader:   reader,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Meter returns the instrumentation meter
func (m *MeterService) Meter() metric.Meter {
	return m.provider.Meter(instrumentationName)
}

func (m *MeterService) Name() string { return "metrics" }

func (m *MeterService) Dependencies() []string { return nil }

func (m *MeterService) Init() error { return nil }

func (m *MeterService) Start(ctx context.Context) error {
	if m.interval <= 0 {
		return nil
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.report(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (m *MeterService) Stop() error {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
	return m.provider.Shutdown(context.Background())
}

// Summary collects current values: sums and gauges as totals, histograms as counts
func (m *MeterService) Summary(ctx context.Context) (map[string]float64, error) {
	var rm metricdata.ResourceMetrics
	if err := m.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, sm := range rm.ScopeMetrics {
		for _, mt := range sm.Metrics {
			switch data := mt.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out[mt.Name] += float64(dp.Value)
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					out[mt.Name] += dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					out[mt.Name] += float64(dp.Value)
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					out[mt.Name] += float64(dp.Count)
				}
			}
		}
	}
	return out, nil
}

func (m *MeterService) report(ctx context.Context) {
	summary, err := m.Summary(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("Metric collection failed")
		return
	}
	ev := m.log.Info()
	for name, v := range summary {
		ev = ev.Float64(name, v)
	}
	ev.Msg("Metrics")
}
