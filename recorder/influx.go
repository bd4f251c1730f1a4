package recorder

import (
	"context"
	"errors"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/engine"
)

// TickMeasurement is the Influx measurement written by TickTimings
const TickMeasurement = "session_ticks"

// PointWriter is the subset of the influx non-blocking write API used here
type PointWriter interface {
	WritePoint(point *write.Point)
	Flush()
}

// TickTimings aggregates tick durations over a window of ticks and writes
// one point per window. It is an engine.Observer; WritePoint only buffers
type TickTimings struct {
	engine.NopObserver

	writer PointWriter
	client influxdb2.Client
	window uint64
	tags   map[string]string
	log    zerolog.Logger

	// Window state, touched only from the tick goroutine
	count      uint64
	total      time.Duration
	max        time.Duration
	vehicles   int
	collisions int
	dropped    int
}

// NewTickTimings connects to InfluxDB with batched async writes
func NewTickTimings(url, token, org, bucket string, window int, log zerolog.Logger) *TickTimings {
	client := influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)
	api := client.WriteAPI(org, bucket)
	go func(errs <-chan error) {
		for err := range errs {
			log.Error().Err(err).Str("bucket", bucket).Msg("Error sending data to InfluxDB")
		}
	}(api.Errors())

	t := NewTickTimingsWithWriter(api, window, log)
	t.client = client
	return t
}

// NewTickTimingsWithWriter writes through an existing writer
func NewTickTimingsWithWriter(w PointWriter, window int, log zerolog.Logger) *TickTimings {
	if window <= 0 {
		window = 60
	}
	return &TickTimings{
		writer: w,
		window: uint64(window),
		tags:   map[string]string{},
		log:    log,
	}
}

// Tag adds a tag written on every point
func (t *TickTimings) Tag(key, value string) *TickTimings {
	t.tags[key] = value
	return t
}

func (t *TickTimings) Name() string { return "influx" }

func (t *TickTimings) Dependencies() []string { return nil }

// Init checks the server is reachable when a client is owned
func (t *TickTimings) Init() error {
	if t.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	ok, err := t.client.Ping(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("influxdb not ready")
	}
	return nil
}

func (t *TickTimings) Start(context.Context) error { return nil }

// Stop flushes buffered points and closes the owned client
func (t *TickTimings) Stop() error {
	t.writer.Flush()
	if t.client != nil {
		t.client.Close()
	}
	return nil
}

func (t *TickTimings) TickCompleted(tick uint64, vehicles int, took time.Duration) {
	t.count++
	t.total += took
	if took > t.max {
		t.max = took
	}
	t.vehicles = vehicles
	if tick%t.window != 0 {
		return
	}

	p := influxdb2.NewPointWithMeasurement(TickMeasurement).
		AddField("tick", int64(tick)).
		AddField("ticks", int64(t.count)).
		AddField("mean_us", float64(t.total.Microseconds())/float64(t.count)).
		AddField("max_us", t.max.Microseconds()).
		AddField("vehicles", vehicles).
		AddField("collisions", t.collisions).
		AddField("inputs_dropped", t.dropped).
		SetTime(time.Now())
	for k, v := range t.tags {
		p.AddTag(k, v)
	}
	t.writer.WritePoint(p)

	t.count, t.total, t.max = 0, 0, 0
	t.collisions, t.dropped = 0, 0
}

func (t *TickTimings) Collision(core.CollisionEvent) { t.collisions++ }

func (t *TickTimings) InputDropped(core.VehicleID, uint64) { t.dropped++ }
