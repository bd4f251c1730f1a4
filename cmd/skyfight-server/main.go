package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/skyfight/config"
	"github.com/lixenwraith/skyfight/engine"
	"github.com/lixenwraith/skyfight/gateway"
	"github.com/lixenwraith/skyfight/input"
	"github.com/lixenwraith/skyfight/logging"
	"github.com/lixenwraith/skyfight/network"
	"github.com/lixenwraith/skyfight/recorder"
	"github.com/lixenwraith/skyfight/replication"
	"github.com/lixenwraith/skyfight/service"
	"github.com/lixenwraith/skyfight/telemetry"
)

var (
	configFile = flag.String("config", "", "Config file path, overrides -config-dir")
	configDir  = flag.String("config-dir", ".", "Directory searched for skyfight.{toml,yaml,json}")
	envFile    = flag.String("env", ".env", "Dotenv file loaded before the environment")
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "SKYFIGHT SERVER CRASHED: %v\nStack Trace:\n%s\n", r, debug.Stack())
			os.Exit(1)
		}
	}()

	flag.Parse()

	cfg, err := config.Load(*configFile, *configDir, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := service.NewHub(logging.Component(log, "hub"))

	observers := telemetry.Multi{
		telemetry.NewCounters(),
		telemetry.NewLogObserver(logging.Component(log, "session"), cfg.Telemetry.LogSampleN, cfg.Telemetry.SlowTick),
	}

	var metrics *telemetry.MeterService
	if cfg.Telemetry.OTel {
		metrics = telemetry.NewMeterService(cfg.Telemetry.ReportEvery, logging.Component(log, "metrics"))
		otelObs, err := telemetry.NewOTelObserver(metrics.Meter())
		if err != nil {
			return fmt.Errorf("otel instruments: %w", err)
		}
		observers = append(observers, otelObs)
		if err := hub.Register(metrics); err != nil {
			return err
		}
	}

	if cfg.Influx.Enabled {
		timings := recorder.NewTickTimings(cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket,
			cfg.Influx.Window, logging.Component(log, "influx")).Tag("service", cfg.Log.Service)
		observers = append(observers, timings)
		if err := hub.Register(timings); err != nil {
			return err
		}
	}

	opts := append(cfg.SessionOptions(), engine.WithObserver(observers))
	session := engine.NewSession(opts...)
	gate := input.NewGate(cfg.Session.LatencyBudget)

	if err := hub.Register(service.NewSimulation(session, cfg.Session.FrameInterval, logging.Component(log, "simulation"))); err != nil {
		return err
	}

	if cfg.Network.Enabled {
		netCfg := network.ServerConfig(cfg.Network.Listen)
		netCfg.MaxPeers = cfg.Network.MaxPeers
		if err := hub.Register(network.NewServer(session, netCfg, gate, logging.Component(log, "network"))); err != nil {
			return err
		}
	}

	if cfg.Gateway.Enabled {
		gw := gateway.NewServer(session, gateway.Config{
			Listen:    cfg.Gateway.Listen,
			SendEvery: cfg.Gateway.SendEvery,
		}, gate, logging.Component(log, "gateway"))
		if err := hub.Register(gw); err != nil {
			return err
		}
	}

	var targets []replication.Target
	if cfg.NATS.Enabled {
		t, err := replication.NewNATS(cfg.NATS.URL, cfg.NATS.Stream, cfg.NATS.Subject)
		if err != nil {
			return err
		}
		targets = append(targets, t)
	}
	if cfg.Redis.Enabled {
		t, err := replication.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			return err
		}
		targets = append(targets, t)
	}
	if len(targets) > 0 {
		r := replication.NewReplicator(session, 1, 0, logging.Component(log, "replication"), targets...)
		if err := hub.Register(r); err != nil {
			return err
		}
	}

	if cfg.Recorder.Enabled {
		db, err := recorder.Open(cfg.Recorder.Driver, cfg.Recorder.DSN)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		rec := recorder.New(session, db, recorder.Config{
			SampleEvery: cfg.Recorder.SampleEvery,
			Settings:    cfg.Session,
		}, logging.Component(log, "recorder"))
		if err := hub.Register(rec); err != nil {
			return err
		}
	}

	if err := hub.InitAll(); err != nil {
		return err
	}
	if err := hub.StartAll(ctx); err != nil {
		return err
	}
	log.Info().
		Strs("services", hub.Order()).
		Dur("step", session.FixedStep()).
		Msg("Server running")

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	return hub.StopAll()
}
