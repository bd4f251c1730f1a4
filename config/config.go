// Package config loads server configuration from file, .env and SKYFIGHT_ environment
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/engine"
	"github.com/lixenwraith/skyfight/logging"
	"github.com/lixenwraith/skyfight/parameter"
	"github.com/lixenwraith/skyfight/vehicle"
)

// EnvPrefix scopes environment overrides, session.seed reads SKYFIGHT_SESSION_SEED
const EnvPrefix = "SKYFIGHT"

// DefaultConfigName is searched for in the config directory when no explicit file is given
const DefaultConfigName = "skyfight"

type SessionConfig struct {
	TickRate      int           `mapstructure:"tickRate"`
	MaxSubsteps   int           `mapstructure:"maxSubsteps"`
	MaxCarrySteps int           `mapstructure:"maxCarrySteps"`
	InputCapacity int           `mapstructure:"inputCapacity"`
	LatencyBudget time.Duration `mapstructure:"latencyBudget"`
	Seed          uint64        `mapstructure:"seed"`
	Gravity       float64       `mapstructure:"gravity"`
	FrameInterval time.Duration `mapstructure:"frameInterval"`
}

type TelemetryConfig struct {
	OTel       bool          `mapstructure:"otel"`
	LogSampleN uint32        `mapstructure:"logSampleN"`
	SlowTick   time.Duration `mapstructure:"slowTick"`

	// ReportEvery logs an OTel metric summary, 0 disables
	ReportEvery time.Duration `mapstructure:"reportEvery"`
}

type NetworkConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Listen   string `mapstructure:"listen"`
	MaxPeers int    `mapstructure:"maxPeers"`
}

type GatewayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Listen    string `mapstructure:"listen"`
	SendEvery int    `mapstructure:"sendEvery"`
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Stream  string `mapstructure:"stream"`
	Subject string `mapstructure:"subject"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type RecorderConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Driver      string `mapstructure:"driver"` // sqlite or postgres
	DSN         string `mapstructure:"dsn"`
	SampleEvery int    `mapstructure:"sampleEvery"`
}

type InfluxConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	Org     string `mapstructure:"org"`
	Bucket  string `mapstructure:"bucket"`

	// Window is the number of ticks aggregated per point
	Window int `mapstructure:"window"`
}

// Config is the full server configuration
type Config struct {
	Log       logging.Config  `mapstructure:"log"`
	Session   SessionConfig   `mapstructure:"session"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Network   NetworkConfig   `mapstructure:"network"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Recorder  RecorderConfig  `mapstructure:"recorder"`
	Influx    InfluxConfig    `mapstructure:"influx"`

	// Vehicles is the per-kind tuning after file overrides
	Vehicles vehicle.Registry `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.service", "skyfight")
	v.SetDefault("log.graylogEnabled", false)
	v.SetDefault("log.graylogAddress", "localhost:12201")

	v.SetDefault("session.tickRate", parameter.TickRate)
	v.SetDefault("session.maxSubsteps", parameter.MaxSubsteps)
	v.SetDefault("session.maxCarrySteps", parameter.MaxAccumulatedSteps)
	v.SetDefault("session.inputCapacity", parameter.InputQueueCapacity)
	v.SetDefault("session.latencyBudget", parameter.InputLatencyBudget)
	v.SetDefault("session.seed", uint64(parameter.DefaultSessionSeed))
	v.SetDefault("session.gravity", parameter.Gravity)
	v.SetDefault("session.frameInterval", parameter.ClockFrameInterval)

	v.SetDefault("telemetry.otel", false)
	v.SetDefault("telemetry.logSampleN", 60)
	v.SetDefault("telemetry.slowTick", parameter.FixedStep)
	v.SetDefault("telemetry.reportEvery", 30*time.Second)

	v.SetDefault("network.enabled", true)
	v.SetDefault("network.listen", ":7777")
	v.SetDefault("network.maxPeers", 32)

	v.SetDefault("gateway.enabled", false)
	v.SetDefault("gateway.listen", ":8080")
	v.SetDefault("gateway.sendEvery", 3)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.stream", "SKYFIGHT")
	v.SetDefault("nats.subject", "skyfight.snapshots")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", time.Minute)

	v.SetDefault("recorder.enabled", false)
	v.SetDefault("recorder.driver", "sqlite")
	v.SetDefault("recorder.dsn", "file:skyfight.db?cache=shared")
	v.SetDefault("recorder.sampleEvery", parameter.TickRate)

	v.SetDefault("influx.enabled", false)
	v.SetDefault("influx.url", "http://localhost:8086")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "skyfight")
	v.SetDefault("influx.bucket", "skyfight_ticks")
	v.SetDefault("influx.window", parameter.TickRate)
}

// Load reads .env files, then the config file, then environment overrides
// file may be empty: skyfight.{toml,json,yaml} is then looked up in dir, and its absence is not an error
func Load(file, dir string, envFiles ...string) (*Config, error) {
	// Missing .env is normal outside development
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		if dir == "" {
			dir = "."
		}
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	registry, err := loadVehicles(v)
	if err != nil {
		return nil, err
	}
	cfg.Vehicles = registry

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadVehicles overlays vehicles.<kind>.body and vehicles.<kind>.params onto the built-in tuning
// Only keys present in the file change, the rest keep their defaults
func loadVehicles(v *viper.Viper) (vehicle.Registry, error) {
	registry := vehicle.DefaultRegistry()
	for kind, cfg := range registry {
		prefix := "vehicles." + kind.String()

		if v.IsSet(prefix + ".body") {
			if err := v.UnmarshalKey(prefix+".body", &cfg.Common); err != nil {
				return nil, fmt.Errorf("vehicle %s body: %w", kind, err)
			}
		}

		if v.IsSet(prefix + ".params") {
			var target any
			switch kind {
			case core.KindDrone:
				p := *cfg.Drone
				cfg.Drone = &p
				target = cfg.Drone
			case core.KindPlane:
				p := *cfg.Plane
				cfg.Plane = &p
				target = cfg.Plane
			}
			if err := v.UnmarshalKey(prefix+".params", target); err != nil {
				return nil, fmt.Errorf("vehicle %s params: %w", kind, err)
			}
		}

		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("vehicle %s: %w", kind, err)
		}
		registry[kind] = cfg
	}
	return registry, nil
}

// Validate rejects values the session cannot run with
func (c *Config) Validate() error {
	s := c.Session
	if s.TickRate <= 0 {
		return fmt.Errorf("session.tickRate must be positive, got %d", s.TickRate)
	}
	if s.MaxSubsteps <= 0 || s.MaxCarrySteps <= 0 {
		return fmt.Errorf("session.maxSubsteps and session.maxCarrySteps must be positive")
	}
	if s.InputCapacity <= 0 {
		return fmt.Errorf("session.inputCapacity must be positive, got %d", s.InputCapacity)
	}
	switch c.Recorder.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("recorder.driver %q: want sqlite or postgres", c.Recorder.Driver)
	}
	return nil
}

// FixedStep is the tick duration implied by TickRate
func (s SessionConfig) FixedStep() time.Duration {
	return time.Second / time.Duration(s.TickRate)
}

// SessionOptions translates the configuration into engine options
func (c *Config) SessionOptions() []engine.Option {
	s := c.Session
	return []engine.Option{
		engine.WithScheduler(s.FixedStep(), s.MaxSubsteps, s.MaxCarrySteps),
		engine.WithInputCapacity(s.InputCapacity),
		engine.WithSeed(s.Seed),
		engine.WithGravity(s.Gravity),
		engine.WithVehicleConfigs(c.Vehicles),
	}
}
