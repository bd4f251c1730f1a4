package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/engine"
	"github.com/lixenwraith/skyfight/parameter"
	"github.com/lixenwraith/skyfight/vmath"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, parameter.TickRate, cfg.Session.TickRate)
	assert.Equal(t, parameter.FixedStep, cfg.Session.FixedStep())
	assert.Equal(t, parameter.InputQueueCapacity, cfg.Session.InputCapacity)
	assert.Equal(t, parameter.InputLatencyBudget, cfg.Session.LatencyBudget)
	assert.Equal(t, uint64(parameter.DefaultSessionSeed), cfg.Session.Seed)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "sqlite", cfg.Recorder.Driver)
	assert.False(t, cfg.NATS.Enabled)

	drone, err := cfg.Vehicles.Lookup(core.KindDrone)
	require.NoError(t, err)
	assert.Equal(t, parameter.DroneMass, drone.Common.Mass)
	assert.Equal(t, parameter.DronePIDProportional, drone.Drone.Kp)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "server.toml", `
[log]
level = "debug"
format = "json"

[session]
tickRate = 30
frameInterval = "4ms"

[redis]
enabled = true
ttl = "30s"

[vehicles.drone.body]
mass = 3.5

[vehicles.plane.params]
lift_factor = 0.01
`)
	t.Setenv("SKYFIGHT_SESSION_SEED", "7")
	t.Setenv("SKYFIGHT_RECORDER_DRIVER", "postgres")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 30, cfg.Session.TickRate)
	assert.Equal(t, time.Second/30, cfg.Session.FixedStep())
	assert.Equal(t, 4*time.Millisecond, cfg.Session.FrameInterval)
	assert.Equal(t, uint64(7), cfg.Session.Seed)
	assert.Equal(t, "postgres", cfg.Recorder.Driver)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)

	drone := cfg.Vehicles[core.KindDrone]
	assert.Equal(t, 3.5, drone.Common.Mass)
	assert.Equal(t, parameter.DroneRadius, drone.Common.Radius, "untouched keys keep defaults")

	plane := cfg.Vehicles[core.KindPlane]
	assert.Equal(t, 0.01, plane.Plane.LiftFactor)
	assert.Equal(t, parameter.PlaneMaxLift, plane.Plane.MaxLift)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	env := writeFile(t, dir, ".env", "SKYFIGHT_GATEWAY_LISTEN=:9999\n")
	t.Cleanup(func() { os.Unsetenv("SKYFIGHT_GATEWAY_LISTEN") })

	cfg, err := Load("", dir, env)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Gateway.Listen)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		body string
	}{
		{"zero tick rate", "[session]\ntickRate = 0\n"},
		{"unknown driver", "[recorder]\ndriver = \"mysql\"\n"},
		{"negative mass", "[vehicles.drone.body]\nmass = -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "bad.toml", tt.body)
			_, err := Load(path, "")
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.toml"), "")
	assert.Error(t, err, "explicit file must exist")
}

func TestSessionOptions(t *testing.T) {
	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)
	cfg.Session.TickRate = 30
	cfg.Session.Seed = 5

	s := engine.NewSession(cfg.SessionOptions()...)
	assert.Equal(t, time.Second/30, s.FixedStep())
	require.NoError(t, s.CreateVehicle("d1", core.KindDrone, 1, core.SpawnAt(vmath.Vec3{Y: 10}, 0)))
}
