package audio

import (
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/skyfight/core"
)

func drain(s beep.Streamer) (total int, peak float64) {
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			if v := buf[i][0]; v > peak {
				peak = v
			} else if -v > peak {
				peak = -v
			}
		}
		total += n
		if !ok {
			return total, peak
		}
	}
}

func TestCueFor(t *testing.T) {
	assert.Equal(t, CueFlag, CueFor(core.CollisionEvent{Type: core.VehicleFlag, Severity: core.SeverityHeavy}))
	assert.Equal(t, CueHit, CueFor(core.CollisionEvent{Type: core.VehicleProjectile}))
	assert.Equal(t, CueCrash, CueFor(core.CollisionEvent{Type: core.VehicleEnvironment, Severity: core.SeverityHeavy}))
	assert.Equal(t, CueBump, CueFor(core.CollisionEvent{Type: core.VehicleVehicle, Severity: core.SeverityLight}))
}

func TestBuildIsFinite(t *testing.T) {
	for _, c := range []Cue{CueBump, CueCrash, CueHit, CueFlag} {
		s := Build(c, 1)
		require.NotNil(t, s, "cue %d", c)
		n, peak := drain(s)
		assert.Greater(t, n, 0, "cue %d", c)
		assert.LessOrEqual(t, n, sampleRate.N(400*time.Millisecond), "cue %d", c)
		assert.Greater(t, peak, 0.0, "cue %d", c)
		assert.LessOrEqual(t, peak, 1.0, "cue %d", c)
	}
	assert.Nil(t, Build(CueNone, 1))
}

func TestEnvelopeShape(t *testing.T) {
	d := 10 * time.Millisecond
	s := NewEnvelope(NewOscillator(0, d, WaveSquare, sampleRate), d, 2*time.Millisecond, 2*time.Millisecond, sampleRate)
	buf := make([][2]float64, sampleRate.N(d)+16)
	n, _ := s.Stream(buf)
	require.Equal(t, sampleRate.N(d), n)
	assert.Zero(t, buf[0][0], "attack starts silent")
	assert.InDelta(t, 1.0, buf[n/2][0], 1e-9, "sustain at full level")
	assert.Less(t, buf[n-1][0], 0.05, "release ends near silence")
}

func TestPlayerNoopBeforeInit(t *testing.T) {
	p := NewPlayer(2)
	assert.Equal(t, 1.0, p.volume)
	p.Play(CueCrash)
	p.SetThrottle(1)
	p.OnCollision(core.CollisionEvent{Type: core.VehicleFlag})
	p.Close()
}
