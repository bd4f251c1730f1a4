// Package audio plays short synthesized cues for collision events and a
// throttle-driven engine hum
package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/skyfight/core"
)

const (
	sampleRate  = beep.SampleRate(48000)
	bufferTime  = 100 * time.Millisecond
	humBaseFreq = 55.0
)

// Cue names a sound effect
type Cue uint8

const (
	CueNone Cue = iota
	CueBump
	CueCrash
	CueHit
	CueFlag
)

// CueFor selects the sound for a collision
func CueFor(ev core.CollisionEvent) Cue {
	switch ev.Type {
	case core.VehicleFlag:
		return CueFlag
	case core.VehicleProjectile:
		return CueHit
	}
	if ev.Severity == core.SeverityHeavy {
		return CueCrash
	}
	return CueBump
}

// Build returns a finite streamer for c scaled by volume, nil for CueNone
func Build(c Cue, volume float64) beep.Streamer {
	switch c {
	case CueBump:
		d := 90 * time.Millisecond
		return newVolume(NewEnvelope(NewOscillator(140, d, WaveSquare, sampleRate), d, 5*time.Millisecond, 60*time.Millisecond, sampleRate), 0.3*volume)
	case CueCrash:
		d := 350 * time.Millisecond
		return newVolume(beep.Mix(
			NewEnvelope(NewOscillator(0, d, WaveNoise, sampleRate), d, 2*time.Millisecond, 300*time.Millisecond, sampleRate),
			NewEnvelope(NewOscillator(60, d, WaveSaw, sampleRate), d, 2*time.Millisecond, 250*time.Millisecond, sampleRate),
		), 0.4*volume)
	case CueHit:
		d := 120 * time.Millisecond
		return newVolume(NewEnvelope(NewOscillator(420, d, WaveSaw, sampleRate), d, time.Millisecond, 100*time.Millisecond, sampleRate), 0.35*volume)
	case CueFlag:
		d := 250 * time.Millisecond
		return newVolume(beep.Mix(
			newVolume(NewEnvelope(NewOscillator(880, d, WaveSine, sampleRate), d, 5*time.Millisecond, 200*time.Millisecond, sampleRate), 0.7),
			newVolume(NewEnvelope(NewOscillator(1760, d, WaveSine, sampleRate), d, 5*time.Millisecond, 120*time.Millisecond, sampleRate), 0.3),
		), 0.5*volume)
	}
	return nil
}

// Player mixes cues into the system speaker
// Every method is a no-op until Init succeeds
type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	hum         *effects.Volume
	volume      float64
	initialized bool
}

// NewPlayer creates a player at master volume in [0,1]
func NewPlayer(volume float64) *Player {
	return &Player{mixer: &beep.Mixer{}, volume: math.Max(0, math.Min(1, volume))}
}

// Init opens the speaker and starts the engine hum muted
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(bufferTime)); err != nil {
		return err
	}
	p.hum = newVolume(NewOscillator(humBaseFreq, 0, WaveSaw, sampleRate), 0)
	p.mixer.Add(p.hum)
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// Close silences and clears the mixer
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.initialized = false
}

// Play queues c
func (p *Player) Play(c Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized || c == CueNone {
		return
	}
	s := Build(c, p.volume)
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

// OnCollision plays the cue for ev, usable as a collision handler
func (p *Player) OnCollision(ev core.CollisionEvent) {
	p.Play(CueFor(ev))
}

// SetThrottle scales the engine hum with throttle in [0,1]
func (p *Player) SetThrottle(throttle float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	vol := 0.08 * p.volume * math.Max(0, math.Min(1, throttle))
	speaker.Lock()
	if vol <= 0 {
		p.hum.Silent = true
	} else {
		p.hum.Silent = false
		p.hum.Volume = math.Log2(vol)
	}
	speaker.Unlock()
}
