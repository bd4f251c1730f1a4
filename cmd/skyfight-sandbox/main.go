package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/skyfight/audio"
	"github.com/lixenwraith/skyfight/config"
	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/engine"
	"github.com/lixenwraith/skyfight/input"
	"github.com/lixenwraith/skyfight/logging"
	"github.com/lixenwraith/skyfight/telemetry"
	"github.com/lixenwraith/skyfight/vmath"
)

var (
	configFile = flag.String("config", "", "Config file with session and vehicle tuning")
	logFile    = flag.String("log", "skyfight-sandbox.log", "Log file, the terminal is taken by the view")
	muted      = flag.Bool("mute", false, "Start with sound off")
	holdFlag   = flag.Duration("hold", 120*time.Millisecond, "How long a key press stays held")
)

const (
	playerID    core.VehicleID = "player"
	frameRate                  = 16 * time.Millisecond
	projectileR                = 0.2
	projectileV                = 80.0
	projectileT                = 180
)

type sandbox struct {
	screen   tcell.Screen
	session  *engine.Session
	counters *telemetry.Counters
	latch    *input.Latch
	keys     input.KeyMap
	player   *audio.Player
	log      zerolog.Logger

	kind      core.Kind
	muted     bool
	obstacles []marker
	flags     []marker
	lastHit   core.CollisionEvent
	hitAt     time.Time
}

type marker struct {
	pos    vmath.Vec3
	radius float64
}

func main() {
	var screen tcell.Screen
	defer func() {
		if r := recover(); r != nil {
			if screen != nil {
				screen.Fini()
			}
			fmt.Fprintf(os.Stderr, "\n\x1b[31mSKYFIGHT SANDBOX CRASHED: %v\x1b[0m\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	flag.Parse()

	cfg, err := config.Load(*configFile, ".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	f, err := os.OpenFile(*logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	logCfg := cfg.Log
	logCfg.Out = f
	logCfg.Service = "skyfight-sandbox"
	logCfg.GraylogEnabled = false
	log, _, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	screen, err = tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	sb := newSandbox(screen, cfg, log)
	defer sb.player.Close()
	sb.run()
}

func newSandbox(screen tcell.Screen, cfg *config.Config, log zerolog.Logger) *sandbox {
	counters := telemetry.NewCounters()
	observers := telemetry.Multi{
		counters,
		telemetry.NewLogObserver(logging.Component(log, "session"), cfg.Telemetry.LogSampleN, cfg.Telemetry.SlowTick),
	}
	session := engine.NewSession(append(cfg.SessionOptions(), engine.WithObserver(observers))...)

	sb := &sandbox{
		screen:   screen,
		session:  session,
		counters: counters,
		latch:    input.NewLatch(*holdFlag),
		keys:     input.DefaultKeyMap(),
		player:   audio.NewPlayer(0.8),
		log:      log,
		kind:     core.KindDrone,
		muted:    *muted,
	}
	if !sb.muted {
		if err := sb.player.Init(); err != nil {
			log.Warn().Err(err).Msg("Audio unavailable")
			sb.muted = true
		}
	}

	sb.buildArena()
	sb.spawn()
	return sb
}

// buildArena places a ring of pylons, a flag at the center and a parked target drone
func (sb *sandbox) buildArena() {
	for i := 0; i < 8; i++ {
		angle := float64(i) * math.Pi / 4
		pos := vmath.Vec3{X: 60 * math.Cos(angle), Y: 8, Z: 60 * math.Sin(angle)}
		sb.session.AddObstacle(pos, 4)
		sb.obstacles = append(sb.obstacles, marker{pos, 4})
	}
	flag := vmath.Vec3{Y: 20}
	sb.session.AddFlag(flag, 3)
	sb.flags = append(sb.flags, marker{flag, 3})

	if err := sb.session.CreateVehicle("target", core.KindDrone, 2, core.SpawnAt(vmath.Vec3{X: 20, Y: 15, Z: -30}, 0)); err != nil {
		sb.log.Warn().Err(err).Msg("Target spawn failed")
	}
}

func (sb *sandbox) spawn() {
	sb.session.RemoveVehicle(playerID)
	spawnY := 10.0
	if sb.kind == core.KindPlane {
		spawnY = 120
	}
	if err := sb.session.CreateVehicle(playerID, sb.kind, 1, core.SpawnAt(vmath.Vec3{Y: spawnY, Z: 40}, 0)); err != nil {
		sb.log.Error().Err(err).Msg("Player spawn failed")
		return
	}
	if sb.kind == core.KindPlane {
		st, _ := sb.session.VehicleState(playerID)
		st.LinearVelocity = vmath.QRotate(st.Orientation, vmath.V3Scale(vmath.Forward, 40))
		sb.session.SetVehicleState(playerID, st.Transform)
	}
	sb.latch.Release()
	sb.session.OnCollision(playerID, sb.onPlayerCollision)
	sb.log.Info().Stringer("kind", sb.kind).Msg("Player spawned")
}

func (sb *sandbox) onPlayerCollision(ev core.CollisionEvent) {
	sb.lastHit = ev
	sb.hitAt = time.Now()
	if !sb.muted {
		sb.player.OnCollision(ev)
	}
}

func (sb *sandbox) fire() {
	st, ok := sb.session.VehicleState(playerID)
	if !ok {
		return
	}
	fwd := vmath.QRotate(st.Orientation, vmath.Forward)
	pos := vmath.V3AddScaled(st.Position, fwd, 3)
	vel := vmath.V3AddScaled(st.LinearVelocity, fwd, projectileV)
	sb.session.SpawnProjectile(pos, vel, projectileR, projectileT)
}

// handleEvent returns false to quit
func (sb *sandbox) handleEvent(ev tcell.Event, now time.Time) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp:
			sb.latch.Press(input.ControlPitchDown, now)
			return true
		case tcell.KeyDown:
			sb.latch.Press(input.ControlPitchUp, now)
			return true
		case tcell.KeyLeft:
			sb.latch.Press(input.ControlRollLeft, now)
			return true
		case tcell.KeyRight:
			sb.latch.Press(input.ControlRollRight, now)
			return true
		case tcell.KeyTab:
			return sb.apply(sb.keys['\t'], now)
		case tcell.KeyRune:
			return sb.apply(sb.keys[ev.Rune()], now)
		}
	case *tcell.EventResize:
		sb.screen.Sync()
	}
	return true
}

func (sb *sandbox) apply(b input.Binding, now time.Time) bool {
	if b.Control != 0 {
		sb.latch.Press(b.Control, now)
	}
	switch b.Action {
	case input.ActionQuit:
		return false
	case input.ActionFire:
		sb.fire()
	case input.ActionSwitchVehicle:
		if sb.kind == core.KindDrone {
			sb.kind = core.KindPlane
		} else {
			sb.kind = core.KindDrone
		}
		sb.spawn()
	case input.ActionRespawn:
		sb.spawn()
	case input.ActionToggleMute:
		sb.muted = !sb.muted
		if !sb.muted {
			if err := sb.player.Init(); err != nil {
				sb.log.Warn().Err(err).Msg("Audio unavailable")
				sb.muted = true
			}
		}
		if sb.muted {
			sb.player.SetThrottle(0)
		}
	}
	return true
}

func (sb *sandbox) run() {
	ticker := time.NewTicker(frameRate)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go sb.screen.ChannelEvents(events, quit)

	last := time.Now()
	for {
		select {
		case ev, ok := <-events:
			if !ok || !sb.handleEvent(ev, time.Now()) {
				return
			}
		case now := <-ticker.C:
			sample := sb.latch.Sample(sb.session.Tick()+1, now)
			sb.session.AddInput(playerID, sample)
			if !sb.muted {
				throttle := 0.3
				if sample.Forward {
					throttle = 1
				}
				sb.player.SetThrottle(throttle)
			}
			sb.session.Update(now.Sub(last))
			last = now
			sb.draw(now)
		}
	}
}
