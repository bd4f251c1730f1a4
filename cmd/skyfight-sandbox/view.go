package main

import (
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/telemetry"
	"github.com/lixenwraith/skyfight/vmath"
)

const (
	metersPerCol = 2.0
	metersPerRow = 4.0
	gridSpacing  = 20.0
	hudRows      = 4
	hitFlash     = 400 * time.Millisecond
)

var (
	styleHUD      = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleGrid     = tcell.StyleDefault.Foreground(tcell.ColorDarkSlateGray)
	styleObstacle = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleFlag     = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	stylePlayer   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleHit      = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true).Reverse(true)
	teamStyles    = []tcell.Style{
		tcell.StyleDefault.Foreground(tcell.ColorSilver),
		tcell.StyleDefault.Foreground(tcell.ColorAqua),
		tcell.StyleDefault.Foreground(tcell.ColorFuchsia),
	}
)

var headingGlyphs = [8]rune{'↑', '↗', '→', '↘', '↓', '↙', '←', '↖'}

// headingGlyph picks the arrow for a forward vector seen from above, screen up is -Z
func headingGlyph(fwd vmath.Vec3) rune {
	if math.Abs(fwd.X) < 1e-9 && math.Abs(fwd.Z) < 1e-9 {
		return '•'
	}
	angle := math.Atan2(fwd.X, -fwd.Z)
	idx := int(math.Round(angle/(math.Pi/4))) % 8
	if idx < 0 {
		idx += 8
	}
	return headingGlyphs[idx]
}

// project maps a world position to a cell relative to the view center
func project(pos, center vmath.Vec3, cx, cy int) (int, int) {
	x := cx + int(math.Round((pos.X-center.X)/metersPerCol))
	y := cy + int(math.Round((pos.Z-center.Z)/metersPerRow))
	return x, y
}

func (sb *sandbox) put(x, y int, r rune, style tcell.Style) {
	w, h := sb.screen.Size()
	if x < 0 || y < hudRows || x >= w || y >= h {
		return
	}
	sb.screen.SetContent(x, y, r, nil, style)
}

func (sb *sandbox) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		sb.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func (sb *sandbox) draw(now time.Time) {
	sb.screen.Clear()
	w, h := sb.screen.Size()
	cx, cy := w/2, hudRows+(h-hudRows)/2

	batch := sb.session.Snapshot()
	me, alive := batch.Find(playerID)
	center := me.Position

	// Grid dots every gridSpacing meters
	startX := math.Floor((center.X-float64(cx)*metersPerCol)/gridSpacing) * gridSpacing
	startZ := math.Floor((center.Z-float64(h)*metersPerRow)/gridSpacing) * gridSpacing
	for gx := startX; gx <= center.X+float64(w)*metersPerCol; gx += gridSpacing {
		for gz := startZ; gz <= center.Z+float64(h)*metersPerRow; gz += gridSpacing {
			x, y := project(vmath.Vec3{X: gx, Z: gz}, center, cx, cy)
			sb.put(x, y, '·', styleGrid)
		}
	}

	for _, o := range sb.obstacles {
		x, y := project(o.pos, center, cx, cy)
		sb.put(x, y, 'O', styleObstacle)
	}
	for _, f := range sb.flags {
		x, y := project(f.pos, center, cx, cy)
		sb.put(x, y, '⚑', styleFlag)
	}

	for _, v := range batch.Vehicles {
		if v.ID == playerID {
			continue
		}
		x, y := project(v.Position, center, cx, cy)
		glyph := 'd'
		if v.Kind == core.KindPlane {
			glyph = 'p'
		}
		sb.put(x, y, glyph, teamStyles[int(v.Team)%len(teamStyles)])
	}

	if alive {
		style := stylePlayer
		if now.Sub(sb.hitAt) < hitFlash {
			style = styleHit
		}
		sb.put(cx, cy, headingGlyph(vmath.QRotate(me.Orientation, vmath.Forward)), style)
	}

	sb.drawHUD(me, alive, now)
	sb.screen.Show()
}

func (sb *sandbox) drawHUD(me core.PhysicsSnapshot, alive bool, now time.Time) {
	sound := "on"
	if sb.muted {
		sound = "off"
	}
	sb.text(0, 0, fmt.Sprintf("tick %-7d %-5s  tick %.2fms  drops %d  sound %s",
		sb.session.Tick(), sb.kind,
		sb.counters.Float(telemetry.KeyTickMillis),
		sb.counters.Int(telemetry.KeyInputDropped),
		sound), styleHUD)

	if !alive {
		sb.text(0, 1, "no vehicle, press n to respawn", styleHit)
	} else {
		pitch, yaw, roll := vmath.QToEuler(me.Orientation)
		sb.text(0, 1, fmt.Sprintf("hp %5.1f  alt %6.1fm  speed %6.1fm/s  pitch %+4.0f yaw %+4.0f roll %+4.0f",
			me.Health, me.Position.Y, vmath.V3Mag(me.LinearVelocity),
			pitch*180/math.Pi, yaw*180/math.Pi, roll*180/math.Pi), styleHUD)
	}

	if !sb.hitAt.IsZero() {
		style := styleHUD
		if now.Sub(sb.hitAt) < hitFlash {
			style = styleHit
		}
		sb.text(0, 2, fmt.Sprintf("last hit: %s %s %.1fm/s", sb.lastHit.Type, sb.lastHit.Severity, sb.lastHit.ImpactVelocity), style)
	}
	sb.text(0, 3, "w/s throttle  a/d yaw  q/e strafe  r/f lift  arrows or ijkl pitch/roll  space fire  tab switch  n respawn  m mute  x quit", styleGrid)
}
