package physics

import (
	"testing"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/vmath"
)

const step = 1.0 / 60

func TestWorldFreeFall(t *testing.T) {
	w := NewWorld(vmath.Vec3{Y: -9.81})
	b := w.Add(NewSphere("a", core.GroupDrone, 0.5, 1))
	b.Position = vmath.Vec3{Y: 100}

	for i := 0; i < 60; i++ {
		w.Step(step)
	}

	if !vmath.NearlyEqual(b.Velocity.Y, -9.81, 1e-9) {
		t.Errorf("Velocity.Y = %v, want -9.81", b.Velocity.Y)
	}
	if b.Position.Y >= 100-4.5 || b.Position.Y <= 100-5.5 {
		t.Errorf("Position.Y = %v, want ~95", b.Position.Y)
	}
}

func TestWorldGroundContactBeginsOnce(t *testing.T) {
	w := NewWorld(vmath.Vec3{Y: -9.81})
	ground := w.AddGround(0)
	b := w.Add(NewSphere("a", core.GroupDrone, 0.5, 1))
	b.Position = vmath.Vec3{Y: 0.55}
	b.Velocity = vmath.Vec3{Y: -12}

	w.Step(step)
	contacts := w.Contacts()
	if len(contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(contacts))
	}
	c := contacts[0]
	if c.A != ground || c.B != b {
		t.Fatalf("contact order = (%d, %d), want ground first", c.A.Index, c.B.Index)
	}
	if c.Normal != vmath.WorldUp {
		t.Errorf("Normal = %+v, want +Y", c.Normal)
	}
	// Closing speed of the sphere toward the ground after one gravity step
	if c.ImpactVelocity <= 12 {
		t.Errorf("ImpactVelocity = %v, want > 12", c.ImpactVelocity)
	}
	if b.Position.Y < 0.5 {
		t.Errorf("sphere not pushed out: y = %v", b.Position.Y)
	}
	if b.Velocity.Y < 0 {
		t.Errorf("sphere still approaching ground: vy = %v", b.Velocity.Y)
	}

	// Resting contact across following steps must not re-report
	for i := 0; i < 5; i++ {
		b.Position.Y = 0.49
		b.Velocity = vmath.Vec3{}
		w.Step(step)
		if n := len(w.Contacts()); n != 0 {
			t.Fatalf("step %d: %d contacts, want 0 for sustained touch", i, n)
		}
	}
}

func TestWorldSphereSphereNormal(t *testing.T) {
	w := NewWorld(vmath.Vec3{})
	a := w.Add(NewSphere("a", core.GroupDrone, 1, 1))
	b := w.Add(NewSphere("b", core.GroupPlane, 1, 1))
	a.GravityScale, b.GravityScale = 0, 0
	a.Position = vmath.Vec3{X: 0}
	b.Position = vmath.Vec3{X: 1.5}
	a.Velocity = vmath.Vec3{X: 5}

	w.Step(step)
	cs := w.Contacts()
	if len(cs) != 1 {
		t.Fatalf("contacts = %d, want 1", len(cs))
	}
	if !vmath.V3Near(cs[0].Normal, vmath.Vec3{X: 1}, 1e-9) {
		t.Errorf("Normal = %+v, want +X", cs[0].Normal)
	}
	if !vmath.NearlyEqual(cs[0].ImpactVelocity, 5, 1e-9) {
		t.Errorf("ImpactVelocity = %v, want 5", cs[0].ImpactVelocity)
	}
	if b.Velocity.X <= 0 {
		t.Errorf("impulse not transferred: b.vx = %v", b.Velocity.X)
	}
}

func TestWorldFiltersGroups(t *testing.T) {
	w := NewWorld(vmath.Vec3{})
	w.AddObstacle(vmath.Vec3{}, 1)
	flag := w.Add(NewSphere("", core.GroupFlag, 1, 0))
	flag.Type = Static
	flag.Position = vmath.Vec3{X: 0.5}

	w.Step(step)
	if n := len(w.Contacts()); n != 0 {
		t.Fatalf("static pairs produced %d contacts", n)
	}

	p := w.Add(NewSphere("", core.GroupProjectile, 0.1, 0.1))
	p.GravityScale = 0
	p.Position = vmath.Vec3{X: 0.5}
	p.Sensor = true
	w.Step(step)

	// Projectile overlaps obstacle but not the flag
	cs := w.Contacts()
	if len(cs) != 1 || cs[0].B != p {
		t.Fatalf("contacts = %+v, want only obstacle-projectile", cs)
	}
	if p.Position != (vmath.Vec3{X: 0.5}) {
		t.Errorf("sensor body was resolved: %+v", p.Position)
	}
}

func TestWorldIndexReuse(t *testing.T) {
	w := NewWorld(vmath.Vec3{})
	a := w.Add(NewSphere("a", core.GroupDrone, 1, 1))
	b := w.Add(NewSphere("b", core.GroupDrone, 1, 1))
	c := w.Add(NewSphere("c", core.GroupDrone, 1, 1))

	w.Remove(c)
	w.Remove(a)
	w.Remove(a)
	if w.Len() != 1 || a.Alive() {
		t.Fatalf("Len = %d alive(a) = %v", w.Len(), a.Alive())
	}

	d := w.Add(NewSphere("d", core.GroupDrone, 1, 1))
	e := w.Add(NewSphere("e", core.GroupDrone, 1, 1))
	if d.Index != 0 || e.Index != 2 {
		t.Errorf("reused indices = %d, %d; want 0, 2", d.Index, e.Index)
	}
	if got, ok := w.Body(b.Index); !ok || got != b {
		t.Error("Body lookup lost b")
	}
}

func TestWorldTTLExpiry(t *testing.T) {
	w := NewWorld(vmath.Vec3{})
	p := w.Add(NewSphere("", core.GroupProjectile, 0.1, 0.1))
	p.TTL = 3

	for i := 0; i < 2; i++ {
		w.Step(step)
	}
	if !p.Alive() {
		t.Fatal("expired early")
	}
	w.Step(step)
	if p.Alive() || w.Len() != 0 {
		t.Errorf("projectile alive after TTL")
	}
}
