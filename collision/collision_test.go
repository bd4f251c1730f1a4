package collision

import (
	"errors"
	"testing"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/parameter"
	"github.com/lixenwraith/skyfight/physics"
	"github.com/lixenwraith/skyfight/vmath"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		a, b core.Group
		want core.CollisionType
	}{
		{core.GroupDrone, core.GroupGround, core.VehicleEnvironment},
		{core.GroupPlane, core.GroupEnvironment, core.VehicleEnvironment},
		{core.GroupDrone, core.GroupPlane, core.VehicleVehicle},
		{core.GroupDrone, core.GroupDrone, core.VehicleVehicle},
		{core.GroupPlane, core.GroupProjectile, core.VehicleProjectile},
		{core.GroupDrone, core.GroupFlag, core.VehicleFlag},
		{core.GroupProjectile, core.GroupGround, core.VehicleEnvironment},
	}

	for _, tt := range tests {
		t.Run(tt.a.String()+"_"+tt.b.String(), func(t *testing.T) {
			if got := Classify(tt.a, tt.b); got != tt.want {
				t.Errorf("Classify(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := Classify(tt.b, tt.a); got != tt.want {
				t.Errorf("Classify(%v, %v) = %v, want %v (swapped)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestSeverityOf(t *testing.T) {
	tests := []struct {
		v    float64
		want core.Severity
	}{
		{0, core.SeverityLight},
		{9.99, core.SeverityLight},
		{10, core.SeverityMedium},
		{-12, core.SeverityMedium},
		{15, core.SeverityHeavy},
		{-40, core.SeverityHeavy},
	}
	for _, tt := range tests {
		if got := SeverityOf(tt.v); got != tt.want {
			t.Errorf("SeverityOf(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
	if Damage(core.SeverityLight) != 0 || Damage(core.SeverityHeavy) != parameter.DamageHeavy {
		t.Error("Damage tiers wrong")
	}
}

func contactBetween(a, b *physics.Body, impact float64) physics.Contact {
	return physics.Contact{A: a, B: b, Normal: vmath.Vec3{X: 1}, ImpactVelocity: impact}
}

func TestManagerDispatchOrder(t *testing.T) {
	a := physics.NewSphere("a", core.GroupDrone, 1, 1)
	b := physics.NewSphere("b", core.GroupPlane, 1, 1)
	a.Index, b.Index = 1, 2

	m := NewManager()
	var order []string
	m.OnAny(func(core.CollisionEvent) { order = append(order, "any1") })
	m.OnVehicle("b", func(core.CollisionEvent) { order = append(order, "b1") })
	m.OnVehicle("a", func(core.CollisionEvent) { order = append(order, "a1") })
	m.OnVehicle("a", func(core.CollisionEvent) { order = append(order, "a2") })
	m.OnAny(func(core.CollisionEvent) { order = append(order, "any2") })
	m.OnVehicle("c", func(core.CollisionEvent) { order = append(order, "c") })

	events := m.Consume([]physics.Contact{contactBetween(a, b, 16)}, 500)

	want := []string{"a1", "a2", "b1", "any1", "any2"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.Type != core.VehicleVehicle || ev.Severity != core.SeverityHeavy || ev.Timestamp != 500 {
		t.Errorf("event = %+v", ev)
	}
	if !ev.Involves("a") || ev.Other("a").Owner != "b" {
		t.Errorf("Involves/Other wrong for %+v", ev)
	}
}

func TestManagerIsolatesPanics(t *testing.T) {
	a := physics.NewSphere("a", core.GroupDrone, 1, 1)
	ground := &physics.Body{Group: core.GroupGround, Type: physics.Static, Shape: physics.ShapePlane}

	m := NewManager()
	var faults []error
	m.SetFaultHook(func(_ core.CollisionEvent, err error) { faults = append(faults, err) })

	called := 0
	m.OnVehicle("a", func(core.CollisionEvent) { panic("handler bug") })
	m.OnAny(func(core.CollisionEvent) { called++ })

	m.Consume([]physics.Contact{contactBetween(ground, a, 3)}, 0)

	if called != 1 {
		t.Errorf("global handler called %d times, want 1", called)
	}
	var pe *core.PanicError
	if len(faults) != 1 || !errors.As(faults[0], &pe) {
		t.Errorf("faults = %v, want one PanicError", faults)
	}
}

func TestManagerForget(t *testing.T) {
	a := physics.NewSphere("a", core.GroupDrone, 1, 1)
	b := physics.NewSphere("b", core.GroupDrone, 1, 1)

	m := NewManager()
	called := false
	m.OnVehicle("a", func(core.CollisionEvent) { called = true })
	m.Forget("a")

	m.Consume([]physics.Contact{contactBetween(a, b, 1)}, 0)
	if called || m.HandlerCount("a") != 0 {
		t.Error("forgotten handler still registered")
	}
}

func TestRespond(t *testing.T) {
	ground := &physics.Body{Index: 0, Group: core.GroupGround, Type: physics.Static, Shape: physics.ShapePlane}

	tests := []struct {
		name     string
		impact   float64
		typ      core.CollisionType
		wantResp bool
		wantVy   float64
	}{
		{"heavy ground", 20, core.VehicleEnvironment, true, 20 * parameter.RestitutionEnvironment},
		{"medium ground", 12, core.VehicleEnvironment, false, -3},
		{"heavy flag", 20, core.VehicleFlag, false, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := physics.NewSphere("a", core.GroupDrone, 1, 1)
			body.Index = 1
			body.Velocity = vmath.Vec3{X: 2, Y: -3}

			ev := core.CollisionEvent{
				BodyA:          ground.Ref(),
				BodyB:          body.Ref(),
				Type:           tt.typ,
				Severity:       SeverityOf(tt.impact),
				ImpactVelocity: tt.impact,
				Normal:         vmath.WorldUp,
			}

			got := Respond(body, ev, vmath.NewFastRand(1))
			if got != tt.wantResp {
				t.Fatalf("Respond() = %v, want %v", got, tt.wantResp)
			}
			if !vmath.NearlyEqual(body.Velocity.Y, tt.wantVy, 1e-9) {
				t.Errorf("Velocity.Y = %v, want %v", body.Velocity.Y, tt.wantVy)
			}
			if body.Velocity.X != 2 {
				t.Errorf("tangential velocity changed: %v", body.Velocity.X)
			}
			if tt.wantResp && body.AngularVelocity == vmath.Zero {
				t.Error("no angular impulse applied")
			}
		})
	}
}

func TestRespondSideA(t *testing.T) {
	a := physics.NewSphere("a", core.GroupDrone, 1, 1)
	b := physics.NewSphere("b", core.GroupPlane, 1, 1)
	a.Index, b.Index = 0, 1
	a.Velocity = vmath.Vec3{X: 10}

	ev := Event(contactBetween(a, b, 18), 0)
	Respond(a, ev, vmath.NewFastRand(7))

	want := -18 * parameter.RestitutionVehicle
	if !vmath.NearlyEqual(a.Velocity.X, want, 1e-9) {
		t.Errorf("a.Velocity.X = %v, want %v", a.Velocity.X, want)
	}
}
