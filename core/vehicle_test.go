package core

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"drone", KindDrone, false},
		{"Plane", KindPlane, false},
		{" drone ", KindDrone, false},
		{"tank", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownKind) {
					t.Fatalf("ParseKind(%q) err = %v, want ErrUnknownKind", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseKind(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestKindTextRoundTrip(t *testing.T) {
	var k Kind
	if err := k.UnmarshalText([]byte("plane")); err != nil || k != KindPlane {
		t.Fatalf("UnmarshalText = %v, %v", k, err)
	}
	if _, err := Kind(9).MarshalText(); err == nil {
		t.Error("MarshalText accepted invalid kind")
	}
}

func TestGroupInteractionsSymmetric(t *testing.T) {
	groups := []Group{GroupGround, GroupEnvironment, GroupDrone, GroupPlane, GroupProjectile, GroupFlag}
	for _, a := range groups {
		for _, b := range groups {
			if a.Interacts(b) != b.Interacts(a) {
				t.Errorf("Interacts(%v, %v) not symmetric", a, b)
			}
		}
	}
	if GroupGround.Interacts(GroupEnvironment) {
		t.Error("static groups should not interact")
	}
	if !GroupFlag.Interacts(GroupPlane) {
		t.Error("flags must detect vehicles")
	}
}

func TestRunSafeRecovers(t *testing.T) {
	err := RunSafe(func() { panic("boom") })
	var pe *PanicError
	if !errors.As(err, &pe) || pe.Value != "boom" {
		t.Fatalf("RunSafe() = %v, want PanicError(boom)", err)
	}
	if err := RunSafe(func() {}); err != nil {
		t.Errorf("RunSafe() = %v, want nil", err)
	}
}

func TestInputSampleMouseDefaults(t *testing.T) {
	var s InputSample
	if x, y := s.Mouse(); x != 0 || y != 0 {
		t.Errorf("nil mouse = (%v, %v), want zero", x, y)
	}
	if !IdleSample(4).IsIdle() {
		t.Error("IdleSample should be idle")
	}
}
