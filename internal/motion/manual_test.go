package motion

import (
	"math"
	"testing"
)

const step = DefaultStepDegrees

func TestManualStep(t *testing.T) {
	tests := []struct {
		name     string
		keys     Keys
		wantDLat float64
		wantDLng float64
		wantHead float64
	}{
		{"up", Keys{Up: true}, step, 0, 0},
		{"down", Keys{Down: true}, -step, 0, 180},
		{"left", Keys{Left: true}, 0, -step, 270},
		{"right", Keys{Right: true}, 0, step, 90},
		{"up right", Keys{Up: true, Right: true}, step, step, 45},
		{"down left", Keys{Down: true, Left: true}, -step, -step, 225},
		{"up down cancel", Keys{Up: true, Down: true}, 0, 0, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, moved := ManualStep(tt.keys, step)
			if !moved {
				t.Fatal("ManualStep() moved = false, want true")
			}
			if math.Abs(d.DLat-tt.wantDLat) > 1e-15 {
				t.Errorf("DLat = %v, want %v", d.DLat, tt.wantDLat)
			}
			if math.Abs(d.DLng-tt.wantDLng) > 1e-15 {
				t.Errorf("DLng = %v, want %v", d.DLng, tt.wantDLng)
			}
			if d.Heading != tt.wantHead {
				t.Errorf("Heading = %v, want %v", d.Heading, tt.wantHead)
			}
		})
	}
}

func TestManualStep_NoKeys(t *testing.T) {
	d, moved := ManualStep(Keys{}, step)
	if moved {
		t.Error("ManualStep(no keys) moved = true, want false")
	}
	if d != (Displacement{}) {
		t.Errorf("ManualStep(no keys) = %+v, want zero", d)
	}
}

func TestManualStep_DiagonalNotNormalised(t *testing.T) {
	axial, _ := ManualStep(Keys{Up: true}, step)
	diag, _ := ManualStep(Keys{Up: true, Right: true}, step)

	axialLen := math.Hypot(axial.DLat, axial.DLng)
	diagLen := math.Hypot(diag.DLat, diag.DLng)

	if math.Abs(diagLen/axialLen-math.Sqrt2) > 1e-9 {
		t.Errorf("diagonal/axial ratio = %v, want sqrt(2)", diagLen/axialLen)
	}
}

func TestMode(t *testing.T) {
	tests := []struct {
		mode         Mode
		name         string
		allowsManual bool
	}{
		{ModeIdle, "idle", true},
		{ModeManual, "manual", true},
		{ModeAutoDriving, "auto_driving", false},
		{Mode(42), "unknown", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mode.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.mode.AllowsManual(); got != tt.allowsManual {
				t.Errorf("AllowsManual() = %v, want %v", got, tt.allowsManual)
			}
			text, err := tt.mode.MarshalText()
			if err != nil || string(text) != tt.name {
				t.Errorf("MarshalText() = %q, %v", text, err)
			}
		})
	}
}
