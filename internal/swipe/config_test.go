package swipe

import (
	"math"
	"testing"
	"time"
)

func TestDeltaThreshold(t *testing.T) {
	tests := []struct {
		name  string
		delta Delta
		dir   Direction
		want  float64
	}{
		{"zero value", Delta{}, Up, DefaultDelta},
		{"uniform", UniformDelta(25), Left, 25},
		{"uniform zero is honored", UniformDelta(0), Down, 0},
		{"side set", SideDelta(map[Direction]float64{Up: 40}), Up, 40},
		{"side unset falls back", SideDelta(map[Direction]float64{Up: 40}), Right, DefaultDelta},
		{"negative", UniformDelta(-5), Right, DefaultDelta},
		{"NaN", UniformDelta(math.NaN()), Left, DefaultDelta},
		{"infinite", SideDelta(map[Direction]float64{Down: math.Inf(1)}), Down, DefaultDelta},
		{"unknown direction", UniformDelta(3), Direction(7), DefaultDelta},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.delta.Threshold(tt.dir); got != tt.want {
				t.Errorf("Threshold(%v) = %v, want %v", tt.dir, got, tt.want)
			}
		})
	}
}

func TestSideDeltaIgnoresUnknownDirections(t *testing.T) {
	d := SideDelta(map[Direction]float64{Direction(42): 1, Left: 2})
	if got := d.Threshold(Left); got != 2 {
		t.Errorf("Threshold(Left) = %v, want 2", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.TrackTouch {
		t.Error("TrackTouch should default to true")
	}
	if cfg.TrackMouse {
		t.Error("TrackMouse should default to false")
	}
	if !cfg.TouchEventOptions.Passive {
		t.Error("touch listeners should default to passive")
	}
	if cfg.RotationAngle != 0 {
		t.Errorf("RotationAngle = %v, want 0", cfg.RotationAngle)
	}
	if cfg.SwipeDuration != 0 {
		t.Errorf("SwipeDuration = %v, want unbounded", cfg.SwipeDuration)
	}
	if got := cfg.Delta.Threshold(Left); got != DefaultDelta {
		t.Errorf("Delta = %v, want %v", got, DefaultDelta)
	}
}

func TestMoveOptionsForcedActive(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.moveOptions().Passive {
		t.Error("move listener should follow TouchEventOptions")
	}
	cfg.PreventScrollOnSwipe = true
	if cfg.moveOptions().Passive {
		t.Error("PreventScrollOnSwipe should force a non-passive move listener")
	}
	if !cfg.TouchEventOptions.Passive {
		t.Error("base options must not be modified")
	}
}

func TestExpired(t *testing.T) {
	tests := []struct {
		limit, elapsed time.Duration
		want           bool
	}{
		{0, time.Hour, false},
		{250 * time.Millisecond, 250 * time.Millisecond, false},
		{250 * time.Millisecond, 251 * time.Millisecond, true},
	}

	for _, tt := range tests {
		cfg := Config{SwipeDuration: tt.limit}
		if got := cfg.expired(tt.elapsed); got != tt.want {
			t.Errorf("expired(limit=%v, elapsed=%v) = %v, want %v", tt.limit, tt.elapsed, got, tt.want)
		}
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from, to phase
		want     bool
	}{
		{phaseIdle, phaseTracking, true},
		{phaseIdle, phaseSwiping, false},
		{phaseIdle, phaseIdle, false},
		{phaseTracking, phaseSwiping, true},
		{phaseTracking, phaseIdle, true},
		{phaseSwiping, phaseTracking, true},
		{phaseSwiping, phaseIdle, true},
	}

	for _, tt := range tests {
		if got := canTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("canTransition(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
