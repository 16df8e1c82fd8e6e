package hud

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/phinze/swipedeck/internal/module"
	"github.com/phinze/swipedeck/internal/swipe"
)

type fakeTuner struct {
	cfg  swipe.Config
	sets int
	err  error
}

func (f *fakeTuner) GestureConfig() swipe.Config { return f.cfg }

func (f *fakeTuner) SetGestureConfig(cfg swipe.Config) error {
	if f.err != nil {
		return f.err
	}
	f.cfg = cfg
	f.sets++
	return nil
}

var fullResources = module.Resources{
	Keys: []module.KeyID{
		module.Key1, module.Key2, module.Key3, module.Key4,
		module.Key5, module.Key6, module.Key7, module.Key8,
	},
	Dials:     []module.DialID{module.Dial1, module.Dial2, module.Dial3, module.Dial4},
	StripRect: image.Rect(0, 0, 800, 100),
}

func newTestModule(t *testing.T) (*Module, *fakeTuner) {
	t.Helper()
	tuner := &fakeTuner{cfg: swipe.DefaultConfig()}
	m := New(tuner)
	if err := m.Init(context.Background(), fullResources); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { m.Stop() })
	return m, tuner
}

func press(m *Module, key module.KeyID) error {
	return m.HandleKey(key, module.KeyEvent{Pressed: true})
}

func TestInitRequiresStrip(t *testing.T) {
	m := New(&fakeTuner{})
	if err := m.Init(context.Background(), module.Resources{Keys: []module.KeyID{module.Key1}}); err == nil {
		t.Error("Init() without a strip region should fail")
	}
}

func TestCountsGestures(t *testing.T) {
	m, _ := newTestModule(t)

	events := []module.TouchStripEvent{
		{Type: module.TouchSwipeStart, SwipeStart: image.Pt(100, 50), Point: image.Pt(120, 50), Dir: swipe.Right},
		{Type: module.TouchSwiping, SwipeStart: image.Pt(100, 50), Point: image.Pt(200, 50), Dir: swipe.Right},
		{Type: module.TouchSwiped, SwipeStart: image.Pt(100, 50), Point: image.Pt(200, 50), Dir: swipe.Right, Velocity: 3},
		{Type: module.TouchSwiped, Dir: swipe.Up, Velocity: 1},
		{Type: module.TouchTap, Point: image.Pt(10, 10)},
		{Type: module.TouchTap, Point: image.Pt(20, 10)},
	}
	for _, ev := range events {
		if err := m.HandleStripTouch(ev); err != nil {
			t.Fatalf("HandleStripTouch(%v) error = %v", ev.Type, err)
		}
	}

	swipes, taps, longTaps := m.Counts()
	if swipes[swipe.Right] != 1 || swipes[swipe.Up] != 1 || swipes[swipe.Left] != 0 {
		t.Errorf("swipes = %v, want one Right and one Up", swipes)
	}
	if taps != 2 || longTaps != 0 {
		t.Errorf("taps, longTaps = %d, %d, want 2, 0", taps, longTaps)
	}
	if m.peak != 3 {
		t.Errorf("peak = %v, want 3", m.peak)
	}

	m.Reset()
	swipes, taps, _ = m.Counts()
	if swipes != [4]int{} || taps != 0 {
		t.Errorf("after Reset: swipes %v, taps %d", swipes, taps)
	}
}

func TestTrailIsBounded(t *testing.T) {
	m, _ := newTestModule(t)
	m.HandleStripTouch(module.TouchStripEvent{Type: module.TouchSwipeStart, Point: image.Pt(0, 50)})
	for x := 1; x <= 200; x++ {
		m.HandleStripTouch(module.TouchStripEvent{Type: module.TouchSwiping, Point: image.Pt(x, 50)})
	}
	if got := len(m.trail); got != maxTrail {
		t.Fatalf("len(trail) = %d, want %d", got, maxTrail)
	}
	if last := m.trail[len(m.trail)-1]; last != image.Pt(200, 50) {
		t.Errorf("last trail point = %v, want (200, 50)", last)
	}
}

func TestKeyToggles(t *testing.T) {
	tests := []struct {
		name  string
		key   module.KeyID
		check func(swipe.Config) bool
	}{
		{"mouse tracking", module.Key5, func(c swipe.Config) bool { return c.TrackMouse }},
		{"scroll prevention", module.Key6, func(c swipe.Config) bool { return c.PreventScrollOnSwipe }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, tuner := newTestModule(t)
			if err := press(m, tt.key); err != nil {
				t.Fatalf("press error = %v", err)
			}
			if !tt.check(tuner.cfg) {
				t.Error("first press should enable the setting")
			}
			if err := m.HandleKey(tt.key, module.KeyEvent{Pressed: false}); err != nil {
				t.Fatal(err)
			}
			press(m, tt.key)
			if tt.check(tuner.cfg) {
				t.Error("second press should disable the setting")
			}
			if tuner.sets != 2 {
				t.Errorf("SetGestureConfig calls = %d, want 2 (releases are ignored)", tuner.sets)
			}
		})
	}
}

func TestKeysResetAndOverlay(t *testing.T) {
	m, _ := newTestModule(t)
	m.HandleStripTouch(module.TouchStripEvent{Type: module.TouchTap})

	press(m, module.Key7)
	if _, taps, _ := m.Counts(); taps != 0 {
		t.Errorf("taps after reset = %d, want 0", taps)
	}

	if m.IsOverlayActive() {
		t.Fatal("overlay should start closed")
	}
	press(m, module.Key8)
	if !m.IsOverlayActive() {
		t.Error("Key8 should open the overlay")
	}
}

func TestDialRotation(t *testing.T) {
	tests := []struct {
		name  string
		steps []int8
		want  float64
	}{
		{"clockwise", []int8{2}, 30},
		{"wraps below zero", []int8{-3}, 315},
		{"wraps past a turn", []int8{5, 5, 5, 5, 5}, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, tuner := newTestModule(t)
			for _, d := range tt.steps {
				if err := m.HandleDial(module.Dial1, module.DialEvent{Type: module.DialRotate, Delta: d}); err != nil {
					t.Fatal(err)
				}
			}
			if tuner.cfg.RotationAngle != tt.want {
				t.Errorf("RotationAngle = %v, want %v", tuner.cfg.RotationAngle, tt.want)
			}

			m.HandleDial(module.Dial1, module.DialEvent{Type: module.DialRelease})
			if tuner.cfg.RotationAngle != 0 {
				t.Errorf("RotationAngle after click = %v, want 0", tuner.cfg.RotationAngle)
			}
		})
	}
}

func TestOtherDialsIgnored(t *testing.T) {
	m, tuner := newTestModule(t)
	m.HandleDial(module.Dial3, module.DialEvent{Type: module.DialRotate, Delta: 1})
	if tuner.sets != 0 {
		t.Error("only the first dial tunes outside the overlay")
	}
}

func TestOverlayDials(t *testing.T) {
	m, tuner := newTestModule(t)
	press(m, module.Key8)

	rotate := func(id module.DialID, delta int8) {
		t.Helper()
		if err := m.HandleOverlayDial(id, module.DialEvent{Type: module.DialRotate, Delta: delta}); err != nil {
			t.Fatal(err)
		}
	}

	rotate(module.Dial2, 1)
	if got := tuner.cfg.Delta.Threshold(swipe.Down); got != swipe.DefaultDelta+deltaStep {
		t.Errorf("delta = %v, want %v", got, swipe.DefaultDelta+deltaStep)
	}
	rotate(module.Dial2, -100)
	if got := tuner.cfg.Delta.Threshold(swipe.Down); got != 0 {
		t.Errorf("delta = %v, want clamped to 0", got)
	}

	rotate(module.Dial3, 2)
	if tuner.cfg.SwipeDuration != 100*time.Millisecond {
		t.Errorf("SwipeDuration = %v, want 100ms", tuner.cfg.SwipeDuration)
	}
	rotate(module.Dial3, -5)
	if tuner.cfg.SwipeDuration != 0 {
		t.Errorf("SwipeDuration = %v, want 0", tuner.cfg.SwipeDuration)
	}

	rotate(module.Dial1, 1)
	if tuner.cfg.RotationAngle != rotationStep {
		t.Errorf("RotationAngle = %v, want %v", tuner.cfg.RotationAngle, rotationStep)
	}

	m.HandleOverlayDial(module.Dial4, module.DialEvent{Type: module.DialRelease})
	if m.IsOverlayActive() {
		t.Error("Dial4 click should close the overlay")
	}
}

func TestOverlayDismissal(t *testing.T) {
	tests := []struct {
		name    string
		dismiss func(m *Module)
		want    bool
	}{
		{"key press", func(m *Module) { m.HandleOverlayKey(module.Key1, module.KeyEvent{Pressed: true}) }, false},
		{"key release", func(m *Module) { m.HandleOverlayKey(module.Key1, module.KeyEvent{}) }, true},
		{"strip tap", func(m *Module) { m.HandleOverlayStripTouch(module.TouchStripEvent{Type: module.TouchTap}) }, false},
		{"strip swipe", func(m *Module) {
			m.HandleOverlayStripTouch(module.TouchStripEvent{Type: module.TouchSwiped, Dir: swipe.Left})
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModule(t)
			m.HandleStripTouch(module.TouchStripEvent{Type: module.TouchLongTap})
			if !m.IsOverlayActive() {
				t.Fatal("long tap should open the overlay")
			}
			tt.dismiss(m)
			if got := m.IsOverlayActive(); got != tt.want {
				t.Errorf("IsOverlayActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverlayExpires(t *testing.T) {
	m, _ := newTestModule(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	press(m, module.Key8)
	now = now.Add(overlayTTL - time.Second)
	if !m.IsOverlayActive() {
		t.Fatal("overlay closed early")
	}
	now = now.Add(2 * time.Second)
	if m.IsOverlayActive() {
		t.Error("overlay should expire")
	}
}

func TestOverlaySwipesAreModuleLocal(t *testing.T) {
	tuner := &fakeTuner{cfg: swipe.DefaultConfig()}
	m := New(tuner)
	res := fullResources
	res.StripRect = image.Rect(400, 0, 800, 100)
	if err := m.Init(context.Background(), res); err != nil {
		t.Fatal(err)
	}

	m.HandleOverlayStripTouch(module.TouchStripEvent{Type: module.TouchSwiped, Point: image.Pt(450, 20), SwipeStart: image.Pt(420, 20)})
	if m.last.Point != image.Pt(50, 20) || m.last.SwipeStart != image.Pt(20, 20) {
		t.Errorf("last = %v from %v, want (50,20) from (20,20)", m.last.Point, m.last.SwipeStart)
	}
}

func TestTuneError(t *testing.T) {
	m, tuner := newTestModule(t)
	tuner.err = errors.New("device gone")
	if err := press(m, module.Key5); !errors.Is(err, tuner.err) {
		t.Errorf("err = %v, want wrapped tuner error", err)
	}
}

func TestRender(t *testing.T) {
	m, _ := newTestModule(t)

	if img := m.RenderStrip(); img == nil || img.Bounds() != image.Rect(0, 0, 800, 100) {
		t.Fatalf("RenderStrip() bounds = %v, want 800x100", img)
	}

	m.HandleStripTouch(module.TouchStripEvent{Type: module.TouchSwiped, Dir: swipe.Down, Point: image.Pt(40, 90)})
	if img := m.RenderStrip(); img == nil {
		t.Fatal("RenderStrip() = nil after a swipe")
	}

	keys := m.RenderKeys()
	if len(keys) != 8 {
		t.Fatalf("RenderKeys() returned %d keys, want 8", len(keys))
	}
	for id, img := range keys {
		if img.Bounds() != image.Rect(0, 0, keySize, keySize) {
			t.Errorf("key %d bounds = %v", id, img.Bounds())
		}
	}

	if len(m.RenderOverlayKeys()) != 8 {
		t.Error("overlay should render every key")
	}
	if m.RenderOverlayStrip() == nil {
		t.Error("RenderOverlayStrip() = nil")
	}
}

func TestRenderBeforeInit(t *testing.T) {
	m := New(&fakeTuner{})
	if m.RenderStrip() != nil || m.RenderKeys() != nil {
		t.Error("rendering before Init should return nil")
	}
}

func TestRenderArrowColors(t *testing.T) {
	for dir := swipe.Left; dir <= swipe.Down; dir++ {
		img := renderArrow(dir, 32, colorBlue).(*image.RGBA)
		painted := false
		for i := 3; i < len(img.Pix); i += 4 {
			if img.Pix[i] != 0 {
				painted = true
				break
			}
		}
		if !painted {
			t.Errorf("arrow %v rendered no pixels", dir)
		}
	}
}
