package coordinator

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/phinze/swipedeck/internal/device"
	"github.com/phinze/swipedeck/internal/module"
	"github.com/phinze/swipedeck/internal/swipe"
)

// fakeDevice records what the coordinator registers and draws.
type fakeDevice struct {
	gestureHandlers []device.TouchStripGestureHandler
	keyImages       map[device.KeyID]image.Image
	strip           image.Image
	cfg             swipe.Config
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{keyImages: make(map[device.KeyID]image.Image)}
}

func (f *fakeDevice) Open() error                  { return nil }
func (f *fakeDevice) Close() error                 { return nil }
func (f *fakeDevice) IsOpen() bool                 { return true }
func (f *fakeDevice) GetModelName() string         { return "fake" }
func (f *fakeDevice) GetKeyCount() byte            { return 8 }
func (f *fakeDevice) GetDialCount() byte           { return 4 }
func (f *fakeDevice) GetTouchStripSupported() bool { return true }
func (f *fakeDevice) GetKeyImageRectangle() (image.Rectangle, error) {
	return image.Rect(0, 0, 72, 72), nil
}
func (f *fakeDevice) GetTouchStripImageRectangle() (image.Rectangle, error) {
	return image.Rect(0, 0, 800, 100), nil
}
func (f *fakeDevice) SetBrightness(perc byte) error { return nil }
func (f *fakeDevice) SetKeyImage(key device.KeyID, img image.Image) error {
	f.keyImages[key] = img
	return nil
}
func (f *fakeDevice) SetTouchStripImage(img image.Image) error {
	f.strip = img
	return nil
}
func (f *fakeDevice) ClearKey(key device.KeyID) error                     { return nil }
func (f *fakeDevice) ForEachKey(cb func(device.KeyID) error) error        { return nil }
func (f *fakeDevice) ForEachDial(cb func(device.DialID) error) error      { return nil }
func (f *fakeDevice) AddKeyHandler(device.KeyID, device.KeyHandler) error { return nil }
func (f *fakeDevice) AddDialRotateHandler(device.DialID, device.DialRotateHandler) error {
	return nil
}
func (f *fakeDevice) AddDialSwitchHandler(device.DialID, device.DialSwitchHandler) error {
	return nil
}
func (f *fakeDevice) AddTouchStripGestureHandler(fn device.TouchStripGestureHandler) error {
	f.gestureHandlers = append(f.gestureHandlers, fn)
	return nil
}
func (f *fakeDevice) SetGestureConfig(cfg swipe.Config) error { f.cfg = cfg; return nil }
func (f *fakeDevice) GestureConfig() swipe.Config             { return f.cfg }
func (f *fakeDevice) Listen(errCh chan error) error           { return nil }

// stripModule records strip events and renders a solid strip.
type stripModule struct {
	module.BaseModule
	events []module.TouchStripEvent
	keys   []module.KeyEvent
	dials  []module.DialEvent
	fill   color.Color
}

func (m *stripModule) HandleKey(id module.KeyID, ev module.KeyEvent) error {
	m.keys = append(m.keys, ev)
	return nil
}

func (m *stripModule) HandleDial(id module.DialID, ev module.DialEvent) error {
	m.dials = append(m.dials, ev)
	return nil
}

func newStripModule(id string, fill color.Color) *stripModule {
	return &stripModule{BaseModule: module.NewBaseModule(id), fill: fill}
}

func (m *stripModule) HandleStripTouch(ev module.TouchStripEvent) error {
	m.events = append(m.events, ev)
	return nil
}

func (m *stripModule) RenderStrip() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 400, 100))
	for i := 0; i < len(img.Pix); i += 4 {
		r, g, b, a := m.fill.RGBA()
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8)
	}
	return img
}

// overlayModule is a strip module that can take over the whole deck.
type overlayModule struct {
	stripModule
	active      bool
	overlay     []module.TouchStripEvent
	overlayKeys []module.KeyEvent
}

func (m *overlayModule) IsOverlayActive() bool                           { return m.active }
func (m *overlayModule) RenderOverlayKeys() map[module.KeyID]image.Image { return nil }
func (m *overlayModule) RenderOverlayStrip() image.Image                 { return nil }
func (m *overlayModule) HandleOverlayKey(id module.KeyID, ev module.KeyEvent) error {
	m.overlayKeys = append(m.overlayKeys, ev)
	return nil
}
func (m *overlayModule) HandleOverlayDial(module.DialID, module.DialEvent) error {
	return nil
}
func (m *overlayModule) HandleOverlayStripTouch(ev module.TouchStripEvent) error {
	m.overlay = append(m.overlay, ev)
	return nil
}

func splitStrip(t *testing.T) (*Coordinator, *stripModule, *overlayModule) {
	t.Helper()
	c := New(newFakeDevice())
	left := newStripModule("left", color.RGBA{255, 0, 0, 255})
	right := &overlayModule{stripModule: *newStripModule("right", color.RGBA{0, 0, 255, 255})}

	c.RegisterModule(left, module.Resources{
		Keys:      []module.KeyID{module.Key1},
		Dials:     []module.DialID{module.Dial1},
		StripRect: image.Rect(0, 0, 400, 100),
	})
	c.RegisterModule(right, module.Resources{StripRect: image.Rect(400, 0, 800, 100)})
	return c, left, right
}

func TestGestureRoutingByOrigin(t *testing.T) {
	tests := []struct {
		name       string
		gesture    device.Gesture
		wantLeft   int
		wantRight  int
		wantPoint  image.Point
		wantOrigin image.Point
	}{
		{
			name:       "tap on the left",
			gesture:    device.Gesture{Phase: device.GESTURE_TAP, Point: image.Pt(100, 40), Origin: image.Pt(100, 40)},
			wantLeft:   1,
			wantPoint:  image.Pt(100, 40),
			wantOrigin: image.Pt(100, 40),
		},
		{
			name:       "tap on the right is module-local",
			gesture:    device.Gesture{Phase: device.GESTURE_TAP, Point: image.Pt(650, 40), Origin: image.Pt(650, 40)},
			wantRight:  1,
			wantPoint:  image.Pt(250, 40),
			wantOrigin: image.Pt(250, 40),
		},
		{
			name: "swipe stays with the module it started on",
			gesture: device.Gesture{
				Phase: device.GESTURE_SWIPED, Point: image.Pt(100, 50), Origin: image.Pt(450, 50),
				Dir: swipe.Left, DeltaX: -350, Velocity: 2,
			},
			wantRight:  1,
			wantPoint:  image.Pt(-300, 50),
			wantOrigin: image.Pt(50, 50),
		},
		{
			name:    "origin outside every region",
			gesture: device.Gesture{Phase: device.GESTURE_TAP, Point: image.Pt(900, 50), Origin: image.Pt(900, 50)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, left, right := splitStrip(t)
			if err := c.HandleGesture(tt.gesture); err != nil {
				t.Fatalf("HandleGesture() error = %v", err)
			}

			if len(left.events) != tt.wantLeft || len(right.events) != tt.wantRight {
				t.Fatalf("left, right events = %d, %d, want %d, %d", len(left.events), len(right.events), tt.wantLeft, tt.wantRight)
			}
			events := append(left.events, right.events...)
			if len(events) == 0 {
				return
			}
			ev := events[0]
			if ev.Point != tt.wantPoint || ev.SwipeStart != tt.wantOrigin {
				t.Errorf("Point, SwipeStart = %v, %v, want %v, %v", ev.Point, ev.SwipeStart, tt.wantPoint, tt.wantOrigin)
			}
			if ev.Dir != tt.gesture.Dir || ev.Velocity != tt.gesture.Velocity {
				t.Errorf("swipe payload = %+v, want dir %v velocity %v", ev, tt.gesture.Dir, tt.gesture.Velocity)
			}
		})
	}
}

func TestGesturePhasesMapToEventTypes(t *testing.T) {
	tests := []struct {
		phase device.GesturePhase
		want  module.TouchStripEventType
	}{
		{device.GESTURE_TAP, module.TouchTap},
		{device.GESTURE_LONG_TAP, module.TouchLongTap},
		{device.GESTURE_SWIPE_START, module.TouchSwipeStart},
		{device.GESTURE_SWIPING, module.TouchSwiping},
		{device.GESTURE_SWIPED, module.TouchSwiped},
	}

	for _, tt := range tests {
		c, left, _ := splitStrip(t)
		c.HandleGesture(device.Gesture{Phase: tt.phase, Origin: image.Pt(10, 10)})
		if len(left.events) != 1 || left.events[0].Type != tt.want {
			t.Errorf("phase %v delivered %+v, want type %v", tt.phase, left.events, tt.want)
		}
	}
}

func TestFailedModulesSkipped(t *testing.T) {
	c, left, _ := splitStrip(t)
	c.failedModules[left] = true

	c.HandleGesture(device.Gesture{Phase: device.GESTURE_TAP, Origin: image.Pt(10, 10)})
	if len(left.events) != 0 {
		t.Error("failed module received a gesture")
	}
}

func TestOverlayReceivesStripCoordinates(t *testing.T) {
	c, left, right := splitStrip(t)
	right.active = true

	c.HandleGesture(device.Gesture{Phase: device.GESTURE_TAP, Point: image.Pt(10, 10), Origin: image.Pt(10, 10)})
	if len(left.events) != 0 {
		t.Error("gesture reached the region owner while an overlay was active")
	}
	if len(right.overlay) != 1 || right.overlay[0].Point != image.Pt(10, 10) {
		t.Errorf("overlay events = %+v, want one at (10, 10)", right.overlay)
	}
}

func TestGestureRequestsRedraw(t *testing.T) {
	c, _, _ := splitStrip(t)
	c.HandleGesture(device.Gesture{Phase: device.GESTURE_TAP, Origin: image.Pt(10, 10)})
	c.HandleGesture(device.Gesture{Phase: device.GESTURE_TAP, Origin: image.Pt(10, 10)})

	select {
	case <-c.redraw:
	default:
		t.Fatal("gesture did not request a redraw")
	}
	select {
	case <-c.redraw:
		t.Error("redraw requests should coalesce")
	default:
	}
}

func TestStripCompositedByRegion(t *testing.T) {
	dev := newFakeDevice()
	c := New(dev)
	c.RegisterModule(newStripModule("left", color.RGBA{255, 0, 0, 255}), module.Resources{StripRect: image.Rect(0, 0, 400, 100)})
	c.RegisterModule(newStripModule("right", color.RGBA{0, 0, 255, 255}), module.Resources{StripRect: image.Rect(400, 0, 800, 100)})
	c.stripRect = image.Rect(0, 0, 800, 100)

	c.renderStrip()
	if dev.strip == nil {
		t.Fatal("no strip image was set")
	}

	tests := []struct {
		x    int
		want color.RGBA
	}{
		{10, color.RGBA{255, 0, 0, 255}},
		{399, color.RGBA{255, 0, 0, 255}},
		{400, color.RGBA{0, 0, 255, 255}},
		{790, color.RGBA{0, 0, 255, 255}},
	}
	for _, tt := range tests {
		got := color.RGBAModel.Convert(dev.strip.At(tt.x, 50)).(color.RGBA)
		if got != tt.want {
			t.Errorf("pixel at x=%d = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestStartRegistersGestureHandler(t *testing.T) {
	dev := newFakeDevice()
	c := New(dev)
	left := newStripModule("left", color.Black)
	c.RegisterModule(left, module.Resources{StripRect: image.Rect(0, 0, 800, 100)})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	c.Stop()

	if len(dev.gestureHandlers) != 1 {
		t.Fatalf("gesture handlers = %d, want 1", len(dev.gestureHandlers))
	}
	dev.gestureHandlers[0](dev, device.Gesture{Phase: device.GESTURE_TAP, Origin: image.Pt(5, 5)})
	if len(left.events) != 1 {
		t.Error("registered handler did not route to the module")
	}
}

func TestRegisterModuleConflicts(t *testing.T) {
	tests := []struct {
		name    string
		res     module.Resources
		wantErr bool
	}{
		{"disjoint", module.Resources{Keys: []module.KeyID{module.Key2}, StripRect: image.Rect(400, 0, 800, 100)}, false},
		{"no strip", module.Resources{Dials: []module.DialID{module.Dial2}}, false},
		{"shared key", module.Resources{Keys: []module.KeyID{module.Key2, module.Key1}}, true},
		{"shared dial", module.Resources{Dials: []module.DialID{module.Dial1}}, true},
		{"overlapping strip", module.Resources{StripRect: image.Rect(399, 0, 500, 100)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(newFakeDevice())
			first := module.Resources{
				Keys:      []module.KeyID{module.Key1},
				Dials:     []module.DialID{module.Dial1},
				StripRect: image.Rect(0, 0, 400, 100),
			}
			if err := c.RegisterModule(newStripModule("first", color.Black), first); err != nil {
				t.Fatalf("first RegisterModule() error = %v", err)
			}
			err := c.RegisterModule(newStripModule("second", color.White), tt.res)
			if (err != nil) != tt.wantErr {
				t.Errorf("RegisterModule() error = %v, wantErr %v", err, tt.wantErr)
			}
			if want := 1; tt.wantErr && len(c.modules) != want {
				t.Errorf("modules = %d after a conflict, want %d", len(c.modules), want)
			}
		})
	}
}

func TestKeyPressAndReleaseReachOneReceiver(t *testing.T) {
	c, left, right := splitStrip(t)

	release := func() time.Duration {
		// The overlay opening mid-press must not split the press and release.
		right.active = true
		return 300 * time.Millisecond
	}
	if err := c.handleKey(module.Key1, release); err != nil {
		t.Fatalf("handleKey() error = %v", err)
	}

	if len(left.keys) != 2 || !left.keys[0].Pressed || left.keys[1].Pressed {
		t.Fatalf("owner key events = %+v, want press then release", left.keys)
	}
	if left.keys[1].Duration != 300*time.Millisecond {
		t.Errorf("release duration = %v, want 300ms", left.keys[1].Duration)
	}
	if len(right.overlayKeys) != 0 {
		t.Errorf("overlay received %d key events", len(right.overlayKeys))
	}

	c.handleKey(module.Key1, func() time.Duration { return 0 })
	if len(right.overlayKeys) != 2 || len(left.keys) != 2 {
		t.Errorf("with overlay open: overlay %d, owner %d events, want 2, 2", len(right.overlayKeys), len(left.keys))
	}
}

func TestUnownedKeyIgnored(t *testing.T) {
	c, left, _ := splitStrip(t)
	if err := c.handleKey(module.Key5, func() time.Duration { return 0 }); err != nil {
		t.Fatalf("handleKey() error = %v", err)
	}
	if len(left.keys) != 0 {
		t.Error("unowned key reached a module")
	}
}

func TestDialRouting(t *testing.T) {
	c, left, right := splitStrip(t)

	c.handleDial(module.Dial1, module.DialEvent{Type: module.DialRotate, Delta: 2})
	c.handleDial(module.Dial2, module.DialEvent{Type: module.DialRotate, Delta: 1})
	if len(left.dials) != 1 || left.dials[0].Delta != 2 {
		t.Errorf("owner dial events = %+v, want one rotate by 2", left.dials)
	}

	right.active = true
	c.handleDial(module.Dial1, module.DialEvent{Type: module.DialPress})
	if len(left.dials) != 1 {
		t.Error("dial reached its owner while an overlay was open")
	}
}
