package device

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/phinze/swipedeck/internal/swipe"
)

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func touch(kind swipe.EventKind, x, y float64, ms int) *swipe.Event {
	return &swipe.Event{
		Kind:       kind,
		Touches:    []swipe.Point{{X: x, Y: y}},
		Time:       base.Add(time.Duration(ms) * time.Millisecond),
		Cancelable: true,
	}
}

func release(kind swipe.EventKind, ms int) *swipe.Event {
	return &swipe.Event{Kind: kind, Time: base.Add(time.Duration(ms) * time.Millisecond)}
}

func newTestRecognizer(cfg swipe.Config) (*StripRecognizer, *[]Gesture) {
	r := NewStripRecognizer(nil, image.Rect(0, 0, 800, 100), cfg)
	var got []Gesture
	r.AddHandler(func(d Device, g Gesture) error {
		got = append(got, g)
		return nil
	})
	return r, &got
}

func TestRecognizerTap(t *testing.T) {
	tests := []struct {
		name    string
		holdMs  int
		want    GesturePhase
	}{
		{"short", 100, GESTURE_TAP},
		{"long", 600, GESTURE_LONG_TAP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, got := newTestRecognizer(swipe.DefaultConfig())
			r.DispatchStrip(touch(swipe.TouchStart, 120, 40, 0))
			r.DispatchStrip(release(swipe.TouchEnd, tt.holdMs))

			if len(*got) != 1 {
				t.Fatalf("gestures = %+v, want one", *got)
			}
			g := (*got)[0]
			if g.Phase != tt.want {
				t.Errorf("Phase = %v, want %v", g.Phase, tt.want)
			}
			if g.Point != image.Pt(120, 40) {
				t.Errorf("Point = %v, want (120, 40)", g.Point)
			}
			if g.IsSwipe() {
				t.Error("taps are not swipes")
			}
		})
	}
}

func TestRecognizerSwipe(t *testing.T) {
	r, got := newTestRecognizer(swipe.DefaultConfig())

	r.DispatchStrip(touch(swipe.TouchStart, 100, 50, 0))
	r.DispatchStrip(touch(swipe.TouchMove, 150, 52, 10))
	r.DispatchStrip(touch(swipe.TouchMove, 300, 55, 20))
	r.DispatchStrip(release(swipe.TouchEnd, 30))

	phases := []GesturePhase{GESTURE_SWIPE_START, GESTURE_SWIPING, GESTURE_SWIPING, GESTURE_SWIPED}
	if len(*got) != len(phases) {
		t.Fatalf("gestures = %+v, want %d", *got, len(phases))
	}
	for i, want := range phases {
		if (*got)[i].Phase != want {
			t.Errorf("gesture %d phase = %v, want %v", i, (*got)[i].Phase, want)
		}
	}

	final := (*got)[3]
	if final.Dir != swipe.Right {
		t.Errorf("Dir = %v, want Right", final.Dir)
	}
	if final.Origin != image.Pt(100, 50) || final.Point != image.Pt(300, 55) {
		t.Errorf("Origin, Point = %v, %v, want (100,50), (300,55)", final.Origin, final.Point)
	}
	if final.DeltaX != 200 {
		t.Errorf("DeltaX = %v, want 200", final.DeltaX)
	}
	if final.Velocity <= 0 {
		t.Errorf("Velocity = %v, want > 0", final.Velocity)
	}
}

func TestRecognizerMouseTracking(t *testing.T) {
	cfg := swipe.DefaultConfig()
	cfg.TrackMouse = true
	r, got := newTestRecognizer(cfg)

	if n := r.Strip().Listeners(swipe.MouseDown); n != 1 {
		t.Fatalf("mousedown listeners = %d, want 1", n)
	}

	r.DispatchStrip(&swipe.Event{Kind: swipe.MouseDown, X: 400, Y: 50, Time: base})
	r.DispatchDocument(&swipe.Event{Kind: swipe.MouseMove, X: 400, Y: -150, Time: base.Add(10 * time.Millisecond)})
	r.DispatchDocument(&swipe.Event{Kind: swipe.MouseUp, X: 400, Y: -150, Time: base.Add(20 * time.Millisecond)})

	last := (*got)[len(*got)-1]
	if last.Phase != GESTURE_SWIPED || last.Dir != swipe.Up {
		t.Errorf("last gesture = %+v, want swiped Up", last)
	}

	cfg.TrackMouse = false
	r.Configure(cfg)
	if n := r.Strip().Listeners(swipe.MouseDown); n != 0 {
		t.Errorf("mousedown listeners = %d after disabling mouse, want 0", n)
	}
}

func TestRecognizerKeepsUserHandlers(t *testing.T) {
	var userSwiped, userDown int
	cfg := swipe.DefaultConfig()
	cfg.Handlers.OnSwiped = func(swipe.EventData) { userSwiped++ }
	cfg.Handlers.OnPointerDown = func(*swipe.Event) { userDown++ }
	r, got := newTestRecognizer(cfg)

	r.DispatchStrip(touch(swipe.TouchStart, 10, 10, 0))
	r.DispatchStrip(touch(swipe.TouchMove, 10, 90, 10))
	r.DispatchStrip(release(swipe.TouchEnd, 20))

	if userSwiped != 1 || userDown != 1 {
		t.Errorf("user handlers: swiped %d, down %d, want 1 each", userSwiped, userDown)
	}
	if len(*got) == 0 {
		t.Error("recognizer handlers should still run")
	}
}

func TestRecognizerHandlerMayReconfigure(t *testing.T) {
	r := NewStripRecognizer(nil, image.Rect(0, 0, 800, 100), swipe.DefaultConfig())
	r.AddHandler(func(d Device, g Gesture) error {
		cfg := r.Config()
		cfg.RotationAngle += 90
		r.Configure(cfg)
		return nil
	})

	r.DispatchStrip(touch(swipe.TouchStart, 10, 10, 0))
	r.DispatchStrip(release(swipe.TouchEnd, 10))

	if got := r.Config().RotationAngle; got != 90 {
		t.Errorf("RotationAngle = %v, want 90", got)
	}
}

func TestRecognizerJoinsHandlerErrors(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	r := NewStripRecognizer(nil, image.Rect(0, 0, 800, 100), swipe.DefaultConfig())
	r.AddHandler(func(Device, Gesture) error { return errA })
	r.AddHandler(func(Device, Gesture) error { return errB })

	r.DispatchStrip(touch(swipe.TouchStart, 10, 10, 0))
	err := r.DispatchStrip(release(swipe.TouchEnd, 10))
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("err = %v, want both handler errors", err)
	}
}

func TestRecognizerEmit(t *testing.T) {
	r, got := newTestRecognizer(swipe.DefaultConfig())
	if err := r.Emit(Gesture{Phase: GESTURE_LONG_TAP, Point: image.Pt(5, 5)}); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if len(*got) != 1 || (*got)[0].Phase != GESTURE_LONG_TAP {
		t.Errorf("gestures = %+v, want one long tap", *got)
	}
}

func TestRecognizerClose(t *testing.T) {
	cfg := swipe.DefaultConfig()
	cfg.TrackMouse = true
	r, _ := newTestRecognizer(cfg)

	r.Close()
	if n := r.Strip().Len(); n != 0 {
		t.Errorf("strip listeners after Close = %d, want 0", n)
	}
}

func TestGesturePhaseString(t *testing.T) {
	tests := []struct {
		phase GesturePhase
		want  string
	}{
		{GESTURE_TAP, "tap"},
		{GESTURE_LONG_TAP, "long-tap"},
		{GESTURE_SWIPE_START, "swipe-start"},
		{GESTURE_SWIPING, "swiping"},
		{GESTURE_SWIPED, "swiped"},
		{GesturePhase(0), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("GesturePhase.String() = %q, want %q", got, tt.want)
		}
	}
}
