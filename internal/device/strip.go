package device

import (
	"errors"
	"image"
	"math"
	"sync"
	"time"

	"github.com/phinze/swipedeck/internal/surface"
	"github.com/phinze/swipedeck/internal/swipe"
)

// LongTapThreshold is how long a tap must be held to count as a long tap.
const LongTapThreshold = 500 * time.Millisecond

// StripRecognizer binds a swipe.Controller to the touch strip. Raw events
// are dispatched to the strip surface (the element) or to the document
// surface; recognized gestures are fanned out to the registered handlers.
type StripRecognizer struct {
	dev Device

	mu        sync.Mutex
	ctrl      *swipe.Controller
	cfg       swipe.Config
	strip     *surface.Surface
	doc       *surface.Surface
	mouseDown *swipe.Listener
	handlers  []TouchStripGestureHandler

	// Per-gesture bookkeeping for the gestures being delivered.
	downAt  time.Time
	origin  image.Point
	lastPos image.Point
	pending []Gesture
}

// NewStripRecognizer creates a recognizer for a strip covering bounds.
// Event coordinates are strip-local.
func NewStripRecognizer(dev Device, bounds image.Rectangle, cfg swipe.Config) *StripRecognizer {
	r := &StripRecognizer{
		dev:   dev,
		strip: surface.New("strip", bounds),
		doc:   surface.NewDocument(),
	}
	r.ctrl = swipe.New(swipe.Config{}, r.doc)
	r.configure(cfg)
	r.ctrl.Bindings().Ref(r.strip)
	return r
}

// AddHandler registers a gesture handler.
func (r *StripRecognizer) AddHandler(fn TouchStripGestureHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, fn)
}

// Configure replaces the gesture configuration. User handlers in cfg are
// kept and run before the recognizer's own.
func (r *StripRecognizer) Configure(cfg swipe.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configure(cfg)
}

// Config returns the configuration last passed to Configure.
func (r *StripRecognizer) Config() swipe.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

func (r *StripRecognizer) configure(cfg swipe.Config) {
	r.cfg = cfg

	wired := cfg
	user := cfg.Handlers
	wired.Handlers.OnPointerDown = func(ev *swipe.Event) {
		r.downAt = ev.Time
		r.origin = toPoint(ev.Position())
		r.lastPos = r.origin
		if user.OnPointerDown != nil {
			user.OnPointerDown(ev)
		}
	}
	wired.Handlers.OnTap = func(ev *swipe.Event) {
		if user.OnTap != nil {
			user.OnTap(ev)
		}
		phase := GESTURE_TAP
		if !r.downAt.IsZero() && ev.Time.Sub(r.downAt) > LongTapThreshold {
			phase = GESTURE_LONG_TAP
		}
		r.pending = append(r.pending, Gesture{Phase: phase, Point: r.origin, Origin: r.origin})
	}
	wired.Handlers.OnSwipeStart = func(d swipe.EventData) {
		if user.OnSwipeStart != nil {
			user.OnSwipeStart(d)
		}
		r.emitSwipe(GESTURE_SWIPE_START, d)
	}
	wired.Handlers.OnSwiping = func(d swipe.EventData) {
		if user.OnSwiping != nil {
			user.OnSwiping(d)
		}
		r.emitSwipe(GESTURE_SWIPING, d)
	}
	wired.Handlers.OnSwiped = func(d swipe.EventData) {
		if user.OnSwiped != nil {
			user.OnSwiped(d)
		}
		r.emitSwipe(GESTURE_SWIPED, d)
	}

	bindings := r.ctrl.UpdateConfiguration(wired)

	if r.mouseDown != nil {
		r.strip.RemoveEventListener(r.mouseDown)
		r.mouseDown = nil
	}
	if bindings.OnMouseDown != nil {
		r.mouseDown = &swipe.Listener{Kind: swipe.MouseDown, Handle: bindings.OnMouseDown}
		r.strip.AddEventListener(r.mouseDown)
	}
}

func (r *StripRecognizer) emitSwipe(phase GesturePhase, d swipe.EventData) {
	if d.Event != nil && d.Event.Kind != swipe.TouchEnd && d.Event.Kind != swipe.MouseUp {
		r.lastPos = toPoint(d.Event.Position())
	}
	r.pending = append(r.pending, Gesture{
		Phase:    phase,
		Point:    r.lastPos,
		Origin:   r.origin,
		Dir:      d.Dir,
		DeltaX:   d.DeltaX,
		DeltaY:   d.DeltaY,
		Velocity: d.Velocity,
	})
}

// Strip returns the strip surface.
func (r *StripRecognizer) Strip() *surface.Surface {
	return r.strip
}

// DispatchStrip delivers a raw event to the strip surface.
func (r *StripRecognizer) DispatchStrip(ev *swipe.Event) error {
	return r.dispatch(r.strip, ev)
}

// DispatchDocument delivers a raw event to the document surface.
func (r *StripRecognizer) DispatchDocument(ev *swipe.Event) error {
	return r.dispatch(r.doc, ev)
}

// Emit delivers a gesture recognized elsewhere, such as a hardware long tap.
func (r *StripRecognizer) Emit(g Gesture) error {
	r.mu.Lock()
	handlers := r.handlers
	r.mu.Unlock()
	return r.deliver(handlers, []Gesture{g})
}

// Tracking reports whether a gesture is in progress.
func (r *StripRecognizer) Tracking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ctrl.Active()
}

// Close detaches the recognizer from its surfaces.
func (r *StripRecognizer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mouseDown != nil {
		r.strip.RemoveEventListener(r.mouseDown)
		r.mouseDown = nil
	}
	r.ctrl.Close()
}

func (r *StripRecognizer) dispatch(target *surface.Surface, ev *swipe.Event) error {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	r.mu.Lock()
	target.Dispatch(ev)
	gestures := r.pending
	r.pending = nil
	handlers := r.handlers
	r.mu.Unlock()

	return r.deliver(handlers, gestures)
}

// deliver runs handlers outside the lock so they may reconfigure the
// recognizer.
func (r *StripRecognizer) deliver(handlers []TouchStripGestureHandler, gestures []Gesture) error {
	var errs []error
	for _, g := range gestures {
		for _, h := range handlers {
			if err := h(r.dev, g); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func toPoint(p swipe.Point) image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}
