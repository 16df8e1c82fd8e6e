package swipe

import "time"

// EventKind identifies a raw input event.
type EventKind uint8

const (
	TouchStart EventKind = iota + 1
	TouchMove
	TouchEnd
	MouseDown
	MouseMove
	MouseUp
)

func (k EventKind) String() string {
	switch k {
	case TouchStart:
		return "touchstart"
	case TouchMove:
		return "touchmove"
	case TouchEnd:
		return "touchend"
	case MouseDown:
		return "mousedown"
	case MouseMove:
		return "mousemove"
	case MouseUp:
		return "mouseup"
	default:
		return "unknown"
	}
}

// Source is the input channel an event came from.
type Source uint8

const (
	SourceTouch Source = iota + 1
	SourceMouse
)

func (s Source) String() string {
	switch s {
	case SourceTouch:
		return "touch"
	case SourceMouse:
		return "mouse"
	default:
		return "unknown"
	}
}

// Source returns the input channel of the event kind.
func (k EventKind) Source() Source {
	switch k {
	case TouchStart, TouchMove, TouchEnd:
		return SourceTouch
	default:
		return SourceMouse
	}
}

// Event is a raw pointer or touch event delivered by a binding layer.
type Event struct {
	Kind EventKind

	// X and Y are the pointer position for mouse events.
	X, Y float64

	// Touches lists the active contacts for touch events. The first contact
	// is the tracked one.
	Touches []Point

	// Time is when the event happened. A zero Time is replaced with the
	// controller's clock.
	Time time.Time

	// Cancelable reports whether PreventDefault has any effect.
	Cancelable bool

	passive          bool
	defaultPrevented bool
}

// Position returns the tracked coordinate pair of the event.
func (e *Event) Position() Point {
	if e.Kind.Source() == SourceTouch && len(e.Touches) > 0 {
		return e.Touches[0]
	}
	return Point{X: e.X, Y: e.Y}
}

// Multitouch reports whether more than one contact is active.
func (e *Event) Multitouch() bool {
	return len(e.Touches) > 1
}

// PreventDefault suppresses the platform default action. It is ignored for
// non-cancelable events and while a passive listener is running.
func (e *Event) PreventDefault() {
	if !e.Cancelable || e.passive {
		return
	}
	e.defaultPrevented = true
}

// DefaultPrevented reports whether PreventDefault took effect.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// SetPassive marks the event as being handled by a passive listener.
// Dispatchers call it around each listener invocation.
func (e *Event) SetPassive(passive bool) {
	e.passive = passive
}

// EventData is the payload of swipe callbacks.
type EventData struct {
	Event   *Event
	Initial Point

	DeltaX, DeltaY float64
	AbsX, AbsY     float64
	Dir            Direction

	// First is true only for the first accepted move of a gesture.
	First bool

	// Velocity is the distance from the origin per millisecond, and VX/VY
	// the signed per-axis components.
	Velocity float64
	VX, VY   float64

	Elapsed time.Duration
}

// ListenerOptions are passed through to the event target.
type ListenerOptions struct {
	// Passive listeners promise not to call PreventDefault.
	Passive bool
}

// Listener is a registered event handler. Targets compare listeners by
// pointer identity, so the same *Listener must be used to remove it.
type Listener struct {
	Kind    EventKind
	Handle  func(*Event)
	Options ListenerOptions
}

// EventTarget is anything listeners can be attached to: the tracked element
// or the document.
type EventTarget interface {
	AddEventListener(l *Listener)
	RemoveEventListener(l *Listener)
}
