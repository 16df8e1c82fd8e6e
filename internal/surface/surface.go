// Package surface provides event targets that stand in for the tracked
// element and the document when feeding input into a swipe.Controller.
package surface

import (
	"image"
	"sync"

	"github.com/phinze/swipedeck/internal/swipe"
)

// Surface is a swipe.EventTarget with ordered dispatch. A Surface with an
// empty Bounds covers the whole plane, which is how the document is modeled.
type Surface struct {
	name   string
	bounds image.Rectangle

	mu        sync.Mutex
	listeners []*swipe.Listener
}

// New creates a surface covering bounds.
func New(name string, bounds image.Rectangle) *Surface {
	return &Surface{name: name, bounds: bounds}
}

// NewDocument creates an unbounded surface.
func NewDocument() *Surface {
	return &Surface{name: "document"}
}

// Name returns the surface name.
func (s *Surface) Name() string {
	return s.name
}

// Bounds returns the region the surface covers.
func (s *Surface) Bounds() image.Rectangle {
	return s.bounds
}

// Contains reports whether p lies on the surface.
func (s *Surface) Contains(p image.Point) bool {
	if s.bounds.Empty() {
		return true
	}
	return p.In(s.bounds)
}

// Local converts p into surface-local coordinates.
func (s *Surface) Local(p image.Point) swipe.Point {
	return swipe.Point{
		X: float64(p.X - s.bounds.Min.X),
		Y: float64(p.Y - s.bounds.Min.Y),
	}
}

// AddEventListener registers l. Adding the same listener twice is a no-op.
func (s *Surface) AddEventListener(l *swipe.Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.listeners {
		if existing == l {
			return
		}
	}
	s.listeners = append(s.listeners, l)
}

// RemoveEventListener unregisters l. Unknown listeners are ignored.
func (s *Surface) RemoveEventListener(l *swipe.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.listeners {
		if existing == l {
			s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
			return
		}
	}
}

// Listeners returns the number of listeners registered for kind.
func (s *Surface) Listeners(kind swipe.EventKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.listeners {
		if l.Kind == kind {
			n++
		}
	}
	return n
}

// Len returns the total number of registered listeners.
func (s *Surface) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// Dispatch delivers ev to the listeners for its kind in registration order.
// Listeners added during dispatch wait for the next event; listeners removed
// during dispatch are skipped. It reports whether the default action was
// prevented.
func (s *Surface) Dispatch(ev *swipe.Event) bool {
	s.mu.Lock()
	var matched []*swipe.Listener
	for _, l := range s.listeners {
		if l.Kind == ev.Kind {
			matched = append(matched, l)
		}
	}
	s.mu.Unlock()

	for _, l := range matched {
		if l.Handle == nil || !s.registered(l) {
			continue
		}
		ev.SetPassive(l.Options.Passive)
		l.Handle(ev)
	}
	ev.SetPassive(false)
	return ev.DefaultPrevented()
}

func (s *Surface) registered(l *swipe.Listener) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.listeners {
		if existing == l {
			return true
		}
	}
	return false
}
