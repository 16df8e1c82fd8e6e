package swipe

import (
	"math"
	"time"
)

// DefaultDelta is the dead-zone size used for unset or invalid deltas.
const DefaultDelta = 10.0

// Delta is the minimum movement before a gesture counts as a swipe. The
// zero value uses DefaultDelta on every side.
type Delta struct {
	sides [numDirections]float64
	set   [numDirections]bool
}

// UniformDelta uses v for every direction.
func UniformDelta(v float64) Delta {
	var d Delta
	for i := range d.sides {
		d.sides[i] = v
		d.set[i] = true
	}
	return d
}

// SideDelta sets per-direction deltas. Missing directions use DefaultDelta.
func SideDelta(sides map[Direction]float64) Delta {
	var d Delta
	for dir, v := range sides {
		if dir >= numDirections {
			continue
		}
		d.sides[dir] = v
		d.set[dir] = true
	}
	return d
}

// Threshold returns the dead-zone size for dir. Negative, NaN and infinite
// values resolve to DefaultDelta so the comparison is always defined.
func (d Delta) Threshold(dir Direction) float64 {
	if dir >= numDirections || !d.set[dir] {
		return DefaultDelta
	}
	v := d.sides[dir]
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return DefaultDelta
	}
	return v
}

// Handlers holds the optional gesture callbacks.
type Handlers struct {
	// OnPointerDown fires when a gesture starts.
	OnPointerDown func(*Event)

	// OnSwipeStart fires on the first move that leaves the dead zone.
	OnSwipeStart func(EventData)

	OnSwiping      func(EventData)
	OnSwipingLeft  func(EventData)
	OnSwipingRight func(EventData)
	OnSwipingUp    func(EventData)
	OnSwipingDown  func(EventData)

	OnSwiped      func(EventData)
	OnSwipedLeft  func(EventData)
	OnSwipedRight func(EventData)
	OnSwipedUp    func(EventData)
	OnSwipedDown  func(EventData)

	// OnTap fires when a gesture ends without leaving the dead zone.
	OnTap func(*Event)

	// OnPointerUp fires at the end of every gesture, after the other
	// callbacks.
	OnPointerUp func(*Event)
}

func (h *Handlers) swiping(dir Direction) func(EventData) {
	switch dir {
	case Left:
		return h.OnSwipingLeft
	case Right:
		return h.OnSwipingRight
	case Up:
		return h.OnSwipingUp
	case Down:
		return h.OnSwipingDown
	}
	return nil
}

func (h *Handlers) swiped(dir Direction) func(EventData) {
	switch dir {
	case Left:
		return h.OnSwipedLeft
	case Right:
		return h.OnSwipedRight
	case Up:
		return h.OnSwipedUp
	case Down:
		return h.OnSwipedDown
	}
	return nil
}

// Config configures a Controller.
type Config struct {
	Delta         Delta
	RotationAngle float64

	TrackTouch bool
	TrackMouse bool

	// PreventScrollOnSwipe calls PreventDefault on cancelable moves once a
	// swipe with a bound callback is under way. It forces the touch move
	// listener to be non-passive.
	PreventScrollOnSwipe bool

	TouchEventOptions ListenerOptions

	// SwipeDuration bounds the gesture length. Zero means unbounded.
	SwipeDuration time.Duration

	Handlers Handlers
}

// DefaultConfig returns a Config that tracks touch with passive listeners.
func DefaultConfig() Config {
	return Config{
		TrackTouch:        true,
		TouchEventOptions: ListenerOptions{Passive: true},
	}
}

func (c Config) moveOptions() ListenerOptions {
	opts := c.TouchEventOptions
	if c.PreventScrollOnSwipe {
		opts.Passive = false
	}
	return opts
}

func (c Config) expired(elapsed time.Duration) bool {
	return c.SwipeDuration > 0 && elapsed > c.SwipeDuration
}
