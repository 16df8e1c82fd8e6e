package module

import (
	"image"
	"time"

	"github.com/phinze/swipedeck/internal/swipe"
)

// DialEventType indicates the type of dial interaction.
type DialEventType uint8

const (
	// DialRotate indicates the dial was rotated.
	DialRotate DialEventType = iota + 1
	// DialPress indicates the dial was pressed down.
	DialPress
	// DialRelease indicates the dial was released.
	DialRelease
)

// DialEvent represents an interaction with a rotary dial.
type DialEvent struct {
	// Type indicates what kind of dial interaction occurred.
	Type DialEventType

	// Delta is the rotation amount (positive = clockwise, negative = counter-clockwise).
	// Only meaningful for DialRotate events.
	Delta int8

	// Duration is how long the dial was held before release.
	// Only meaningful for DialRelease events.
	Duration time.Duration
}

// KeyEvent represents an interaction with a physical key.
type KeyEvent struct {
	// Pressed is true when the key is pressed down, false when released.
	Pressed bool

	// Duration is how long the key was held before release.
	// Only meaningful when Pressed is false.
	Duration time.Duration
}

// TouchStripEventType indicates the type of touch strip interaction.
type TouchStripEventType uint8

const (
	// TouchTap indicates a short tap on the touch strip.
	TouchTap TouchStripEventType = iota + 1
	// TouchLongTap indicates a long press on the touch strip.
	TouchLongTap
	// TouchSwipeStart is sent once, when a touch leaves the dead zone.
	TouchSwipeStart
	// TouchSwiping is sent for every move while swiping.
	TouchSwiping
	// TouchSwiped is sent when a swipe ends.
	TouchSwiped
)

func (t TouchStripEventType) String() string {
	switch t {
	case TouchTap:
		return "tap"
	case TouchLongTap:
		return "long-tap"
	case TouchSwipeStart:
		return "swipe-start"
	case TouchSwiping:
		return "swiping"
	case TouchSwiped:
		return "swiped"
	default:
		return "unknown"
	}
}

// TouchStripEvent represents an interaction with the touch strip. Points are
// relative to the receiving module's strip region.
type TouchStripEvent struct {
	// Type indicates what kind of touch interaction occurred.
	Type TouchStripEventType

	// Point is the location of a tap, or the latest position of a swipe.
	Point image.Point

	// SwipeStart is where a swipe began.
	SwipeStart image.Point

	// Dir, DeltaX, DeltaY and Velocity describe a swipe and are zero for taps.
	Dir      swipe.Direction
	DeltaX   float64
	DeltaY   float64
	Velocity float64
}

// IsSwipe reports whether the event is part of a swipe.
func (e TouchStripEvent) IsSwipe() bool {
	return e.Type >= TouchSwipeStart
}
