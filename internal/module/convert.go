package module

import (
	"image"

	"github.com/phinze/swipedeck/internal/device"
)

// ToDevice converts a module KeyID to the device KeyID.
func (k KeyID) ToDevice() device.KeyID {
	return device.KeyID(k)
}

// KeyIDFromDevice converts a device KeyID to a module KeyID.
func KeyIDFromDevice(k device.KeyID) KeyID {
	return KeyID(k)
}

// ToDevice converts a module DialID to the device DialID.
func (d DialID) ToDevice() device.DialID {
	return device.DialID(d)
}

// DialIDFromDevice converts a device DialID to a module DialID.
func DialIDFromDevice(d device.DialID) DialID {
	return DialID(d)
}

var gestureTypes = map[device.GesturePhase]TouchStripEventType{
	device.GESTURE_TAP:         TouchTap,
	device.GESTURE_LONG_TAP:    TouchLongTap,
	device.GESTURE_SWIPE_START: TouchSwipeStart,
	device.GESTURE_SWIPING:     TouchSwiping,
	device.GESTURE_SWIPED:      TouchSwiped,
}

// TouchStripEventFromGesture creates a TouchStripEvent from a recognized
// gesture, translating points so that origin becomes (0, 0).
func TouchStripEventFromGesture(g device.Gesture, origin image.Point) TouchStripEvent {
	eventType, ok := gestureTypes[g.Phase]
	if !ok {
		eventType = TouchTap
	}

	return TouchStripEvent{
		Type:       eventType,
		Point:      g.Point.Sub(origin),
		SwipeStart: g.Origin.Sub(origin),
		Dir:        g.Dir,
		DeltaX:     g.DeltaX,
		DeltaY:     g.DeltaY,
		Velocity:   g.Velocity,
	}
}
