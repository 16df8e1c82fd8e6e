// Package module defines what a deck feature implements and the events the
// coordinator hands it.
package module

import (
	"context"
	"image"
)

// Module is a feature that owns part of the deck. Handlers run on device
// goroutines and Render methods on the render loop, so implementations
// guard their own state.
type Module interface {
	ID() string

	// Init is called once before any event or render, with the resources
	// the module was registered with.
	Init(ctx context.Context, resources Resources) error
	Stop() error

	// RenderKeys returns images for the keys that changed. Missing keys
	// keep their last image.
	RenderKeys() map[KeyID]image.Image

	// RenderStrip returns an image the size of the strip region, or nil.
	RenderStrip() image.Image

	HandleKey(id KeyID, event KeyEvent) error
	HandleDial(id DialID, event DialEvent) error

	// HandleStripTouch receives every gesture that started in the module's
	// strip region, in region-local coordinates. A swipe may end outside it.
	HandleStripTouch(event TouchStripEvent) error
}
