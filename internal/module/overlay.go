package module

import "image"

// OverlayProvider is implemented by modules that can temporarily take over
// every key, dial and the whole touch strip.
type OverlayProvider interface {
	IsOverlayActive() bool
	RenderOverlayKeys() map[KeyID]image.Image
	RenderOverlayStrip() image.Image
	HandleOverlayKey(id KeyID, event KeyEvent) error
	HandleOverlayDial(id DialID, event DialEvent) error
	HandleOverlayStripTouch(event TouchStripEvent) error
}
