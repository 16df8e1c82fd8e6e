package device

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/phinze/swipedeck/internal/swipe"
	"rafaelmartins.com/p/streamdeck"
)

// HardwareDevice wraps the real streamdeck.Device to implement the Device interface.
//
// The hardware reports finished taps and swipes only, so the touch strip
// handlers replay them as raw touch sequences through a StripRecognizer.
// That way dead zone, rotation and duration limits apply the same way as
// for the emulator.
type HardwareDevice struct {
	dev *streamdeck.Device

	stripOnce  sync.Once
	recognizer *StripRecognizer
	stripErr   error
}

// NewHardware creates a new hardware device wrapper.
func NewHardware(dev *streamdeck.Device, cfg swipe.Config) *HardwareDevice {
	h := &HardwareDevice{dev: dev}
	rect := image.Rectangle{}
	if dev.GetTouchStripSupported() {
		if r, err := dev.GetTouchStripImageRectangle(); err == nil {
			rect = r
		}
	}
	h.recognizer = NewStripRecognizer(h, rect, cfg)
	return h
}

// Open opens the device for use.
func (h *HardwareDevice) Open() error {
	return h.dev.Open()
}

// Close closes the device.
func (h *HardwareDevice) Close() error {
	h.recognizer.Close()
	return h.dev.Close()
}

// IsOpen returns whether the device is open.
func (h *HardwareDevice) IsOpen() bool {
	return h.dev.IsOpen()
}

// GetModelName returns the device model name.
func (h *HardwareDevice) GetModelName() string {
	return h.dev.GetModelName()
}

// GetKeyCount returns the number of keys on the device.
func (h *HardwareDevice) GetKeyCount() byte {
	return h.dev.GetKeyCount()
}

// GetDialCount returns the number of dials on the device.
func (h *HardwareDevice) GetDialCount() byte {
	return h.dev.GetDialCount()
}

// GetTouchStripSupported returns whether the device has a touch strip.
func (h *HardwareDevice) GetTouchStripSupported() bool {
	return h.dev.GetTouchStripSupported()
}

// GetKeyImageRectangle returns the dimensions for key images.
func (h *HardwareDevice) GetKeyImageRectangle() (image.Rectangle, error) {
	return h.dev.GetKeyImageRectangle()
}

// GetTouchStripImageRectangle returns the dimensions for the touch strip image.
func (h *HardwareDevice) GetTouchStripImageRectangle() (image.Rectangle, error) {
	return h.dev.GetTouchStripImageRectangle()
}

// SetBrightness sets the device brightness.
func (h *HardwareDevice) SetBrightness(perc byte) error {
	return h.dev.SetBrightness(perc)
}

// SetKeyImage sets the image for a key.
func (h *HardwareDevice) SetKeyImage(key KeyID, img image.Image) error {
	return h.dev.SetKeyImage(streamdeck.KeyID(key), img)
}

// SetTouchStripImage sets the touch strip image.
func (h *HardwareDevice) SetTouchStripImage(img image.Image) error {
	return h.dev.SetTouchStripImage(img)
}

// ClearKey clears a key's image.
func (h *HardwareDevice) ClearKey(key KeyID) error {
	return h.dev.ClearKey(streamdeck.KeyID(key))
}

// ForEachKey calls the callback for each key.
func (h *HardwareDevice) ForEachKey(cb func(KeyID) error) error {
	return h.dev.ForEachKey(func(k streamdeck.KeyID) error {
		return cb(KeyID(k))
	})
}

// ForEachDial calls the callback for each dial.
func (h *HardwareDevice) ForEachDial(cb func(DialID) error) error {
	return h.dev.ForEachDial(func(d streamdeck.DialID) error {
		return cb(DialID(d))
	})
}

// hardwareKey wraps streamdeck.Key to implement the Key interface.
type hardwareKey struct {
	key *streamdeck.Key
}

func (k *hardwareKey) GetID() KeyID {
	return KeyID(k.key.GetID())
}

func (k *hardwareKey) WaitForRelease() time.Duration {
	return k.key.WaitForRelease()
}

// hardwareDial wraps streamdeck.Dial to implement the Dial interface.
type hardwareDial struct {
	dial *streamdeck.Dial
}

func (d *hardwareDial) GetID() DialID {
	return DialID(d.dial.GetID())
}

func (d *hardwareDial) WaitForRelease() time.Duration {
	return d.dial.WaitForRelease()
}

// AddKeyHandler adds a handler for a key press.
func (h *HardwareDevice) AddKeyHandler(key KeyID, fn KeyHandler) error {
	return h.dev.AddKeyHandler(streamdeck.KeyID(key), func(d *streamdeck.Device, k *streamdeck.Key) error {
		return fn(h, &hardwareKey{key: k})
	})
}

// AddDialRotateHandler adds a handler for dial rotation.
func (h *HardwareDevice) AddDialRotateHandler(dial DialID, fn DialRotateHandler) error {
	return h.dev.AddDialRotateHandler(streamdeck.DialID(dial), func(d *streamdeck.Device, di *streamdeck.Dial, delta int8) error {
		return fn(h, &hardwareDial{dial: di}, delta)
	})
}

// AddDialSwitchHandler adds a handler for dial press.
func (h *HardwareDevice) AddDialSwitchHandler(dial DialID, fn DialSwitchHandler) error {
	return h.dev.AddDialSwitchHandler(streamdeck.DialID(dial), func(d *streamdeck.Device, di *streamdeck.Dial) error {
		return fn(h, &hardwareDial{dial: di})
	})
}

// AddTouchStripGestureHandler adds a handler for recognized touch strip gestures.
func (h *HardwareDevice) AddTouchStripGestureHandler(fn TouchStripGestureHandler) error {
	if !h.dev.GetTouchStripSupported() {
		return fmt.Errorf("hardware: %s has no touch strip", h.dev.GetModelName())
	}
	h.stripOnce.Do(h.hookStrip)
	if h.stripErr != nil {
		return h.stripErr
	}
	h.recognizer.AddHandler(fn)
	return nil
}

// hookStrip registers the streamdeck strip handlers that feed the recognizer.
func (h *HardwareDevice) hookStrip() {
	err := h.dev.AddTouchStripTouchHandler(func(d *streamdeck.Device, t streamdeck.TouchStripTouchType, p image.Point) error {
		return h.replayTap(TouchStripTouchType(t), p)
	})
	if err != nil {
		h.stripErr = fmt.Errorf("hardware: registering touch handler: %w", err)
		return
	}
	err = h.dev.AddTouchStripSwipeHandler(func(d *streamdeck.Device, origin, destination image.Point) error {
		return h.replaySwipe(origin, destination)
	})
	if err != nil {
		h.stripErr = fmt.Errorf("hardware: registering swipe handler: %w", err)
	}
}

// replayTap feeds a hardware tap through the recognizer. Long taps are
// recognized by the hardware and passed on directly.
func (h *HardwareDevice) replayTap(t TouchStripTouchType, p image.Point) error {
	if t == TOUCH_STRIP_TOUCH_TYPE_LONG {
		return h.recognizer.Emit(Gesture{Phase: GESTURE_LONG_TAP, Point: p, Origin: p})
	}
	now := time.Now()
	if err := h.recognizer.DispatchStrip(touchEvent(swipe.TouchStart, p, now)); err != nil {
		return err
	}
	return h.recognizer.DispatchStrip(&swipe.Event{Kind: swipe.TouchEnd, Time: now, Cancelable: true})
}

// replaySwipe feeds a hardware swipe through the recognizer as a single
// move between origin and destination.
func (h *HardwareDevice) replaySwipe(origin, destination image.Point) error {
	now := time.Now()
	events := []*swipe.Event{
		touchEvent(swipe.TouchStart, origin, now),
		touchEvent(swipe.TouchMove, destination, now),
		{Kind: swipe.TouchEnd, Time: now, Cancelable: true},
	}
	for _, ev := range events {
		if err := h.recognizer.DispatchStrip(ev); err != nil {
			return err
		}
	}
	return nil
}

// SetGestureConfig re-configures touch strip gesture recognition.
func (h *HardwareDevice) SetGestureConfig(cfg swipe.Config) error {
	h.recognizer.Configure(cfg)
	return nil
}

// GestureConfig returns the active gesture configuration.
func (h *HardwareDevice) GestureConfig() swipe.Config {
	return h.recognizer.Config()
}

func touchEvent(kind swipe.EventKind, p image.Point, at time.Time) *swipe.Event {
	return &swipe.Event{
		Kind:       kind,
		Touches:    []swipe.Point{{X: float64(p.X), Y: float64(p.Y)}},
		Time:       at,
		Cancelable: true,
	}
}

// Listen starts the device event loop.
func (h *HardwareDevice) Listen(errCh chan error) error {
	return h.dev.Listen(errCh)
}

// Underlying returns the underlying streamdeck.Device for direct access when needed.
func (h *HardwareDevice) Underlying() *streamdeck.Device {
	return h.dev
}
