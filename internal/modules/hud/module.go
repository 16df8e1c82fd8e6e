// Package hud provides a Stream Deck module that visualizes touch strip
// gestures and tunes the gesture recognizer at runtime.
//
// Keys 1-4 count swipes per direction. Key 5 toggles mouse tracking, key 6
// toggles scroll prevention, key 7 resets the counters and key 8 opens the
// tuning overlay. Dial 1 turns the rotation angle; pressing it resets the
// angle. A long tap on the strip also opens the overlay.
package hud

import (
	"context"
	"fmt"
	"image"
	"log"
	"math"
	"sync"
	"time"

	"github.com/phinze/swipedeck/internal/module"
	"github.com/phinze/swipedeck/internal/swipe"
)

// Tuner reads and replaces the gesture recognizer configuration.
// device.Device satisfies it.
type Tuner interface {
	GestureConfig() swipe.Config
	SetGestureConfig(cfg swipe.Config) error
}

const (
	rotationStep = 15.0 // degrees per dial detent
	deltaStep    = 2.0  // pixels per dial detent
	durationStep = 50 * time.Millisecond
	overlayTTL   = 10 * time.Second
	maxTrail     = 64
)

// Key roles by position in the module's key allocation.
const (
	roleCountLeft = iota
	roleCountRight
	roleCountUp
	roleCountDown
	roleTrackMouse
	rolePreventScroll
	roleReset
	roleTune
)

// Module implements the gesture HUD.
type Module struct {
	module.BaseModule

	tuner Tuner
	now   func() time.Time
	fonts *fonts

	mu sync.RWMutex

	// Last gesture and the trail of the current or last swipe, module-local.
	last  module.TouchStripEvent
	seen  bool
	trail []image.Point

	swipes   [4]int
	taps     int
	longTaps int
	peak     float64

	overlayActive bool
	overlayExpiry time.Time
}

// New creates a new HUD module that reconfigures gestures through tuner.
func New(tuner Tuner) *Module {
	return &Module{
		BaseModule: module.NewBaseModule("hud"),
		tuner:      tuner,
		now:        time.Now,
	}
}

// Init initializes the module.
func (m *Module) Init(ctx context.Context, res module.Resources) error {
	if err := m.BaseModule.Init(ctx, res); err != nil {
		return err
	}
	if !res.HasStrip() {
		return fmt.Errorf("hud: no touch strip region allocated")
	}

	f, err := newFonts()
	if err != nil {
		return err
	}
	m.fonts = f

	cfg := m.tuner.GestureConfig()
	log.Printf("HUD module initialized (delta=%.0f, rotation=%.0f, mouse=%v)",
		cfg.Delta.Threshold(swipe.Left), cfg.RotationAngle, cfg.TrackMouse)
	return nil
}

// HandleStripTouch records a strip gesture.
func (m *Module) HandleStripTouch(event module.TouchStripEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.last = event
	m.seen = true

	switch event.Type {
	case module.TouchTap:
		m.taps++
		m.trail = m.trail[:0]
	case module.TouchLongTap:
		m.longTaps++
		m.trail = m.trail[:0]
		m.openOverlay()
	case module.TouchSwipeStart:
		m.trail = append(m.trail[:0], event.SwipeStart, event.Point)
	case module.TouchSwiping:
		m.appendTrail(event.Point)
	case module.TouchSwiped:
		if int(event.Dir) >= 0 && int(event.Dir) < len(m.swipes) {
			m.swipes[event.Dir]++
		}
		m.peak = math.Max(m.peak, event.Velocity)
		m.appendTrail(event.Point)
	}
	return nil
}

func (m *Module) appendTrail(p image.Point) {
	if n := len(m.trail); n > 0 && m.trail[n-1] == p {
		return
	}
	if len(m.trail) >= maxTrail {
		m.trail = append(m.trail[:0], m.trail[len(m.trail)-maxTrail+1:]...)
	}
	m.trail = append(m.trail, p)
}

// HandleKey processes key presses according to each key's role.
func (m *Module) HandleKey(id module.KeyID, event module.KeyEvent) error {
	if !event.Pressed {
		return nil
	}

	switch m.keyRole(id) {
	case roleTrackMouse:
		return m.tune(func(cfg *swipe.Config) { cfg.TrackMouse = !cfg.TrackMouse })
	case rolePreventScroll:
		return m.tune(func(cfg *swipe.Config) { cfg.PreventScrollOnSwipe = !cfg.PreventScrollOnSwipe })
	case roleReset:
		m.Reset()
	case roleTune:
		m.mu.Lock()
		m.openOverlay()
		m.mu.Unlock()
	}
	return nil
}

// HandleDial turns the rotation angle on the first dial.
func (m *Module) HandleDial(id module.DialID, event module.DialEvent) error {
	if m.Resources().DialIndex(id) != 0 {
		return nil
	}

	switch event.Type {
	case module.DialRotate:
		return m.tune(func(cfg *swipe.Config) { cfg.RotationAngle = stepAngle(cfg.RotationAngle, event.Delta) })
	case module.DialRelease:
		return m.tune(func(cfg *swipe.Config) { cfg.RotationAngle = 0 })
	}
	return nil
}

// Reset clears the gesture counters and the last gesture.
func (m *Module) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.swipes = [4]int{}
	m.taps, m.longTaps = 0, 0
	m.peak = 0
	m.seen = false
	m.trail = m.trail[:0]
}

// Counts returns swipes per direction, taps and long taps.
func (m *Module) Counts() (swipes [4]int, taps, longTaps int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.swipes, m.taps, m.longTaps
}

// tune applies fn to the current gesture configuration and installs it.
func (m *Module) tune(fn func(cfg *swipe.Config)) error {
	cfg := m.tuner.GestureConfig()
	fn(&cfg)
	if err := m.tuner.SetGestureConfig(cfg); err != nil {
		return fmt.Errorf("hud: reconfigure gestures: %w", err)
	}
	log.Printf("Gesture config: rotation=%.0f delta=%.0f duration=%v mouse=%v prevent_scroll=%v",
		cfg.RotationAngle, cfg.Delta.Threshold(swipe.Left), cfg.SwipeDuration, cfg.TrackMouse, cfg.PreventScrollOnSwipe)
	return nil
}

func stepAngle(angle float64, detents int8) float64 {
	return swipe.NormalizeAngle(angle + rotationStep*float64(detents))
}

// stepDelta moves the dead zone by whole steps. The result is uniform; a
// per-side configuration is replaced by its left threshold.
func stepDelta(d swipe.Delta, detents int8) swipe.Delta {
	return swipe.UniformDelta(math.Max(0, d.Threshold(swipe.Left)+deltaStep*float64(detents)))
}

// stepDuration moves the swipe duration limit. Zero means unbounded.
func stepDuration(d time.Duration, detents int8) time.Duration {
	return max(0, d+durationStep*time.Duration(detents))
}

func (m *Module) keyRole(id module.KeyID) int {
	return m.Resources().KeyIndex(id)
}

// openOverlay must be called with mu held.
func (m *Module) openOverlay() {
	m.overlayActive = true
	m.overlayExpiry = m.now().Add(overlayTTL)
}

// IsOverlayActive returns true while the tuning overlay is visible.
func (m *Module) IsOverlayActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.overlayActive && m.now().After(m.overlayExpiry) {
		m.overlayActive = false
	}
	return m.overlayActive
}

// HandleOverlayDial tunes the recognizer while the overlay is open.
// Dial1 turns the rotation angle, Dial2 the dead zone, Dial3 the swipe
// duration limit, and a Dial4 click dismisses the overlay.
func (m *Module) HandleOverlayDial(id module.DialID, event module.DialEvent) error {
	m.mu.Lock()
	m.overlayExpiry = m.now().Add(overlayTTL)
	m.mu.Unlock()

	if event.Type == module.DialRelease && id == module.Dial4 {
		m.closeOverlay()
		return nil
	}
	if event.Type != module.DialRotate {
		return nil
	}

	switch id {
	case module.Dial1:
		return m.tune(func(cfg *swipe.Config) { cfg.RotationAngle = stepAngle(cfg.RotationAngle, event.Delta) })
	case module.Dial2:
		return m.tune(func(cfg *swipe.Config) { cfg.Delta = stepDelta(cfg.Delta, event.Delta) })
	case module.Dial3:
		return m.tune(func(cfg *swipe.Config) { cfg.SwipeDuration = stepDuration(cfg.SwipeDuration, event.Delta) })
	}
	return nil
}

// HandleOverlayKey dismisses the overlay on any key press.
func (m *Module) HandleOverlayKey(id module.KeyID, event module.KeyEvent) error {
	if event.Pressed {
		m.closeOverlay()
	}
	return nil
}

// HandleOverlayStripTouch dismisses the overlay on a tap. Swipes are still
// recorded so the effect of a change can be tried out right away.
func (m *Module) HandleOverlayStripTouch(event module.TouchStripEvent) error {
	if event.Type == module.TouchTap {
		m.closeOverlay()
		return nil
	}
	if event.Type == module.TouchLongTap {
		return nil
	}

	// Overlay events arrive in full strip coordinates.
	res := m.Resources()
	event.Point = res.ToLocal(event.Point)
	event.SwipeStart = res.ToLocal(event.SwipeStart)
	return m.HandleStripTouch(event)
}

func (m *Module) closeOverlay() {
	m.mu.Lock()
	m.overlayActive = false
	m.mu.Unlock()
}
