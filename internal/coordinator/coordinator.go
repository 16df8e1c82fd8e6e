// Package coordinator owns the module lifecycle, routes device input to
// modules and composites their output onto the deck.
package coordinator

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log"
	"sync"
	"time"

	"github.com/phinze/swipedeck/internal/device"
	"github.com/phinze/swipedeck/internal/module"
)

const renderInterval = 500 * time.Millisecond

// Coordinator routes events to modules and renders them.
type Coordinator struct {
	device  device.Device
	modules []module.Module

	mu              sync.RWMutex
	moduleResources map[module.Module]module.Resources
	keyOwners       map[module.KeyID]module.Module
	dialOwners      map[module.DialID]module.Module
	failedModules   map[module.Module]bool

	// Full strip bounds, empty when the device has no strip.
	stripRect image.Rectangle

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	overlayWasActive bool

	// redraw asks the render loop for an immediate pass.
	redraw chan struct{}
}

// New creates a new Coordinator for the given device.
func New(dev device.Device) *Coordinator {
	return &Coordinator{
		device:          dev,
		moduleResources: make(map[module.Module]module.Resources),
		keyOwners:       make(map[module.KeyID]module.Module),
		dialOwners:      make(map[module.DialID]module.Module),
		failedModules:   make(map[module.Module]bool),
		redraw:          make(chan struct{}, 1),
	}
}

// RegisterModule registers a module with its allocated resources. It fails
// when res claims a key, dial or strip area another module already owns.
// Must be called before Start.
func (c *Coordinator) RegisterModule(m module.Module, res module.Resources) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, other := range c.modules {
		if err := res.Conflicts(c.moduleResources[other]); err != nil {
			return fmt.Errorf("registering %s: conflicts with %s: %w", m.ID(), other.ID(), err)
		}
	}

	c.moduleResources[m] = res
	for _, key := range res.Keys {
		c.keyOwners[key] = m
	}
	for _, dial := range res.Dials {
		c.dialOwners[dial] = m
	}
	c.modules = append(c.modules, m)
	return nil
}

// Start initializes all modules, wires the device handlers and runs until
// ctx is done or the device listener fails.
func (c *Coordinator) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	if c.device.GetTouchStripSupported() {
		if rect, err := c.device.GetTouchStripImageRectangle(); err == nil {
			c.stripRect = rect
		}
	}

	// A module that fails to initialize is skipped, not fatal.
	for _, m := range c.modules {
		if err := m.Init(c.ctx, c.resourcesFor(m)); err != nil {
			log.Printf("Module %s failed to initialize: %v (skipping)", m.ID(), err)
			c.mu.Lock()
			c.failedModules[m] = true
			c.mu.Unlock()
		}
	}

	c.setupEventHandlers()

	// Handler errors are logged; a Listen error ends Start.
	handlerErrs := make(chan error, 16)
	go c.logHandlerErrors(handlerErrs)

	listenErr := make(chan error, 1)
	go func() {
		if err := c.device.Listen(handlerErrs); err != nil {
			listenErr <- err
		}
		close(listenErr)
	}()

	c.wg.Add(1)
	go c.renderLoop()

	select {
	case <-c.ctx.Done():
		return nil
	case err := <-listenErr:
		return err
	}
}

// Stop cancels the render loop and stops every module.
func (c *Coordinator) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	for _, m := range c.modules {
		if err := m.Stop(); err != nil {
			log.Printf("Module %s stop: %v", m.ID(), err)
		}
	}
	c.wg.Wait()
	return nil
}

func (c *Coordinator) logHandlerErrors(errs <-chan error) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case err := <-errs:
			log.Printf("Event handler error: %v", err)
		}
	}
}

func (c *Coordinator) resourcesFor(m module.Module) module.Resources {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.moduleResources[m]
}

// live returns the modules that initialized successfully.
func (c *Coordinator) live() []module.Module {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]module.Module, 0, len(c.modules))
	for _, m := range c.modules {
		if !c.failedModules[m] {
			out = append(out, m)
		}
	}
	return out
}

// activeOverlay returns the first module with an open overlay, if any.
func (c *Coordinator) activeOverlay() module.OverlayProvider {
	for _, m := range c.live() {
		if overlay, ok := m.(module.OverlayProvider); ok && overlay.IsOverlayActive() {
			return overlay
		}
	}
	return nil
}

// keyOwner and dialOwner return nil for unowned or failed controls.
func (c *Coordinator) keyOwner(key module.KeyID) module.Module {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m := c.keyOwners[key]; m != nil && !c.failedModules[m] {
		return m
	}
	return nil
}

func (c *Coordinator) dialOwner(dial module.DialID) module.Module {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m := c.dialOwners[dial]; m != nil && !c.failedModules[m] {
		return m
	}
	return nil
}

// setupEventHandlers registers handlers for every control, owned or not, so
// an overlay can take over the whole deck.
func (c *Coordinator) setupEventHandlers() {
	for _, key := range module.AllKeys() {
		key := key
		c.device.AddKeyHandler(key.ToDevice(), func(d device.Device, k device.Key) error {
			return c.handleKey(key, k.WaitForRelease)
		})
	}

	for _, dial := range module.AllDials() {
		dial := dial
		c.device.AddDialRotateHandler(dial.ToDevice(), func(d device.Device, di device.Dial, delta int8) error {
			return c.handleDial(dial, module.DialEvent{Type: module.DialRotate, Delta: delta})
		})
		c.device.AddDialSwitchHandler(dial.ToDevice(), func(d device.Device, di device.Dial) error {
			if err := c.handleDial(dial, module.DialEvent{Type: module.DialPress}); err != nil {
				return err
			}
			held := di.WaitForRelease()
			return c.handleDial(dial, module.DialEvent{Type: module.DialRelease, Duration: held})
		})
	}

	if c.device.GetTouchStripSupported() {
		c.device.AddTouchStripGestureHandler(func(d device.Device, g device.Gesture) error {
			return c.HandleGesture(g)
		})
	}
}

// handleKey delivers a press, waits for the release and delivers that too.
// The overlay check happens once, so both halves reach the same receiver.
func (c *Coordinator) handleKey(key module.KeyID, waitForRelease func() time.Duration) error {
	defer c.requestRedraw()

	deliver := func(module.KeyEvent) error { return nil }
	if overlay := c.activeOverlay(); overlay != nil {
		deliver = func(ev module.KeyEvent) error { return overlay.HandleOverlayKey(key, ev) }
	} else if owner := c.keyOwner(key); owner != nil {
		deliver = func(ev module.KeyEvent) error { return owner.HandleKey(key, ev) }
	}

	if err := deliver(module.KeyEvent{Pressed: true}); err != nil {
		return err
	}
	held := waitForRelease()
	return deliver(module.KeyEvent{Pressed: false, Duration: held})
}

func (c *Coordinator) handleDial(dial module.DialID, ev module.DialEvent) error {
	defer c.requestRedraw()

	if overlay := c.activeOverlay(); overlay != nil {
		return overlay.HandleOverlayDial(dial, ev)
	}
	if owner := c.dialOwner(dial); owner != nil {
		return owner.HandleDial(dial, ev)
	}
	return nil
}

// HandleGesture routes a recognized strip gesture. An active overlay gets
// every gesture in full strip coordinates; otherwise the module whose strip
// region contains the gesture origin gets it in its own coordinates, so a
// swipe stays with the module it started on.
func (c *Coordinator) HandleGesture(g device.Gesture) error {
	defer c.requestRedraw()

	if overlay := c.activeOverlay(); overlay != nil {
		return overlay.HandleOverlayStripTouch(module.TouchStripEventFromGesture(g, image.Point{}))
	}

	m, res := c.stripOwner(g.Origin)
	if m == nil {
		return nil
	}
	return m.HandleStripTouch(module.TouchStripEventFromGesture(g, res.StripRect.Min))
}

func (c *Coordinator) requestRedraw() {
	select {
	case c.redraw <- struct{}{}:
	default:
	}
}

func (c *Coordinator) stripOwner(p image.Point) (module.Module, module.Resources) {
	for _, m := range c.live() {
		if res := c.resourcesFor(m); res.OwnsStripPoint(p) {
			return m, res
		}
	}
	return nil, module.Resources{}
}

func (c *Coordinator) renderLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(renderInterval)
	defer ticker.Stop()

	c.render()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
		case <-c.redraw:
		}
		c.render()
	}
}

func (c *Coordinator) render() {
	c.renderKeys()
	c.renderStrip()
}

// renderKeys pushes key images. An open overlay draws every key; when it
// closes the keys are cleared before the owners draw again.
func (c *Coordinator) renderKeys() {
	if overlay := c.activeOverlay(); overlay != nil {
		c.setKeys(overlay.RenderOverlayKeys())
		c.overlayWasActive = true
		return
	}

	if c.overlayWasActive {
		c.clearAllKeys()
		c.overlayWasActive = false
	}
	for _, m := range c.live() {
		c.setKeys(m.RenderKeys())
	}
}

func (c *Coordinator) setKeys(images map[module.KeyID]image.Image) {
	for key, img := range images {
		if img == nil {
			continue
		}
		if err := c.device.SetKeyImage(key.ToDevice(), img); err != nil {
			log.Printf("Setting %v image: %v", key, err)
		}
	}
}

// renderStrip composites each module's strip image at its region, or shows
// the overlay strip instead.
func (c *Coordinator) renderStrip() {
	if c.stripRect.Empty() {
		return
	}

	if overlay := c.activeOverlay(); overlay != nil {
		if img := overlay.RenderOverlayStrip(); img != nil {
			c.device.SetTouchStripImage(img)
		}
		return
	}

	composite := image.NewRGBA(c.stripRect)
	for _, m := range c.live() {
		res := c.resourcesFor(m)
		if !res.HasStrip() {
			continue
		}
		img := m.RenderStrip()
		if img == nil {
			continue
		}
		draw.Draw(composite, res.StripRect, img, img.Bounds().Min, draw.Over)
	}
	c.device.SetTouchStripImage(composite)
}

// Device returns the underlying device.
func (c *Coordinator) Device() device.Device {
	return c.device
}

func (c *Coordinator) clearAllKeys() {
	rect, err := c.device.GetKeyImageRectangle()
	if err != nil {
		return
	}
	black := image.NewRGBA(rect)
	for _, key := range module.AllKeys() {
		c.device.SetKeyImage(key.ToDevice(), black)
	}
}
