// Package swipe recognizes directional swipe gestures from touch and mouse
// event streams.
//
// A Controller consumes raw start/move/end events, applies a dead zone and
// an optional rotation of the coordinate frame, and reports taps and swipes
// through the callbacks in Config.Handlers. Binding layers hand it the
// element to track via Bindings.Ref and attach Bindings.OnMouseDown when
// mouse tracking is enabled; the controller manages the remaining listeners
// itself.
package swipe

import (
	"math"
	"reflect"
	"time"
)

// Bindings is the handler table a binding layer attaches to its element.
type Bindings struct {
	// Ref must be called with the tracked element whenever it changes.
	Ref func(el any)

	// OnMouseDown is set only when mouse tracking is enabled.
	OnMouseDown func(*Event)
}

// Controller is the gesture state machine for one surface. It is not safe
// for concurrent use: all methods must be called from the goroutine that
// dispatches input events.
type Controller struct {
	cfg      Config
	document EventTarget
	now      func() time.Time

	g     gesture
	angle float64 // rotation captured at gesture start

	el          any
	touchDetach func()
	touchOpts   [2]ListenerOptions // base and move options in use

	docDetach func()
}

// New creates a Controller. document receives the mouse move/up listeners
// that keep a mouse gesture alive outside the element; it may be nil.
func New(cfg Config, document EventTarget) *Controller {
	return &Controller{
		cfg:      cfg,
		document: document,
		now:      time.Now,
	}
}

// SetNowFunc overrides the clock used for events without a timestamp.
func (c *Controller) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		c.now = fn
	}
}

// Config returns the active configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Bindings returns the handler table for the current configuration.
func (c *Controller) Bindings() Bindings {
	b := Bindings{Ref: c.Ref}
	if c.cfg.TrackMouse {
		b.OnMouseDown = c.Start
	}
	return b
}

// UpdateConfiguration replaces the configuration and reconciles the touch
// listeners with it. A gesture in progress keeps its rotated frame. The
// returned Bindings must replace any previously attached ones.
func (c *Controller) UpdateConfiguration(cfg Config) Bindings {
	c.cfg = cfg

	switch {
	case !cfg.TrackTouch || c.el == nil:
		c.detachTouch()
	case c.touchDetach == nil:
		c.attachTouch()
	case c.touchOpts != [2]ListenerOptions{cfg.TouchEventOptions, cfg.moveOptions()}:
		c.detachTouch()
		c.attachTouch()
	}

	return c.Bindings()
}

// Ref binds the controller to el. A nil element is ignored and binding the
// same element again is a no-op. Elements that are not an EventTarget are
// remembered but get no touch listeners.
func (c *Controller) Ref(el any) {
	if isNil(el) || sameElement(c.el, el) {
		return
	}
	c.detachTouch()
	c.el = el
	if c.cfg.TrackTouch {
		c.attachTouch()
	}
}

// Element returns the bound element, or nil.
func (c *Controller) Element() any {
	return c.el
}

// Close detaches every listener and drops any gesture in progress.
func (c *Controller) Close() {
	c.detachTouch()
	c.releaseDocument()
	c.g.reset()
	c.el = nil
}

// Active reports whether a gesture is in progress.
func (c *Controller) Active() bool {
	return c.g.active()
}

// Swiping reports whether the gesture in progress has left the dead zone.
func (c *Controller) Swiping() bool {
	return c.g.phase == phaseSwiping
}

// Start begins a gesture. Events with more than one contact are rejected.
// A gesture already in progress is abandoned without end callbacks.
func (c *Controller) Start(ev *Event) {
	if ev.Multitouch() {
		return
	}

	c.releaseDocument()
	src := ev.Kind.Source()
	if src == SourceMouse && c.cfg.TrackMouse {
		c.acquireDocument()
	}

	if !canTransition(c.g.phase, phaseTracking) {
		return
	}
	c.angle = c.cfg.RotationAngle
	c.g.begin(src, Rotate(ev.Position(), c.angle), c.timestamp(ev))

	if h := c.cfg.Handlers.OnPointerDown; h != nil {
		h(ev)
	}
}

// Move feeds a pointer movement into the gesture in progress.
func (c *Controller) Move(ev *Event) {
	if !c.accepts(ev) || ev.Multitouch() {
		return
	}

	elapsed := c.timestamp(ev).Sub(c.g.start)
	if c.cfg.expired(elapsed) {
		return
	}

	d := Rotate(ev.Position(), c.angle).Sub(c.g.origin)
	absX, absY := math.Abs(d.X), math.Abs(d.Y)
	dir := ClassifyDirection(d.X, d.Y)

	threshold := c.cfg.Delta.Threshold(dir)
	if c.g.phase != phaseSwiping && absX < threshold && absY < threshold {
		return
	}

	ms := elapsedMillis(elapsed)
	data := EventData{
		Event:    ev,
		Initial:  c.g.origin,
		DeltaX:   d.X,
		DeltaY:   d.Y,
		AbsX:     absX,
		AbsY:     absY,
		Dir:      dir,
		First:    c.g.first,
		Velocity: Velocity(absX, absY, elapsed),
		VX:       d.X / ms,
		VY:       d.Y / ms,
		Elapsed:  elapsed,
	}

	if !canTransition(c.g.phase, phaseSwiping) {
		return
	}
	c.g.phase = phaseSwiping
	c.g.first = false
	c.g.last = data

	h := &c.cfg.Handlers
	if data.First && h.OnSwipeStart != nil {
		h.OnSwipeStart(data)
	}
	if h.OnSwiping != nil {
		h.OnSwiping(data)
	}
	if fn := h.swiping(dir); fn != nil {
		fn(data)
	}

	if c.cfg.PreventScrollOnSwipe && c.wantsSwipe(dir) {
		ev.PreventDefault()
	}
}

// End finishes the gesture in progress with a tap or a swipe.
func (c *Controller) End(ev *Event) {
	if !c.accepts(ev) {
		return
	}

	c.releaseDocument()
	g := c.g
	c.g.reset()

	h := c.cfg.Handlers
	switch g.phase {
	case phaseTracking:
		if h.OnTap != nil {
			h.OnTap(ev)
		}
	case phaseSwiping:
		if c.cfg.expired(c.timestamp(ev).Sub(g.start)) {
			break
		}
		data := g.last
		data.Event = ev
		if h.OnSwiped != nil {
			h.OnSwiped(data)
		}
		if fn := h.swiped(data.Dir); fn != nil {
			fn(data)
		}
	}

	if h.OnPointerUp != nil {
		h.OnPointerUp(ev)
	}
}

// accepts reports whether ev belongs to the gesture in progress. Events
// from the other input channel never touch the current gesture.
func (c *Controller) accepts(ev *Event) bool {
	return c.g.active() && ev.Kind.Source() == c.g.source
}

func (c *Controller) wantsSwipe(dir Direction) bool {
	h := &c.cfg.Handlers
	return h.OnSwiping != nil || h.OnSwiped != nil ||
		h.swiping(dir) != nil || h.swiped(dir) != nil
}

func (c *Controller) timestamp(ev *Event) time.Time {
	if ev.Time.IsZero() {
		return c.now()
	}
	return ev.Time
}

func (c *Controller) attachTouch() {
	target, ok := c.el.(EventTarget)
	if !ok {
		return
	}

	base, move := c.cfg.TouchEventOptions, c.cfg.moveOptions()
	listeners := []*Listener{
		{Kind: TouchStart, Handle: c.Start, Options: base},
		{Kind: TouchMove, Handle: c.Move, Options: move},
		{Kind: TouchEnd, Handle: c.End, Options: base},
	}
	for _, l := range listeners {
		target.AddEventListener(l)
	}

	c.touchOpts = [2]ListenerOptions{base, move}
	c.touchDetach = func() {
		for _, l := range listeners {
			target.RemoveEventListener(l)
		}
	}
}

func (c *Controller) detachTouch() {
	if c.touchDetach == nil {
		return
	}
	c.touchDetach()
	c.touchDetach = nil
	c.touchOpts = [2]ListenerOptions{}
}

// acquireDocument attaches the document listeners for one mouse gesture.
func (c *Controller) acquireDocument() {
	if c.document == nil || c.docDetach != nil {
		return
	}

	doc := c.document
	listeners := []*Listener{
		{Kind: MouseMove, Handle: c.Move},
		{Kind: MouseUp, Handle: c.End},
	}
	for _, l := range listeners {
		doc.AddEventListener(l)
	}
	c.docDetach = func() {
		for _, l := range listeners {
			doc.RemoveEventListener(l)
		}
	}
}

// releaseDocument undoes acquireDocument. It is safe to call at any time.
func (c *Controller) releaseDocument() {
	if c.docDetach == nil {
		return
	}
	c.docDetach()
	c.docDetach = nil
}

func isNil(el any) bool {
	if el == nil {
		return true
	}
	v := reflect.ValueOf(el)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func sameElement(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	t := reflect.TypeOf(a)
	if t != reflect.TypeOf(b) || !t.Comparable() {
		return false
	}
	return a == b
}
