package main

import (
	"fmt"
	"image"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/phinze/swipedeck/internal/surface"
	"github.com/phinze/swipedeck/internal/swipe"
)

// cellAspect scales rows so a terminal cell counts as roughly square.
const cellAspect = 2

const (
	maxLog   = 200
	maxTrail = 256
)

// pad turns terminal mouse input into swipes. The area below the header
// row is the tracked element; the whole terminal is the document, so a
// drag keeps going when it leaves the area.
type pad struct {
	ctrl *swipe.Controller
	cfg  swipe.Config
	area *surface.Surface
	doc  *surface.Surface

	mouseDown *swipe.Listener
	pressed   bool

	trail []image.Point // cells
	lines []string

	// onSwiped runs after a swipe is logged.
	onSwiped func(dir swipe.Direction)
}

func newPad(cfg swipe.Config, width, height int) *pad {
	p := &pad{doc: surface.NewDocument()}
	p.area = surface.New("pad", padBounds(width, height))
	p.ctrl = swipe.New(swipe.Config{}, p.doc)
	p.configure(cfg)
	p.ctrl.Bindings().Ref(p.area)
	return p
}

// padBounds is the pad area in scaled coordinates: everything below the
// header row.
func padBounds(width, height int) image.Rectangle {
	return image.Rect(0, cellAspect, width, height*cellAspect)
}

func (p *pad) configure(cfg swipe.Config) {
	p.cfg = cfg

	wired := cfg
	wired.Handlers.OnSwipeStart = func(d swipe.EventData) {
		p.trail = p.trail[:0]
		p.addTrail(d.Event)
	}
	wired.Handlers.OnSwiping = func(d swipe.EventData) {
		p.addTrail(d.Event)
	}
	wired.Handlers.OnSwiped = func(d swipe.EventData) {
		p.logf("swiped %-5s dx=%6.1f dy=%6.1f v=%.2f/ms in %v",
			d.Dir, d.DeltaX, d.DeltaY, d.Velocity, d.Elapsed.Round(time.Millisecond))
		if p.onSwiped != nil {
			p.onSwiped(d.Dir)
		}
	}
	wired.Handlers.OnTap = func(ev *swipe.Event) {
		pos := ev.Position()
		p.logf("tap at %.0f,%.0f", pos.X, pos.Y/cellAspect)
	}

	bindings := p.ctrl.UpdateConfiguration(wired)

	if p.mouseDown != nil {
		p.area.RemoveEventListener(p.mouseDown)
		p.mouseDown = nil
	}
	if bindings.OnMouseDown != nil {
		p.mouseDown = &swipe.Listener{Kind: swipe.MouseDown, Handle: bindings.OnMouseDown}
		p.area.AddEventListener(p.mouseDown)
	}
}

// resize moves the tracked element to the new terminal size. A gesture in
// progress is abandoned.
func (p *pad) resize(width, height int) {
	if p.mouseDown != nil {
		p.area.RemoveEventListener(p.mouseDown)
		p.mouseDown = nil
	}
	p.ctrl.Close()
	p.area = surface.New("pad", padBounds(width, height))
	p.configure(p.cfg)
	p.ctrl.Bindings().Ref(p.area)
	p.pressed = false
}

// handleMouse feeds a tcell mouse event into the recognizer.
func (p *pad) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	p.pointer(image.Pt(x, y), ev.Buttons()&tcell.Button1 != 0, ev.When())
}

// pointer feeds the primary button state at cell. Presses start on the pad
// area; motion and release go to the document.
func (p *pad) pointer(cell image.Point, pressed bool, when time.Time) {
	pt := image.Pt(cell.X, cell.Y*cellAspect)
	local := p.area.Local(pt)
	ev := &swipe.Event{X: local.X, Y: local.Y, Time: when}

	switch {
	case pressed && !p.pressed:
		p.pressed = true
		if p.area.Contains(pt) {
			ev.Kind = swipe.MouseDown
			p.area.Dispatch(ev)
		}
	case pressed:
		ev.Kind = swipe.MouseMove
		p.doc.Dispatch(ev)
	case p.pressed:
		p.pressed = false
		ev.Kind = swipe.MouseUp
		p.doc.Dispatch(ev)
	}
}

func (p *pad) addTrail(ev *swipe.Event) {
	if ev == nil {
		return
	}
	pos := ev.Position()
	origin := p.area.Bounds().Min
	cell := image.Pt(int(pos.X)+origin.X, (int(pos.Y)+origin.Y)/cellAspect)
	if n := len(p.trail); n > 0 && p.trail[n-1] == cell {
		return
	}
	if len(p.trail) >= maxTrail {
		p.trail = p.trail[1:]
	}
	p.trail = append(p.trail, cell)
}

func (p *pad) logf(format string, args ...any) {
	if len(p.lines) >= maxLog {
		p.lines = p.lines[1:]
	}
	p.lines = append(p.lines, fmt.Sprintf(format, args...))
}

// rotate turns the swipe frame by deg degrees.
func (p *pad) rotate(deg float64) {
	cfg := p.cfg
	cfg.RotationAngle = swipe.NormalizeAngle(cfg.RotationAngle + deg)
	p.configure(cfg)
	p.logf("rotation %g", cfg.RotationAngle)
}

// adjustDelta widens or narrows the dead zone uniformly.
func (p *pad) adjustDelta(step float64) {
	cfg := p.cfg
	d := cfg.Delta.Threshold(swipe.Left) + step
	if d < 0 {
		d = 0
	}
	cfg.Delta = swipe.UniformDelta(d)
	p.configure(cfg)
	p.logf("delta %g", d)
}

var (
	styleHeader = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorTeal)
	styleTrail  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleLog    = tcell.StyleDefault.Foreground(tcell.ColorSilver)
)

func (p *pad) draw(s tcell.Screen) {
	s.Clear()
	w, h := s.Size()

	header := fmt.Sprintf(" swipedeck  delta=%g rotation=%g duration=%v | drag to swipe, r rotate, +/- delta, c clear, q quit",
		p.cfg.Delta.Threshold(swipe.Left), p.cfg.RotationAngle, p.cfg.SwipeDuration)
	for x := 0; x < w; x++ {
		s.SetContent(x, 0, ' ', nil, styleHeader)
	}
	drawString(s, 0, 0, header, styleHeader)

	start := 0
	if rows := h - 1; len(p.lines) > rows && rows > 0 {
		start = len(p.lines) - rows
	}
	for i, line := range p.lines[start:] {
		drawString(s, 1, i+1, line, styleLog)
	}

	for _, c := range p.trail {
		s.SetContent(c.X, c.Y, '█', nil, styleTrail)
	}
	s.Show()
}

func drawString(s tcell.Screen, x, y int, str string, style tcell.Style) {
	for _, r := range str {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
