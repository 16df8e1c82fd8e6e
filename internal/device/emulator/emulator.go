// Package emulator provides a GUI-based Stream Deck Plus emulator.
//
// Mouse and touch input on the emulated touch strip is fed through the same
// swipe recognizer as the hardware, so gestures behave identically whether
// they come from a real device or a trackpad.
package emulator

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/phinze/swipedeck/internal/device"
	"github.com/phinze/swipedeck/internal/swipe"
)

// Layout constants for Stream Deck Plus
const (
	keySize        = 72  // native key image size
	keyDisplaySize = 144 // 2x for crisp rendering
	keysPerRow     = 4
	keyRows        = 2
	keyCount       = 8
	dialCount      = 4
	dialSize       = 120
	marginX        = 20
	marginY        = 20
	headerHeight   = 30
	stripMarginY   = 72
	dialMarginY    = 50
	bottomMarginY  = 50

	stripWidth  = 800
	stripHeight = 100
)

const (
	keyAreaWidth  = keysPerRow * keyDisplaySize
	keySpacing    = (stripWidth - keyAreaWidth) / (keysPerRow + 1)
	keyAreaHeight = keyRows*keyDisplaySize + (keyRows-1)*keySpacing
	dialSpacing   = (stripWidth - dialCount*dialSize) / (dialCount + 1)
	windowWidth   = 2*marginX + stripWidth
	windowHeight  = headerHeight + marginY + keyAreaHeight + stripMarginY + stripHeight + dialMarginY + dialSize + bottomMarginY

	keysStartX  = marginX + keySpacing
	keysStartY  = headerHeight + marginY
	stripStartX = marginX
	stripStartY = keysStartY + keyAreaHeight + stripMarginY
	dialStartY  = stripStartY + stripHeight + dialMarginY
)

// stripRect is the touch strip in window coordinates.
var stripRect = image.Rect(stripStartX, stripStartY, stripStartX+stripWidth, stripStartY+stripHeight)

// Emulator implements the device.Device interface using Ebitengine for GUI rendering.
type Emulator struct {
	mu sync.RWMutex

	open       bool
	brightness byte
	keyImages  [keyCount]*image.RGBA
	stripImage *image.RGBA

	keyHandlers        [keyCount][]device.KeyHandler
	dialRotateHandlers [dialCount][]device.DialRotateHandler
	dialSwitchHandlers [dialCount][]device.DialSwitchHandler

	recognizer *device.StripRecognizer

	game       *emulatorGame
	stopCh     chan struct{}
	errorCh    chan error
	listenDone chan struct{}
}

// New creates a new emulator whose touch strip recognizes gestures using cfg.
func New(cfg swipe.Config) *Emulator {
	e := &Emulator{
		brightness: 80,
		stopCh:     make(chan struct{}),
		stripImage: image.NewRGBA(image.Rect(0, 0, stripWidth, stripHeight)),
	}
	for i := range e.keyImages {
		e.keyImages[i] = image.NewRGBA(image.Rect(0, 0, keySize, keySize))
	}
	e.recognizer = device.NewStripRecognizer(e, image.Rect(0, 0, stripWidth, stripHeight), cfg)
	return e
}

// Open initializes the emulator.
func (e *Emulator) Open() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.open {
		return fmt.Errorf("emulator: device is already open")
	}

	e.open = true
	e.stopCh = make(chan struct{})
	return nil
}

// Close shuts down the emulator.
func (e *Emulator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return fmt.Errorf("emulator: device is not open")
	}

	e.open = false
	e.recognizer.Close()
	close(e.stopCh)
	return nil
}

// IsOpen returns whether the emulator is open.
func (e *Emulator) IsOpen() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.open
}

// GetModelName returns the emulated model name.
func (e *Emulator) GetModelName() string {
	return "Stream Deck Plus (Emulator)"
}

// GetKeyCount returns the number of keys.
func (e *Emulator) GetKeyCount() byte {
	return keyCount
}

// GetDialCount returns the number of dials.
func (e *Emulator) GetDialCount() byte {
	return dialCount
}

// GetTouchStripSupported returns true as the emulated device supports touch strip.
func (e *Emulator) GetTouchStripSupported() bool {
	return true
}

// GetKeyImageRectangle returns the key image dimensions.
func (e *Emulator) GetKeyImageRectangle() (image.Rectangle, error) {
	return image.Rect(0, 0, keySize, keySize), nil
}

// GetTouchStripImageRectangle returns the touch strip dimensions.
func (e *Emulator) GetTouchStripImageRectangle() (image.Rectangle, error) {
	return image.Rect(0, 0, stripWidth, stripHeight), nil
}

// SetBrightness sets the display brightness.
func (e *Emulator) SetBrightness(perc byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.brightness = perc
	return nil
}

// SetKeyImage sets the image for a key.
func (e *Emulator) SetKeyImage(key device.KeyID, img image.Image) error {
	idx, err := keyIndex(key)
	if err != nil {
		return err
	}

	rgba := image.NewRGBA(image.Rect(0, 0, keySize, keySize))
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	e.mu.Lock()
	e.keyImages[idx] = rgba
	e.mu.Unlock()
	return nil
}

// SetTouchStripImage sets the touch strip image.
func (e *Emulator) SetTouchStripImage(img image.Image) error {
	rgba := image.NewRGBA(image.Rect(0, 0, stripWidth, stripHeight))
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	e.mu.Lock()
	e.stripImage = rgba
	e.mu.Unlock()
	return nil
}

// ClearKey clears a key's image to black.
func (e *Emulator) ClearKey(key device.KeyID) error {
	idx, err := keyIndex(key)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.keyImages[idx] = image.NewRGBA(image.Rect(0, 0, keySize, keySize))
	e.mu.Unlock()
	return nil
}

// ForEachKey calls the callback for each key.
func (e *Emulator) ForEachKey(cb func(device.KeyID) error) error {
	for i := device.KEY_1; i <= device.KEY_8; i++ {
		if err := cb(i); err != nil {
			return err
		}
	}
	return nil
}

// ForEachDial calls the callback for each dial.
func (e *Emulator) ForEachDial(cb func(device.DialID) error) error {
	for i := device.DIAL_1; i <= device.DIAL_4; i++ {
		if err := cb(i); err != nil {
			return err
		}
	}
	return nil
}

// AddKeyHandler registers a key press handler.
func (e *Emulator) AddKeyHandler(key device.KeyID, fn device.KeyHandler) error {
	idx, err := keyIndex(key)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.keyHandlers[idx] = append(e.keyHandlers[idx], fn)
	return nil
}

// AddDialRotateHandler registers a dial rotation handler.
func (e *Emulator) AddDialRotateHandler(dial device.DialID, fn device.DialRotateHandler) error {
	idx, err := dialIndex(dial)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.dialRotateHandlers[idx] = append(e.dialRotateHandlers[idx], fn)
	return nil
}

// AddDialSwitchHandler registers a dial press handler.
func (e *Emulator) AddDialSwitchHandler(dial device.DialID, fn device.DialSwitchHandler) error {
	idx, err := dialIndex(dial)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.dialSwitchHandlers[idx] = append(e.dialSwitchHandlers[idx], fn)
	return nil
}

// AddTouchStripGestureHandler registers a touch strip gesture handler.
func (e *Emulator) AddTouchStripGestureHandler(fn device.TouchStripGestureHandler) error {
	e.recognizer.AddHandler(fn)
	return nil
}

// SetGestureConfig reconfigures touch strip gesture recognition.
func (e *Emulator) SetGestureConfig(cfg swipe.Config) error {
	e.recognizer.Configure(cfg)
	return nil
}

// GestureConfig returns the current gesture configuration.
func (e *Emulator) GestureConfig() swipe.Config {
	return e.recognizer.Config()
}

// Listen blocks until the emulator is closed.
// For the emulator, the actual event loop runs via RunGUI() which must be called from main.
func (e *Emulator) Listen(errCh chan error) error {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return fmt.Errorf("emulator: device is not open")
	}
	e.errorCh = errCh
	if e.listenDone == nil {
		e.listenDone = make(chan struct{})
	}
	done := e.listenDone
	e.mu.Unlock()

	<-done
	return nil
}

// RunGUI starts the Ebitengine GUI loop. This MUST be called from the main goroutine
// on macOS due to Cocoa threading requirements. This method blocks until the window is closed.
func (e *Emulator) RunGUI() error {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return fmt.Errorf("emulator: device is not open")
	}
	if e.listenDone == nil {
		e.listenDone = make(chan struct{})
	}
	e.game = &emulatorGame{emu: e, touches: make(map[ebiten.TouchID]bool)}
	e.mu.Unlock()

	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowTitle("Stream Deck Plus Emulator")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)

	err := ebiten.RunGame(e.game)

	close(e.listenDone)
	return err
}

// report forwards a handler error to the Listen caller without blocking.
func (e *Emulator) report(err error) {
	if err == nil {
		return
	}
	e.mu.RLock()
	errCh := e.errorCh
	e.mu.RUnlock()
	if errCh == nil {
		return
	}
	select {
	case errCh <- err:
	default:
	}
}

func keyIndex(key device.KeyID) (int, error) {
	idx := int(key) - 1
	if idx < 0 || idx >= keyCount {
		return 0, fmt.Errorf("emulator: invalid key ID: %d", key)
	}
	return idx, nil
}

func dialIndex(dial device.DialID) (int, error) {
	idx := int(dial) - 1
	if idx < 0 || idx >= dialCount {
		return 0, fmt.Errorf("emulator: invalid dial ID: %d", dial)
	}
	return idx, nil
}

// emulatorGame implements ebiten.Game for the emulator.
type emulatorGame struct {
	emu *Emulator

	// Mouse gesture state. Once a press starts on the strip, moves and the
	// release go to the document so the drag can leave the strip.
	mouseDown bool
	lastMouse image.Point

	// Touch IDs that started on the strip.
	touches   map[ebiten.TouchID]bool
	touchIDs  []ebiten.TouchID
	lastTouch []swipe.Point

	// Drag trail drawn over the strip while a gesture is tracked.
	trail []image.Point
}

func (g *emulatorGame) Update() error {
	select {
	case <-g.emu.stopCh:
		return ebiten.Termination
	default:
	}

	g.handleInput()
	return nil
}

func (g *emulatorGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{30, 30, 30, 255})

	g.emu.mu.RLock()
	defer g.emu.mu.RUnlock()

	ebitenutil.DebugPrintAt(screen, "Stream Deck Plus Emulator", windowWidth/2-100, 8)
	brightness := float32(g.emu.brightness) / 100.0

	for i := 0; i < keyCount; i++ {
		r := keyRect(i)
		drawRect(screen, r.Min.X-2, r.Min.Y-2, keyDisplaySize+4, keyDisplaySize+4, color.RGBA{60, 60, 60, 255})

		if g.emu.keyImages[i] == nil {
			continue
		}
		keyImg := ebiten.NewImageFromImage(scaleImageNearest(g.emu.keyImages[i], keyDisplaySize, keyDisplaySize))
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
		op.ColorScale.Scale(brightness, brightness, brightness, 1)
		screen.DrawImage(keyImg, op)
	}

	drawRect(screen, stripStartX-2, stripStartY-2, stripWidth+4, stripHeight+4, color.RGBA{60, 60, 60, 255})
	if g.emu.stripImage != nil {
		stripImg := ebiten.NewImageFromImage(g.emu.stripImage)
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(stripStartX), float64(stripStartY))
		op.ColorScale.Scale(brightness, brightness, brightness, 1)
		screen.DrawImage(stripImg, op)
	}
	for _, p := range g.trail {
		if p.In(stripRect) {
			drawRect(screen, p.X-2, p.Y-2, 4, 4, color.RGBA{90, 170, 255, 200})
		}
	}

	for i := 0; i < dialCount; i++ {
		c := dialCenter(i)
		radius := dialSize / 2
		drawCircle(screen, c.X, c.Y, radius, color.RGBA{80, 80, 80, 255})
		drawCircle(screen, c.X, c.Y, radius-8, color.RGBA{50, 50, 50, 255})
		drawCircle(screen, c.X, c.Y, radius-12, color.RGBA{70, 70, 70, 255})
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("D%d", i+1), c.X-8, c.Y-4)
	}

	ebitenutil.DebugPrintAt(screen, "Click keys | Scroll over dials | Drag or touch the strip to swipe", 10, windowHeight-18)
}

func (g *emulatorGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return windowWidth, windowHeight
}

func (g *emulatorGame) handleInput() {
	mx, my := ebiten.CursorPosition()
	cursor := image.Pt(mx, my)

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if key, ok := hitKey(cursor); ok {
			g.triggerKeyPress(key)
			return
		}
		if dial, ok := hitDial(cursor); ok {
			g.triggerDialPress(dial)
			return
		}
	}

	g.handleMouseStrip(cursor)
	g.handleTouchStrip()

	_, wheelY := ebiten.Wheel()
	if wheelY != 0 {
		if dial, ok := hitDial(cursor); ok {
			delta := int8(max(-5, min(5, wheelY)))
			g.triggerDialRotate(dial, delta)
		}
	}
}

// handleMouseStrip feeds the left mouse button to the strip recognizer as
// mousedown on the strip and mousemove/mouseup on the document.
func (g *emulatorGame) handleMouseStrip(cursor image.Point) {
	now := time.Now()
	local := stripLocal(cursor)
	rec := g.emu.recognizer

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && cursor.In(stripRect):
		g.mouseDown = true
		g.lastMouse = cursor
		g.trail = append(g.trail[:0], cursor)
		g.emu.report(rec.DispatchStrip(&swipe.Event{Kind: swipe.MouseDown, X: local.X, Y: local.Y, Time: now}))

	case g.mouseDown && inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		g.mouseDown = false
		g.trail = g.trail[:0]
		g.emu.report(rec.DispatchDocument(&swipe.Event{Kind: swipe.MouseUp, X: local.X, Y: local.Y, Time: now}))

	case g.mouseDown && cursor != g.lastMouse:
		g.lastMouse = cursor
		g.trail = append(g.trail, cursor)
		g.emu.report(rec.DispatchDocument(&swipe.Event{Kind: swipe.MouseMove, X: local.X, Y: local.Y, Time: now}))
	}
}

// handleTouchStrip feeds touchscreen input that starts on the strip to the
// recognizer. Every event carries the full list of strip touches.
func (g *emulatorGame) handleTouchStrip() {
	now := time.Now()
	rec := g.emu.recognizer

	for _, id := range inpututil.AppendJustPressedTouchIDs(nil) {
		if image.Pt(ebiten.TouchPosition(id)).In(stripRect) {
			g.touches[id] = true
			g.emu.report(rec.DispatchStrip(&swipe.Event{Kind: swipe.TouchStart, Touches: g.stripTouches(), Time: now, Cancelable: true}))
		}
	}

	released := false
	for id := range g.touches {
		if inpututil.IsTouchJustReleased(id) {
			delete(g.touches, id)
			released = true
		}
	}
	if released {
		g.emu.report(rec.DispatchStrip(&swipe.Event{Kind: swipe.TouchEnd, Touches: g.stripTouches(), Time: now}))
		if len(g.touches) == 0 {
			g.lastTouch = nil
		}
		return
	}

	if len(g.touches) == 0 {
		return
	}
	current := g.stripTouches()
	if !samePoints(current, g.lastTouch) {
		g.lastTouch = current
		g.emu.report(rec.DispatchStrip(&swipe.Event{Kind: swipe.TouchMove, Touches: current, Time: now, Cancelable: true}))
	}
}

func (g *emulatorGame) stripTouches() []swipe.Point {
	g.touchIDs = ebiten.AppendTouchIDs(g.touchIDs[:0])
	var pts []swipe.Point
	for _, id := range g.touchIDs {
		if g.touches[id] {
			pts = append(pts, stripLocal(image.Pt(ebiten.TouchPosition(id))))
		}
	}
	return pts
}

func samePoints(a, b []swipe.Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (g *emulatorGame) triggerKeyPress(keyID device.KeyID) {
	g.emu.mu.RLock()
	handlers := g.emu.keyHandlers[int(keyID)-1]
	g.emu.mu.RUnlock()

	for _, handler := range handlers {
		key := &emulatorKey{
			id:        keyID,
			releaseCh: make(chan struct{}),
		}

		go func(h device.KeyHandler, k *emulatorKey) {
			g.emu.report(h(g.emu, k))
		}(handler, key)

		// Simulate immediate release for click (not hold)
		go func(k *emulatorKey) {
			time.Sleep(50 * time.Millisecond)
			k.release()
		}(key)
	}
}

func (g *emulatorGame) triggerDialPress(dialID device.DialID) {
	g.emu.mu.RLock()
	handlers := g.emu.dialSwitchHandlers[int(dialID)-1]
	g.emu.mu.RUnlock()

	for _, handler := range handlers {
		dial := &emulatorDial{
			id:        dialID,
			releaseCh: make(chan struct{}),
		}

		go func(h device.DialSwitchHandler, d *emulatorDial) {
			g.emu.report(h(g.emu, d))
		}(handler, dial)

		go func(d *emulatorDial) {
			time.Sleep(50 * time.Millisecond)
			d.release()
		}(dial)
	}
}

func (g *emulatorGame) triggerDialRotate(dialID device.DialID, delta int8) {
	g.emu.mu.RLock()
	handlers := g.emu.dialRotateHandlers[int(dialID)-1]
	g.emu.mu.RUnlock()

	for _, handler := range handlers {
		dial := &emulatorDial{id: dialID, releaseCh: make(chan struct{})}
		go func(h device.DialRotateHandler, d *emulatorDial) {
			g.emu.report(h(g.emu, d, delta))
		}(handler, dial)
	}
}

func keyRect(i int) image.Rectangle {
	row, col := i/keysPerRow, i%keysPerRow
	x := keysStartX + col*(keyDisplaySize+keySpacing)
	y := keysStartY + row*(keyDisplaySize+keySpacing)
	return image.Rect(x, y, x+keyDisplaySize, y+keyDisplaySize)
}

func dialCenter(i int) image.Point {
	x := stripStartX + dialSpacing + i*(dialSize+dialSpacing)
	return image.Pt(x+dialSize/2, dialStartY+dialSize/2)
}

func hitKey(p image.Point) (device.KeyID, bool) {
	for i := 0; i < keyCount; i++ {
		if p.In(keyRect(i)) {
			return device.KeyID(i + 1), true
		}
	}
	return 0, false
}

func hitDial(p image.Point) (device.DialID, bool) {
	radius := dialSize / 2
	for i := 0; i < dialCount; i++ {
		d := p.Sub(dialCenter(i))
		if d.X*d.X+d.Y*d.Y <= radius*radius {
			return device.DialID(i + 1), true
		}
	}
	return 0, false
}

// stripLocal converts window coordinates to strip coordinates. Points off
// the strip are not clamped; a mouse drag may leave it.
func stripLocal(p image.Point) swipe.Point {
	return swipe.Point{X: float64(p.X - stripStartX), Y: float64(p.Y - stripStartY)}
}

// emulatorKey implements device.Key for the emulator.
type emulatorKey struct {
	id          device.KeyID
	releaseCh   chan struct{}
	releaseOnce sync.Once
	pressTime   time.Time
}

func (k *emulatorKey) GetID() device.KeyID {
	return k.id
}

func (k *emulatorKey) WaitForRelease() time.Duration {
	k.pressTime = time.Now()
	<-k.releaseCh
	return time.Since(k.pressTime)
}

func (k *emulatorKey) release() {
	k.releaseOnce.Do(func() {
		close(k.releaseCh)
	})
}

// emulatorDial implements device.Dial for the emulator.
type emulatorDial struct {
	id          device.DialID
	releaseCh   chan struct{}
	releaseOnce sync.Once
	pressTime   time.Time
}

func (d *emulatorDial) GetID() device.DialID {
	return d.id
}

func (d *emulatorDial) WaitForRelease() time.Duration {
	d.pressTime = time.Now()
	<-d.releaseCh
	return time.Since(d.pressTime)
}

func (d *emulatorDial) release() {
	d.releaseOnce.Do(func() {
		close(d.releaseCh)
	})
}

func drawRect(screen *ebiten.Image, x, y, w, h int, c color.Color) {
	rect := ebiten.NewImage(w, h)
	rect.Fill(c)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(rect, op)
}

func drawCircle(screen *ebiten.Image, cx, cy, radius int, c color.Color) {
	diameter := radius * 2
	circle := ebiten.NewImage(diameter, diameter)

	for y := 0; y < diameter; y++ {
		for x := 0; x < diameter; x++ {
			dx, dy := x-radius, y-radius
			if dx*dx+dy*dy <= radius*radius {
				circle.Set(x, y, c)
			}
		}
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(cx-radius), float64(cy-radius))
	screen.DrawImage(circle, op)
}

// scaleImageNearest scales an image using nearest-neighbor interpolation for crisp pixel scaling.
func scaleImageNearest(src *image.RGBA, newWidth, newHeight int) *image.RGBA {
	sb := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	for y := 0; y < newHeight; y++ {
		for x := 0; x < newWidth; x++ {
			dst.Set(x, y, src.At(sb.Min.X+x*sb.Dx()/newWidth, sb.Min.Y+y*sb.Dy()/newHeight))
		}
	}
	return dst
}
