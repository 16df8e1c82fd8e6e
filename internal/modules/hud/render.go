package hud

import (
	_ "embed"
	"fmt"
	"image"
	"image/color"
	"log"
	"strings"

	"github.com/phinze/swipedeck/internal/module"
	"github.com/phinze/swipedeck/internal/swipe"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

//go:embed icons/arrow.svg
var iconArrowSVG string

//go:embed icons/tap.svg
var iconTapSVG string

//go:embed icons/sliders.svg
var iconSlidersSVG string

const keySize = 72

var (
	colorBackground = color.RGBA{25, 25, 25, 255}
	colorKeyBg      = color.RGBA{40, 40, 40, 255}
	colorWhite      = color.RGBA{255, 255, 255, 255}
	colorGray       = color.RGBA{160, 160, 160, 255}
	colorDimGray    = color.RGBA{100, 100, 100, 255}
	colorBlue       = color.RGBA{90, 170, 255, 255}
	colorGreen      = color.RGBA{80, 200, 120, 255}
	colorOrange     = color.RGBA{255, 160, 60, 255}
)

// fonts holds the faces shared by every HUD instance.
type fonts struct {
	title font.Face
	label font.Face
	small font.Face
}

func newFonts() (*fonts, error) {
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}

	f := &fonts{}
	faces := []struct {
		dst  *font.Face
		font *opentype.Font
		size float64
	}{
		{&f.title, bold, 22},
		{&f.label, bold, 14},
		{&f.small, regular, 11},
	}
	for _, face := range faces {
		*face.dst, err = opentype.NewFace(face.font, &opentype.FaceOptions{
			Size:    face.size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, fmt.Errorf("create %.0fpt face: %w", face.size, err)
		}
	}
	return f, nil
}

// snapshot is a consistent copy of the state needed to render.
type snapshot struct {
	res      module.Resources
	last     module.TouchStripEvent
	seen     bool
	trail    []image.Point
	swipes   [4]int
	taps     int
	longTaps int
	peak     float64
	cfg      swipe.Config
}

func (m *Module) snapshot() snapshot {
	m.mu.RLock()
	s := snapshot{
		res:      m.Resources(),
		last:     m.last,
		seen:     m.seen,
		trail:    append([]image.Point(nil), m.trail...),
		swipes:   m.swipes,
		taps:     m.taps,
		longTaps: m.longTaps,
		peak:     m.peak,
	}
	m.mu.RUnlock()
	s.cfg = m.tuner.GestureConfig()
	return s
}

// RenderKeys returns images for the counter and toggle keys.
func (m *Module) RenderKeys() map[module.KeyID]image.Image {
	if m.fonts == nil {
		return nil
	}
	s := m.snapshot()
	keys := make(map[module.KeyID]image.Image, len(s.res.Keys))

	for role, id := range s.res.Keys {
		switch role {
		case roleCountLeft, roleCountRight, roleCountUp, roleCountDown:
			dir := swipe.Direction(role)
			keys[id] = m.renderCountKey(dir, s.swipes[role], s.seen && s.last.Type == module.TouchSwiped && s.last.Dir == dir)
		case roleTrackMouse:
			keys[id] = m.renderToggleKey("MOUSE", s.cfg.TrackMouse)
		case rolePreventScroll:
			keys[id] = m.renderToggleKey("NOSCRL", s.cfg.PreventScrollOnSwipe)
		case roleReset:
			keys[id] = m.renderLabelKey("RESET", fmt.Sprintf("%d taps", s.taps+s.longTaps))
		case roleTune:
			keys[id] = m.renderIconKey(iconSlidersSVG, "TUNE")
		}
	}
	return keys
}

// RenderStrip renders the last gesture, its trail and the active settings.
func (m *Module) RenderStrip() image.Image {
	if m.fonts == nil {
		return nil
	}
	s := m.snapshot()
	img := image.NewRGBA(image.Rect(0, 0, s.res.StripRect.Dx(), s.res.StripRect.Dy()))
	draw.Draw(img, img.Bounds(), &image.Uniform{colorBackground}, image.Point{}, draw.Src)
	h := img.Bounds().Dy()

	m.drawTrail(img, s.trail)

	if !s.seen {
		m.drawText(img, "Swipe or tap the strip", 20, h/2+8, m.fonts.label, colorGray)
		m.drawSettings(img, s.cfg)
		return img
	}

	iconSize := 64
	iconRect := image.Rect(16, (h-iconSize)/2, 16+iconSize, (h+iconSize)/2)
	if s.last.IsSwipe() {
		draw.Draw(img, iconRect, renderArrow(s.last.Dir, iconSize, colorBlue), image.Point{}, draw.Over)
	} else {
		draw.Draw(img, iconRect, renderSVGIcon(iconTapSVG, iconSize, colorGreen), image.Point{}, draw.Over)
	}

	textX := 96
	switch {
	case s.last.IsSwipe():
		m.drawText(img, fmt.Sprintf("%s %s", strings.ToUpper(s.last.Type.String()), strings.ToUpper(s.last.Dir.String())), textX, 30, m.fonts.title, colorWhite)
		m.drawText(img, fmt.Sprintf("dx %+.0f  dy %+.0f", s.last.DeltaX, s.last.DeltaY), textX, 56, m.fonts.label, colorGray)
		m.drawText(img, fmt.Sprintf("%.2f px/ms  peak %.2f", s.last.Velocity, s.peak), textX, 80, m.fonts.label, colorGray)
	default:
		m.drawText(img, strings.ToUpper(s.last.Type.String()), textX, 30, m.fonts.title, colorWhite)
		m.drawText(img, fmt.Sprintf("at %d,%d", s.last.Point.X, s.last.Point.Y), textX, 56, m.fonts.label, colorGray)
	}

	m.drawSettings(img, s.cfg)
	return img
}

// drawSettings draws the active configuration at the right edge.
func (m *Module) drawSettings(img *image.RGBA, cfg swipe.Config) {
	right := img.Bounds().Dx() - 12
	m.drawTextRight(img, fmt.Sprintf("rot %.0f°", cfg.RotationAngle), right, 24, m.fonts.small, colorDimGray)
	m.drawTextRight(img, fmt.Sprintf("delta %.0f", cfg.Delta.Threshold(swipe.Left)), right, 42, m.fonts.small, colorDimGray)
	m.drawTextRight(img, "max "+formatDuration(cfg), right, 60, m.fonts.small, colorDimGray)
}

// RenderOverlayKeys labels the dials on the bottom row while tuning.
func (m *Module) RenderOverlayKeys() map[module.KeyID]image.Image {
	if m.fonts == nil {
		return nil
	}
	cfg := m.tuner.GestureConfig()
	return map[module.KeyID]image.Image{
		module.Key1: m.renderEmptyKey(),
		module.Key2: m.renderEmptyKey(),
		module.Key3: m.renderEmptyKey(),
		module.Key4: m.renderEmptyKey(),
		module.Key5: m.renderLabelKey("ANGLE", fmt.Sprintf("%.0f°", cfg.RotationAngle)),
		module.Key6: m.renderLabelKey("DELTA", fmt.Sprintf("%.0f", cfg.Delta.Threshold(swipe.Left))),
		module.Key7: m.renderLabelKey("MAX", formatDuration(cfg)),
		module.Key8: m.renderLabelKey("DONE", "click"),
	}
}

// RenderOverlayStrip shows the tuning controls above each dial.
func (m *Module) RenderOverlayStrip() image.Image {
	if m.fonts == nil {
		return nil
	}
	s := m.snapshot()
	img := image.NewRGBA(image.Rect(0, 0, 800, 100))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{30, 30, 30, 255}}, image.Point{}, draw.Src)

	// Trail is module-local; shift it back to full strip coordinates.
	trail := make([]image.Point, len(s.trail))
	for i, p := range s.trail {
		trail[i] = p.Add(s.res.StripRect.Min)
	}
	m.drawTrail(img, trail)

	columns := []struct{ title, value string }{
		{"rotation", fmt.Sprintf("%.0f°", s.cfg.RotationAngle)},
		{"delta", fmt.Sprintf("%.0f px", s.cfg.Delta.Threshold(swipe.Left))},
		{"duration", formatDuration(s.cfg)},
		{"done", "click"},
	}
	for i, col := range columns {
		cx := 100 + i*200
		m.drawTextCentered(img, col.value, cx, 46, m.fonts.title, colorWhite)
		m.drawTextCentered(img, col.title, cx, 70, m.fonts.small, colorGray)
		m.drawTextCentered(img, "<< turn >>", cx, 90, m.fonts.small, colorDimGray)
	}
	return img
}

func formatDuration(cfg swipe.Config) string {
	if cfg.SwipeDuration <= 0 {
		return "off"
	}
	return cfg.SwipeDuration.String()
}

func (m *Module) drawTrail(img *image.RGBA, trail []image.Point) {
	for i, p := range trail {
		col := colorDimGray
		if i == len(trail)-1 {
			col = colorBlue
		}
		m.drawDot(img, p.X-2, p.Y-2, col)
	}
}

func (m *Module) renderCountKey(dir swipe.Direction, count int, highlight bool) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, keySize, keySize))
	draw.Draw(img, img.Bounds(), &image.Uniform{colorKeyBg}, image.Point{}, draw.Src)

	iconColor := color.Color(colorGray)
	if highlight {
		iconColor = colorBlue
	}
	iconSize := 32
	iconX := (keySize - iconSize) / 2
	draw.Draw(img, image.Rect(iconX, 8, iconX+iconSize, 8+iconSize), renderArrow(dir, iconSize, iconColor), image.Point{}, draw.Over)
	m.drawTextCentered(img, fmt.Sprintf("%d", count), keySize/2, 62, m.fonts.label, colorWhite)
	return img
}

func (m *Module) renderToggleKey(label string, on bool) image.Image {
	state, col := "OFF", color.Color(colorDimGray)
	if on {
		state, col = "ON", colorGreen
	}
	img := image.NewRGBA(image.Rect(0, 0, keySize, keySize))
	draw.Draw(img, img.Bounds(), &image.Uniform{colorKeyBg}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, keySize, 4), &image.Uniform{col}, image.Point{}, draw.Src)
	m.drawTextCentered(img, label, keySize/2, 30, m.fonts.small, colorGray)
	m.drawTextCentered(img, state, keySize/2, 54, m.fonts.label, col)
	return img
}

func (m *Module) renderLabelKey(label, value string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, keySize, keySize))
	draw.Draw(img, img.Bounds(), &image.Uniform{colorKeyBg}, image.Point{}, draw.Src)
	m.drawTextCentered(img, label, keySize/2, 30, m.fonts.small, colorGray)
	m.drawTextCentered(img, value, keySize/2, 54, m.fonts.label, colorOrange)
	return img
}

func (m *Module) renderIconKey(svg, label string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, keySize, keySize))
	draw.Draw(img, img.Bounds(), &image.Uniform{colorKeyBg}, image.Point{}, draw.Src)
	iconSize := 28
	iconX := (keySize - iconSize) / 2
	draw.Draw(img, image.Rect(iconX, 12, iconX+iconSize, 12+iconSize), renderSVGIcon(svg, iconSize, colorGray), image.Point{}, draw.Over)
	m.drawTextCentered(img, label, keySize/2, 60, m.fonts.small, colorGray)
	return img
}

func (m *Module) renderEmptyKey() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, keySize, keySize))
	draw.Draw(img, img.Bounds(), &image.Uniform{colorBackground}, image.Point{}, draw.Src)
	return img
}

// arrowRotation maps a direction to the rotation of the up-pointing arrow icon.
var arrowRotation = map[swipe.Direction]string{
	swipe.Up:    "0",
	swipe.Right: "90",
	swipe.Down:  "180",
	swipe.Left:  "270",
}

func renderArrow(dir swipe.Direction, size int, col color.Color) image.Image {
	rotation, ok := arrowRotation[dir]
	if !ok {
		rotation = "0"
	}
	return renderSVGIcon(strings.Replace(iconArrowSVG, "ROTATION", rotation, 1), size, col)
}

// renderSVGIcon renders an SVG string to an image with the given size and color.
func renderSVGIcon(svgContent string, size int, iconColor color.Color) image.Image {
	r, g, b, _ := iconColor.RGBA()
	hexColor := fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
	svgContent = strings.ReplaceAll(svgContent, "currentColor", hexColor)

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	icon, err := oksvg.ReadIconStream(strings.NewReader(svgContent))
	if err != nil {
		log.Printf("Failed to parse SVG: %v", err)
		return img
	}

	icon.SetTarget(0, 0, float64(size), float64(size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)
	return img
}

func (m *Module) drawDot(img *image.RGBA, x, y int, col color.Color) {
	draw.Draw(img, image.Rect(x, y, x+4, y+4), &image.Uniform{col}, image.Point{}, draw.Over)
}

func (m *Module) drawText(img *image.RGBA, text string, x, y int, face font.Face, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func (m *Module) drawTextCentered(img *image.RGBA, text string, centerX, y int, face font.Face, col color.Color) {
	width := font.MeasureString(face, text).Ceil()
	m.drawText(img, text, centerX-width/2, y, face, col)
}

func (m *Module) drawTextRight(img *image.RGBA, text string, rightX, y int, face font.Face, col color.Color) {
	width := font.MeasureString(face, text).Ceil()
	m.drawText(img, text, rightX-width, y, face, col)
}
