package layout

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	colorBackground = color.RGBA{0, 0, 0, 255}
	colorActive     = color.RGBA{102, 102, 102, 255}
	colorInactive   = color.RGBA{51, 51, 51, 255}
	colorContent    = color.RGBA{255, 255, 255, 255}
	colorFallback   = color.RGBA{40, 40, 40, 255}
)

const cornerRadius = 8.0

// Renderer holds the font face and size-derived metrics for one strip
// geometry. Rebuilt only when the strip dimensions change, i.e. never.
type Renderer struct {
	face     font.Face
	iconSize int
}

// NewRenderer parses the embedded label font at a size proportional to the
// strip height.
func NewRenderer(stripHeight int) (*Renderer, error) {
	tt, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse label font: %w", err)
	}
	face, err := opentype.NewFace(tt, &opentype.FaceOptions{
		Size:    float64(stripHeight) / 2,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create label face: %w", err)
	}
	return &Renderer{face: face, iconSize: stripHeight * 3 / 4}, nil
}

// Draw renders the layer into the surface and returns the modified regions
// for dirty submission. A full redraw clears everything and repaints every
// button; an incremental redraw touches only buttons whose state changed,
// erasing their previous footprint first. Drawn buttons have their changed
// flag cleared.
func (l *Layer) Draw(r *Renderer, surface *image.RGBA, width, height int, shiftX, shiftY float64, outlines, full bool) []image.Rectangle {
	if full {
		all := image.Rect(0, 0, width, height)
		draw.Draw(surface, all, &image.Uniform{colorBackground}, image.Point{}, draw.Src)
		for i, b := range l.Buttons {
			l.drawButton(r, surface, i, width, height, shiftX, shiftY, outlines)
			b.changed = false
			b.lastRect = l.renderRect(i, width, height, shiftX)
		}
		return []image.Rectangle{all}
	}

	var dirty []image.Rectangle
	for i, b := range l.Buttons {
		if !b.changed {
			continue
		}
		if !b.lastRect.Empty() {
			draw.Draw(surface, b.lastRect, &image.Uniform{colorBackground}, image.Point{}, draw.Src)
		}
		rect := l.renderRect(i, width, height, shiftX)
		draw.Draw(surface, rect, &image.Uniform{colorBackground}, image.Point{}, draw.Src)
		l.drawButton(r, surface, i, width, height, shiftX, shiftY, outlines)
		dirty = append(dirty, b.lastRect.Union(rect))
		b.changed = false
		b.lastRect = rect
	}
	return dirty
}

func (l *Layer) drawButton(r *Renderer, surface *image.RGBA, i, width, height int, shiftX, shiftY float64, outlines bool) {
	b := l.Buttons[i]
	rect := l.renderRect(i, width, height, shiftX)

	// Box color: pressed, outlined, or invisible against the background.
	// The box is not shifted vertically; only the content is, so icons keep
	// their rounded frame while the lit pixels still wander.
	boxColor := colorBackground
	switch {
	case b.active:
		boxColor = colorActive
	case outlines:
		boxColor = colorInactive
	}
	boxTop := 0.15 * float64(height)
	boxBottom := 0.85 * float64(height)
	if boxColor != colorBackground {
		fillRoundRect(surface, float64(rect.Min.X), boxTop, float64(rect.Max.X), boxBottom, cornerRadius, boxColor)
	}

	cx := float64(rect.Min.X+rect.Max.X) / 2
	cy := float64(height)/2 + shiftY
	if b.Icon != nil {
		size := r.iconSize
		x := int(math.Round(cx - float64(size)/2))
		y := int(math.Round(cy - float64(size)/2))
		b.Icon.render(surface, x, y, size)
		return
	}
	r.drawTextCentered(surface, b.Text, cx, cy)
}

func (r *Renderer) drawTextCentered(surface *image.RGBA, text string, cx, cy float64) {
	d := &font.Drawer{
		Dst:  surface,
		Src:  &image.Uniform{colorContent},
		Face: r.face,
	}
	adv := d.MeasureString(text)
	m := r.face.Metrics()
	d.Dot = fixed.Point26_6{
		X: fixed.I(int(math.Round(cx))) - adv/2,
		Y: fixed.I(int(math.Round(cy))) + (m.Ascent-m.Descent)/2,
	}
	d.DrawString(text)
}

func fillRoundRect(img *image.RGBA, minX, minY, maxX, maxY, radius float64, col color.Color) {
	b := img.Bounds()
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), img, b)
	filler := rasterx.NewFiller(b.Dx(), b.Dy(), scanner)
	filler.SetColor(col)
	rasterx.AddRoundRect(minX, minY, maxX, maxY, radius, radius, 0, rasterx.RoundGap, filler)
	filler.Draw()
}

// Fallback renders the frame shown when the daemon hits an unrecoverable
// runtime failure: a visibly dead but not garbled strip.
func Fallback(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{colorFallback}, image.Point{}, draw.Src)
	r, err := NewRenderer(height)
	if err != nil {
		return img
	}
	r.drawTextCentered(img, "fnbard stopped - function keys unavailable", float64(width)/2, float64(height)/2)
	return img
}
