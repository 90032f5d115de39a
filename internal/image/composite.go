package image

import (
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"
	"strings"

	"aq-designs/pkg/colorutil"
	"aq-designs/pkg/geometry"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Text is a label to burn into the surface on export.
type Text struct {
	Text  string
	Color string
	X, Y  float64 // top-left of the first line
	Font  string
	Size  int
}

// Frame is what the compositor draws: background, overlay and, on export,
// the text labels in list order.
type Frame struct {
	Background *Layer
	Overlay    *Layer
	Texts      []Text
}

// RenderResult describes a finished render.
type RenderResult struct {
	Image          *image.RGBA
	OverlayRect    geometry.Rect // zero when there is no overlay
	TextRasterized bool
}

// Composite flattens a Frame onto a raster surface of fixed size.
type Composite struct {
	Width     int
	Height    int
	BackColor color.Color
	Scaler    xdraw.Scaler
	Fonts     *FontBook
}

// NewComposite creates a new Composite with the specified dimensions.
func NewComposite(width, height int) *Composite {
	return &Composite{
		Width:     width,
		Height:    height,
		BackColor: colorutil.Transparent,
		Scaler:    xdraw.CatmullRom,
		Fonts:     NewFontBook(),
	}
}

// Bounds returns the surface rectangle.
func (c *Composite) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.Width, c.Height)
}

// Surface returns the surface size.
func (c *Composite) Surface() geometry.Size {
	return geometry.NewSize(float64(c.Width), float64(c.Height))
}

// OverlayRect computes where an overlay layer is drawn on the surface.
func (c *Composite) OverlayRect(overlay *Layer) geometry.Rect {
	return geometry.FitContain(overlay.Size(), c.Surface())
}

// Render draws f onto a new surface.
func (c *Composite) Render(f Frame, includeText bool) RenderResult {
	dst := image.NewRGBA(c.Bounds())
	return c.RenderInto(dst, f, includeText)
}

// RenderInto draws f onto dst, which must cover the surface bounds.
// Text is only rasterised when includeText is set; during editing labels
// live as separate on-screen handles.
func (c *Composite) RenderInto(dst *image.RGBA, f Frame, includeText bool) RenderResult {
	result := RenderResult{Image: dst}
	bounds := c.Bounds()

	// Clear
	draw.Draw(dst, bounds, image.NewUniform(c.BackColor), image.Point{}, draw.Src)

	// Background is stretched; mockups are authored at the surface size.
	if f.Background != nil && f.Background.Image != nil {
		c.Scaler.Scale(dst, bounds, f.Background.Image, f.Background.Image.Bounds(), xdraw.Over, nil)
	}

	if f.Overlay != nil && f.Overlay.Image != nil {
		rect := c.OverlayRect(f.Overlay)
		if r := rect.Image(); !r.Empty() {
			c.Scaler.Scale(dst, r, f.Overlay.Image, f.Overlay.Image.Bounds(), xdraw.Over, nil)
			result.OverlayRect = rect
		}
	}

	if includeText {
		for _, t := range f.Texts {
			if err := c.drawText(dst, t); err != nil {
				log.Printf("composite: skipping label %q: %v", t.Text, err)
			}
		}
		result.TextRasterized = true
	}

	return result
}

// drawText draws one label with its top-left corner at (t.X, t.Y).
// Embedded newlines start new lines one line-height apart.
func (c *Composite) drawText(dst *image.RGBA, t Text) error {
	face, err := c.Fonts.Face(t.Font, t.Size)
	if err != nil {
		return err
	}
	col := colorutil.MustParse(t.Color, colorutil.Black)
	metrics := face.Metrics()

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
	}

	x := fixed.Int26_6(math.Round(t.X * 64))
	y := fixed.Int26_6(math.Round(t.Y*64)) + metrics.Ascent
	for _, line := range strings.Split(t.Text, "\n") {
		d.Dot = fixed.Point26_6{X: x, Y: y}
		d.DrawString(line)
		y += metrics.Height
	}
	return nil
}

// MeasureText returns the pixel width and height of a label as it would be
// drawn by the compositor.
func (c *Composite) MeasureText(t Text) (width, height float64, err error) {
	face, err := c.Fonts.Face(t.Font, t.Size)
	if err != nil {
		return 0, 0, err
	}
	lines := strings.Split(t.Text, "\n")
	var widest fixed.Int26_6
	for _, line := range lines {
		if w := font.MeasureString(face, line); w > widest {
			widest = w
		}
	}
	h := face.Metrics().Height * fixed.Int26_6(len(lines))
	return float64(widest) / 64, float64(h) / 64, nil
}
