// Package geometry provides the sizes and rectangles used to place layers
// on the design surface.
package geometry

import (
	"image"
	"math"
)

// Size represents a 2D size.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// NewSize creates a new Size.
func NewSize(width, height float64) Size {
	return Size{Width: width, Height: height}
}

// Empty reports whether either dimension is zero or negative.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Aspect returns width/height, or 0 for an empty size.
func (s Size) Aspect() float64 {
	if s.Empty() {
		return 0
	}
	return s.Width / s.Height
}

// Rect represents a rectangle with floating-point coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect creates a new Rect.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Image converts the rectangle to integer pixel bounds, rounding each edge.
func (r Rect) Image() image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.X+r.Width)),
		int(math.Round(r.Y+r.Height)),
	)
}

// FitContain places src inside a surface of size dst, preserving the aspect
// ratio of src so that it is never cropped. A source relatively wider than
// the surface spans the full width and is centred vertically; otherwise it
// spans the full height and is centred horizontally.
func FitContain(src, dst Size) Rect {
	if src.Empty() || dst.Empty() {
		return Rect{}
	}

	srcAspect := src.Aspect()
	dstAspect := dst.Aspect()

	if srcAspect > dstAspect {
		h := dst.Width / srcAspect
		return Rect{X: 0, Y: (dst.Height - h) / 2, Width: dst.Width, Height: h}
	}

	w := dst.Height * srcAspect
	return Rect{X: (dst.Width - w) / 2, Y: 0, Width: w, Height: dst.Height}
}
