package image

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"aq-designs/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *Layer {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return NewLayerFromImage(img, "solid")
}

func assertColorNear(t *testing.T, want color.RGBA, got color.Color) {
	t.Helper()
	g := color.RGBAModel.Convert(got).(color.RGBA)
	assert.InDelta(t, want.R, g.R, 2, "red")
	assert.InDelta(t, want.G, g.G, 2, "green")
	assert.InDelta(t, want.B, g.B, 2, "blue")
	assert.InDelta(t, want.A, g.A, 2, "alpha")
}

var (
	red   = color.RGBA{255, 0, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
	white = color.RGBA{255, 255, 255, 255}
)

func TestRenderEmptyFrameIsCleared(t *testing.T) {
	c := NewComposite(40, 30)
	res := c.Render(Frame{}, false)

	require.NotNil(t, res.Image)
	assert.Equal(t, image.Rect(0, 0, 40, 30), res.Image.Bounds())
	assertColorNear(t, color.RGBA{}, res.Image.At(20, 15))
	assert.False(t, res.TextRasterized)
}

func TestBackgroundStretchesToFill(t *testing.T) {
	c := NewComposite(400, 300)
	res := c.Render(Frame{Background: solid(10, 50, red)}, false)

	for _, p := range []image.Point{{0, 0}, {399, 0}, {0, 299}, {399, 299}, {200, 150}} {
		assertColorNear(t, red, res.Image.At(p.X, p.Y))
	}
}

func TestOverlayPlacement(t *testing.T) {
	tests := []struct {
		name    string
		overlay *Layer
		want    geometry.Rect
		inside  image.Point
		outside image.Point
	}{
		{
			name:    "wide overlay fits width",
			overlay: solid(800, 400, blue),
			want:    geometry.NewRect(0, 50, 400, 200),
			inside:  image.Pt(200, 150),
			outside: image.Pt(200, 20),
		},
		{
			name:    "tall overlay fits height",
			overlay: solid(200, 400, blue),
			want:    geometry.NewRect(125, 0, 150, 300),
			inside:  image.Pt(200, 150),
			outside: image.Pt(50, 150),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewComposite(400, 300)
			res := c.Render(Frame{Background: solid(4, 3, white), Overlay: tt.overlay}, false)

			assert.Equal(t, tt.want, res.OverlayRect)
			assertColorNear(t, blue, res.Image.At(tt.inside.X, tt.inside.Y))
			assertColorNear(t, white, res.Image.At(tt.outside.X, tt.outside.Y))
		})
	}
}

func TestTextOnlyRasterizedWhenRequested(t *testing.T) {
	c := NewComposite(200, 100)
	frame := Frame{
		Background: solid(2, 2, white),
		Texts: []Text{{
			Text:  "MMMM",
			Color: "#000000",
			X:     10,
			Y:     10,
			Font:  "Arial",
			Size:  40,
		}},
	}

	without := c.Render(frame, false)
	with := c.Render(frame, true)

	assert.False(t, without.TextRasterized)
	assert.True(t, with.TextRasterized)
	assert.Equal(t, 0, darkPixels(without.Image, image.Rect(10, 10, 120, 60)))
	assert.Greater(t, darkPixels(with.Image, image.Rect(10, 10, 120, 60)), 50)

	// Nothing is drawn above the label's top edge.
	assert.Equal(t, 0, darkPixels(with.Image, image.Rect(0, 0, 200, 8)))
}

func TestTextColorApplied(t *testing.T) {
	c := NewComposite(100, 60)
	res := c.Render(Frame{
		Background: solid(2, 2, white),
		Texts:      []Text{{Text: "MMMM", Color: "red", X: 5, Y: 5, Font: "Arial Black", Size: 30}},
	}, true)

	found := false
	b := res.Image.Bounds()
	for y := b.Min.Y; y < b.Max.Y && !found; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := res.Image.RGBAAt(x, y)
			if px.R > 200 && px.G < 50 && px.B < 50 {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "expected red text pixels")
}

func TestMeasureText(t *testing.T) {
	c := NewComposite(10, 10)
	w1, h1, err := c.MeasureText(Text{Text: "ab", Font: "Arial", Size: 20})
	require.NoError(t, err)
	w2, h2, err := c.MeasureText(Text{Text: "abab\nab", Font: "Arial", Size: 20})
	require.NoError(t, err)

	assert.Greater(t, w1, 0.0)
	assert.Greater(t, w2, w1)
	assert.InDelta(t, 2*h1, h2, 0.01)
}

func TestDecodeAndLoadBytes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(3, 2, red).Image))

	layer, err := LoadBytes(buf.Bytes(), "upload.png")
	require.NoError(t, err)
	assert.Equal(t, "png", layer.Format)
	assert.Equal(t, 3, layer.Width())
	assert.Equal(t, 2, layer.Height())

	_, err = LoadBytes([]byte("not an image"), "junk.png")
	assert.ErrorIs(t, err, ErrDecode)

	_, err = Load("/nonexistent/file.png")
	assert.ErrorIs(t, err, ErrRead)
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("a/b/photo.JPG"))
	assert.True(t, IsSupportedFormat("x.webp"))
	assert.False(t, IsSupportedFormat("notes.txt"))
}

func TestFontBookCachesFaces(t *testing.T) {
	fb := NewFontBook()
	a, err := fb.Face("Arial", 18)
	require.NoError(t, err)
	b, err := fb.Face("Helvetica", 18)
	require.NoError(t, err)
	assert.Same(t, a, b)

	mono, err := fb.Face("'Courier New', monospace", 18)
	require.NoError(t, err)
	assert.NotSame(t, a, mono)
}

func TestResolveFamily(t *testing.T) {
	assert.Equal(t, "regular", resolveFamily("Arial"))
	assert.Equal(t, "regular", resolveFamily("sans-serif"))
	assert.Equal(t, "bold", resolveFamily("Impact"))
	assert.Equal(t, "mono", resolveFamily("Courier New"))
	assert.Equal(t, "italic", resolveFamily("Times New Roman"))
}

func darkPixels(img *image.RGBA, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			px := img.RGBAAt(x, y)
			if px.R < 128 && px.G < 128 && px.B < 128 {
				n++
			}
		}
	}
	return n
}
