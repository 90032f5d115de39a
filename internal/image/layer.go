// Package image provides image loading, layer management, and compositing.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"aq-designs/pkg/geometry"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Load failures wrap one of these so callers can tell a missing or
// unreadable file from undecodable data.
var (
	ErrRead   = errors.New("failed to read image")
	ErrDecode = errors.New("failed to decode image")
)

// Layer is a decoded raster image. Layers are never modified after
// loading; replacing a scene image means swapping in another Layer.
type Layer struct {
	Path   string      // Source file path or upload name
	Image  image.Image // Decoded image data
	Format string      // Decoder name reported by image.Decode
}

// NewLayerFromImage wraps an already decoded image.
func NewLayerFromImage(img image.Image, path string) *Layer {
	return &Layer{Path: path, Image: img}
}

// Load reads and decodes the image at path.
func Load(path string) (*Layer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer file.Close()

	return Decode(file, path)
}

// LoadBytes decodes an in-memory upload. name is kept as the layer path.
func LoadBytes(data []byte, name string) (*Layer, error) {
	return Decode(bytes.NewReader(data), name)
}

// Decode decodes an image from r.
func Decode(r io.Reader, name string) (*Layer, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: %s has no pixels", ErrDecode, filepath.Base(name))
	}
	return &Layer{Path: name, Image: img, Format: format}, nil
}

// Width returns the image width in pixels.
func (l *Layer) Width() int {
	if l == nil || l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (l *Layer) Height() int {
	if l == nil || l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dy()
}

// Size returns the image dimensions.
func (l *Layer) Size() geometry.Size {
	return geometry.Size{
		Width:  float64(l.Width()),
		Height: float64(l.Height()),
	}
}

// SupportedFormats returns the list of supported image file extensions.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".tif", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// FileFilter returns a file filter description for use in file dialogs.
func FileFilter() string {
	return "Image Files (*.png, *.jpg, *.jpeg, *.gif, *.bmp, *.tiff, *.tif, *.webp)"
}
