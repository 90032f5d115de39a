// Package export encodes the flattened design and writes it to disk.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"aq-designs/pkg/colorutil"
)

// BaseName is the fixed file name (without extension) of every export.
const BaseName = "aqdesigns_design"

// DefaultJPEGQuality is used when no quality is configured.
const DefaultJPEGQuality = 92

// ErrUnsupportedFormat is returned for formats other than png and jpeg.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format is an output encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

// ParseFormat accepts "png", "jpeg" and "jpg" in any case. An empty string
// selects PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	if f == JPEG {
		return ".jpg"
	}
	return ".png"
}

// Options controls encoding.
type Options struct {
	Format  Format
	Quality int // JPEG only, 1-100
}

func (o Options) quality() int {
	if o.Quality < 1 || o.Quality > 100 {
		return DefaultJPEGQuality
	}
	return o.Quality
}

// Filename returns the export file name for format.
func Filename(f Format) string {
	return BaseName + f.Ext()
}

// Encode writes img to w in the requested format. JPEG has no alpha
// channel, so transparent areas are flattened onto white first.
func Encode(w io.Writer, img image.Image, opts Options) error {
	switch opts.Format {
	case "", PNG:
		return png.Encode(w, img)
	case JPEG:
		return jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: opts.quality()})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}
}

func flatten(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, image.NewUniform(colorutil.White), image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Over)
	return out
}

// WriteFile encodes img into dir under the fixed export name and returns
// the written path. The file is written to a temporary name in the same
// directory and renamed into place, so a failed export never leaves a
// truncated image behind.
func WriteFile(dir string, img image.Image, opts Options) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	format := opts.Format
	if format == "" {
		format = PNG
	}
	path := filepath.Join(dir, Filename(format))

	tmp, err := os.CreateTemp(dir, "."+BaseName+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := Encode(tmp, img, opts); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to encode %s: %w", format, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move export into place: %w", err)
	}

	log.Printf("export: wrote %s (%dx%d)", path, img.Bounds().Dx(), img.Bounds().Dy())
	return path, nil
}
