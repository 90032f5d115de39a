package image

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DefaultFontFamily and DefaultFontSize match the editor's initial choices.
const (
	DefaultFontFamily = "Arial"
	DefaultFontSize   = 20
)

// FontFamilies are the family names offered in the font picker.
var FontFamilies = []string{
	"Arial",
	"Helvetica",
	"Verdana",
	"Arial Black",
	"Impact",
	"Georgia",
	"Times New Roman",
	"Courier New",
}

type faceKey struct {
	ttf  string
	size int
}

// FontBook resolves CSS font family names to font faces. Only the Go fonts
// are bundled, so each family maps onto the closest Go font.
type FontBook struct {
	mu     sync.Mutex
	parsed map[string]*opentype.Font
	faces  map[faceKey]font.Face
}

// NewFontBook creates an empty font cache.
func NewFontBook() *FontBook {
	return &FontBook{
		parsed: make(map[string]*opentype.Font),
		faces:  make(map[faceKey]font.Face),
	}
}

var fontData = map[string][]byte{
	"regular":  goregular.TTF,
	"bold":     gobold.TTF,
	"italic":   goitalic.TTF,
	"mono":     gomono.TTF,
	"monobold": gomonobold.TTF,
}

// resolveFamily picks the bundled font for a CSS family list such as
// "'Courier New', monospace".
func resolveFamily(family string) string {
	f := strings.ToLower(family)
	mono := strings.Contains(f, "mono") || strings.Contains(f, "courier") || strings.Contains(f, "consol")
	bold := strings.Contains(f, "black") || strings.Contains(f, "bold") || strings.Contains(f, "impact")

	switch {
	case mono && bold:
		return "monobold"
	case mono:
		return "mono"
	case bold:
		return "bold"
	case strings.Contains(f, "georgia") || strings.Contains(f, "times") ||
		(strings.Contains(f, "serif") && !strings.Contains(f, "sans")):
		// No serif Go font; italic keeps serif families visually distinct.
		return "italic"
	default:
		return "regular"
	}
}

// Style describes how a family is rendered with the bundled fonts, for
// on-screen widgets that must match the export.
type Style struct {
	Bold, Italic, Mono bool
}

// FamilyStyle returns the style a family resolves to.
func FamilyStyle(family string) Style {
	switch resolveFamily(family) {
	case "monobold":
		return Style{Bold: true, Mono: true}
	case "mono":
		return Style{Mono: true}
	case "bold":
		return Style{Bold: true}
	case "italic":
		return Style{Italic: true}
	default:
		return Style{}
	}
}

// Face returns the face for a family at a pixel size. Faces are cached and
// shared; callers must not Close them.
func (fb *FontBook) Face(family string, size int) (font.Face, error) {
	if size <= 0 {
		size = DefaultFontSize
	}
	key := faceKey{ttf: resolveFamily(family), size: size}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	if face, ok := fb.faces[key]; ok {
		return face, nil
	}

	f, ok := fb.parsed[key.ttf]
	if !ok {
		var err error
		f, err = opentype.Parse(fontData[key.ttf])
		if err != nil {
			return nil, fmt.Errorf("failed to parse font %s: %w", key.ttf, err)
		}
		fb.parsed[key.ttf] = f
	}

	// At 72 DPI one point is one pixel, matching CSS px sizes.
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	fb.faces[key] = face
	return face, nil
}
