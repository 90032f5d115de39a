// Package colorutil provides shared color utilities for the mockup editor.
package colorutil

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	g2dcolor "github.com/jphsd/graphics2d/color"
)

// Common colors used throughout the application.
var (
	Black       = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Transparent = color.RGBA{}
)

// Palette is the quick-pick swatch row shown next to the color picker.
var Palette = []string{
	"#000000", "#ffffff", "#e53935", "#fb8c00", "#fdd835",
	"#43a047", "#1e88e5", "#8e24aa", "#6d4c41", "#757575",
}

// Parse converts a CSS color string into an RGBA color.
// Accepted forms: #rgb, #rgba, #rrggbb, #rrggbbaa, rgb(r, g, b),
// rgba(r, g, b, a) and the CSS/SVG named colors.
func Parse(s string) (color.RGBA, error) {
	str := strings.ToLower(strings.TrimSpace(s))
	if str == "" {
		return color.RGBA{}, fmt.Errorf("empty color")
	}
	if str == "transparent" {
		return Transparent, nil
	}

	if strings.HasPrefix(str, "#") {
		return parseHex(str[1:])
	}
	if strings.HasPrefix(str, "rgb") {
		return parseFunc(str)
	}

	named, err := g2dcolor.ByName(str)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("unknown color %q", s)
	}
	r, g, b, a := named.Color.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}, nil
}

// MustParse is like Parse but returns fallback when s cannot be parsed.
func MustParse(s string, fallback color.RGBA) color.RGBA {
	c, err := Parse(s)
	if err != nil {
		return fallback
	}
	return c
}

// Valid reports whether s is a color Parse accepts.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Hex formats a color as #rrggbb, or #rrggbbaa when it is not opaque.
func Hex(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

func parseHex(h string) (color.RGBA, error) {
	for _, ch := range h {
		if !strings.ContainsRune("0123456789abcdef", ch) {
			return color.RGBA{}, fmt.Errorf("invalid hex color #%s", h)
		}
	}

	var r, g, b, a uint64
	a = 0xff
	switch len(h) {
	case 3, 4:
		r, _ = strconv.ParseUint(h[0:1], 16, 8)
		g, _ = strconv.ParseUint(h[1:2], 16, 8)
		b, _ = strconv.ParseUint(h[2:3], 16, 8)
		r, g, b = r*0x11, g*0x11, b*0x11
		if len(h) == 4 {
			a, _ = strconv.ParseUint(h[3:4], 16, 8)
			a *= 0x11
		}
	case 6, 8:
		r, _ = strconv.ParseUint(h[0:2], 16, 8)
		g, _ = strconv.ParseUint(h[2:4], 16, 8)
		b, _ = strconv.ParseUint(h[4:6], 16, 8)
		if len(h) == 8 {
			a, _ = strconv.ParseUint(h[6:8], 16, 8)
		}
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color #%s", h)
	}

	return premultiply(uint8(r), uint8(g), uint8(b), uint8(a)), nil
}

// parseFunc handles rgb() and rgba() notation.
func parseFunc(s string) (color.RGBA, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	name := s[:open]
	if name != "rgb" && name != "rgba" {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}

	args := strings.FieldsFunc(s[open+1:len(s)-1], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(args) != 3 && len(args) != 4 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}

	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := parseChannel(args[i])
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		ch[i] = v
	}

	alpha := uint8(255)
	if len(args) == 4 {
		v, err := parseAlpha(args[3])
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		alpha = v
	}

	return premultiply(ch[0], ch[1], ch[2], alpha), nil
}

func parseChannel(s string) (uint8, error) {
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, err
		}
		return clamp8(f / 100 * 255), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return clamp8(f), nil
}

func parseAlpha(s string) (uint8, error) {
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, err
		}
		return clamp8(f / 100 * 255), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return clamp8(f * 255), nil
}

func clamp8(f float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, f))))
}

// premultiply converts non-premultiplied channels to color.RGBA.
func premultiply(r, g, b, a uint8) color.RGBA {
	return color.RGBAModel.Convert(color.NRGBA{R: r, G: g, B: b, A: a}).(color.RGBA)
}
