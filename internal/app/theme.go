package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// DesignTheme provides the AQ Designs look for the editor.
type DesignTheme struct{}

var _ fyne.Theme = (*DesignTheme)(nil)

func (t *DesignTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0x1E, G: 0x88, B: 0xE5, A: 0xFF} // Brand blue
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0x1E, G: 0x88, B: 0xE5, A: 0x60} // Selected text handle
	case theme.ColorNameError:
		return color.NRGBA{R: 0xE5, G: 0x39, B: 0x35, A: 0xFF} // Error banner
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *DesignTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *DesignTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *DesignTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameInputBorder:
		return 1
	default:
		return theme.DefaultTheme().Size(name)
	}
}
