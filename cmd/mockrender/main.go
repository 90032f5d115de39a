// Command mockrender renders a scripted design onto an apparel mockup and
// writes the flattened image, without opening the editor window.
package main

import (
	"flag"
	"fmt"
	"os"

	"aq-designs/internal/app"
	"aq-designs/internal/config"
	"aq-designs/internal/export"
	"aq-designs/internal/mockup"
	"aq-designs/internal/version"
)

func main() {
	designPath := flag.String("design", "", "Path to YAML design file")
	outDir := flag.String("out", "", "Output directory (default: config export dir)")
	configPath := flag.String("config", config.DefaultFile, "Path to YAML config file")
	format := flag.String("format", "", "Output format: png or jpeg (default: config)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("mockrender", version.String())
		return
	}
	if *designPath == "" {
		fmt.Println("Usage: mockrender -design <design.yaml> [-out dir] [-config aqdesigns.yaml] [-format png|jpeg]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *format != "" {
		if _, err := export.ParseFormat(*format); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		cfg.Export.Format = *format
	}

	design, err := loadDesign(*designPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	path, err := render(cfg, design, *outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Render failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", path)
}

// render builds the design on a fresh editor state and exports it. Loads
// run synchronously so every step sees the result of the one before.
func render(cfg *config.Config, design *Design, outDir string) (string, error) {
	state := app.NewStateFromConfig(cfg, mockup.NewSyncLoader())
	if outDir != "" {
		state.SetExportDir(outDir)
	}

	var lastErr string
	state.On(app.EventError, func(data interface{}) {
		if msg, ok := data.(string); ok {
			lastErr = msg
		}
	})

	item := design.ItemType(cfg)
	fmt.Printf("Item: %s (%s)\n", item.Label(), state.Catalog().AssetPath(item))
	state.SelectItem(item)
	if state.Background() == nil {
		return "", fmt.Errorf("%s", lastErr)
	}

	if design.Overlay != "" {
		fmt.Printf("Overlay: %s\n", design.Overlay)
		if _, err := state.LoadOverlay(design.Overlay); err != nil {
			return "", err
		}
		if state.Overlay() == nil {
			return "", fmt.Errorf("%s", lastErr)
		}
	}

	w, h := state.Surface()
	for _, label := range design.Annotations {
		t := label.withDefaults(cfg)
		x, y := app.DefaultPosition(float64(w), float64(h), t.Size)
		if t.X != nil {
			x = *t.X
		}
		if t.Y != nil {
			y = *t.Y
		}
		a, err := state.AddAnnotation(t.Text, t.Color, x, y, t.Font, t.Size)
		if err != nil {
			return "", err
		}
		fmt.Printf("  %-36s %8.1f %8.1f  %s %dpx %s\n", a.ID, a.X, a.Y, a.Font, a.Size, a.Color)
	}

	res, err := state.Export()
	if err != nil {
		return "", err
	}
	return res.Path, nil
}
