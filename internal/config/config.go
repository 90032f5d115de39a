// Package config loads the editor's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"aq-designs/internal/export"
	"aq-designs/internal/history"
	"aq-designs/internal/image"
	"aq-designs/internal/mockup"
	"aq-designs/internal/scene"
	"aq-designs/pkg/colorutil"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "aqdesigns.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the editor configuration.
type Config struct {
	MockupDir string   `yaml:"mockup_dir"`
	Canvas    Canvas   `yaml:"canvas"`
	History   History  `yaml:"history"`
	Export    Export   `yaml:"export"`
	Watch     Watch    `yaml:"watch"`
	Defaults  Defaults `yaml:"defaults"`
}

// Canvas is the design surface size in pixels.
type Canvas struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type History struct {
	MaxDepth int `yaml:"max_depth"`
}

type Export struct {
	Dir         string `yaml:"dir"`
	Format      string `yaml:"format"`
	JPEGQuality int    `yaml:"jpeg_quality"`
}

// Watch controls mockup asset polling. A zero interval disables it.
type Watch struct {
	Interval time.Duration `yaml:"interval"`
}

// Defaults seed the toolbar controls at startup.
type Defaults struct {
	Font  string `yaml:"font"`
	Size  int    `yaml:"size"`
	Color string `yaml:"color"`
	Item  string `yaml:"item"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MockupDir: mockup.DefaultDir,
		Canvas:    Canvas{Width: 600, Height: 600},
		History:   History{MaxDepth: history.DefaultMaxDepth},
		Export: Export{
			Dir:         ".",
			Format:      string(export.PNG),
			JPEGQuality: export.DefaultJPEGQuality,
		},
		Watch: Watch{Interval: 2 * time.Second},
		Defaults: Defaults{
			Font:  image.DefaultFontFamily,
			Size:  image.DefaultFontSize,
			Color: "#000000",
			Item:  scene.DefaultItem.String(),
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("%w: canvas size %dx%d", ErrInvalid, c.Canvas.Width, c.Canvas.Height)
	}
	if c.History.MaxDepth < 0 || c.History.MaxDepth > history.MaxDepthLimit {
		return fmt.Errorf("%w: history.max_depth %d out of range 0-%d", ErrInvalid, c.History.MaxDepth, history.MaxDepthLimit)
	}
	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if q := c.Export.JPEGQuality; q < 0 || q > 100 {
		return fmt.Errorf("%w: export.jpeg_quality %d out of range 0-100", ErrInvalid, q)
	}
	if c.Watch.Interval < 0 {
		return fmt.Errorf("%w: negative watch.interval", ErrInvalid)
	}
	if c.Defaults.Size <= 0 {
		return fmt.Errorf("%w: defaults.size %d", ErrInvalid, c.Defaults.Size)
	}
	if !colorutil.Valid(c.Defaults.Color) {
		return fmt.Errorf("%w: defaults.color %q", ErrInvalid, c.Defaults.Color)
	}
	return nil
}

// ExportOptions converts the export section for the encoder.
func (c *Config) ExportOptions() export.Options {
	f, err := export.ParseFormat(c.Export.Format)
	if err != nil {
		f = export.PNG
	}
	return export.Options{Format: f, Quality: c.Export.JPEGQuality}
}

// DefaultItem returns the configured startup item.
func (c *Config) DefaultItem() scene.ItemType {
	return scene.ParseItemType(c.Defaults.Item)
}
