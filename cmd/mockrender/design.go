package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"aq-designs/internal/config"
	"aq-designs/internal/scene"

	"gopkg.in/yaml.v3"
)

var errNoText = errors.New("annotation has no text")

// Design is a scripted mockup: one item, an optional overlay image and a
// list of text annotations.
type Design struct {
	Item        string      `yaml:"item"`
	Overlay     string      `yaml:"overlay"`
	Annotations []TextLabel `yaml:"annotations"`
}

// TextLabel describes one annotation. Zero values take the config defaults;
// a missing position centres the text the way the editor's Add Text does.
type TextLabel struct {
	Text  string   `yaml:"text"`
	Color string   `yaml:"color"`
	Font  string   `yaml:"font"`
	Size  int      `yaml:"size"`
	X     *float64 `yaml:"x"`
	Y     *float64 `yaml:"y"`
}

// loadDesign reads a design file. A relative overlay path resolves against
// the design file's directory.
func loadDesign(path string) (*Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read design: %w", err)
	}
	var d Design
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse design %s: %w", path, err)
	}
	if d.Overlay != "" && !filepath.IsAbs(d.Overlay) {
		d.Overlay = filepath.Join(filepath.Dir(path), d.Overlay)
	}
	for i, a := range d.Annotations {
		if a.Text == "" {
			return nil, fmt.Errorf("annotation %d: %w", i, errNoText)
		}
	}
	return &d, nil
}

// ItemType returns the design's item, or the configured default.
func (d *Design) ItemType(cfg *config.Config) scene.ItemType {
	if d.Item == "" {
		return cfg.DefaultItem()
	}
	return scene.ParseItemType(d.Item)
}

// withDefaults fills unset fields from cfg.
func (t TextLabel) withDefaults(cfg *config.Config) TextLabel {
	if t.Color == "" {
		t.Color = cfg.Defaults.Color
	}
	if t.Font == "" {
		t.Font = cfg.Defaults.Font
	}
	if t.Size <= 0 {
		t.Size = cfg.Defaults.Size
	}
	return t
}
