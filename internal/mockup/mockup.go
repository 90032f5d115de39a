// Package mockup resolves apparel item types to their mockup background
// assets and loads them off the UI goroutine.
package mockup

import (
	"path/filepath"

	"aq-designs/internal/scene"
)

// DefaultDir is where mockup assets are looked up when no directory is
// configured.
const DefaultDir = "mockups"

var assetNames = map[scene.ItemType]string{
	scene.ItemJacket: "jacket-default.png",
	scene.ItemHoodie: "hoodie-default.png",
	scene.ItemTShirt: "tshirt-default.png",
}

// Catalog maps item types to asset paths under a base directory.
type Catalog struct {
	Dir string
}

// NewCatalog creates a catalog rooted at dir (DefaultDir when empty).
func NewCatalog(dir string) *Catalog {
	if dir == "" {
		dir = DefaultDir
	}
	return &Catalog{Dir: dir}
}

// AssetPath returns the mockup file for an item type. Unknown item types
// fall back to the jacket asset.
func (c *Catalog) AssetPath(item scene.ItemType) string {
	name, ok := assetNames[item]
	if !ok {
		name = assetNames[scene.ItemJacket]
	}
	return filepath.Join(c.Dir, name)
}
