// Package scene holds the editable design: mockup background, uploaded
// overlay and the ordered list of text annotations.
package scene

import (
	"strings"

	"aq-designs/internal/image"

	"github.com/google/uuid"
)

// ItemType identifies the apparel item whose mockup forms the background.
type ItemType int

const (
	ItemJacket ItemType = iota
	ItemHoodie
	ItemTShirt
)

// DefaultItem is selected at startup.
const DefaultItem = ItemJacket

// Items lists the selectable item types in display order.
var Items = []ItemType{ItemJacket, ItemHoodie, ItemTShirt}

func (t ItemType) String() string {
	switch t {
	case ItemHoodie:
		return "hoodie"
	case ItemTShirt:
		return "tshirt"
	default:
		return "jacket"
	}
}

// Label returns the human readable item name.
func (t ItemType) Label() string {
	switch t {
	case ItemHoodie:
		return "Hoodie"
	case ItemTShirt:
		return "T-Shirt"
	default:
		return "Jacket"
	}
}

// ParseItemType maps a name or label to an ItemType. Unknown input yields
// the jacket.
func ParseItemType(s string) ItemType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hoodie":
		return ItemHoodie
	case "tshirt", "t-shirt", "t shirt":
		return ItemTShirt
	default:
		return ItemJacket
	}
}

// Annotation is a positioned, styled text label.
// X and Y locate the top-left corner in container pixels.
type Annotation struct {
	ID    string  `json:"id" yaml:"id"`
	Text  string  `json:"text" yaml:"text"`
	Color string  `json:"color" yaml:"color"`
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Font  string  `json:"font" yaml:"font"`
	Size  int     `json:"size" yaml:"size"`
}

// NewAnnotation creates an annotation with a fresh unique id.
func NewAnnotation(text, color string, x, y float64, font string, size int) *Annotation {
	return &Annotation{
		ID:    NewID(),
		Text:  text,
		Color: color,
		X:     x,
		Y:     y,
		Font:  font,
		Size:  size,
	}
}

// NewID returns a random (version 4) UUID string.
func NewID() string {
	return uuid.NewString()
}

// Scene is the live design state. It is a passive holder; all mutation goes
// through the application state so that handles and history stay in step.
type Scene struct {
	Item        ItemType
	Background  *image.Layer
	Overlay     *image.Layer
	Annotations []*Annotation
}

// New creates an empty scene for the default item.
func New() *Scene {
	return &Scene{Item: DefaultItem}
}

// Find returns the annotation with the given id, or nil.
func (s *Scene) Find(id string) *Annotation {
	if i := s.IndexOf(id); i >= 0 {
		return s.Annotations[i]
	}
	return nil
}

// IndexOf returns the list position of the annotation with the given id,
// or -1.
func (s *Scene) IndexOf(id string) int {
	for i, a := range s.Annotations {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// Append adds an annotation at the end of the list.
func (s *Scene) Append(a *Annotation) {
	s.Annotations = append(s.Annotations, a)
}

// Remove deletes the annotation with the given id and reports whether it
// was present.
func (s *Scene) Remove(id string) bool {
	i := s.IndexOf(id)
	if i < 0 {
		return false
	}
	s.Annotations = append(s.Annotations[:i], s.Annotations[i+1:]...)
	return true
}

// IDs returns the annotation ids in list order.
func (s *Scene) IDs() []string {
	ids := make([]string, len(s.Annotations))
	for i, a := range s.Annotations {
		ids[i] = a.ID
	}
	return ids
}

// Snapshot records the current scene. Image layers are shared because they
// are only ever replaced, never modified; annotations are copied by value.
func (s *Scene) Snapshot() Snapshot {
	snap := Snapshot{
		Item:        s.Item,
		Background:  s.Background,
		Overlay:     s.Overlay,
		Annotations: make([]Annotation, len(s.Annotations)),
	}
	for i, a := range s.Annotations {
		snap.Annotations[i] = *a
	}
	return snap
}

// Restore replaces every scene field from a snapshot. Annotation records
// are fresh copies so later edits never reach back into the snapshot.
func (s *Scene) Restore(snap Snapshot) {
	s.Item = snap.Item
	s.Background = snap.Background
	s.Overlay = snap.Overlay
	s.Annotations = make([]*Annotation, len(snap.Annotations))
	for i := range snap.Annotations {
		a := snap.Annotations[i]
		s.Annotations[i] = &a
	}
}

// Snapshot is an immutable record of a Scene used for undo and redo.
type Snapshot struct {
	Item        ItemType
	Background  *image.Layer
	Overlay     *image.Layer
	Annotations []Annotation
}
