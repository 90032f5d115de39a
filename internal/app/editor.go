package app

import (
	"errors"
	"fmt"
	"strings"

	"aq-designs/internal/image"
	"aq-designs/internal/scene"
	"aq-designs/pkg/colorutil"
)

var (
	ErrEmptyText       = errors.New("empty text")
	ErrNothingSelected = errors.New("no annotation selected")
	ErrInvalidColor    = errors.New("invalid color")
	ErrInvalidSize     = errors.New("invalid font size")
	ErrNotFound        = errors.New("annotation not found")
)

// Messages shown on the error banner.
const (
	MsgEmptyText         = "Please enter some text."
	MsgNothingSelected   = "No text element selected. Click a text box to select it."
	MsgBackgroundFailed  = "Failed to load background mockup. Check your mockup image path: "
	MsgOverlayFailed     = "Failed to load uploaded image."
	MsgReadFailed        = "Error reading the file."
	MsgMissingElements   = "Required UI elements are missing. Please check the window layout."
	MsgInvalidColorFmt   = "Invalid color: %s"
	MsgInvalidSizeFmt    = "Invalid font size: %d"
	MsgAnnotationMissing = "That text element no longer exists."
	MsgExportFailedFmt   = "Failed to save design: %v"
)

// report emits msg on the error channel and returns err.
func (s *State) report(err error, msg string) error {
	s.Emit(EventError, msg)
	return err
}

// ReportError shows msg on the error banner. The UI uses it for failures
// detected outside the state, such as missing widgets at startup.
func (s *State) ReportError(msg string) {
	s.Emit(EventError, msg)
}

// DefaultPosition returns where a new annotation of the given font size is
// placed inside a container of the given size.
func DefaultPosition(containerW, containerH float64, size int) (x, y float64) {
	return containerW*0.5 - 50, containerH*0.5 - float64(size)/2
}

// AddAnnotation appends a new text annotation. Text is trimmed; empty text
// is rejected without touching the scene.
func (s *State) AddAnnotation(text, color string, x, y float64, font string, size int) (*scene.Annotation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, s.report(ErrEmptyText, MsgEmptyText)
	}
	if font == "" {
		font = image.DefaultFontFamily
	}
	if size <= 0 {
		size = image.DefaultFontSize
	}
	if color == "" {
		color = "#000000"
	}
	if !colorutil.Valid(color) {
		return nil, s.report(fmt.Errorf("%w: %q", ErrInvalidColor, color), fmt.Sprintf(MsgInvalidColorFmt, color))
	}

	a := scene.NewAnnotation(text, color, x, y, font, size)

	s.mu.Lock()
	s.handles.Create(*a)
	s.scene.Append(a)
	s.snapshotLocked()
	render := s.redrawLocked()
	s.mu.Unlock()

	s.changed(render)
	out := *a
	return &out, nil
}

// RemoveAnnotation deletes the annotation with the given id.
func (s *State) RemoveAnnotation(id string) error {
	s.mu.Lock()
	if id == "" || s.scene.Find(id) == nil {
		s.mu.Unlock()
		return s.report(ErrNothingSelected, MsgNothingSelected)
	}
	s.handles.Destroy(id)
	s.scene.Remove(id)
	deselected := s.selected == id
	if deselected {
		s.selected = ""
	}
	s.snapshotLocked()
	render := s.redrawLocked()
	s.mu.Unlock()

	if deselected {
		s.Emit(EventSelectionChanged, "")
	}
	s.changed(render)
	return nil
}

// RemoveSelected deletes the selected annotation.
func (s *State) RemoveSelected() error {
	return s.RemoveAnnotation(s.Selected())
}

// Recolor changes the color of an annotation.
func (s *State) Recolor(id, color string) error {
	if !colorutil.Valid(color) {
		return s.report(fmt.Errorf("%w: %q", ErrInvalidColor, color), fmt.Sprintf(MsgInvalidColorFmt, color))
	}

	s.mu.Lock()
	a := s.scene.Find(id)
	if a == nil {
		s.mu.Unlock()
		return s.report(ErrNotFound, MsgAnnotationMissing)
	}
	a.Color = color
	s.handles.SetColor(id, color)
	s.snapshotLocked()
	render := s.redrawLocked()
	s.mu.Unlock()

	s.changed(render)
	return nil
}

// RecolorSelected recolors the selected annotation. With nothing selected
// it does nothing; the color only becomes the picker's current value.
func (s *State) RecolorSelected(color string) error {
	id := s.Selected()
	if id == "" {
		return nil
	}
	return s.Recolor(id, color)
}

// Reposition moves an annotation. Every call is its own undo step, so a
// drag records one entry per motion event.
func (s *State) Reposition(id string, x, y float64) error {
	s.mu.Lock()
	a := s.scene.Find(id)
	if a == nil {
		s.mu.Unlock()
		return s.report(ErrNotFound, MsgAnnotationMissing)
	}
	a.X, a.Y = x, y
	s.handles.Move(id, x, y)
	s.snapshotLocked()
	render := s.redrawLocked()
	s.mu.Unlock()

	s.changed(render)
	return nil
}

// EditText stores text typed into an annotation's handle.
func (s *State) EditText(id, text string) error {
	s.mu.Lock()
	a := s.scene.Find(id)
	if a == nil {
		s.mu.Unlock()
		return s.report(ErrNotFound, MsgAnnotationMissing)
	}
	a.Text = text
	s.handles.SetText(id, text)
	s.snapshotLocked()
	render := s.redrawLocked()
	s.mu.Unlock()

	s.changed(render)
	return nil
}

// Restyle changes an annotation's font family and size.
func (s *State) Restyle(id, font string, size int) error {
	if size <= 0 {
		return s.report(fmt.Errorf("%w: %d", ErrInvalidSize, size), fmt.Sprintf(MsgInvalidSizeFmt, size))
	}
	if font == "" {
		font = image.DefaultFontFamily
	}

	s.mu.Lock()
	a := s.scene.Find(id)
	if a == nil {
		s.mu.Unlock()
		return s.report(ErrNotFound, MsgAnnotationMissing)
	}
	a.Font, a.Size = font, size
	s.handles.SetStyle(id, font, size)
	s.snapshotLocked()
	render := s.redrawLocked()
	s.mu.Unlock()

	s.changed(render)
	return nil
}

// ClearAll removes every annotation.
func (s *State) ClearAll() {
	s.mu.Lock()
	s.clearAnnotationsLocked()
	deselected := s.clearSelectionLocked()
	s.snapshotLocked()
	render := s.redrawLocked()
	s.mu.Unlock()

	if deselected {
		s.Emit(EventSelectionChanged, "")
	}
	s.changed(render)
}

// ClearCanvas removes the overlay, the annotations and the background.
func (s *State) ClearCanvas() {
	s.mu.Lock()
	s.clearAnnotationsLocked()
	deselected := s.clearSelectionLocked()
	s.scene.Overlay = nil
	s.scene.Background = nil
	s.snapshotLocked()
	render := s.redrawLocked()
	s.mu.Unlock()

	if deselected {
		s.Emit(EventSelectionChanged, "")
	}
	s.changed(render)
}

func (s *State) clearAnnotationsLocked() {
	for _, id := range s.scene.IDs() {
		s.handles.Destroy(id)
	}
	s.scene.Annotations = nil
}

func (s *State) clearSelectionLocked() bool {
	if s.selected == "" {
		return false
	}
	s.selected = ""
	return true
}

// Select marks an annotation as the target of selection-dependent actions.
// An empty id clears the selection.
func (s *State) Select(id string) error {
	s.mu.Lock()
	if id != "" && s.scene.Find(id) == nil {
		s.mu.Unlock()
		return ErrNotFound
	}
	prev := s.selected
	s.selected = id
	s.mu.Unlock()

	if prev != id {
		s.Emit(EventSelectionChanged, id)
	}
	return nil
}

// Selected returns the selected annotation id, or "".
func (s *State) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Undo restores the previous history entry. It reports whether the index
// moved.
func (s *State) Undo() bool {
	return s.step(s.history.Undo)
}

// Redo restores the next history entry. It reports whether the index moved.
func (s *State) Redo() bool {
	return s.step(s.history.Redo)
}

// step moves the history index and installs the entry it lands on in one
// critical section, so no snapshot can be recorded in between.
func (s *State) step(move func() (scene.Snapshot, bool)) bool {
	s.mu.Lock()
	snap, ok := move()
	if !ok {
		s.mu.Unlock()
		return false
	}
	prevItem := s.scene.Item
	deselected := s.restoreLocked(snap)
	render := s.redrawLocked()
	s.mu.Unlock()

	if deselected {
		s.Emit(EventSelectionChanged, "")
	}
	if snap.Item != prevItem {
		s.Emit(EventItemChanged, snap.Item)
	}
	s.changed(render)
	return true
}

// restoreLocked replaces the scene with snap and rebuilds every handle. It
// reports whether the selection was dropped. Caller holds s.mu.
func (s *State) restoreLocked(snap scene.Snapshot) bool {
	for _, id := range s.scene.IDs() {
		s.handles.Destroy(id)
	}
	s.scene.Restore(snap)
	for _, a := range s.scene.Annotations {
		s.handles.Create(*a)
	}
	if s.selected != "" && s.scene.Find(s.selected) == nil {
		s.selected = ""
		return true
	}
	return false
}
