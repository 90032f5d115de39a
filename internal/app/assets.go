package app

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"aq-designs/internal/image"
	"aq-designs/internal/mockup"
	"aq-designs/internal/scene"
)

// SelectItem switches the apparel item. The mockup is decoded off the
// calling goroutine; once it arrives the background is replaced, the
// overlay and annotations that existed when the switch was requested are
// cleared and one history entry is recorded. Anything added while the
// mockup was loading stays. A failed load leaves the scene as it was.
func (s *State) SelectItem(item scene.ItemType) uint64 {
	path := s.catalog.AssetPath(item)
	log.Printf("app: loading %s mockup %s", item, path)

	// Uploads still decoding belong to the old item.
	s.loader.Invalidate(mockup.SlotOverlay)

	s.mu.RLock()
	overlay := s.scene.Overlay
	ids := s.scene.IDs()
	s.mu.RUnlock()

	return s.loader.Load(mockup.SlotBackground, path, func(r mockup.Result) {
		if r.Err != nil {
			log.Printf("app: background load failed: %v", r.Err)
			s.report(r.Err, MsgBackgroundFailed+path)
			return
		}

		s.mu.Lock()
		if !s.loader.IsCurrent(mockup.SlotBackground, r.Token) {
			s.mu.Unlock()
			return
		}
		deselected := false
		for _, id := range ids {
			if s.scene.Remove(id) {
				s.handles.Destroy(id)
			}
			if s.selected == id {
				deselected = s.clearSelectionLocked()
			}
		}
		if s.scene.Overlay == overlay {
			s.scene.Overlay = nil
		}
		s.scene.Item = item
		s.scene.Background = r.Layer
		s.snapshotLocked()
		render := s.redrawLocked()
		s.mu.Unlock()

		if deselected {
			s.Emit(EventSelectionChanged, "")
		}
		s.Emit(EventItemChanged, item)
		s.changed(render)
	})
}

// ReloadBackground decodes the current item's mockup again and swaps it in
// without touching the overlay or annotations. It runs when the asset file
// changes on disk. The new layer replaces the old one in the history too,
// so no entry is recorded and redo survives. While an item switch is still
// loading the reload is skipped and 0 is returned.
func (s *State) ReloadBackground() uint64 {
	if s.loader.IsPending(mockup.SlotBackground) {
		log.Printf("app: background load in progress, skipping reload")
		return 0
	}
	item := s.Item()
	path := s.catalog.AssetPath(item)

	return s.loader.Load(mockup.SlotBackground, path, func(r mockup.Result) {
		if r.Err != nil {
			log.Printf("app: background reload failed: %v", r.Err)
			s.report(r.Err, MsgBackgroundFailed+path)
			return
		}

		s.mu.Lock()
		if s.scene.Item != item || !s.loader.IsCurrent(mockup.SlotBackground, r.Token) {
			s.mu.Unlock()
			return
		}
		old := s.scene.Background
		s.scene.Background = r.Layer
		s.history.ReplaceLayer(old, r.Layer)
		render := s.redrawLocked()
		s.mu.Unlock()

		log.Printf("app: reloaded %s", path)
		s.changed(render)
	})
}

// SetOverlay places an already decoded image over the mockup.
func (s *State) SetOverlay(layer *image.Layer) {
	s.loader.Invalidate(mockup.SlotOverlay)
	s.applyOverlay(layer, 0)
}

// applyOverlay installs layer. A non-zero token must still be the newest
// overlay request.
func (s *State) applyOverlay(layer *image.Layer, token uint64) {
	s.mu.Lock()
	if token != 0 && !s.loader.IsCurrent(mockup.SlotOverlay, token) {
		s.mu.Unlock()
		return
	}
	s.scene.Overlay = layer
	s.snapshotLocked()
	render := s.redrawLocked()
	s.mu.Unlock()

	s.changed(render)
}

// LoadOverlay reads and decodes an image file as the overlay. The token of
// the decode request is returned; a read failure returns 0.
func (s *State) LoadOverlay(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("app: reading %s: %v", path, err)
		return 0, s.report(fmt.Errorf("failed to read overlay: %w", err), MsgReadFailed)
	}
	return s.LoadOverlayBytes(filepath.Base(path), data), nil
}

// LoadOverlayBytes decodes uploaded image data as the overlay. Decoding
// happens off the calling goroutine and only the newest upload is applied.
func (s *State) LoadOverlayBytes(name string, data []byte) uint64 {
	return s.loader.LoadBytes(mockup.SlotOverlay, name, data, func(r mockup.Result) {
		if r.Err != nil {
			log.Printf("app: overlay %s: %v", name, r.Err)
			s.report(r.Err, MsgOverlayFailed)
			return
		}
		s.applyOverlay(r.Layer, r.Token)
	})
}
