package app

import (
	"fmt"
	"io"

	"aq-designs/internal/export"
	"aq-designs/internal/image"
)

// ExportResult describes a finished export.
type ExportResult struct {
	Path     string             // Written file, empty for ExportTo
	Rendered image.RenderResult // The flattened render that was encoded
	Live     image.RenderResult // The text-free render restored afterwards
}

// SetExportDir changes where Export writes.
func (s *State) SetExportDir(dir string) {
	s.mu.Lock()
	s.exportDir = dir
	s.mu.Unlock()
}

// ExportDir returns the export directory.
func (s *State) ExportDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exportDir
}

// Export flattens the design, text included, and writes it to the export
// directory under the fixed export name.
func (s *State) Export() (*ExportResult, error) {
	var path string
	res, err := s.exportWith(func(r image.RenderResult) error {
		var err error
		path, err = export.WriteFile(s.ExportDir(), r.Image, s.exportOpts)
		return err
	})
	if err != nil {
		return nil, s.report(err, fmt.Sprintf(MsgExportFailedFmt, err))
	}
	res.Path = path
	s.Emit(EventExported, path)
	return res, nil
}

// ExportTo is like Export but encodes to w.
func (s *State) ExportTo(w io.Writer) (*ExportResult, error) {
	res, err := s.exportWith(func(r image.RenderResult) error {
		return export.Encode(w, r.Image, s.exportOpts)
	})
	if err != nil {
		return nil, s.report(err, fmt.Sprintf(MsgExportFailedFmt, err))
	}
	return res, nil
}

// exportWith syncs annotation positions from their handles, renders with
// text, hands the render to write and then restores the text-free view.
func (s *State) exportWith(write func(image.RenderResult) error) (*ExportResult, error) {
	s.mu.Lock()
	for _, a := range s.scene.Annotations {
		if x, y, ok := s.handles.Position(a.ID); ok {
			a.X, a.Y = x, y
		}
	}
	rendered := s.composite.Render(s.frameLocked(true), true)
	s.mu.Unlock()

	writeErr := write(rendered)

	s.mu.Lock()
	s.live = s.composite.Render(s.frameLocked(false), false)
	s.liveBg, s.liveOv = s.scene.Background, s.scene.Overlay
	live := s.live
	s.mu.Unlock()

	s.Emit(EventRedraw, live)
	if writeErr != nil {
		return nil, writeErr
	}
	return &ExportResult{Rendered: rendered, Live: live}, nil
}
