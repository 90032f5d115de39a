// Package app owns the editor state: the scene, its undo history, the
// compositor and the event bus the UI listens on.
package app

import (
	"sync"

	"aq-designs/internal/config"
	"aq-designs/internal/export"
	"aq-designs/internal/history"
	"aq-designs/internal/image"
	"aq-designs/internal/mockup"
	"aq-designs/internal/scene"
)

// Handles is the presentation side of the annotations: one live, draggable
// handle per annotation. The state drives it; implementations must not call
// back into the State from these methods.
type Handles interface {
	Create(a scene.Annotation)
	Destroy(id string)
	Move(id string, x, y float64)
	SetColor(id, color string)
	SetText(id, text string)
	SetStyle(id, font string, size int)
	// Position reports where the handle currently sits, relative to the
	// design surface.
	Position(id string) (x, y float64, ok bool)
}

// State holds the live design and everything needed to edit it.
type State struct {
	mu sync.RWMutex

	scene     *scene.Scene
	history   *history.Log
	composite *image.Composite
	catalog   *mockup.Catalog
	loader    *mockup.Loader
	handles   Handles

	// Selected annotation id, "" when nothing is selected
	selected string

	// Last non-text render shown behind the handles
	live           image.RenderResult
	liveBg, liveOv *image.Layer

	exportDir  string
	exportOpts export.Options

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventSceneChanged     EventType = iota // data: nil
	EventRedraw                            // data: image.RenderResult
	EventError                             // data: string, user-facing message
	EventExported                          // data: string, written path
	EventHistoryChanged                    // data: HistoryStatus
	EventSelectionChanged                  // data: string, annotation id or ""
	EventItemChanged                       // data: scene.ItemType
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// HistoryStatus summarises the undo log for toolbar state.
type HistoryStatus struct {
	CanUndo bool
	CanRedo bool
	Index   int
	Len     int
}

// Options configures a new State.
type Options struct {
	Width, Height int
	MaxDepth      int
	MockupDir     string
	ExportDir     string
	Export        export.Options
	Loader        *mockup.Loader // nil means an asynchronous loader
}

// NewState creates an editor state with an empty scene. The empty scene is
// recorded as the first history entry so the first edit can be undone.
func NewState(opts Options) *State {
	if opts.Width <= 0 || opts.Height <= 0 {
		def := config.Default()
		opts.Width, opts.Height = def.Canvas.Width, def.Canvas.Height
	}
	loader := opts.Loader
	if loader == nil {
		loader = mockup.NewLoader()
	}

	s := &State{
		scene:      scene.New(),
		history:    history.New(opts.MaxDepth),
		composite:  image.NewComposite(opts.Width, opts.Height),
		catalog:    mockup.NewCatalog(opts.MockupDir),
		loader:     loader,
		handles:    nopHandles{},
		exportDir:  opts.ExportDir,
		exportOpts: opts.Export,
		listeners:  make(map[EventType][]EventListener),
	}
	s.history.Snapshot(s.scene.Snapshot())
	s.redrawLocked()
	return s
}

// NewStateFromConfig creates a state from the loaded configuration.
func NewStateFromConfig(cfg *config.Config, loader *mockup.Loader) *State {
	return NewState(Options{
		Width:     cfg.Canvas.Width,
		Height:    cfg.Canvas.Height,
		MaxDepth:  cfg.History.MaxDepth,
		MockupDir: cfg.MockupDir,
		ExportDir: cfg.Export.Dir,
		Export:    cfg.ExportOptions(),
		Loader:    loader,
	})
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetHandles attaches the presentation layer and creates a handle for every
// existing annotation.
func (s *State) SetHandles(h Handles) {
	if h == nil {
		h = nopHandles{}
	}
	s.mu.Lock()
	s.handles = h
	for _, a := range s.scene.Annotations {
		h.Create(*a)
	}
	s.mu.Unlock()
}

// Wait blocks until every pending image load has completed.
func (s *State) Wait() {
	s.loader.Wait()
}

// Catalog returns the mockup asset catalog.
func (s *State) Catalog() *mockup.Catalog {
	return s.catalog
}

// Surface returns the design surface size in pixels.
func (s *State) Surface() (width, height int) {
	return s.composite.Width, s.composite.Height
}

// Item returns the selected apparel item.
func (s *State) Item() scene.ItemType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scene.Item
}

// Background returns the mockup layer, or nil.
func (s *State) Background() *image.Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scene.Background
}

// Overlay returns the uploaded layer, or nil.
func (s *State) Overlay() *image.Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scene.Overlay
}

// Annotations returns copies of the annotations in list order.
func (s *State) Annotations() []scene.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]scene.Annotation, len(s.scene.Annotations))
	for i, a := range s.scene.Annotations {
		out[i] = *a
	}
	return out
}

// Annotation returns a copy of the annotation with the given id.
func (s *State) Annotation(id string) (scene.Annotation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a := s.scene.Find(id); a != nil {
		return *a, true
	}
	return scene.Annotation{}, false
}

// Snapshot returns a record of the live scene.
func (s *State) Snapshot() scene.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scene.Snapshot()
}

// History returns the undo log status.
func (s *State) History() HistoryStatus {
	return HistoryStatus{
		CanUndo: s.history.CanUndo(),
		CanRedo: s.history.CanRedo(),
		Index:   s.history.Index(),
		Len:     s.history.Len(),
	}
}

// LiveRender returns the current non-text render.
func (s *State) LiveRender() image.RenderResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

// snapshotLocked records the live scene. Caller holds s.mu.
func (s *State) snapshotLocked() {
	s.history.Snapshot(s.scene.Snapshot())
}

// frameLocked builds the compositor input from the scene.
func (s *State) frameLocked(includeText bool) image.Frame {
	f := image.Frame{
		Background: s.scene.Background,
		Overlay:    s.scene.Overlay,
	}
	if includeText {
		f.Texts = make([]image.Text, len(s.scene.Annotations))
		for i, a := range s.scene.Annotations {
			f.Texts[i] = image.Text{
				Text:  a.Text,
				Color: a.Color,
				X:     a.X,
				Y:     a.Y,
				Font:  a.Font,
				Size:  a.Size,
			}
		}
	}
	return f
}

// redrawLocked renders the scene without text. Text edits do not change
// the raster, so the previous render is reused while the image layers are
// the same.
func (s *State) redrawLocked() image.RenderResult {
	bg, ov := s.scene.Background, s.scene.Overlay
	if s.live.Image != nil && bg == s.liveBg && ov == s.liveOv && !s.live.TextRasterized {
		return s.live
	}
	s.live = s.composite.Render(s.frameLocked(false), false)
	s.liveBg, s.liveOv = bg, ov
	return s.live
}

// changed notifies listeners after a committed mutation. Must be called
// without s.mu held.
func (s *State) changed(render image.RenderResult) {
	s.Emit(EventRedraw, render)
	s.Emit(EventSceneChanged, nil)
	s.Emit(EventHistoryChanged, s.History())
}

type nopHandles struct{}

func (nopHandles) Create(scene.Annotation)                  {}
func (nopHandles) Destroy(string)                           {}
func (nopHandles) Move(string, float64, float64)            {}
func (nopHandles) SetColor(string, string)                  {}
func (nopHandles) SetText(string, string)                   {}
func (nopHandles) SetStyle(string, string, int)             {}
func (nopHandles) Position(string) (float64, float64, bool) { return 0, 0, false }
