// Package canvas provides the design surface: the composited mockup with
// draggable text handles on top.
package canvas

import (
	"image"
	"image/color"
	"log"
	"sync"

	"aq-designs/internal/app"
	aqimage "aq-designs/internal/image"
	"aq-designs/internal/scene"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// DesignCanvas shows the text-free render of the scene with one TextHandle
// per annotation layered above it. Surface pixels map one to one onto fyne
// units, so handle positions are annotation coordinates.
type DesignCanvas struct {
	widget.BaseWidget

	state   *app.State
	surface fyne.Size

	image  *fynecanvas.Image
	layer  *fyne.Container
	border *fynecanvas.Rectangle

	mu       sync.Mutex
	handles  map[string]*TextHandle
	selected string

	// Callbacks
	onEdit func(id string) // Double tap on a handle
}

var _ app.Handles = (*DesignCanvas)(nil)

// NewDesignCanvas creates the canvas for state and attaches it as the
// state's handle set.
func NewDesignCanvas(state *app.State) *DesignCanvas {
	w, h := state.Surface()
	dc := &DesignCanvas{
		state:   state,
		surface: fyne.NewSize(float32(w), float32(h)),
		handles: make(map[string]*TextHandle),
	}

	dc.image = fynecanvas.NewImageFromImage(nil)
	dc.image.FillMode = fynecanvas.ImageFillStretch
	dc.image.ScaleMode = fynecanvas.ImageScaleSmooth
	dc.border = fynecanvas.NewRectangle(color.Transparent)
	dc.border.StrokeWidth = 1
	dc.border.StrokeColor = borderColor
	dc.layer = container.NewWithoutLayout()

	dc.ExtendBaseWidget(dc)

	state.On(app.EventRedraw, func(data interface{}) {
		if r, ok := data.(aqimage.RenderResult); ok {
			dc.SetImage(r.Image)
		}
	})
	state.On(app.EventSelectionChanged, func(data interface{}) {
		id, _ := data.(string)
		dc.highlight(id)
	})

	if r := state.LiveRender(); r.Image != nil {
		dc.SetImage(r.Image)
	}
	state.SetHandles(dc)
	return dc
}

// SetOnEdit sets the callback invoked when a handle is double tapped.
func (dc *DesignCanvas) SetOnEdit(fn func(id string)) {
	dc.onEdit = fn
}

// SetImage replaces the raster behind the handles.
func (dc *DesignCanvas) SetImage(img image.Image) {
	dc.image.Image = img
	dc.image.Refresh()
}

// Surface returns the design surface size.
func (dc *DesignCanvas) Surface() fyne.Size {
	return dc.surface
}

// Tapped on empty canvas clears the selection.
func (dc *DesignCanvas) Tapped(*fyne.PointEvent) {
	if err := dc.state.Select(""); err != nil {
		log.Printf("canvas: clear selection: %v", err)
	}
}

// Create adds a handle for a.
func (dc *DesignCanvas) Create(a scene.Annotation) {
	th := newTextHandle(dc, a)
	dc.mu.Lock()
	old := dc.handles[a.ID]
	dc.handles[a.ID] = th
	selected := dc.selected == a.ID
	dc.mu.Unlock()

	if old != nil {
		dc.layer.Remove(old)
	}
	th.Move(fyne.NewPos(float32(a.X), float32(a.Y)))
	th.Resize(th.MinSize())
	th.SetSelected(selected)
	dc.layer.Add(th)
}

// Destroy removes the handle for id.
func (dc *DesignCanvas) Destroy(id string) {
	dc.mu.Lock()
	th, ok := dc.handles[id]
	delete(dc.handles, id)
	dc.mu.Unlock()
	if ok {
		dc.layer.Remove(th)
	}
}

// Move positions the handle for id.
func (dc *DesignCanvas) Move(id string, x, y float64) {
	if th := dc.handle(id); th != nil {
		th.Move(fyne.NewPos(float32(x), float32(y)))
	}
}

func (dc *DesignCanvas) SetColor(id, color string) {
	if th := dc.handle(id); th != nil {
		th.SetColor(color)
	}
}

func (dc *DesignCanvas) SetText(id, text string) {
	if th := dc.handle(id); th != nil {
		th.SetText(text)
	}
}

func (dc *DesignCanvas) SetStyle(id, font string, size int) {
	if th := dc.handle(id); th != nil {
		th.SetStyle(font, size)
	}
}

// Position reports where the handle for id sits on the surface.
func (dc *DesignCanvas) Position(id string) (x, y float64, ok bool) {
	th := dc.handle(id)
	if th == nil {
		return 0, 0, false
	}
	p := th.Position()
	return float64(p.X), float64(p.Y), true
}

func (dc *DesignCanvas) handle(id string) *TextHandle {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.handles[id]
}

func (dc *DesignCanvas) highlight(id string) {
	dc.mu.Lock()
	dc.selected = id
	handles := make([]*TextHandle, 0, len(dc.handles))
	for _, th := range dc.handles {
		handles = append(handles, th)
	}
	dc.mu.Unlock()

	for _, th := range handles {
		th.SetSelected(th.id == id)
	}
}

// HandleCount returns the number of live handles.
func (dc *DesignCanvas) HandleCount() int {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return len(dc.handles)
}

// dragTo is called by a handle while it is dragged.
func (dc *DesignCanvas) dragTo(th *TextHandle, pos fyne.Position) {
	pos = dc.clamp(th, pos)
	if err := dc.state.Reposition(th.id, float64(pos.X), float64(pos.Y)); err != nil {
		log.Printf("canvas: reposition %s: %v", th.id, err)
	}
}

// clamp keeps at least part of a handle on the surface so it can always be
// grabbed again.
func (dc *DesignCanvas) clamp(th *TextHandle, pos fyne.Position) fyne.Position {
	const keep = 10
	size := th.Size()
	minX, minY := keep-size.Width, keep-size.Height
	maxX, maxY := dc.surface.Width-keep, dc.surface.Height-keep
	if pos.X < minX {
		pos.X = minX
	}
	if pos.Y < minY {
		pos.Y = minY
	}
	if pos.X > maxX {
		pos.X = maxX
	}
	if pos.Y > maxY {
		pos.Y = maxY
	}
	return pos
}

func (dc *DesignCanvas) selectHandle(th *TextHandle) {
	if err := dc.state.Select(th.id); err != nil {
		log.Printf("canvas: select %s: %v", th.id, err)
	}
}

func (dc *DesignCanvas) editHandle(th *TextHandle) {
	if dc.onEdit != nil {
		dc.onEdit(th.id)
	}
}

func (dc *DesignCanvas) MinSize() fyne.Size {
	return dc.surface
}

func (dc *DesignCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &designCanvasRenderer{canvas: dc}
}

type designCanvasRenderer struct {
	canvas *DesignCanvas
}

// Layout pins every layer to the surface size at the origin; the canvas is
// never stretched so coordinates stay in surface pixels.
func (r *designCanvasRenderer) Layout(fyne.Size) {
	for _, o := range r.Objects() {
		o.Move(fyne.NewPos(0, 0))
		o.Resize(r.canvas.surface)
	}
}

func (r *designCanvasRenderer) MinSize() fyne.Size {
	return r.canvas.surface
}

func (r *designCanvasRenderer) Refresh() {
	r.canvas.image.Refresh()
	r.canvas.layer.Refresh()
}

func (r *designCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.image, r.canvas.border, r.canvas.layer}
}

func (r *designCanvasRenderer) Destroy() {}
