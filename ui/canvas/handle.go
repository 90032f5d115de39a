package canvas

import (
	"image/color"
	"strings"
	"sync"

	aqimage "aq-designs/internal/image"
	"aq-designs/internal/scene"
	"aq-designs/pkg/colorutil"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

var (
	borderColor   = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0x80}
	selectedColor = color.NRGBA{R: 0x1E, G: 0x88, B: 0xE5, A: 0xFF}
)

// TextHandle is the on-screen, draggable form of one annotation. A tap
// selects it, a drag moves it and a double tap opens the text editor.
type TextHandle struct {
	widget.BaseWidget

	id    string
	owner *DesignCanvas

	mu       sync.Mutex
	text     string
	color    color.Color
	size     float32
	style    fyne.TextStyle
	selected bool

	// Drag state: handle position when the drag began plus accumulated motion
	dragging bool
	dragPos  fyne.Position
}

func newTextHandle(owner *DesignCanvas, a scene.Annotation) *TextHandle {
	th := &TextHandle{
		id:    a.ID,
		owner: owner,
		text:  a.Text,
		color: colorutil.MustParse(a.Color, colorutil.Black),
		size:  float32(a.Size),
		style: textStyle(a.Font),
	}
	th.ExtendBaseWidget(th)
	return th
}

// textStyle maps a font family onto the fyne style that matches the font
// the exporter draws it with.
func textStyle(family string) fyne.TextStyle {
	st := aqimage.FamilyStyle(family)
	return fyne.TextStyle{Bold: st.Bold, Italic: st.Italic, Monospace: st.Mono}
}

// ID returns the annotation id.
func (th *TextHandle) ID() string {
	return th.id
}

// Text returns the displayed text.
func (th *TextHandle) Text() string {
	th.mu.Lock()
	defer th.mu.Unlock()
	return th.text
}

func (th *TextHandle) SetText(text string) {
	th.mu.Lock()
	th.text = text
	th.mu.Unlock()
	th.refit()
}

func (th *TextHandle) SetColor(c string) {
	th.mu.Lock()
	th.color = colorutil.MustParse(c, colorutil.Black)
	th.mu.Unlock()
	th.Refresh()
}

func (th *TextHandle) SetStyle(family string, size int) {
	th.mu.Lock()
	th.style = textStyle(family)
	th.size = float32(size)
	th.mu.Unlock()
	th.refit()
}

// SetSelected toggles the selection outline.
func (th *TextHandle) SetSelected(selected bool) {
	th.mu.Lock()
	changed := th.selected != selected
	th.selected = selected
	th.mu.Unlock()
	if changed {
		th.Refresh()
	}
}

// Selected reports whether the handle shows the selection outline.
func (th *TextHandle) Selected() bool {
	th.mu.Lock()
	defer th.mu.Unlock()
	return th.selected
}

func (th *TextHandle) refit() {
	th.Resize(th.MinSize())
	th.Refresh()
}

func (th *TextHandle) lines() []string {
	th.mu.Lock()
	defer th.mu.Unlock()
	return strings.Split(th.text, "\n")
}

func (th *TextHandle) Tapped(*fyne.PointEvent) {
	th.owner.selectHandle(th)
}

func (th *TextHandle) DoubleTapped(*fyne.PointEvent) {
	th.owner.selectHandle(th)
	th.owner.editHandle(th)
}

func (th *TextHandle) Dragged(ev *fyne.DragEvent) {
	if !th.dragging {
		th.dragging = true
		th.dragPos = th.Position()
		th.owner.selectHandle(th)
	}
	th.dragPos = th.dragPos.Add(ev.Dragged)
	th.owner.dragTo(th, th.dragPos)
}

func (th *TextHandle) DragEnd() {
	th.dragging = false
}

func (th *TextHandle) MinSize() fyne.Size {
	th.ExtendBaseWidget(th)
	return th.BaseWidget.MinSize()
}

func (th *TextHandle) CreateRenderer() fyne.WidgetRenderer {
	r := &textHandleRenderer{
		handle:  th,
		outline: fynecanvas.NewRectangle(color.Transparent),
	}
	r.outline.StrokeWidth = 1
	r.rebuild()
	return r
}

type textHandleRenderer struct {
	handle  *TextHandle
	outline *fynecanvas.Rectangle
	texts   []*fynecanvas.Text
}

// rebuild creates one canvas.Text per line; canvas.Text is single-line.
func (r *textHandleRenderer) rebuild() {
	th := r.handle
	lines := th.lines()

	th.mu.Lock()
	col, size, style, selected := th.color, th.size, th.style, th.selected
	th.mu.Unlock()

	for len(r.texts) < len(lines) {
		r.texts = append(r.texts, fynecanvas.NewText("", col))
	}
	r.texts = r.texts[:len(lines)]
	for i, line := range lines {
		t := r.texts[i]
		t.Text = line
		t.Color = col
		t.TextSize = size
		t.TextStyle = style
	}

	if selected {
		r.outline.StrokeColor = selectedColor
		r.outline.StrokeWidth = 2
	} else {
		r.outline.StrokeColor = borderColor
		r.outline.StrokeWidth = 1
	}
}

func (r *textHandleRenderer) lineHeight() float32 {
	th := r.handle
	th.mu.Lock()
	size, style := th.size, th.style
	th.mu.Unlock()
	return fyne.MeasureText("Mg", size, style).Height
}

func (r *textHandleRenderer) Layout(size fyne.Size) {
	lh := r.lineHeight()
	for i, t := range r.texts {
		t.Move(fyne.NewPos(0, float32(i)*lh))
		t.Resize(fyne.NewSize(size.Width, lh))
	}
	r.outline.Move(fyne.NewPos(-2, -2))
	r.outline.Resize(size.AddWidthHeight(4, 4))
}

func (r *textHandleRenderer) MinSize() fyne.Size {
	var width float32
	for _, t := range r.texts {
		if w := fyne.MeasureText(t.Text, t.TextSize, t.TextStyle).Width; w > width {
			width = w
		}
	}
	return fyne.NewSize(width, r.lineHeight()*float32(len(r.texts)))
}

func (r *textHandleRenderer) Refresh() {
	r.rebuild()
	r.Layout(r.handle.Size())
	r.outline.Refresh()
	for _, t := range r.texts {
		t.Refresh()
	}
}

func (r *textHandleRenderer) Objects() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, 0, len(r.texts)+1)
	objs = append(objs, r.outline)
	for _, t := range r.texts {
		objs = append(objs, t)
	}
	return objs
}

func (r *textHandleRenderer) Destroy() {}
