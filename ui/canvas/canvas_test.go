package canvas

import (
	"testing"

	"aq-designs/internal/app"
	"aq-designs/internal/mockup"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCanvas(t *testing.T) (*app.State, *DesignCanvas) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	state := app.NewState(app.Options{
		Width:     300,
		Height:    200,
		MockupDir: t.TempDir(),
		ExportDir: t.TempDir(),
		Loader:    mockup.NewSyncLoader(),
	})
	dc := NewDesignCanvas(state)
	w := test.NewWindow(dc)
	t.Cleanup(w.Close)
	return state, dc
}

func TestHandlesFollowAnnotations(t *testing.T) {
	state, dc := newTestCanvas(t)
	assert.Equal(t, fyne.NewSize(300, 200), dc.MinSize())

	a, err := state.AddAnnotation("Hello", "#ff0000", 20, 30, "Arial", 20)
	require.NoError(t, err)
	require.Equal(t, 1, dc.HandleCount())

	x, y, ok := dc.Position(a.ID)
	require.True(t, ok)
	assert.Equal(t, 20.0, x)
	assert.Equal(t, 30.0, y)

	require.True(t, state.Undo())
	assert.Zero(t, dc.HandleCount())

	require.True(t, state.Redo())
	assert.Equal(t, 1, dc.HandleCount())
	_, _, ok = dc.Position(a.ID)
	assert.True(t, ok, "redo recreates the handle under the same id")
}

func TestDragRepositionsAnnotation(t *testing.T) {
	state, dc := newTestCanvas(t)
	a, err := state.AddAnnotation("Drag", "#000000", 50, 50, "Arial", 20)
	require.NoError(t, err)

	th := dc.handle(a.ID)
	require.NotNil(t, th)
	th.Dragged(&fyne.DragEvent{Dragged: fyne.NewDelta(10, 5)})
	th.Dragged(&fyne.DragEvent{Dragged: fyne.NewDelta(10, 5)})
	th.DragEnd()

	got, _ := state.Annotation(a.ID)
	assert.Equal(t, 70.0, got.X)
	assert.Equal(t, 60.0, got.Y)
	assert.Equal(t, a.ID, state.Selected())
	assert.True(t, th.Selected())

	// Each motion event is an undo step.
	require.True(t, state.Undo())
	got, _ = state.Annotation(a.ID)
	assert.Equal(t, 60.0, got.X)
}

func TestDragIsClampedToSurface(t *testing.T) {
	state, dc := newTestCanvas(t)
	a, err := state.AddAnnotation("Edge", "#000000", 10, 10, "Arial", 20)
	require.NoError(t, err)

	th := dc.handle(a.ID)
	th.Dragged(&fyne.DragEvent{Dragged: fyne.NewDelta(1000, 1000)})
	th.DragEnd()

	got, _ := state.Annotation(a.ID)
	assert.Equal(t, 290.0, got.X)
	assert.Equal(t, 190.0, got.Y)
}

func TestTapSelectsAndBackgroundTapClears(t *testing.T) {
	state, dc := newTestCanvas(t)
	a, err := state.AddAnnotation("Tap", "#000000", 10, 10, "Arial", 20)
	require.NoError(t, err)

	th := dc.handle(a.ID)
	th.Tapped(&fyne.PointEvent{})
	assert.Equal(t, a.ID, state.Selected())
	assert.True(t, th.Selected())

	dc.Tapped(&fyne.PointEvent{})
	assert.Empty(t, state.Selected())
	assert.False(t, th.Selected())
}

func TestDoubleTapRequestsEdit(t *testing.T) {
	state, dc := newTestCanvas(t)
	a, err := state.AddAnnotation("Edit me", "#000000", 10, 10, "Courier New", 16)
	require.NoError(t, err)

	var edited string
	dc.SetOnEdit(func(id string) { edited = id })
	dc.handle(a.ID).DoubleTapped(&fyne.PointEvent{})
	assert.Equal(t, a.ID, edited)

	require.NoError(t, state.EditText(a.ID, "line one\nline two"))
	assert.Equal(t, "line one\nline two", dc.handle(a.ID).Text())
}

func TestTextStyleMatchesExportFont(t *testing.T) {
	assert.Equal(t, fyne.TextStyle{Bold: true}, textStyle("Impact"))
	assert.Equal(t, fyne.TextStyle{Monospace: true}, textStyle("Courier New"))
	assert.Equal(t, fyne.TextStyle{Italic: true}, textStyle("Georgia"))
	assert.Equal(t, fyne.TextStyle{}, textStyle("Arial"))
}
