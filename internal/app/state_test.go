package app

import (
	"bytes"
	stdimage "image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"aq-designs/internal/image"
	"aq-designs/internal/mockup"
	"aq-designs/internal/scene"
	"aq-designs/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHandles records the handle set the state maintains.
type fakeHandles struct {
	mu        sync.Mutex
	live      map[string]scene.Annotation
	created   int
	destroyed int
	dragged   map[string][2]float64 // positions reported instead of the recorded ones
}

func newFakeHandles() *fakeHandles {
	return &fakeHandles{
		live:    make(map[string]scene.Annotation),
		dragged: make(map[string][2]float64),
	}
}

func (f *fakeHandles) Create(a scene.Annotation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live[a.ID] = a
	f.created++
}

func (f *fakeHandles) Destroy(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.live, id)
	f.destroyed++
}

func (f *fakeHandles) update(id string, fn func(a *scene.Annotation)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.live[id]
	fn(&a)
	f.live[id] = a
}

func (f *fakeHandles) Move(id string, x, y float64) {
	f.update(id, func(a *scene.Annotation) { a.X, a.Y = x, y })
}

func (f *fakeHandles) SetColor(id, color string) {
	f.update(id, func(a *scene.Annotation) { a.Color = color })
}

func (f *fakeHandles) SetText(id, text string) {
	f.update(id, func(a *scene.Annotation) { a.Text = text })
}

func (f *fakeHandles) SetStyle(id, font string, size int) {
	f.update(id, func(a *scene.Annotation) { a.Font, a.Size = font, size })
}

func (f *fakeHandles) Position(id string) (float64, float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.dragged[id]; ok {
		return p[0], p[1], true
	}
	a, ok := f.live[id]
	return a.X, a.Y, ok
}

func (f *fakeHandles) snapshot() map[string]scene.Annotation {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]scene.Annotation, len(f.live))
	for k, v := range f.live {
		out[k] = v
	}
	return out
}

type errorLog struct {
	mu   sync.Mutex
	msgs []string
}

func (e *errorLog) add(data interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = append(e.msgs, data.(string))
}

func (e *errorLog) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.msgs...)
}

func newTestState(t *testing.T) (*State, *fakeHandles, *errorLog) {
	t.Helper()
	s := NewState(Options{
		Width:     400,
		Height:    300,
		MockupDir: t.TempDir(),
		ExportDir: t.TempDir(),
		Loader:    mockup.NewSyncLoader(),
	})
	h := newFakeHandles()
	s.SetHandles(h)
	errs := &errorLog{}
	s.On(EventError, errs.add)
	return s, h, errs
}

func requireHandlesMatch(t *testing.T, s *State, h *fakeHandles) {
	t.Helper()
	anns := s.Annotations()
	live := h.snapshot()
	require.Len(t, live, len(anns), "one handle per annotation")
	for _, a := range anns {
		assert.Equal(t, a, live[a.ID])
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func overlayLayer(w, h int) *image.Layer {
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	return image.NewLayerFromImage(img, "upload.png")
}

func TestAddAnnotationRejectsEmptyText(t *testing.T) {
	s, h, errs := newTestState(t)

	for _, text := range []string{"", "   ", "\t\n"} {
		a, err := s.AddAnnotation(text, "#000000", 10, 10, "Arial", 20)
		assert.ErrorIs(t, err, ErrEmptyText)
		assert.Nil(t, a)
	}

	assert.Empty(t, s.Annotations())
	assert.Equal(t, 1, s.History().Len)
	assert.Zero(t, h.created)
	assert.Equal(t, []string{MsgEmptyText, MsgEmptyText, MsgEmptyText}, errs.all())
}

func TestAddAnnotation(t *testing.T) {
	s, h, _ := newTestState(t)

	a, err := s.AddAnnotation("  Hello  ", "red", 12, 34, "Georgia", 28)
	require.NoError(t, err)
	assert.Equal(t, "Hello", a.Text)
	assert.Len(t, a.ID, 36)

	anns := s.Annotations()
	require.Len(t, anns, 1)
	assert.Equal(t, *a, anns[0])
	requireHandlesMatch(t, s, h)

	st := s.History()
	assert.Equal(t, 2, st.Len)
	assert.True(t, st.CanUndo)
	assert.False(t, st.CanRedo)
}

func TestAddAnnotationDefaults(t *testing.T) {
	s, _, _ := newTestState(t)
	a, err := s.AddAnnotation("x", "", 0, 0, "", 0)
	require.NoError(t, err)
	assert.Equal(t, image.DefaultFontFamily, a.Font)
	assert.Equal(t, image.DefaultFontSize, a.Size)
	assert.Equal(t, "#000000", a.Color)
}

func TestUndoIsLeftInverse(t *testing.T) {
	s, h, _ := newTestState(t)
	first, err := s.AddAnnotation("keep", "#111111", 5, 5, "Arial", 20)
	require.NoError(t, err)
	before := s.Snapshot()

	second, err := s.AddAnnotation("second", "#222222", 50, 60, "Impact", 30)
	require.NoError(t, err)
	actions := []func() error{
		func() error { return s.Recolor(first.ID, "blue") },
		func() error { return s.Reposition(first.ID, 100, 120) },
		func() error { return s.Reposition(first.ID, 101, 121) },
		func() error { return s.EditText(second.ID, "edited") },
		func() error { return s.Restyle(second.ID, "Courier New", 14) },
		func() error { s.SetOverlay(overlayLayer(20, 10)); return nil },
		func() error { return s.RemoveAnnotation(first.ID) },
		func() error { s.ClearAll(); return nil },
	}
	for _, act := range actions {
		require.NoError(t, act())
	}

	n := len(actions) + 1
	for i := 0; i < n; i++ {
		require.True(t, s.Undo(), "undo %d", i)
	}

	assert.Equal(t, before, s.Snapshot())
	requireHandlesMatch(t, s, h)
}

func TestUndoAtOldestIsNoop(t *testing.T) {
	s, _, _ := newTestState(t)
	assert.False(t, s.Undo())
	assert.False(t, s.Redo())
	assert.Equal(t, 0, s.History().Index)
}

func TestRedoAfterUndo(t *testing.T) {
	s, h, _ := newTestState(t)
	a, err := s.AddAnnotation("one", "#000000", 1, 2, "Arial", 20)
	require.NoError(t, err)
	require.NoError(t, s.Reposition(a.ID, 40, 50))
	want := s.Snapshot()

	require.True(t, s.Undo())
	got, _ := s.Annotation(a.ID)
	assert.Equal(t, 1.0, got.X)

	require.True(t, s.Redo())
	assert.Equal(t, want, s.Snapshot())
	assert.False(t, s.Redo())
	requireHandlesMatch(t, s, h)
}

func TestMutationAfterUndoDiscardsRedo(t *testing.T) {
	s, _, _ := newTestState(t)
	_, err := s.AddAnnotation("s1", "#000000", 0, 0, "Arial", 20)
	require.NoError(t, err)
	_, err = s.AddAnnotation("s2", "#000000", 0, 0, "Arial", 20)
	require.NoError(t, err)
	require.Equal(t, 3, s.History().Len)

	require.True(t, s.Undo())
	require.True(t, s.Undo())
	assert.Empty(t, s.Annotations())

	_, err = s.AddAnnotation("a", "#000000", 0, 0, "Arial", 20)
	require.NoError(t, err)

	st := s.History()
	assert.Equal(t, 2, st.Len)
	assert.Equal(t, 1, st.Index)
	assert.False(t, st.CanRedo)
	assert.False(t, s.Redo())
	require.Len(t, s.Annotations(), 1)
	assert.Equal(t, "a", s.Annotations()[0].Text)
}

func TestRestoreRecreatesHandlesWithSameIDs(t *testing.T) {
	s, h, _ := newTestState(t)
	a, err := s.AddAnnotation("x", "#000000", 3, 4, "Verdana", 18)
	require.NoError(t, err)
	require.NoError(t, s.RemoveAnnotation(a.ID))
	assert.Empty(t, h.snapshot())

	require.True(t, s.Undo())
	live := h.snapshot()
	require.Contains(t, live, a.ID)
	assert.Equal(t, *a, live[a.ID])
}

func TestRemoveWithoutSelection(t *testing.T) {
	s, _, errs := newTestState(t)
	_, err := s.AddAnnotation("x", "#000000", 0, 0, "Arial", 20)
	require.NoError(t, err)
	lenBefore := s.History().Len

	assert.ErrorIs(t, s.RemoveSelected(), ErrNothingSelected)
	assert.ErrorIs(t, s.RemoveAnnotation("missing"), ErrNothingSelected)
	assert.Len(t, s.Annotations(), 1)
	assert.Equal(t, lenBefore, s.History().Len)
	assert.Equal(t, []string{MsgNothingSelected, MsgNothingSelected}, errs.all())
}

func TestSelectionDrivenActions(t *testing.T) {
	s, h, _ := newTestState(t)
	a, err := s.AddAnnotation("x", "#000000", 0, 0, "Arial", 20)
	require.NoError(t, err)

	var selections []string
	s.On(EventSelectionChanged, func(data interface{}) { selections = append(selections, data.(string)) })

	assert.ErrorIs(t, s.Select("nope"), ErrNotFound)
	require.NoError(t, s.Select(a.ID))
	assert.Equal(t, a.ID, s.Selected())

	require.NoError(t, s.RecolorSelected("#00ff00"))
	got, _ := s.Annotation(a.ID)
	assert.Equal(t, "#00ff00", got.Color)
	assert.Equal(t, "#00ff00", h.snapshot()[a.ID].Color)

	require.NoError(t, s.RemoveSelected())
	assert.Empty(t, s.Annotations())
	assert.Empty(t, s.Selected())
	assert.Equal(t, []string{a.ID, ""}, selections)
}

func TestRecolorSelectedWithoutSelectionIsQuiet(t *testing.T) {
	s, _, errs := newTestState(t)
	assert.NoError(t, s.RecolorSelected("#ff0000"))
	assert.Equal(t, 1, s.History().Len)
	assert.Empty(t, errs.all())
}

func TestRecolorRejectsInvalidColor(t *testing.T) {
	s, _, errs := newTestState(t)
	a, err := s.AddAnnotation("x", "#000000", 0, 0, "Arial", 20)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Recolor(a.ID, "not-a-colour"), ErrInvalidColor)
	got, _ := s.Annotation(a.ID)
	assert.Equal(t, "#000000", got.Color)
	require.Len(t, errs.all(), 1)
	assert.Contains(t, errs.all()[0], "not-a-colour")
}

func TestUnknownAnnotation(t *testing.T) {
	s, _, _ := newTestState(t)
	assert.ErrorIs(t, s.Reposition("nope", 1, 1), ErrNotFound)
	assert.ErrorIs(t, s.EditText("nope", "x"), ErrNotFound)
	assert.ErrorIs(t, s.Recolor("nope", "red"), ErrNotFound)
	assert.ErrorIs(t, s.Restyle("nope", "Arial", 12), ErrNotFound)
	assert.ErrorIs(t, s.Restyle("nope", "Arial", 0), ErrInvalidSize)
	assert.Equal(t, 1, s.History().Len)
}

func TestRepositionSnapshotsEveryStep(t *testing.T) {
	s, h, _ := newTestState(t)
	a, err := s.AddAnnotation("drag me", "#000000", 0, 0, "Arial", 20)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Reposition(a.ID, float64(i), float64(i*2)))
	}
	assert.Equal(t, 7, s.History().Len)
	assert.Equal(t, [2]float64{5, 10}, [2]float64{h.snapshot()[a.ID].X, h.snapshot()[a.ID].Y})

	require.True(t, s.Undo())
	got, _ := s.Annotation(a.ID)
	assert.Equal(t, 4.0, got.X)
}

func TestClearCanvas(t *testing.T) {
	s, h, _ := newTestState(t)
	_, err := s.AddAnnotation("x", "#000000", 0, 0, "Arial", 20)
	require.NoError(t, err)
	s.SetOverlay(overlayLayer(10, 10))

	s.ClearCanvas()
	assert.Nil(t, s.Overlay())
	assert.Nil(t, s.Background())
	assert.Empty(t, s.Annotations())
	assert.Empty(t, h.snapshot())
}

func TestSelectItemLoadsMockup(t *testing.T) {
	s, h, errs := newTestState(t)
	writePNG(t, s.Catalog().AssetPath(scene.ItemHoodie), 40, 30)

	_, err := s.AddAnnotation("gone", "#000000", 0, 0, "Arial", 20)
	require.NoError(t, err)
	s.SetOverlay(overlayLayer(10, 10))

	var items []scene.ItemType
	s.On(EventItemChanged, func(data interface{}) { items = append(items, data.(scene.ItemType)) })

	s.SelectItem(scene.ItemHoodie)
	s.Wait()

	assert.Empty(t, errs.all())
	assert.Equal(t, scene.ItemHoodie, s.Item())
	require.NotNil(t, s.Background())
	assert.Equal(t, 40, s.Background().Width())
	assert.Nil(t, s.Overlay())
	assert.Empty(t, s.Annotations())
	assert.Empty(t, h.snapshot())
	assert.Equal(t, []scene.ItemType{scene.ItemHoodie}, items)

	// One undo brings back the previous item's scene in full.
	require.True(t, s.Undo())
	assert.Equal(t, scene.ItemJacket, s.Item())
	assert.NotNil(t, s.Overlay())
	assert.Len(t, s.Annotations(), 1)
}

func TestSelectItemFailureLeavesSceneUntouched(t *testing.T) {
	s, _, errs := newTestState(t)
	_, err := s.AddAnnotation("stay", "#000000", 0, 0, "Arial", 20)
	require.NoError(t, err)
	before := s.Snapshot()
	lenBefore := s.History().Len

	s.SelectItem(scene.ItemTShirt)
	s.Wait()

	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, lenBefore, s.History().Len)
	msgs := errs.all()
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0], MsgBackgroundFailed))
	assert.True(t, strings.HasSuffix(msgs[0], "tshirt-default.png"))
}

func TestReloadBackgroundKeepsAnnotations(t *testing.T) {
	s, _, _ := newTestState(t)
	path := s.Catalog().AssetPath(scene.ItemJacket)
	writePNG(t, path, 10, 10)
	s.SelectItem(scene.ItemJacket)
	s.Wait()
	_, err := s.AddAnnotation("stay", "#000000", 0, 0, "Arial", 20)
	require.NoError(t, err)

	writePNG(t, path, 20, 20)
	s.ReloadBackground()
	s.Wait()

	assert.Equal(t, 20, s.Background().Width())
	assert.Len(t, s.Annotations(), 1)
}

func TestLoadOverlayFailures(t *testing.T) {
	s, _, errs := newTestState(t)

	_, err := s.LoadOverlay(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)

	s.LoadOverlayBytes("broken.png", []byte("not an image"))
	s.Wait()

	assert.Nil(t, s.Overlay())
	assert.Equal(t, 1, s.History().Len)
	assert.Equal(t, []string{MsgReadFailed, MsgOverlayFailed}, errs.all())
}

func TestOverlayKeepsAspectRatio(t *testing.T) {
	tests := []struct {
		w, h int
		want geometry.Rect
	}{
		{800, 400, geometry.NewRect(0, 50, 400, 200)},
		{200, 400, geometry.NewRect(125, 0, 150, 300)},
	}
	for _, tt := range tests {
		s, _, _ := newTestState(t)
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, overlayLayer(tt.w, tt.h).Image))

		s.LoadOverlayBytes("upload.png", buf.Bytes())
		s.Wait()

		require.NotNil(t, s.Overlay())
		assert.Equal(t, tt.want, s.LiveRender().OverlayRect)
		assert.False(t, s.LiveRender().TextRasterized)
	}
}

func TestExportRasterizesTextThenRestoresLiveView(t *testing.T) {
	s, h, _ := newTestState(t)
	a, err := s.AddAnnotation("MMMM", "#ff0000", 10, 10, "Arial Black", 40)
	require.NoError(t, err)

	// The handle was dragged by the UI without a recorded reposition.
	h.mu.Lock()
	h.dragged[a.ID] = [2]float64{200, 150}
	h.mu.Unlock()

	var redraws []bool
	s.On(EventRedraw, func(data interface{}) {
		redraws = append(redraws, data.(image.RenderResult).TextRasterized)
	})

	res, err := s.Export()
	require.NoError(t, err)

	assert.True(t, res.Rendered.TextRasterized)
	assert.False(t, res.Live.TextRasterized)
	assert.Equal(t, []bool{false}, redraws)
	assert.Equal(t, filepath.Join(s.ExportDir(), "aqdesigns_design.png"), res.Path)
	assert.FileExists(t, res.Path)

	got, _ := s.Annotation(a.ID)
	assert.Equal(t, 200.0, got.X)
	assert.Equal(t, 150.0, got.Y)

	// Text pixels land in the export but not in the live view.
	area := stdimage.Rect(200, 150, 400, 300)
	assert.Positive(t, countOpaque(res.Rendered.Image, area))
	assert.Zero(t, countOpaque(res.Live.Image, area))
}

func countOpaque(img stdimage.Image, r stdimage.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
				n++
			}
		}
	}
	return n
}

func TestExportTo(t *testing.T) {
	s, _, _ := newTestState(t)
	var buf bytes.Buffer
	res, err := s.ExportTo(&buf)
	require.NoError(t, err)
	assert.Empty(t, res.Path)

	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
}

func TestDefaultPosition(t *testing.T) {
	x, y := DefaultPosition(600, 400, 20)
	assert.Equal(t, 250.0, x)
	assert.Equal(t, 190.0, y)
}

// newGatedState returns a state whose mockup decodes block until the
// returned channel is closed.
func newGatedState(t *testing.T) (*State, chan struct{}) {
	t.Helper()
	release := make(chan struct{})
	loader := mockup.NewLoader()
	loader.SetDecoder(func(path string) (*image.Layer, error) {
		<-release
		return image.NewLayerFromImage(stdimage.NewRGBA(stdimage.Rect(0, 0, 40, 30)), path), nil
	})
	s := NewState(Options{
		Width:     400,
		Height:    300,
		MockupDir: t.TempDir(),
		ExportDir: t.TempDir(),
		Loader:    loader,
	})
	s.SetHandles(newFakeHandles())
	return s, release
}

func TestSelectItemKeepsWorkAddedWhileLoading(t *testing.T) {
	s, release := newGatedState(t)
	old, err := s.AddAnnotation("before", "#000000", 0, 0, "Arial", 20)
	require.NoError(t, err)
	require.NoError(t, s.Select(old.ID))

	s.SelectItem(scene.ItemHoodie)
	upload := overlayLayer(8, 4)
	s.SetOverlay(upload)
	added, err := s.AddAnnotation("after", "#000000", 0, 0, "Arial", 20)
	require.NoError(t, err)

	close(release)
	s.Wait()

	assert.Equal(t, scene.ItemHoodie, s.Item())
	assert.Same(t, upload, s.Overlay())
	anns := s.Annotations()
	require.Len(t, anns, 1)
	assert.Equal(t, added.ID, anns[0].ID)
	assert.Empty(t, s.Selected())
}

func TestSelectItemDropsOverlayRequestedBefore(t *testing.T) {
	s, release := newGatedState(t)
	s.SetOverlay(overlayLayer(8, 4))

	s.SelectItem(scene.ItemTShirt)
	close(release)
	s.Wait()

	assert.Nil(t, s.Overlay())
	assert.Equal(t, scene.ItemTShirt, s.Item())
}

func TestReloadDuringItemSwitchIsSkipped(t *testing.T) {
	s, release := newGatedState(t)

	s.SelectItem(scene.ItemHoodie)
	assert.Zero(t, s.ReloadBackground())

	close(release)
	s.Wait()

	assert.Equal(t, scene.ItemHoodie, s.Item())
	require.NotNil(t, s.Background())
	assert.Equal(t, s.Catalog().AssetPath(scene.ItemHoodie), s.Background().Path)
}

func TestReloadBackgroundKeepsRedo(t *testing.T) {
	s, _, _ := newTestState(t)
	path := s.Catalog().AssetPath(scene.ItemJacket)
	writePNG(t, path, 10, 10)
	s.SelectItem(scene.ItemJacket)
	s.Wait()
	_, err := s.AddAnnotation("one", "#000000", 0, 0, "Arial", 20)
	require.NoError(t, err)
	require.True(t, s.Undo())
	before := s.History()
	require.True(t, before.CanRedo)

	writePNG(t, path, 20, 20)
	s.ReloadBackground()
	s.Wait()

	assert.Equal(t, before, s.History())
	assert.Equal(t, 20, s.Background().Width())

	// Stepping through history never brings the old file contents back.
	require.True(t, s.Redo())
	assert.Equal(t, 20, s.Background().Width())
	assert.Len(t, s.Annotations(), 1)
}

func TestUndoRacingOverlayLoadsKeepsLogInStep(t *testing.T) {
	s, _, _ := newTestState(t)
	for i := 0; i < 20; i++ {
		_, err := s.AddAnnotation("step", "#000000", float64(i), 0, "Arial", 20)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			s.SetOverlay(overlayLayer(4, 4))
		}
	}()
	for i := 0; i < 50; i++ {
		s.Undo()
		s.Redo()
		s.Undo()
	}
	wg.Wait()

	cur, ok := s.history.Current()
	require.True(t, ok)
	live := s.Snapshot()
	assert.Same(t, cur.Overlay, live.Overlay)
	assert.Equal(t, cur.Annotations, live.Annotations)
}

func TestAddAnnotationRejectsInvalidColor(t *testing.T) {
	s, h, errs := newTestState(t)

	_, err := s.AddAnnotation("x", "nope", 0, 0, "Arial", 20)
	assert.ErrorIs(t, err, ErrInvalidColor)
	assert.Empty(t, s.Annotations())
	assert.Empty(t, h.snapshot())
	assert.Equal(t, 1, s.History().Len)
	require.Len(t, errs.all(), 1)
	assert.Contains(t, errs.all()[0], "nope")
}
