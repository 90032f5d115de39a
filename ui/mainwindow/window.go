// Package mainwindow provides the main application window.
package mainwindow

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"aq-designs/internal/app"
	"aq-designs/internal/config"
	aqimage "aq-designs/internal/image"
	"aq-designs/internal/scene"
	"aq-designs/internal/version"
	"aq-designs/pkg/colorutil"
	"aq-designs/ui/canvas"
	"aq-designs/ui/prefs"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	appTitle       = "AQ Designs"
	prefKeyLastDir = "lastDirectory"

	// How long an error stays on the banner.
	bannerTimeout = 3 * time.Second
)

// errMissingWidgets halts setup when the window could not be assembled.
var errMissingWidgets = errors.New("required UI elements are missing")

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	state *app.State
	cfg   *config.Config
	prefs *prefs.Prefs

	canvas    *canvas.DesignCanvas
	statusBar *widget.Label

	// Toolbar controls
	itemSelect *widget.Select
	textEntry  *widget.Entry
	fontSelect *widget.Select
	sizeEntry  *widget.Entry
	colorChip  *fynecanvas.Rectangle
	addBtn     *widget.Button
	removeBtn  *widget.Button
	undoBtn    *widget.Button
	redoBtn    *widget.Button
	saveBtn    *widget.Button

	// Current pen for new annotations
	color string

	// Set while the item selector is updated from state, so the change
	// callback does not start another load.
	syncingItem bool

	// Error banner
	banner      *fyne.Container
	bannerText  *widget.Label
	bannerMu    sync.Mutex
	bannerTimer *time.Timer

	ready bool
}

// New creates the main window for state.
func New(fyneApp fyne.App, state *app.State, cfg *config.Config, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		cfg:    cfg,
		prefs:  p,
		color:  p.String(prefs.KeyColor, cfg.Defaults.Color),
	}
	if !colorutil.Valid(mw.color) {
		log.Printf("mainwindow: ignoring saved color %q", mw.color)
		mw.color = cfg.Defaults.Color
	}

	mw.setupUI()
	if err := mw.checkWidgets(); err != nil {
		log.Printf("mainwindow: %v", err)
		state.ReportError(app.MsgMissingElements)
		return mw
	}
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()
	mw.ready = true

	win.SetOnClosed(func() {
		if err := mw.prefs.SaveIfChanged(); err != nil {
			log.Printf("mainwindow: saving preferences: %v", err)
		}
	})
	return mw
}

// Ready reports whether setup completed. A window that is not ready shows
// only the error banner.
func (mw *MainWindow) Ready() bool {
	return mw.ready
}

// DesignCanvas returns the design surface.
func (mw *MainWindow) DesignCanvas() *canvas.DesignCanvas {
	return mw.canvas
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewDesignCanvas(mw.state)
	mw.canvas.SetOnEdit(mw.onEditText)

	mw.statusBar = widget.NewLabel("Ready")

	mw.bannerText = widget.NewLabel("")
	mw.bannerText.TextStyle = fyne.TextStyle{Bold: true}
	mw.bannerText.Wrapping = fyne.TextWrapWord
	bannerBg := fynecanvas.NewRectangle(theme.ErrorColor())
	mw.banner = container.NewStack(bannerBg, container.NewPadded(mw.bannerText))
	mw.banner.Hide()
	// The banner listener is registered before anything else so setup
	// failures are visible too.
	mw.state.On(app.EventError, func(data interface{}) {
		if msg, ok := data.(string); ok {
			mw.showBanner(msg)
		}
	})

	toolbar := mw.createToolbar()

	content := container.NewBorder(
		container.NewVBox(toolbar, mw.banner), // top
		container.NewPadded(mw.statusBar),     // bottom
		nil,                                   // left
		nil,                                   // right
		container.NewScroll(container.NewCenter(mw.canvas)),
	)

	mw.SetContent(content)
	w, h := mw.state.Surface()
	mw.Resize(fyne.NewSize(float32(w)+80, float32(h)+200))
}

// createToolbar creates the toolbar rows above the canvas.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	labels := make([]string, len(scene.Items))
	for i, it := range scene.Items {
		labels[i] = it.Label()
	}
	mw.itemSelect = widget.NewSelect(labels, mw.onItemSelected)

	uploadBtn := widget.NewButtonWithIcon("Upload Image", theme.UploadIcon(), mw.onUpload)
	clearBtn := widget.NewButtonWithIcon("Clear Canvas", theme.ContentClearIcon(), mw.onClearCanvas)
	mw.saveBtn = widget.NewButtonWithIcon("Save Design", theme.DocumentSaveIcon(), mw.onSaveDesign)
	mw.undoBtn = widget.NewButtonWithIcon("", theme.ContentUndoIcon(), mw.onUndo)
	mw.redoBtn = widget.NewButtonWithIcon("", theme.ContentRedoIcon(), mw.onRedo)
	mw.undoBtn.Disable()
	mw.redoBtn.Disable()

	mw.textEntry = widget.NewEntry()
	mw.textEntry.SetPlaceHolder("Enter text")
	mw.textEntry.OnSubmitted = func(string) { mw.onAddText() }

	mw.fontSelect = widget.NewSelect(aqimage.FontFamilies, func(string) { mw.onStyleChanged() })
	mw.fontSelect.SetSelected(mw.prefs.String(prefs.KeyFont, mw.cfg.Defaults.Font))

	mw.sizeEntry = widget.NewEntry()
	mw.sizeEntry.SetText(strconv.Itoa(mw.prefs.Int(prefs.KeyFontSize, mw.cfg.Defaults.Size)))
	mw.sizeEntry.Validator = func(s string) error {
		if n, err := strconv.Atoi(s); err != nil || n <= 0 {
			return fmt.Errorf("size must be a positive number")
		}
		return nil
	}
	mw.sizeEntry.OnSubmitted = func(string) { mw.onStyleChanged() }

	mw.colorChip = fynecanvas.NewRectangle(colorutil.MustParse(mw.color, colorutil.Black))
	mw.colorChip.SetMinSize(fyne.NewSize(24, 24))
	mw.colorChip.StrokeColor = color.Gray{Y: 0x80}
	mw.colorChip.StrokeWidth = 1
	colorBtn := widget.NewButtonWithIcon("Color", theme.ColorPaletteIcon(), mw.onPickColor)

	swatches := make([]fyne.CanvasObject, 0, len(colorutil.Palette))
	for _, hex := range colorutil.Palette {
		swatches = append(swatches, mw.newSwatch(hex))
	}

	mw.addBtn = widget.NewButtonWithIcon("Add Text", theme.ContentAddIcon(), mw.onAddText)
	mw.removeBtn = widget.NewButtonWithIcon("Remove Selected", theme.DeleteIcon(), mw.onRemoveSelected)

	row1 := container.NewHBox(
		widget.NewLabel("Item:"), mw.itemSelect,
		uploadBtn, clearBtn,
		widget.NewSeparator(),
		mw.undoBtn, mw.redoBtn,
		widget.NewSeparator(),
		mw.saveBtn,
	)
	row2 := container.NewBorder(nil, nil, nil,
		container.NewHBox(
			mw.fontSelect,
			container.NewGridWrap(fyne.NewSize(60, mw.sizeEntry.MinSize().Height), mw.sizeEntry),
			container.NewCenter(mw.colorChip), colorBtn,
			mw.addBtn, mw.removeBtn,
		),
		mw.textEntry,
	)
	row3 := container.NewGridWrap(fyne.NewSize(24, 24), swatches...)

	mw.syncItem(mw.state.Item())
	return container.NewVBox(row1, row2, row3)
}

// newSwatch creates a palette button for hex.
func (mw *MainWindow) newSwatch(hex string) fyne.CanvasObject {
	btn := widget.NewButton("", func() { mw.setColor(hex) })
	chip := fynecanvas.NewRectangle(colorutil.MustParse(hex, colorutil.Black))
	chip.StrokeColor = color.Gray{Y: 0x80}
	chip.StrokeWidth = 1
	return container.NewStack(btn, container.NewPadded(chip))
}

// checkWidgets verifies every control the handlers rely on exists.
func (mw *MainWindow) checkWidgets() error {
	if mw.canvas == nil || mw.itemSelect == nil || mw.textEntry == nil ||
		mw.fontSelect == nil || mw.sizeEntry == nil || mw.banner == nil {
		return errMissingWidgets
	}
	return nil
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Upload Image...", mw.onUpload),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Design", mw.onSaveDesign),
		fyne.NewMenuItem("Save Design To...", mw.onSaveDesignTo),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", mw.onUndo),
		fyne.NewMenuItem("Redo", mw.onRedo),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Edit Selected Text...", func() { mw.onEditText(mw.state.Selected()) }),
		fyne.NewMenuItem("Remove Selected", mw.onRemoveSelected),
		fyne.NewMenuItem("Clear All Text", mw.onClearTexts),
		fyne.NewMenuItem("Clear Canvas", mw.onClearCanvas),
	)

	items := make([]*fyne.MenuItem, len(scene.Items))
	for i, it := range scene.Items {
		it := it
		items[i] = fyne.NewMenuItem(it.Label(), func() { mw.itemSelect.SetSelected(it.Label()) })
	}
	itemMenu := fyne.NewMenu("Item", items...)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, itemMenu, helpMenu))
}

// setupShortcuts binds Ctrl+Z / Ctrl+Y (and Cmd on macOS) to undo and redo.
func (mw *MainWindow) setupShortcuts() {
	for _, mod := range []fyne.KeyModifier{fyne.KeyModifierControl, fyne.KeyModifierSuper} {
		mw.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: mod},
			func(fyne.Shortcut) { mw.onUndo() })
		mw.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: mod},
			func(fyne.Shortcut) { mw.onRedo() })
	}
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventHistoryChanged, func(data interface{}) {
		if st, ok := data.(app.HistoryStatus); ok {
			setEnabled(mw.undoBtn, st.CanUndo)
			setEnabled(mw.redoBtn, st.CanRedo)
		}
	})

	mw.state.On(app.EventSelectionChanged, func(data interface{}) {
		id, _ := data.(string)
		if id == "" {
			mw.updateStatus("Ready")
			return
		}
		if a, ok := mw.state.Annotation(id); ok {
			mw.updateStatus(fmt.Sprintf("Selected %q", a.Text))
		}
	})

	mw.state.On(app.EventItemChanged, func(data interface{}) {
		if item, ok := data.(scene.ItemType); ok {
			mw.syncItem(item)
			mw.updateStatus(item.Label() + " mockup loaded")
		}
	})

	mw.state.On(app.EventExported, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.updateStatus("Design saved to " + path)
		}
	})
}

func setEnabled(b *widget.Button, enabled bool) {
	if enabled {
		b.Enable()
	} else {
		b.Disable()
	}
}

// syncItem shows item in the selector without triggering a reload.
func (mw *MainWindow) syncItem(item scene.ItemType) {
	mw.syncingItem = true
	mw.itemSelect.SetSelected(item.Label())
	mw.syncingItem = false
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// showBanner displays msg for bannerTimeout. A newer message replaces the
// current one and restarts the timer.
func (mw *MainWindow) showBanner(msg string) {
	mw.bannerMu.Lock()
	defer mw.bannerMu.Unlock()

	mw.bannerText.SetText(msg)
	mw.banner.Show()
	if mw.bannerTimer != nil {
		mw.bannerTimer.Stop()
	}
	mw.bannerTimer = time.AfterFunc(bannerTimeout, func() {
		mw.bannerMu.Lock()
		defer mw.bannerMu.Unlock()
		mw.banner.Hide()
	})
}

// BannerVisible reports whether an error is on screen.
func (mw *MainWindow) BannerVisible() bool {
	return mw.banner.Visible()
}

// BannerText returns the current banner message.
func (mw *MainWindow) BannerText() string {
	return mw.bannerText.Text
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.app.Preferences().String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.app.Preferences().SetString(prefKeyLastDir, filepath.Dir(filePath))
}

// currentSize parses the size entry, falling back to the configured size.
func (mw *MainWindow) currentSize() int {
	n, err := strconv.Atoi(mw.sizeEntry.Text)
	if err != nil || n <= 0 {
		return mw.cfg.Defaults.Size
	}
	return n
}

// Toolbar and menu handlers

func (mw *MainWindow) onItemSelected(label string) {
	if mw.syncingItem {
		return
	}
	item := scene.ParseItemType(label)
	mw.prefs.SetString(prefs.KeyItem, item.String())
	mw.updateStatus("Loading " + item.Label() + " mockup...")
	mw.state.SelectItem(item)
}

func (mw *MainWindow) onUpload() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		path := reader.URI().Path()
		mw.saveLastDir(path)
		data, err := io.ReadAll(reader)
		if err != nil {
			log.Printf("mainwindow: reading %s: %v", path, err)
			mw.state.ReportError(app.MsgReadFailed)
			return
		}
		mw.updateStatus("Loading " + filepath.Base(path) + "...")
		mw.state.LoadOverlayBytes(filepath.Base(path), data)
	}, mw.Window)

	fd.SetFilter(storage.NewExtensionFileFilter(aqimage.SupportedFormats()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onAddText() {
	size := mw.currentSize()
	font := mw.fontSelect.Selected
	x, y := app.DefaultPosition(float64(mw.canvas.Surface().Width), float64(mw.canvas.Surface().Height), size)

	a, err := mw.state.AddAnnotation(mw.textEntry.Text, mw.color, x, y, font, size)
	if err != nil {
		return
	}
	mw.textEntry.SetText("")
	if err := mw.state.Select(a.ID); err != nil {
		log.Printf("mainwindow: select new annotation: %v", err)
	}
}

// onStyleChanged applies the font controls to the selection and remembers
// them for new annotations.
func (mw *MainWindow) onStyleChanged() {
	if !mw.ready {
		return
	}
	font, size := mw.fontSelect.Selected, mw.currentSize()
	mw.prefs.SetString(prefs.KeyFont, font)
	mw.prefs.SetInt(prefs.KeyFontSize, size)

	if id := mw.state.Selected(); id != "" {
		if a, ok := mw.state.Annotation(id); ok && (a.Font != font || a.Size != size) {
			_ = mw.state.Restyle(id, font, size)
		}
	}
}

func (mw *MainWindow) onPickColor() {
	picker := dialog.NewColorPicker("Text Color", "Pick a color for the text", func(c color.Color) {
		mw.setColor(colorutil.Hex(c))
	}, mw.Window)
	picker.Advanced = true
	picker.SetColor(colorutil.MustParse(mw.color, colorutil.Black))
	picker.Show()
}

// setColor makes hex the pen color and recolors the selection, if any.
func (mw *MainWindow) setColor(hex string) {
	mw.color = hex
	mw.prefs.SetString(prefs.KeyColor, hex)
	mw.colorChip.FillColor = colorutil.MustParse(hex, colorutil.Black)
	mw.colorChip.Refresh()
	_ = mw.state.RecolorSelected(hex)
}

func (mw *MainWindow) onRemoveSelected() {
	_ = mw.state.RemoveSelected()
}

func (mw *MainWindow) onClearTexts() {
	mw.state.ClearAll()
}

func (mw *MainWindow) onClearCanvas() {
	mw.state.ClearCanvas()
	mw.updateStatus("Canvas cleared")
}

func (mw *MainWindow) onUndo() {
	if !mw.state.Undo() {
		mw.updateStatus("Nothing to undo")
	}
}

func (mw *MainWindow) onRedo() {
	if !mw.state.Redo() {
		mw.updateStatus("Nothing to redo")
	}
}

// onEditText opens an editor for the annotation's text.
func (mw *MainWindow) onEditText(id string) {
	a, ok := mw.state.Annotation(id)
	if !ok {
		mw.state.ReportError(app.MsgNothingSelected)
		return
	}

	entry := widget.NewMultiLineEntry()
	entry.SetText(a.Text)
	entry.SetMinRowsVisible(3)
	dialog.ShowForm("Edit Text", "Save", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Text", entry)},
		func(confirmed bool) {
			if !confirmed || entry.Text == a.Text {
				return
			}
			_ = mw.state.EditText(id, entry.Text)
		}, mw.Window)
}

func (mw *MainWindow) onSaveDesign() {
	if _, err := mw.state.Export(); err != nil {
		log.Printf("mainwindow: export: %v", err)
	}
}

func (mw *MainWindow) onSaveDesignTo() {
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		if uri == nil {
			return
		}
		dir := uri.Path()
		mw.state.SetExportDir(dir)
		mw.prefs.SetString(prefs.KeyExportDir, dir)
		mw.onSaveDesign()
	}, mw.Window)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s %s\n\n"+
			"Apparel mockup editor: pick an item, add artwork and text,\n"+
			"then save a flattened design.",
			appTitle, version.String()),
		mw.Window)
}
