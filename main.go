// Package main provides the entry point for the AQ Designs mockup editor.
package main

import (
	"flag"
	"log"

	"aq-designs/internal/app"
	"aq-designs/internal/config"
	"aq-designs/internal/mockup"
	"aq-designs/internal/scene"
	"aq-designs/internal/version"
	"aq-designs/ui/mainwindow"
	"aq-designs/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

const appID = "com.aqdesigns.editor"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", config.DefaultFile, "path to the YAML config file")
	flag.Parse()

	log.Printf("Starting AQ Designs %s", version.String())

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	a := fyneapp.NewWithID(appID)
	a.Settings().SetTheme(&app.DesignTheme{})

	appPrefs := prefs.Load()
	state := app.NewStateFromConfig(cfg, mockup.NewLoader())
	if dir := appPrefs.String(prefs.KeyExportDir, ""); dir != "" {
		state.SetExportDir(dir)
	}

	win := mainwindow.New(a, state, cfg, appPrefs)
	if win.Ready() {
		item := scene.ParseItemType(appPrefs.String(prefs.KeyItem, cfg.Defaults.Item))
		state.SelectItem(item)
		setupMockupWatch(cfg, state)
	}

	win.ShowAndRun()
}

// setupMockupWatch reloads the background when the active mockup file is
// replaced on disk.
func setupMockupWatch(cfg *config.Config, state *app.State) {
	if cfg.Watch.Interval <= 0 {
		return
	}

	watcher := mockup.NewWatcher(cfg.Watch.Interval)
	watcher.Watch(state.Catalog().AssetPath(state.Item()))

	state.On(app.EventItemChanged, func(data interface{}) {
		if item, ok := data.(scene.ItemType); ok {
			watcher.Watch(state.Catalog().AssetPath(item))
		}
	})
	watcher.OnChange(func(path string) {
		log.Printf("Mockup watch: %s changed, reloading", path)
		state.ReloadBackground()
	})

	log.Printf("Mockup watch: polling every %s", cfg.Watch.Interval)
	watcher.Start()
}
