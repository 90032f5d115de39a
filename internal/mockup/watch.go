package mockup

import (
	"os"
	"sync"
	"time"
)

// Watcher polls the active mockup asset and reports when the file on disk
// is replaced, so an artist's updated mockup shows up without restarting.
type Watcher struct {
	mu       sync.Mutex
	path     string
	baseline time.Time

	checkInterval time.Duration
	stopCh        chan struct{}
	running       bool
	onChange      func(path string) // Called from the polling goroutine
}

// NewWatcher creates a watcher that checks every interval.
func NewWatcher(interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Watcher{checkInterval: interval}
}

// OnChange sets the callback to invoke when the watched file changes.
// The callback is called from a background goroutine.
func (w *Watcher) OnChange(callback func(path string)) {
	w.mu.Lock()
	w.onChange = callback
	w.mu.Unlock()
}

// Watch switches the watcher to path, taking its current modification time
// as the baseline. A missing file has a zero baseline and is reported once
// it appears.
func (w *Watcher) Watch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.path = path
	w.baseline = modTime(path)
}

// Path returns the watched path.
func (w *Watcher) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// Start begins polling in a background goroutine.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.stopCh = make(chan struct{})
	w.running = true
	go w.watchLoop(w.stopCh)
}

// Stop stops the polling goroutine.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	close(w.stopCh)
	w.running = false
}

func (w *Watcher) watchLoop(stopCh chan struct{}) {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if path, changed := w.Check(); changed {
				w.mu.Lock()
				cb := w.onChange
				w.mu.Unlock()
				if cb != nil {
					cb(path)
				}
			}
		}
	}
}

// Check compares the file's modification time with the baseline. When it
// is newer the baseline advances and Check reports the change once.
func (w *Watcher) Check() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.path == "" {
		return "", false
	}
	mt := modTime(w.path)
	if mt.IsZero() || !mt.After(w.baseline) {
		return w.path, false
	}
	w.baseline = mt
	return w.path, true
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
