package mockup

import (
	"log"
	"sync"

	"aq-designs/internal/image"
)

// Slot identifies which scene image a load request targets. Requests for
// different slots never invalidate each other.
type Slot int

const (
	SlotBackground Slot = iota
	SlotOverlay
)

func (s Slot) String() string {
	if s == SlotOverlay {
		return "overlay"
	}
	return "background"
}

// Result is delivered when a load completes.
type Result struct {
	Slot  Slot
	Token uint64
	Path  string
	Layer *image.Layer
	Err   error
}

// DecodeFunc loads a layer from a file path.
type DecodeFunc func(path string) (*image.Layer, error)

// Loader decodes images and tags every request with a monotonic token.
// Only the newest request per slot is delivered; a completion that was
// overtaken by a later request is dropped.
type Loader struct {
	mu     sync.Mutex
	next   uint64
	latest map[Slot]uint64
	done   map[Slot]uint64 // newest token that finished decoding
	wg     sync.WaitGroup

	decode DecodeFunc
	inline bool
}

// NewLoader creates a loader that decodes on background goroutines.
func NewLoader() *Loader {
	return &Loader{
		latest: make(map[Slot]uint64),
		done:   make(map[Slot]uint64),
		decode: image.Load,
	}
}

// NewSyncLoader creates a loader that decodes on the calling goroutine.
// It is used by the headless renderer.
func NewSyncLoader() *Loader {
	l := NewLoader()
	l.inline = true
	return l
}

// SetDecoder replaces the file decoder.
func (l *Loader) SetDecoder(fn DecodeFunc) {
	l.decode = fn
}

// Load starts decoding path into slot and returns the request token.
// done runs once, on the decoding goroutine, unless the request goes stale.
func (l *Loader) Load(slot Slot, path string, done func(Result)) uint64 {
	return l.start(slot, path, func() (*image.Layer, error) {
		return l.decode(path)
	}, done)
}

// LoadBytes is like Load for in-memory uploads.
func (l *Loader) LoadBytes(slot Slot, name string, data []byte, done func(Result)) uint64 {
	return l.start(slot, name, func() (*image.Layer, error) {
		return image.LoadBytes(data, name)
	}, done)
}

func (l *Loader) start(slot Slot, path string, fn func() (*image.Layer, error), done func(Result)) uint64 {
	l.mu.Lock()
	l.next++
	token := l.next
	l.latest[slot] = token
	l.mu.Unlock()

	run := func() {
		layer, err := fn()
		if !l.finish(slot, token) {
			log.Printf("mockup: dropping stale %s load %d (%s)", slot, token, path)
			return
		}
		done(Result{Slot: slot, Token: token, Path: path, Layer: layer, Err: err})
	}

	if l.inline {
		run()
		return token
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		run()
	}()
	return token
}

// finish marks token as decoded and reports whether it is still current.
func (l *Loader) finish(slot Slot, token uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.latest[slot] != token {
		return false
	}
	l.done[slot] = token
	return true
}

// IsPending reports whether the newest request for slot is still decoding.
func (l *Loader) IsPending(slot Slot) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest[slot] != l.done[slot]
}

// IsCurrent reports whether token is the newest request for slot.
func (l *Loader) IsCurrent(slot Slot, token uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest[slot] == token
}

// Invalidate makes every in-flight request for slot stale. It is used when
// the slot is cleared directly, so a late completion cannot bring an old
// image back.
func (l *Loader) Invalidate(slot Slot) {
	l.mu.Lock()
	l.next++
	l.latest[slot] = l.next
	l.done[slot] = l.next
	l.mu.Unlock()
}

// Wait blocks until every started load has finished.
func (l *Loader) Wait() {
	l.wg.Wait()
}
