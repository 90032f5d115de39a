// Package history provides the linear undo/redo log of scene snapshots.
package history

import (
	"sync"

	"aq-designs/internal/image"
	"aq-designs/internal/scene"
)

const (
	// DefaultMaxDepth is the number of snapshots kept when no depth is configured.
	DefaultMaxDepth = 500
	// MaxDepthLimit is the absolute maximum number of snapshots allowed.
	MaxDepthLimit = 10000
)

// Log is an ordered sequence of snapshots plus the index of the entry that
// matches the live scene. Taking a snapshot after an undo discards every
// redo entry; there is no branching.
//
// When the log is full the oldest snapshot is evicted and the index moves
// with the remaining entries.
type Log struct {
	mu       sync.RWMutex
	entries  []scene.Snapshot
	index    int // -1 while empty
	maxDepth int
}

// New creates a log holding at most maxDepth snapshots.
// If maxDepth is 0 or negative, DefaultMaxDepth is used.
// If maxDepth exceeds MaxDepthLimit, it is clamped to MaxDepthLimit.
func New(maxDepth int) *Log {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if maxDepth > MaxDepthLimit {
		maxDepth = MaxDepthLimit
	}
	return &Log{
		index:    -1,
		maxDepth: maxDepth,
	}
}

// Snapshot truncates the log to [0, index], appends snap and makes it current.
func (l *Log) Snapshot(snap scene.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries[:l.index+1], snap)
	if len(l.entries) > l.maxDepth {
		drop := len(l.entries) - l.maxDepth
		// Zero the evicted slots so their images can be collected.
		for i := 0; i < drop; i++ {
			l.entries[i] = scene.Snapshot{}
		}
		l.entries = append([]scene.Snapshot(nil), l.entries[drop:]...)
	}
	l.index = len(l.entries) - 1
}

// Undo steps back one entry and returns it. It reports false, without
// moving, when the index is already at the oldest entry.
func (l *Log) Undo() (scene.Snapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.index <= 0 {
		return scene.Snapshot{}, false
	}
	l.index--
	return l.entries[l.index], true
}

// Redo steps forward one entry and returns it. It reports false, without
// moving, when the index is already at the newest entry.
func (l *Log) Redo() (scene.Snapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.index >= len(l.entries)-1 {
		return scene.Snapshot{}, false
	}
	l.index++
	return l.entries[l.index], true
}

// Current returns the entry at the index.
func (l *Log) Current() (scene.Snapshot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.index < 0 {
		return scene.Snapshot{}, false
	}
	return l.entries[l.index], true
}

// CanUndo reports whether Undo would move.
func (l *Log) CanUndo() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index > 0
}

// CanRedo reports whether Redo would move.
func (l *Log) CanRedo() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index < len(l.entries)-1
}

// Len returns the number of snapshots in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Index returns the current position, or -1 for an empty log.
func (l *Log) Index() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index
}

// MaxDepth returns the configured capacity.
func (l *Log) MaxDepth() int {
	return l.maxDepth
}

// ReplaceLayer points every entry that uses old at repl instead and returns
// the number of entries changed. Index and length are untouched.
func (l *Log) ReplaceLayer(old, repl *image.Layer) int {
	if old == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for i := range l.entries {
		e := &l.entries[i]
		hit := false
		if e.Background == old {
			e.Background = repl
			hit = true
		}
		if e.Overlay == old {
			e.Overlay = repl
			hit = true
		}
		if hit {
			n++
		}
	}
	return n
}

// Clear removes every snapshot.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.index = -1
}
