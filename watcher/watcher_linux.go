//go:build linux

// Package watcher provides path bookkeeping on top of a raw inotify
// queue: it maps watch descriptors back to the paths registered against
// them and ties every decoded event to its watch.
package watcher

import (
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/xerrors"

	"github.com/inoq/inoq/inotify"
)

// ErrNoWatches is returned by Read when the watcher has nothing to watch.
var ErrNoWatches = xerrors.New("watcher: no watches")

// Watch is a single watch descriptor together with the paths registered
// against it. Several paths can alias one descriptor when they resolve to
// the same inode.
type Watch struct {
	wd    int32
	mask  uint32
	paths map[string]struct{}
}

// Wd returns the watch descriptor.
func (w *Watch) Wd() int32 {
	return w.wd
}

// Mask returns the accumulated event mask of this watch.
func (w *Watch) Mask() uint32 {
	return w.mask
}

// Paths returns the paths aliased to this watch, sorted.
func (w *Watch) Paths() []string {
	ps := make([]string, 0, len(w.paths))
	for p := range w.paths {
		ps = append(ps, p)
	}
	sort.Strings(ps)
	return ps
}

// Event is a decoded record tied back to the watch it came from. Watch is
// nil for queue-level events such as IN_Q_OVERFLOW, which carry wd -1.
type Event struct {
	inotify.Event
	Watch *Watch
}

// Fullpath returns the full path the event concerns, or "" when the watch
// is unknown. When a watch has several path aliases one is chosen
// arbitrarily.
func (e Event) Fullpath() string {
	if e.Watch == nil {
		return ""
	}
	ps := e.Watch.Paths()
	if len(ps) == 0 {
		return ""
	}
	if e.Name == "" {
		return ps[0]
	}
	return filepath.Join(ps[0], e.Name)
}

// Watcher owns an inotify queue, its decoder and the wd to path
// bookkeeping. Calls to Read must be serialized by the caller.
type Watcher struct {
	q   *inotify.Queue
	dec *inotify.Decoder

	mu      sync.Mutex
	watches map[int32]*Watch
	paths   map[string]*Watch
}

// New opens an inotify queue and returns a watcher over it.
func New() (*Watcher, error) {
	q, err := inotify.NewQueue()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		q:       q,
		dec:     inotify.NewDecoder(),
		watches: make(map[int32]*Watch),
		paths:   make(map[string]*Watch),
	}, nil
}

// Queue exposes the underlying queue, e.g. for Threshold.
func (w *Watcher) Queue() *inotify.Queue {
	return w.q
}

// Add registers or updates a watch on path and returns it. Adding a path
// that aliases an existing watch extends that watch's mask.
func (w *Watcher) Add(path string, mask uint32) (*Watch, error) {
	path = filepath.Clean(path)
	// The path may already be watched via an alias, so always extend the
	// kernel-side mask instead of replacing it.
	wd, err := w.q.AddWatch(path, mask|inotify.MaskAdd)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	wt := w.watches[wd]
	if wt == nil {
		wt = &Watch{wd: wd, paths: make(map[string]struct{})}
		w.watches[wd] = wt
	}
	wt.paths[path] = struct{}{}
	wt.mask |= mask &^ inotify.MaskAdd
	w.paths[path] = wt
	return wt, nil
}

// RemoveWatch asks the kernel to drop wt. The bookkeeping is only released
// once the matching IN_IGNORED event is read.
func (w *Watcher) RemoveWatch(wt *Watch) error {
	return w.q.RemoveWatch(wt.wd)
}

// RemovePath detaches path from its watch. The watch itself is scheduled
// for removal once no aliases remain.
func (w *Watcher) RemovePath(path string) error {
	path = filepath.Clean(path)
	w.mu.Lock()
	wt := w.paths[path]
	if wt == nil {
		w.mu.Unlock()
		return xerrors.Errorf("watcher: %s is not watched", path)
	}
	delete(w.paths, path)
	delete(wt.paths, path)
	last := len(wt.paths) == 0
	w.mu.Unlock()
	if last {
		return w.RemoveWatch(wt)
	}
	return nil
}

// Read drains the queue once and returns the events tied to their
// watches, in arrival order. See inotify.Decoder.Drain for the blocking
// semantics. Watches acknowledged with IN_IGNORED are forgotten.
func (w *Watcher) Read(block bool) ([]Event, error) {
	if w.NumWatches() == 0 {
		return nil, ErrNoWatches
	}
	raw, err := w.dec.Drain(w.q, block)
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(raw))
	w.mu.Lock()
	for _, r := range raw {
		wt := w.watches[r.Wd]
		if wt != nil && r.Mask&inotify.Ignored != 0 {
			delete(w.watches, wt.wd)
			for p := range wt.paths {
				delete(w.paths, p)
			}
		}
		events = append(events, Event{Event: r, Watch: wt})
	}
	w.mu.Unlock()
	return events, nil
}

// Close shuts down the queue. A blocked Read fails with the close error.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.watches = make(map[int32]*Watch)
	w.paths = make(map[string]*Watch)
	w.mu.Unlock()
	return w.q.Close()
}

// NumPaths returns the number of explicitly watched paths.
func (w *Watcher) NumPaths() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.paths)
}

// NumWatches returns the number of active watch descriptors.
func (w *Watcher) NumWatches() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watches)
}

// WatchList returns all watched paths, sorted.
func (w *Watcher) WatchList() []string {
	w.mu.Lock()
	ps := make([]string, 0, len(w.paths))
	for p := range w.paths {
		ps = append(ps, p)
	}
	w.mu.Unlock()
	sort.Strings(ps)
	return ps
}

// Watch returns the watch registered for path, or nil.
func (w *Watcher) Watch(path string) *Watch {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.paths[filepath.Clean(path)]
}

// Threshold reports whether a queue has accumulated a given number of
// readable bytes, for callers that want to batch their reads.
type Threshold struct {
	q *inotify.Queue
	n int
}

// NewThreshold returns a threshold gauge over q.
func NewThreshold(q *inotify.Queue, n int) *Threshold {
	return &Threshold{q: q, n: n}
}

// Readable returns the number of bytes currently readable on the queue.
func (t *Threshold) Readable() (int, error) {
	return t.q.Readable()
}

// Reached reports whether the readable byte count has met the threshold.
func (t *Threshold) Reached() (bool, error) {
	n, err := t.q.Readable()
	return n >= t.n, err
}
