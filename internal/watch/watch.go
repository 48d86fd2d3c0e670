// Package watch drives a directory watch that (re)classifies files as
// they appear or change. It is adapted from the teacher's
// internal/indexing.FileWatcher: fsnotify for filesystem events,
// doublestar for include/exclude glob matching, and an internal
// debouncer that coalesces rapid-fire events per path before acting on
// them.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/sigscan"
	"github.com/standardbeagle/sigscan/internal/batch"
	"github.com/standardbeagle/sigscan/internal/siglog"
)

// DebounceInterval coalesces rapid-fire fsnotify events per path before
// the watcher re-classifies it.
const DebounceInterval = 250 * time.Millisecond

// Event is one (re)classification triggered by a filesystem change, or
// a path's removal (Removed = true, Result zero).
type Event struct {
	Path    string
	Result  sigscan.Result
	Removed bool
	Err     error
}

// Watcher classifies files under a root directory on startup, then
// keeps re-classifying them as fsnotify reports changes.
type Watcher struct {
	classifier *sigscan.Classifier
	root       string
	include    []string
	exclude    []string

	fsw *fsnotify.Watcher

	mu        sync.Mutex
	pending   map[string]bool
	timer     *time.Timer
	lastKnown map[string]sigscan.Result

	events chan Event
}

// New creates a Watcher rooted at root, filtering candidate paths with
// the given include/exclude doublestar glob patterns (an empty include
// list matches everything).
func New(classifier *sigscan.Classifier, root string, include, exclude []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		classifier: classifier,
		root:       root,
		include:    include,
		exclude:    exclude,
		fsw:        fsw,
		pending:    make(map[string]bool),
		lastKnown:  make(map[string]sigscan.Result),
		events:     make(chan Event, 64),
	}, nil
}

// Events returns the channel Watcher publishes classification events
// to. Run closes it when ctx is cancelled.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run walks the root once, classifying every matching file, then
// blocks processing fsnotify events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer w.fsw.Close()

	if err := w.addWatches(w.root); err != nil {
		return err
	}
	w.initialScan(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleFsEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			siglog.Warnf("watch: fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) addWatches(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				siglog.Warnf("watch: failed to watch %s: %v", path, err)
			}
		}
		return nil
	})
}

func (w *Watcher) initialScan(ctx context.Context) {
	var paths []string
	_ = filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if w.matches(path) {
			paths = append(paths, path)
		}
		return nil
	})

	for path, result := range batch.Run(ctx, w.classifier, paths, 4) {
		w.publish(path, result)
	}
}

func (w *Watcher) handleFsEvent(ev fsnotify.Event) {
	if !w.matches(ev.Name) {
		return
	}

	if ev.Op&fsnotify.Remove != 0 || ev.Op&fsnotify.Rename != 0 {
		w.mu.Lock()
		delete(w.lastKnown, ev.Name)
		w.mu.Unlock()
		w.events <- Event{Path: ev.Name, Removed: true}
		return
	}

	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	w.debounce(ev.Name)
}

// debounce coalesces repeated events for the same path, firing a
// reclassification DebounceInterval after the last one -- the same
// shape as the teacher's eventDebouncer, simplified to a single timer
// since sigscan has no batch-start/batch-end progress callbacks to
// drive.
func (w *Watcher) debounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(DebounceInterval, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	for _, path := range paths {
		result := classifyOne(w.classifier, path)
		w.publish(path, result)
	}
}

func classifyOne(classifier *sigscan.Classifier, path string) batch.PathResult {
	results := batch.Run(context.Background(), classifier, []string{path}, 1)
	return results[path]
}

func (w *Watcher) publish(path string, result batch.PathResult) {
	w.mu.Lock()
	if result.Err == nil {
		w.lastKnown[path] = result.Result
	}
	w.mu.Unlock()

	w.events <- Event{Path: path, Result: result.Result, Err: result.Err}
}

func (w *Watcher) matches(path string) bool {
	for _, pattern := range w.exclude {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return false
		}
		if rel, err := filepath.Rel(w.root, path); err == nil {
			if matched, _ := doublestar.Match(pattern, rel); matched {
				return false
			}
		}
	}

	if len(w.include) == 0 {
		return true
	}
	for _, pattern := range w.include {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
		if rel, err := filepath.Rel(w.root, path); err == nil {
			if matched, _ := doublestar.Match(pattern, rel); matched {
				return true
			}
		}
	}
	return false
}
