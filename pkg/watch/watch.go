// Package watch drives live directory monitoring: it feeds OS-level
// filesystem events through a per-directory debounce window and
// publishes a single coalesced reread signal on the notify bus, so a
// burst of writes from an import or a batch rename triggers one rescan
// instead of one per touched file.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gqcore/gqcore/pkg/fsutil"
	"github.com/gqcore/gqcore/pkg/gqerrors"
	"github.com/gqcore/gqcore/pkg/logging"
	"github.com/gqcore/gqcore/pkg/notify"
	"github.com/gqcore/gqcore/pkg/state"
)

// DefaultDebounce is the coalescing window used when New is given a
// non-positive debounce, chosen to absorb a typical burst of
// create/write/rename events from one file operation without noticeably
// delaying a single isolated change.
const DefaultDebounce = 300 * time.Millisecond

// Watcher monitors a set of directories for filesystem activity and
// publishes notify.Reread on bus, once per directory per debounce
// window, naming the directory as the publish subject.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	bus       *notify.Bus
	logger    *logging.Logger
	debounce  time.Duration

	mu     sync.Mutex
	dirs   map[string]*watchEntry
	closed bool
}

// watchEntry bundles a directory's coalescer with a stop channel, since
// Coalescer.Events never closes on its own and the drain goroutine needs
// a separate signal to exit when the directory is unwatched.
type watchEntry struct {
	coalescer *state.Coalescer
	stop      chan struct{}
}

// New creates a Watcher publishing reread signals on bus. debounce <= 0
// uses DefaultDebounce.
func New(bus *notify.Bus, logger *logging.Logger, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, gqerrors.Wrap(gqerrors.Io, "create filesystem watcher", err)
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		bus:       bus,
		logger:    logger,
		debounce:  debounce,
		dirs:      make(map[string]*watchEntry),
	}
	go w.loop()
	return w, nil
}

// Add starts watching dir. Adding an already-watched directory is a
// no-op.
func (w *Watcher) Add(dir string) error {
	normalized, err := fsutil.Normalize(dir)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return gqerrors.New(gqerrors.Internal, "watcher is closed")
	}
	if _, exists := w.dirs[normalized]; exists {
		w.mu.Unlock()
		return nil
	}
	entry := &watchEntry{
		coalescer: state.NewCoalescer(w.debounce),
		stop:      make(chan struct{}),
	}
	w.dirs[normalized] = entry
	w.mu.Unlock()

	if err := w.fsWatcher.Add(normalized); err != nil {
		w.mu.Lock()
		delete(w.dirs, normalized)
		w.mu.Unlock()
		entry.coalescer.Terminate()
		return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("watch directory '%s'", normalized), err)
	}

	go w.drain(normalized, entry)
	return nil
}

// Remove stops watching dir. Removing a directory that isn't watched is
// a no-op.
func (w *Watcher) Remove(dir string) error {
	normalized, err := fsutil.Normalize(dir)
	if err != nil {
		return err
	}

	w.mu.Lock()
	entry, exists := w.dirs[normalized]
	delete(w.dirs, normalized)
	w.mu.Unlock()
	if !exists {
		return nil
	}

	entry.coalescer.Terminate()
	close(entry.stop)
	if err := w.fsWatcher.Remove(normalized); err != nil {
		return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("unwatch directory '%s'", normalized), err)
	}
	return nil
}

// Close stops watching every directory and releases the underlying
// OS watch handle.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	dirs := w.dirs
	w.dirs = nil
	w.mu.Unlock()

	for _, entry := range dirs {
		entry.coalescer.Terminate()
		close(entry.stop)
	}
	if err := w.fsWatcher.Close(); err != nil {
		return gqerrors.Wrap(gqerrors.Io, "close filesystem watcher", err)
	}
	return nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warnf("watch error: %s", err.Error())
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	dir := filepath.Dir(event.Name)

	w.mu.Lock()
	entry, ok := w.dirs[dir]
	w.mu.Unlock()
	if !ok {
		return
	}
	entry.coalescer.Strobe()
}

func (w *Watcher) drain(dir string, entry *watchEntry) {
	for {
		select {
		case <-entry.coalescer.Events():
			if w.bus != nil {
				w.bus.Publish(dir, notify.Reread)
			}
		case <-entry.stop:
			return
		}
	}
}
