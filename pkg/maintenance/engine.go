// Package maintenance implements the cache maintenance engine: orphan
// purge, forced clear, and thumbnail/similarity render, all driven as
// cooperative idle steps rather than a single blocking pass. It follows
// the same walk-compare-unlink idiom used to age out stale agent binaries
// and caches, generalized here into an explicit step state machine so a
// caller's idle scheduler can run one unit of work per tick instead of
// one goroutine per sweep.
package maintenance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/gqcore/gqcore/pkg/cache"
	"github.com/gqcore/gqcore/pkg/digest"
	"github.com/gqcore/gqcore/pkg/fsutil"
	"github.com/gqcore/gqcore/pkg/imageloader"
	"github.com/gqcore/gqcore/pkg/logging"
	"github.com/gqcore/gqcore/pkg/metadata"
	"github.com/gqcore/gqcore/pkg/similarity"
	"github.com/gqcore/gqcore/pkg/state"
)

// Op identifies which maintenance operation a Task runs.
type Op int

const (
	OpPurgeOrphans Op = iota
	OpClear
	OpRender
	OpSim
)

func (o Op) String() string {
	switch o {
	case OpPurgeOrphans:
		return "purge-orphans"
	case OpClear:
		return "clear"
	case OpRender:
		return "render"
	case OpSim:
		return "sim"
	default:
		return "unknown"
	}
}

// StepResult reports what a single Step call accomplished.
type StepResult int

const (
	// Continue means the task has more work; call Step again.
	Continue StepResult = iota
	// Done means the task finished; the done-notifier, if any, has run.
	Done
	// Suspend means the task is waiting on an asynchronous dependency
	// (an image-loader decode) and will resume on its own.
	Suspend
)

// Filter reports whether path should be kept (true) or treated as
// filtered-out for render/sim purposes. It has no effect during
// OpPurgeOrphans: the filter is forced off there, since similarity files
// share a cache tree with thumbnails and must not be collaterally purged
// just because the filter would exclude their source extension.
type Filter func(path string) bool

// Task drives one maintenance operation as a cooperative state machine.
type Task struct {
	op     Op
	store  *cache.Store
	kind   cache.Kind
	loader imageloader.Loader
	logger *logging.Logger
	filter Filter

	foldersToVisit []string
	filesPending   []string
	visitedDirs    []string

	total int
	done  int

	cancelled    state.Marker
	doneNotifier func()

	pendingRequest *imageloader.Request
	pendingPath    string

	// progressLock guards Progress/Status and notifies progressTracker's
	// waiters on every update, so a caller on another goroutine (a
	// concurrent remote-control connection polling this same operation)
	// can watch progress without racing the Step loop that's driving it.
	progressLock    *state.TrackingLock
	progressTracker *state.Tracker

	Progress float64
	Status   string
}

// newTask wires up the progress tracker every constructor needs, so each
// one only has to fill in what's distinct about its operation.
func newTask(op Op, status string, root string) *Task {
	tracker := state.NewTracker()
	return &Task{
		op:              op,
		foldersToVisit:  []string{root},
		Status:          status,
		progressTracker: tracker,
		progressLock:    state.NewTrackingLock(tracker),
	}
}

// NewPurgeOrphans creates a Task that walks the cache tree for kind under
// root and unlinks any cache file whose source no longer exists (or,
// filter permitting, was filtered out — though the filter is forced off
// for this operation; see Filter).
func NewPurgeOrphans(store *cache.Store, kind cache.Kind, root string, logger *logging.Logger) *Task {
	t := newTask(OpPurgeOrphans, "scanning", root)
	t.store = store
	t.kind = kind
	t.logger = logger
	return t
}

// NewClear creates a Task that unlinks every file under root
// unconditionally, then removes empty directories.
func NewClear(root string, logger *logging.Logger) *Task {
	t := newTask(OpClear, "clearing", root)
	t.logger = logger
	return t
}

// NewRender creates a Task that walks sourceRoot and requests a thumbnail
// for each image file found, populating the thumb cache as a side effect
// of the image-loader collaborator.
func NewRender(store *cache.Store, loader imageloader.Loader, sourceRoot string, filter Filter, logger *logging.Logger) *Task {
	t := newTask(OpRender, "rendering", sourceRoot)
	t.store = store
	t.kind = cache.Thumb
	t.loader = loader
	t.filter = filter
	t.logger = logger
	return t
}

// NewSim creates a Task like NewRender but requesting the similarity
// fingerprint (with dimensions, MD5, and EXIF date as byproducts).
func NewSim(store *cache.Store, loader imageloader.Loader, sourceRoot string, filter Filter, logger *logging.Logger) *Task {
	t := newTask(OpSim, "computing fingerprints", sourceRoot)
	t.store = store
	t.kind = cache.Sim
	t.loader = loader
	t.filter = filter
	t.logger = logger
	return t
}

// SetDoneNotifier registers a function Step invokes exactly once, whether
// the task finishes normally or is cancelled.
func (t *Task) SetDoneNotifier(f func()) {
	t.doneNotifier = f
}

// Cancel requests that the task stop. The next Step call completes it.
// Safe to call from a goroutine other than the one driving Step, since a
// remote-control connection may cancel a render another connection
// kicked off.
func (t *Task) Cancel() {
	t.cancelled.Mark()
	if t.loader != nil && t.pendingRequest != nil {
		t.loader.Cancel(t.pendingRequest)
	}
}

// Step performs one unit of work: one file, one directory read, or one
// cache-file check, per the idle-callback contract each maintenance
// operation runs under.
func (t *Task) Step() StepResult {
	if t.cancelled.Marked() {
		return t.finish()
	}

	if t.pendingRequest != nil {
		return t.resumeLoad()
	}

	if len(t.filesPending) > 0 {
		path := t.filesPending[0]
		t.filesPending = t.filesPending[1:]
		return t.stepFile(path)
	}

	if len(t.foldersToVisit) > 0 {
		dir := t.foldersToVisit[0]
		t.foldersToVisit = t.foldersToVisit[1:]
		return t.stepFolder(dir)
	}

	return t.finish()
}

func (t *Task) stepFolder(dir string) StepResult {
	entries, err := fsutil.DirectoryContents(dir)
	if err != nil {
		if t.logger != nil {
			t.logger.Warnf("unable to read directory '%s': %s", dir, err.Error())
		}
		return Continue
	}

	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		if e.IsDir() {
			t.foldersToVisit = append(t.foldersToVisit, full)
		} else {
			t.filesPending = append(t.filesPending, full)
			t.total++
		}
	}

	if t.op == OpPurgeOrphans || t.op == OpClear {
		t.visitedDirs = append(t.visitedDirs, dir)
	}

	t.updateProgress()
	return Continue
}

// sweepEmptyDirs removes directories left empty by purge/clear, deepest
// first so a parent empties out only after its children have already
// been checked.
func (t *Task) sweepEmptyDirs() {
	for i := len(t.visitedDirs) - 1; i >= 0; i-- {
		dir := t.visitedDirs[i]
		if empty, err := fsutil.IsEmptyDir(dir); err == nil && empty {
			os.Remove(dir)
		}
	}
}

func (t *Task) stepFile(path string) StepResult {
	switch t.op {
	case OpPurgeOrphans:
		t.purgeIfOrphan(path)
	case OpClear:
		if err := os.Remove(path); err != nil && t.logger != nil {
			t.logger.Warnf("unable to remove '%s': %s", path, err.Error())
		}
	case OpRender, OpSim:
		if t.filter != nil && !t.filter(path) {
			t.done++
			t.updateProgress()
			return Continue
		}
		if t.loader != nil {
			t.pendingPath = path
			t.pendingRequest = t.loader.Start(path)
			t.updateProgress()
			return Suspend
		}
	}

	t.done++
	t.updateProgress()
	return Continue
}

func (t *Task) purgeIfOrphan(cachePath string) {
	source, ok := t.store.Layout.SourceFromMirrored(t.kind, cachePath)
	if !ok {
		return
	}
	if _, err := os.Stat(source); os.IsNotExist(err) {
		if err := os.Remove(cachePath); err != nil && t.logger != nil {
			t.logger.Warnf("unable to remove orphaned cache file '%s': %s", cachePath, err.Error())
		}
	}
}

func (t *Task) resumeLoad() StepResult {
	select {
	case result := <-t.pendingRequest.Done:
		path := t.pendingPath
		t.pendingRequest = nil
		t.pendingPath = ""

		if result.Err == nil && t.store != nil {
			entry := &cache.Entry{SourcePath: path, HasDims: true, Width: result.Width, Height: result.Height}
			if t.op == OpSim {
				if result.Grayscale != nil {
					entry.Fingerprint = similarity.FromGrayscale(result.Grayscale, result.Width, result.Height)
					entry.HasFingerprint = true
				}
				if d, err := digest.OfFile(path); err == nil {
					entry.MD5, entry.HasMD5 = d, true
				}
				if x, err := metadata.ReadExif(path); err == nil && x.Original != nil {
					entry.Date, entry.HasDate = x.Original.Unix(), true
				}
			}
			if info, err := os.Stat(path); err == nil {
				t.store.Save(t.kind, entry, info.ModTime())
			}
		} else if result.Err != nil && t.logger != nil {
			t.logger.Debugf("decode failed for '%s': %s", path, result.Err.Error())
		}

		t.done++
		t.updateProgress()
		return Continue
	default:
		return Suspend
	}
}

func (t *Task) updateProgress() {
	t.progressLock.Lock()
	if t.total == 0 {
		t.Progress = 0
		t.Status = fmt.Sprintf("%s: 0 files", t.op)
	} else {
		t.Progress = float64(t.done) / float64(t.total)
		t.Status = fmt.Sprintf("%s: %s of %s", t.op,
			humanize.Comma(int64(t.done)), humanize.Comma(int64(t.total)))
	}
	t.progressLock.Unlock()
}

// WaitForProgress blocks until the task's progress has changed from
// previousIndex (or returns immediately if previousIndex is 0), then
// reports the new index alongside a consistent snapshot of Progress and
// Status. It's safe to call from a goroutine other than the one driving
// Step, which is what lets a remote-control connection poll an operation
// another connection started.
func (t *Task) WaitForProgress(ctx context.Context, previousIndex uint64) (index uint64, progress float64, status string, err error) {
	index, err = t.progressTracker.WaitForChange(ctx, previousIndex)
	t.progressLock.Lock()
	progress, status = t.Progress, t.Status
	t.progressLock.UnlockWithoutNotify()
	return
}

func (t *Task) finish() StepResult {
	if (t.op == OpPurgeOrphans || t.op == OpClear) && !t.cancelled.Marked() {
		t.sweepEmptyDirs()
	}
	t.progressLock.Lock()
	t.Progress = 1
	t.progressLock.Unlock()
	t.progressTracker.Terminate()
	if t.doneNotifier != nil {
		notifier := t.doneNotifier
		t.doneNotifier = nil
		notifier()
	}
	return Done
}

// RunToCompletion drives a Task to completion without a real idle
// scheduler, calling Step up to maxSteps times and sleeping briefly
// whenever the task suspends.
func RunToCompletion(t *Task, maxSteps int) StepResult {
	result := Continue
	for i := 0; i < maxSteps; i++ {
		result = t.Step()
		if result == Done {
			return result
		}
		if result == Suspend {
			time.Sleep(time.Millisecond)
		}
	}
	return result
}
