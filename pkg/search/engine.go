package search

// The evaluation engine follows the same idle step-state-machine shape
// as the cache maintenance engine: one unit of work per Step call,
// suspending rather than blocking whenever a candidate needs an
// asynchronous image decode.

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gqcore/gqcore/pkg/cache"
	"github.com/gqcore/gqcore/pkg/filedata"
	"github.com/gqcore/gqcore/pkg/fsutil"
	"github.com/gqcore/gqcore/pkg/imageloader"
	"github.com/gqcore/gqcore/pkg/logging"
	"github.com/gqcore/gqcore/pkg/metadata"
	"github.com/gqcore/gqcore/pkg/metastore"
	"github.com/gqcore/gqcore/pkg/similarity"
)

// StepResult reports what a single Step call accomplished, matching
// pkg/maintenance's vocabulary so a caller's idle scheduler treats both
// engines the same way.
type StepResult int

const (
	Continue StepResult = iota
	Done
	Suspend
)

// Engine drives one search as a cooperative state machine over three
// disjoint path lists: folders still to visit, folders already visited,
// and files pending evaluation.
type Engine struct {
	registry   *filedata.Registry
	metaStore  metastore.Collaborator
	cacheStore *cache.Store
	loader     imageloader.Loader
	logger     *logging.Logger

	query *Query

	foldersToVisit []string
	foldersVisited []string
	filesPending   []string
	recursive      bool

	pendingPath      string
	pendingCandidate *Candidate
	pendingRequest   *imageloader.Request

	resultBuffer   []MatchResult
	flushThreshold int
	onResults      func([]MatchResult)

	cancelled    bool
	doneNotifier func()

	total, done int
	Progress    float64
	Status      string
}

// Config bundles the collaborators an Engine needs. Any field may be nil
// if the query never exercises it (e.g. no metastore is needed for a
// query with no Keywords/Comment predicate); the engine only dereferences
// a collaborator when a predicate's Need requires it.
type Config struct {
	Registry       *filedata.Registry
	MetaStore      metastore.Collaborator
	CacheStore     *cache.Store
	Loader         imageloader.Loader
	Logger         *logging.Logger
	FlushThreshold int
	OnResults      func([]MatchResult)
}

func newEngine(cfg Config, query *Query) *Engine {
	flush := cfg.FlushThreshold
	if flush <= 0 {
		flush = 50
	}
	return &Engine{
		registry:       cfg.Registry,
		metaStore:      cfg.MetaStore,
		cacheStore:     cfg.CacheStore,
		loader:         cfg.Loader,
		logger:         cfg.Logger,
		query:          query,
		flushThreshold: flush,
		onResults:      cfg.OnResults,
		Status:         "scanning",
	}
}

// NewDirectory creates an Engine that walks root (optionally recursive,
// per query.Recursive) evaluating query against every file found.
func NewDirectory(cfg Config, query *Query, root string) *Engine {
	e := newEngine(cfg, query)
	e.foldersToVisit = []string{root}
	e.recursive = query.Recursive
	return e
}

// NewRefinement creates an Engine that evaluates query against an
// existing result set, for "search within current results."
func NewRefinement(cfg Config, query *Query, paths []string) *Engine {
	e := newEngine(cfg, query)
	e.filesPending = append([]string(nil), paths...)
	e.total = len(paths)
	return e
}

// NewAllEverSeen creates an Engine that evaluates query against every
// source path the metadata cache has ever recorded, reverse-mapped from
// cacheRoot's mirrored tree and filtered to files that still exist.
func NewAllEverSeen(cfg Config, query *Query, layout cache.Layout) *Engine {
	e := newEngine(cfg, query)
	paths := collectAllEverSeenPaths(layout)
	e.filesPending = paths
	e.total = len(paths)
	return e
}

// collectAllEverSeenPaths walks the metadata cache tree and reverse-maps
// each cache file back to its source path, keeping only sources that
// still exist on disk.
func collectAllEverSeenPaths(layout cache.Layout) []string {
	var out []string
	if layout.MetaRoot == "" {
		return out
	}
	filepath.Walk(layout.MetaRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		source, ok := layout.SourceFromMirrored(cache.Metadata, path)
		if !ok {
			return nil
		}
		if _, statErr := os.Stat(source); statErr != nil {
			return nil
		}
		out = append(out, source)
		return nil
	})
	return out
}

// SetDoneNotifier registers a function Step invokes exactly once, when
// the search finishes or is cancelled.
func (e *Engine) SetDoneNotifier(f func()) {
	e.doneNotifier = f
}

// Cancel requests the search stop. The next Step call drains buffered
// results and completes.
func (e *Engine) Cancel() {
	e.cancelled = true
	if e.loader != nil && e.pendingRequest != nil {
		e.loader.Cancel(e.pendingRequest)
	}
}

// Step performs one unit of work: one file evaluated, one directory
// read, or one decode-completion check.
func (e *Engine) Step() StepResult {
	if e.cancelled {
		return e.finish()
	}

	if e.pendingRequest != nil {
		return e.resumeDecode()
	}

	if len(e.filesPending) > 0 {
		path := e.filesPending[0]
		e.filesPending = e.filesPending[1:]
		return e.stepFile(path)
	}

	if len(e.foldersToVisit) > 0 {
		dir := e.foldersToVisit[0]
		e.foldersToVisit = e.foldersToVisit[1:]
		return e.stepFolder(dir)
	}

	return e.finish()
}

func (e *Engine) stepFolder(dir string) StepResult {
	entries, err := fsutil.DirectoryContents(dir)
	if err != nil {
		if e.logger != nil {
			e.logger.Warnf("unable to read directory '%s': %s", dir, err.Error())
		}
		return Continue
	}

	for _, ent := range entries {
		full := filepath.Join(dir, ent.Name())
		if ent.IsDir() {
			if e.recursive {
				e.foldersToVisit = append(e.foldersToVisit, full)
			}
			continue
		}
		e.filesPending = append(e.filesPending, full)
		e.total++
	}

	e.foldersVisited = append(e.foldersVisited, dir)
	e.updateProgress()
	return Continue
}

func (e *Engine) stepFile(path string) StepResult {
	var fd *filedata.FileData
	if e.registry != nil {
		var err error
		fd, err = e.registry.Acquire(path)
		if err != nil || fd.Unknown {
			if fd != nil {
				e.registry.Release(fd)
			}
			e.done++
			e.updateProgress()
			return Continue
		}
	} else {
		fd = &filedata.FileData{Path: path, Name: filepath.Base(path)}
	}

	c := &Candidate{FD: fd}

	if !e.query.evaluateCheap(c) {
		e.releaseCandidate(c)
		e.done++
		e.updateProgress()
		return Continue
	}

	return e.fillNeeds(path, c)
}

// fillNeeds satisfies every Need the query's enabled predicates report
// for c: metastore and EXIF reads happen synchronously inline since they
// are plain file reads, while dimensions/fingerprint/broken-probe
// require the image-loader collaborator and suspend the engine.
func (e *Engine) fillNeeds(path string, c *Candidate) StepResult {
	for _, need := range e.query.needs(c) {
		switch need {
		case NeedMetastore:
			e.fillMetastore(path, c)
		case NeedExif:
			e.fillExif(path, c)
		case NeedDimensions, NeedFingerprint, NeedBrokenProbe:
			if e.tryFillFromCache(path, c) {
				continue
			}
			if e.loader == nil {
				continue
			}
			e.pendingPath = path
			e.pendingCandidate = c
			e.pendingRequest = e.loader.Start(path)
			e.updateProgress()
			return Suspend
		}
	}

	return e.finishFile(path, c)
}

func (e *Engine) fillMetastore(path string, c *Candidate) {
	c.HasMeta = true
	if e.metaStore == nil {
		c.Meta = &metastore.Record{Rating: filedata.RatingUnset}
		return
	}
	record, err := e.metaStore.Load(path)
	if err != nil {
		if e.logger != nil {
			e.logger.Warnf("unable to read metadata for '%s': %s", path, err.Error())
		}
		record = &metastore.Record{Rating: filedata.RatingUnset}
	}
	c.Meta = record
}

func (e *Engine) fillExif(path string, c *Candidate) {
	c.HasExif = true
	x, err := metadata.ReadExif(path)
	if err != nil {
		if e.logger != nil {
			e.logger.Debugf("unable to read EXIF for '%s': %s", path, err.Error())
		}
		x = &metadata.Exif{}
	}
	c.Exif = x
}

// tryFillFromCache attempts to satisfy a dimensions/fingerprint Need
// from the already-populated cache store, avoiding a decode when a prior
// render/sim pass already recorded the answer.
func (e *Engine) tryFillFromCache(path string, c *Candidate) bool {
	if e.cacheStore == nil {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	filled := false
	if !c.HasDims {
		if entry, err := e.cacheStore.Load(cache.Thumb, path, info.ModTime()); err == nil && entry.HasDims {
			c.Width, c.Height, c.HasDims = entry.Width, entry.Height, true
			filled = true
		}
	}
	if e.query.Similarity.Enabled && !c.HasFingerprint {
		if entry, err := e.cacheStore.Load(cache.Sim, path, info.ModTime()); err == nil && entry.HasFingerprint {
			c.Fingerprint, c.HasFingerprint = entry.Fingerprint, true
			filled = true
		}
	}

	if filled {
		// A cached entry only exists for a file that decoded successfully.
		c.BrokenKnown = true
		c.Broken = false
	}

	needDims := e.query.Dimensions.Enabled && !c.HasDims
	needFp := e.query.Similarity.Enabled && !c.HasFingerprint
	needBroken := e.query.Class.Enabled && e.query.Class.Broken && !c.BrokenKnown
	return filled && !needDims && !needFp && !needBroken
}

func (e *Engine) resumeDecode() StepResult {
	select {
	case result := <-e.pendingRequest.Done:
		path := e.pendingPath
		c := e.pendingCandidate
		e.pendingRequest = nil
		e.pendingPath = ""
		e.pendingCandidate = nil

		c.BrokenKnown = true
		if result.Err != nil {
			c.Broken = true
		} else {
			c.Width, c.Height, c.HasDims = result.Width, result.Height, true
			if e.query.Similarity.Enabled && result.Grayscale != nil {
				c.Fingerprint = similarity.FromGrayscale(result.Grayscale, result.Width, result.Height)
				c.HasFingerprint = true
			}
			e.saveToCache(path, c)
		}

		return e.finishFile(path, c)
	default:
		return Suspend
	}
}

func (e *Engine) saveToCache(path string, c *Candidate) {
	if e.cacheStore == nil {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if c.HasDims {
		e.cacheStore.Save(cache.Thumb, &cache.Entry{SourcePath: path, HasDims: true, Width: c.Width, Height: c.Height}, info.ModTime())
	}
	if c.HasFingerprint {
		e.cacheStore.Save(cache.Sim, &cache.Entry{SourcePath: path, HasFingerprint: true, Fingerprint: c.Fingerprint}, info.ModTime())
	}
}

func (e *Engine) finishFile(path string, c *Candidate) StepResult {
	if e.query.evaluate(c) {
		result := MatchResult{Path: path, Width: c.Width, Height: c.Height}
		if e.query.Similarity.Enabled {
			result.Rank = e.query.Similarity.rank(c)
		}
		e.resultBuffer = append(e.resultBuffer, result)
		if len(e.resultBuffer) >= e.flushThreshold {
			e.flush()
		}
	}

	e.releaseCandidate(c)
	e.done++
	e.updateProgress()
	return Continue
}

func (e *Engine) releaseCandidate(c *Candidate) {
	if e.registry != nil && c.FD != nil {
		e.registry.Release(c.FD)
	}
}

func (e *Engine) flush() {
	if len(e.resultBuffer) == 0 {
		return
	}
	if e.onResults != nil {
		e.onResults(e.resultBuffer)
	}
	e.resultBuffer = nil
}

func (e *Engine) updateProgress() {
	if e.total == 0 {
		e.Progress = 0
		e.Status = "searching: 0 files"
		return
	}
	e.Progress = float64(e.done) / float64(e.total)
	e.Status = "searching"
}

func (e *Engine) finish() StepResult {
	e.flush()
	e.Progress = 1
	if e.doneNotifier != nil {
		notifier := e.doneNotifier
		e.doneNotifier = nil
		notifier()
	}
	return Done
}

// RunToCompletion drives e to completion without a real idle scheduler,
// calling Step up to maxSteps times and sleeping briefly whenever the
// search suspends.
func RunToCompletion(e *Engine, maxSteps int) StepResult {
	result := Continue
	for i := 0; i < maxSteps; i++ {
		result = e.Step()
		if result == Done {
			return result
		}
		if result == Suspend {
			time.Sleep(time.Millisecond)
		}
	}
	return result
}
