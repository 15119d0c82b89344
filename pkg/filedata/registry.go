package filedata

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gqcore/gqcore/pkg/fsutil"
	"github.com/gqcore/gqcore/pkg/logging"
	"github.com/gqcore/gqcore/pkg/metastore"
	"github.com/gqcore/gqcore/pkg/notify"
)

// extensionClasses maps a lowercased file extension to its format class.
// Magic-byte sniffing, where needed, is left to the image-loader
// collaborator; this is the cheap extension-based half of classification.
var extensionClasses = map[string]Class{
	".jpg": ClassImage, ".jpeg": ClassImage, ".png": ClassImage,
	".gif": ClassImage, ".bmp": ClassImage, ".webp": ClassImage,
	".tif": ClassImage, ".tiff": ClassImage, ".heic": ClassImage, ".heif": ClassImage,

	".cr2": ClassRawImage, ".cr3": ClassRawImage, ".nef": ClassRawImage,
	".arw": ClassRawImage, ".raf": ClassRawImage, ".dng": ClassRawImage,
	".orf": ClassRawImage, ".rw2": ClassRawImage,

	".xmp": ClassMetadataSidecar, ".thm": ClassMetadataSidecar,

	".mp4": ClassVideo, ".mov": ClassVideo, ".avi": ClassVideo, ".mkv": ClassVideo,

	".gqv": ClassCollection,

	".pdf": ClassDocument, ".txt": ClassDocument,

	".zip": ClassArchive, ".tar": ClassArchive, ".gz": ClassArchive,
}

// classify infers the format class of path from its extension. The
// registry only needs a cheap classification to drive predicate
// evaluation and sidecar grouping.
func classify(path string) Class {
	ext := strings.ToLower(filepath.Ext(path))
	if class, ok := extensionClasses[ext]; ok {
		return class
	}
	return ClassUnknown
}

// Registry is the process-wide associative store mapping canonical path to
// FileData, with reference counting. It is the sole mutable shared
// structure in the core; all mutation happens through its methods and is
// published on the attached notify bus.
type Registry struct {
	mu        sync.Mutex
	entries   map[string]*FileData
	groups    map[string][]*FileData // groupKey -> members, in insertion order
	bus       *notify.Bus
	logger    *logging.Logger
	metaStore metastore.Collaborator
}

// NewRegistry creates an empty registry publishing changes on bus and
// persisting rating/mark edits through metaStore. metaStore may be nil
// (a one-shot caller that never mutates rating or marks doesn't need
// one); RatingSet/MarksSet skip persistence in that case.
func NewRegistry(bus *notify.Bus, logger *logging.Logger, metaStore metastore.Collaborator) *Registry {
	return &Registry{
		entries:   make(map[string]*FileData),
		groups:    make(map[string][]*FileData),
		bus:       bus,
		logger:    logger,
		metaStore: metaStore,
	}
}

// Acquire returns the FileData for path, creating it if absent, and
// increments its reference count. If path does not exist, the returned
// record is flagged Unknown rather than an error being returned.
func (r *Registry) Acquire(path string) (*FileData, error) {
	return r.acquire(path, false)
}

// AcquireDir is like Acquire but marks the record as a directory.
func (r *Registry) AcquireDir(path string) (*FileData, error) {
	return r.acquire(path, true)
}

func (r *Registry) acquire(path string, isDir bool) (*FileData, error) {
	normalized, err := fsutil.Normalize(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if fd, ok := r.entries[normalized]; ok {
		fd.refcount++
		return fd, nil
	}

	fd := &FileData{
		Path:        normalized,
		Name:        filepath.Base(normalized),
		IsDirectory: isDir,
		Rating:      RatingUnset,
		refcount:    1,
	}

	info, statErr := os.Stat(normalized)
	switch {
	case statErr == nil:
		fd.Size = info.Size()
		fd.Mtime = info.ModTime()
		fd.Ctime = statCtime(info)
		if !isDir {
			fd.Class = classify(normalized)
		}
	case os.IsNotExist(statErr):
		fd.Unknown = true
	default:
		// Permission error or similar: record best-effort rather than fail.
		fd.Unknown = true
		r.logger.Warnf("unable to stat '%s': %s", normalized, statErr.Error())
	}

	if !isDir && !fd.Unknown && r.metaStore != nil {
		if record, err := r.metaStore.Load(normalized); err == nil {
			if record.HasRating {
				fd.Rating = record.Rating
			}
			fd.Marks = record.Marks
		} else if r.logger != nil {
			r.logger.Warnf("unable to load metadata for '%s': %s", normalized, err.Error())
		}
	}

	r.entries[normalized] = fd

	if !isDir && !fd.Unknown {
		r.regroup(fd)
	}

	return fd, nil
}

// Release decrements fd's reference count, removing it from the registry
// if it reaches zero and fd is not the primary of a non-empty sidecar
// group.
func (r *Registry) Release(fd *FileData) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fd.refcount--
	if fd.refcount > 0 {
		return
	}
	if fd.refcount < 0 {
		r.logger.Warnf("refcount underflow for '%s'", fd.Path)
		fd.refcount = 0
	}
	if fd.IsSidecarPrimary() {
		return
	}
	delete(r.entries, fd.Path)
	r.removeFromGroup(fd)
}

// Lookup returns the resident FileData for path without affecting its
// refcount, or nil if none exists.
func (r *Registry) Lookup(path string) *FileData {
	normalized, err := fsutil.Normalize(path)
	if err != nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[normalized]
}

// regroup recomputes sidecar grouping for fd against resident FileData in
// the same directory. Called when a FileData is first acquired and when
// grouping is re-enabled; removal goes through removeFromGroup instead.
// Must be called with r.mu held.
func (r *Registry) regroup(fd *FileData) {
	key := groupKey(fd.Path)
	members := append(r.groups[key], fd)
	r.groups[key] = members

	if len(members) == 1 {
		return
	}

	primary := choosePrimary(members)
	for _, m := range members {
		if m == primary {
			m.Parent = nil
			continue
		}
		m.Parent = primary
	}
	primary.Sidecars = primary.Sidecars[:0]
	for _, m := range members {
		if m != primary {
			primary.Sidecars = append(primary.Sidecars, m)
		}
	}

	if r.bus != nil {
		r.bus.Publish(primary, notify.GroupingChanged)
	}
}

// choosePrimary picks the sidecar-group primary: the earliest registered
// member that has neither a sidecar extension nor the metadata-sidecar
// class, or the earliest registered member if every member is a sidecar.
func choosePrimary(members []*FileData) *FileData {
	for _, m := range members {
		if !isSidecarExtension(filepath.Ext(m.Path)) && m.Class != ClassMetadataSidecar {
			return m
		}
	}
	return members[0]
}

// removeFromGroup detaches fd from its sidecar group bookkeeping. Must be
// called with r.mu held.
func (r *Registry) removeFromGroup(fd *FileData) {
	key := groupKey(fd.Path)
	members := r.groups[key]
	for i, m := range members {
		if m == fd {
			members = append(members[:i], members[i+1:]...)
			break
		}
	}
	if len(members) == 0 {
		delete(r.groups, key)
	} else {
		r.groups[key] = members
		if fd.IsSidecarPrimary() {
			// fd was the primary; re-elect one.
			fd.Sidecars = nil
			primary := choosePrimary(members)
			for _, m := range members {
				if m == primary {
					m.Parent = nil
				} else {
					m.Parent = primary
				}
			}
			primary.Sidecars = primary.Sidecars[:0]
			for _, m := range members {
				if m != primary {
					primary.Sidecars = append(primary.Sidecars, m)
				}
			}
		}
	}
}

// DisableGrouping detaches the listed files from their sidecar groups (or
// reattaches them, if disable is false and they were previously detached).
func (r *Registry) DisableGrouping(fdList []*FileData, disable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fd := range fdList {
		if disable {
			r.removeFromGroup(fd)
			fd.Parent = nil
			fd.Sidecars = nil
		} else {
			r.regroup(fd)
		}
	}
}

// NotifyChange installs a change descriptor on fd and publishes it on the
// notify bus. After subscribers run, the descriptor is consumed
// (cleared). On a rename, every sidecar in fd's group receives a
// synthetic rename descriptor with the same basename substitution
// applied, so a renamed image brings its XMP/THM sidecars along with it.
func (r *Registry) NotifyChange(fd *FileData, kind ChangeKind, src, dst string) {
	r.mu.Lock()
	fd.Change = &ChangeDescriptor{Source: src, Destination: dst, Kind: kind}
	sidecars := append([]*FileData(nil), fd.Sidecars...)
	r.mu.Unlock()

	if r.bus != nil {
		r.bus.Publish(fd, notify.Change)
	}

	if kind == ChangeRename && len(sidecars) > 0 {
		dstBase := strings.TrimSuffix(filepath.Base(dst), filepath.Ext(dst))
		for _, sc := range sidecars {
			scDst := filepath.Join(filepath.Dir(sc.Path), dstBase+filepath.Ext(sc.Path))
			r.NotifyChange(sc, ChangeRename, sc.Path, scDst)
		}
	}

	r.mu.Lock()
	fd.Change = nil
	r.mu.Unlock()
}

// RatingSet mutates fd's rating, schedules a deferred metadata write, and
// publishes a metadata-changed event.
func (r *Registry) RatingSet(fd *FileData, rating int) {
	r.mu.Lock()
	fd.Rating = rating
	r.mu.Unlock()
	r.saveMetadata(fd)
	if r.bus != nil {
		r.bus.Publish(fd, notify.MetadataChanged)
	}
}

// MarksSet replaces fd's mark bitset, schedules a deferred metadata write,
// and publishes a marks-changed event.
func (r *Registry) MarksSet(fd *FileData, marks uint16) {
	r.mu.Lock()
	fd.Marks = marks
	r.mu.Unlock()
	r.saveMetadata(fd)
	if r.bus != nil {
		r.bus.Publish(fd, notify.MarksChanged)
	}
}

// saveMetadata persists fd's rating and marks through the metadata
// collaborator. It runs in a goroutine so the caller isn't blocked on
// disk I/O, matching "schedule a deferred write" rather than writing
// synchronously inline. It loads the existing record first so an edit to
// rating doesn't clobber keywords or a comment set through some other
// path, and vice versa.
func (r *Registry) saveMetadata(fd *FileData) {
	if r.metaStore == nil {
		return
	}
	path := fd.Path
	r.mu.Lock()
	rating := fd.Rating
	marks := fd.Marks
	r.mu.Unlock()

	go func() {
		record, err := r.metaStore.Load(path)
		if err != nil {
			if r.logger != nil {
				r.logger.Warnf("unable to load metadata for '%s': %s", path, err.Error())
			}
			record = &metastore.Record{Rating: RatingUnset}
		}
		record.Rating = rating
		record.HasRating = rating != RatingUnset
		record.Marks = marks
		if err := r.metaStore.Save(path, record); err != nil && r.logger != nil {
			r.logger.Warnf("unable to save metadata for '%s': %s", path, err.Error())
		}
	}()
}

// statCtime extracts a best-effort ctime. Go's os.FileInfo doesn't expose
// ctime portably, so this falls back to mtime; platform-specific builds
// may refine this via syscall.Stat_t.
func statCtime(info os.FileInfo) time.Time {
	return info.ModTime()
}
