// Package cache implements the on-disk thumbnail, similarity-fingerprint,
// and metadata caches: a deterministic mapping from source path to cache
// path, a small versioned binary format for the thumb/sim records, and
// the find/load/save/move/remove operations the rest of the core drives
// through the notify bus and the maintenance engine.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gqcore/gqcore/pkg/gqerrors"
)

// Store owns a Layout and performs cache I/O against it.
type Store struct {
	Layout Layout
}

// NewStore creates a Store with the given layout.
func NewStore(layout Layout) *Store {
	return &Store{Layout: layout}
}

// Find returns the cache path for kind/source if a file exists there and
// its mtime matches sourceMtime. A mismatch is reported by returning
// ok=false, not an error — a stale cache entry is an ordinary miss.
func (s *Store) Find(kind Kind, source string, sourceMtime time.Time) (path string, ok bool, err error) {
	path = s.Layout.Location(kind, source)
	info, statErr := os.Stat(path)
	if os.IsNotExist(statErr) {
		return path, false, nil
	}
	if statErr != nil {
		return path, false, gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("stat cache file for '%s'", source), statErr)
	}
	if !info.ModTime().Equal(sourceMtime) {
		return path, false, nil
	}
	return path, true, nil
}

// Load finds and deserializes the cache entry for kind/source. It returns
// gqerrors.NotFound (wrapped) if no valid entry exists.
func (s *Store) Load(kind Kind, source string, sourceMtime time.Time) (*Entry, error) {
	path, ok, err := s.Find(kind, source, sourceMtime)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, gqerrors.New(gqerrors.NotFound, fmt.Sprintf("no valid %s cache entry for '%s'", kind, source))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("read cache file '%s'", path), err)
	}

	entry, err := Decode(data, source)
	if err != nil {
		return nil, gqerrors.Wrap(gqerrors.StaleCache, fmt.Sprintf("decode cache file '%s'", path), err)
	}
	return entry, nil
}

// Save serializes entry and writes it to the cache location for kind,
// creating parent directories as needed, then sets the written file's
// mtime to sourceMtime. The write is committed (renamed into place)
// before the mtime is set, so a crash in between leaves a cache file that
// will simply be rejected as stale on the next Find — never one that
// looks valid but holds the wrong content.
func (s *Store) Save(kind Kind, entry *Entry, sourceMtime time.Time) error {
	path := s.Layout.Location(kind, entry.SourcePath)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("create cache directory for '%s'", path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, Encode(entry), 0644); err != nil {
		return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("write cache file '%s'", tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("commit cache file '%s'", path), err)
	}

	if err := os.Chtimes(path, sourceMtime, sourceMtime); err != nil {
		return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("set mtime on cache file '%s'", path), err)
	}
	return nil
}

// Move relocates the cache files for all three kinds from src to dst,
// following a source file rename or move. Kinds with no existing cache
// file are silently skipped, since a partial cache state is legal. If a
// move fails partway (e.g. destination directory could not be created),
// the source cache file is unlinked rather than left referring to a
// source path that no longer exists.
func (s *Store) Move(src, dst string) error {
	for _, kind := range []Kind{Thumb, Sim, Metadata} {
		srcPath := s.Layout.Location(kind, src)
		dstPath := s.Layout.Location(kind, dst)

		if _, err := os.Stat(srcPath); os.IsNotExist(err) {
			continue
		} else if err != nil {
			return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("stat cache file '%s'", srcPath), err)
		}

		if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
			os.Remove(srcPath)
			return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("create destination cache directory for '%s'", dstPath), err)
		}
		if err := os.Rename(srcPath, dstPath); err != nil {
			os.Remove(srcPath)
			return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("move cache file '%s' to '%s'", srcPath, dstPath), err)
		}
	}
	return nil
}

// Remove unlinks the cache files for all three kinds for source. Missing
// files are not an error.
func (s *Store) Remove(source string) error {
	for _, kind := range []Kind{Thumb, Sim, Metadata} {
		path := s.Layout.Location(kind, source)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("remove cache file '%s'", path), err)
		}
	}
	return nil
}
