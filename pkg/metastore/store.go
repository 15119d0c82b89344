// Package metastore implements the metadata-store collaborator: the
// persisted side of a FileData's keywords, comment, and rating. The core
// never decides a storage format on its own behalf — it depends on this
// collaborator's interface, and Store is the reference file-backed
// implementation, matching a sidecar key=value text file per source.
package metastore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gqcore/gqcore/pkg/gqerrors"
)

// Record is the persisted metadata for one source file.
type Record struct {
	Keywords  []string
	Comment   string
	Rating    int // RatingUnset-compatible sentinel when HasRating is false
	HasRating bool
	Marks     uint16 // 10-bit mark bitset
}

// Collaborator is the interface the core depends on for metadata
// persistence. Registry.RatingSet/MarksSet load-merge-save through it on
// every change; the search engine's Keywords/Comment/Rating/Marks
// predicates read through it.
type Collaborator interface {
	Load(sourcePath string) (*Record, error)
	Save(sourcePath string, record *Record) error
}

// Store is a file-backed Collaborator: one text file per source, mirrored
// under root the same way pkg/cache mirrors thumb/sim caches, with a
// ".meta" suffix appended to the source's basename.
type Store struct {
	Root string
}

// NewStore creates a Store persisting under root.
func NewStore(root string) *Store {
	return &Store{Root: root}
}

func (s *Store) path(sourcePath string) string {
	trimmed := strings.TrimPrefix(filepath.ToSlash(sourcePath), "/")
	return filepath.Join(s.Root, filepath.FromSlash(trimmed)+".meta")
}

// Load reads the persisted record for sourcePath. A missing file is not
// an error: it returns an empty Record, matching "every file implicitly
// has metadata, most of it just empty."
func (s *Store) Load(sourcePath string) (*Record, error) {
	path := s.path(sourcePath)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return &Record{Rating: -2}, nil
	}
	if err != nil {
		return nil, gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("open metadata file '%s'", path), err)
	}
	defer f.Close()

	record := &Record{Rating: -2}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "keywords":
			if value != "" {
				record.Keywords = strings.Split(value, ",")
			}
		case "comment":
			record.Comment = unescapeNewlines(value)
		case "rating":
			if n, err := strconv.Atoi(value); err == nil {
				record.Rating = n
				record.HasRating = true
			}
		case "marks":
			if n, err := strconv.ParseUint(value, 10, 16); err == nil {
				record.Marks = uint16(n)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("read metadata file '%s'", path), err)
	}
	return record, nil
}

// Save persists record for sourcePath, creating parent directories as
// needed, via a temp-file-then-rename commit.
func (s *Store) Save(sourcePath string, record *Record) error {
	path := s.path(sourcePath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("create metadata directory for '%s'", path), err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "keywords=%s\n", strings.Join(record.Keywords, ","))
	fmt.Fprintf(&b, "comment=%s\n", escapeNewlines(record.Comment))
	if record.HasRating {
		fmt.Fprintf(&b, "rating=%d\n", record.Rating)
	}
	if record.Marks != 0 {
		fmt.Fprintf(&b, "marks=%d\n", record.Marks)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0644); err != nil {
		return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("write metadata file '%s'", tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("commit metadata file '%s'", path), err)
	}
	return nil
}

// Remove deletes the persisted record for sourcePath, if any.
func (s *Store) Remove(sourcePath string) error {
	path := s.path(sourcePath)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("remove metadata file '%s'", path), err)
	}
	return nil
}

func escapeNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", "\\n")
}

func unescapeNewlines(s string) string {
	return strings.ReplaceAll(s, "\\n", "\n")
}
