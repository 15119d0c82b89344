package fsutil

import (
	"io"
	"os"
	"sort"
)

// DirectoryContents lists the contents of the directory at path, sorted by
// name, so directory-mediated operations (search traversal, cache
// maintenance walk) see a deterministic order.
func DirectoryContents(path string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries, nil
}

// IsEmptyDir reports whether the directory at path contains no entries.
// Used by cache maintenance to decide whether to remove a directory after
// purging orphans from it.
func IsEmptyDir(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	_, err = f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	} else if err != nil {
		return false, err
	}
	return false, nil
}
