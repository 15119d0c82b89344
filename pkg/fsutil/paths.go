// Package fsutil collects the filesystem primitives shared across the
// core: path normalization, the on-disk layout of gqcore's data directory,
// sorted directory listings for deterministic traversal, and advisory file
// locking (in the locking subpackage).
package fsutil

import (
	"os"
	"os/user"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	// DataDirectoryName is the name of gqcore's data directory inside the
	// user's home directory.
	DataDirectoryName = ".gqcore"
	// ThumbnailsDirectoryName is the thumbnail cache subdirectory.
	ThumbnailsDirectoryName = "thumbnails"
	// SimilarityDirectoryName is the similarity-fingerprint cache
	// subdirectory.
	SimilarityDirectoryName = "sim"
	// MetadataDirectoryName is the metadata cache subdirectory.
	MetadataDirectoryName = "metadata"
	// DaemonDirectoryName is the subdirectory holding the remote-control
	// socket and daemon lock.
	DaemonDirectoryName = "daemon"
	// CollectionsDirectoryName holds persisted collection files.
	CollectionsDirectoryName = "collections"
)

// HomeDirectory is the cached path to the current user's home directory.
var HomeDirectory string

// DataDirectoryPath is the path to gqcore's data directory. It may be
// overridden (e.g. by tests) before any calls that depend on it.
var DataDirectoryPath string

func init() {
	h, err := os.UserHomeDir()
	if err != nil || h == "" {
		h = os.TempDir()
	}
	HomeDirectory = h
	DataDirectoryPath = filepath.Join(HomeDirectory, DataDirectoryName)
}

// tildeExpand expands a leading ~ or ~user in path.
func tildeExpand(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	separatorIndex := -1
	for i := 0; i < len(path); i++ {
		if os.IsPathSeparator(path[i]) {
			separatorIndex = i
			break
		}
	}

	var username, remaining string
	if separatorIndex > 0 {
		username = path[1:separatorIndex]
		remaining = path[separatorIndex+1:]
	} else {
		username = path[1:]
	}

	var home string
	if username == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "unable to compute path to home directory")
		}
		home = h
	} else {
		u, err := user.Lookup(username)
		if err != nil {
			return "", errors.Wrap(err, "unable to lookup user")
		}
		home = u.HomeDir
	}

	return filepath.Join(home, remaining), nil
}

// Normalize normalizes a path: it expands a leading home-directory tilde,
// converts the result to an absolute path, and cleans it. Every FileData's
// path is the result of Normalize, so two different spellings of the same
// path always resolve to the same registry entry.
func Normalize(path string) (string, error) {
	path, err := tildeExpand(path)
	if err != nil {
		return "", errors.Wrap(err, "unable to perform tilde expansion")
	}
	path, err = filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(err, "unable to compute absolute path")
	}
	return path, nil
}

// Subpath computes (and optionally creates) a subdirectory of gqcore's data
// directory.
func Subpath(create bool, components ...string) (string, error) {
	result := filepath.Join(DataDirectoryPath, filepath.Join(components...))
	if create {
		if err := os.MkdirAll(result, 0700); err != nil {
			return "", errors.Wrap(err, "unable to create subpath")
		}
	}
	return result, nil
}
