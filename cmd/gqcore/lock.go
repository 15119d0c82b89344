package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/gqcore/gqcore/pkg/fsutil/locking"
)

// lockFileName is the advisory lock gqcore holds over a cache root for as
// long as it might be mutating it, whether that's the long-lived server
// or a one-shot cache subcommand.
const lockFileName = ".gqcore-cache-lock"

// acquireCacheLock takes a non-blocking exclusive lock on root, creating
// root first if necessary. It fails fast with a clear error rather than
// blocking if another gqcore process (typically 'gqcore serve') already
// holds it, since two processes racing to write the same cache tree would
// otherwise corrupt entries.
func acquireCacheLock(root string) (*locking.Locker, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.Wrap(err, "unable to create cache root")
	}

	locker, err := locking.NewLocker(filepath.Join(root, lockFileName), 0600)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open cache lock file")
	}
	if err := locker.Lock(false); err != nil {
		locker.Close()
		return nil, errors.New("cache root is locked by another gqcore process (is 'gqcore serve' running?)")
	}
	return locker, nil
}
