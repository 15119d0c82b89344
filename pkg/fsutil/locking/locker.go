//go:build !windows

// Package locking provides advisory file locking. gqcore uses it for the
// cache-root lock that serve and the one-shot cache subcommands hold, so
// a maintenance pass cannot race a running server's cache writes.
package locking

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Locker provides file locking facilities backed by flock(2).
type Locker struct {
	file *os.File
	held bool
}

// NewLocker creates a lock on the file at path, creating it if necessary.
// The lock is returned in an unlocked state.
func NewLocker(path string, permissions os.FileMode) (*Locker, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, permissions)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open lock file")
	}
	return &Locker{file: file}, nil
}

// Lock attempts to acquire the file lock. If block is false and the lock is
// already held elsewhere, it returns immediately with an error.
func (l *Locker) Lock(block bool) error {
	how := unix.LOCK_EX
	if !block {
		how |= unix.LOCK_NB
	}
	if err := unix.Flock(int(l.file.Fd()), how); err != nil {
		return errors.Wrap(err, "unable to acquire lock")
	}
	l.held = true
	return nil
}

// Unlock releases the file lock.
func (l *Locker) Unlock() error {
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		return errors.Wrap(err, "unable to release lock")
	}
	l.held = false
	return nil
}

// Held reports whether the lock is currently held by this Locker.
func (l *Locker) Held() bool {
	return l.held
}

// Close closes the underlying lock file. It does not release the lock; the
// caller should call Unlock first if the lock is held.
func (l *Locker) Close() error {
	return l.file.Close()
}
