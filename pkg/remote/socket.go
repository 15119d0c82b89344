package remote

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/gqcore/gqcore/pkg/fsutil"
)

// socketName is the filename of the remote-control Unix domain socket,
// placed under the runtime directory rather than the data directory so
// it's cleaned up by the OS on a typical per-session tmpfs.
const socketName = ".command"

// SocketPath computes the path of the remote-control socket, preferring
// $XDG_RUNTIME_DIR and falling back to gqcore's own data directory when
// no runtime directory is set (e.g. outside a user session).
func SocketPath() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		dir := filepath.Join(runtimeDir, "gqcore")
		if err := os.MkdirAll(dir, 0700); err != nil {
			return "", errors.Wrap(err, "unable to create runtime directory")
		}
		return filepath.Join(dir, socketName), nil
	}
	dir, err := fsutil.Subpath(true)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, socketName), nil
}

// probeExisting reports whether a live server is already listening at
// path: the path must exist, be a socket, and accept a connection.
func probeExisting(path string) bool {
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&os.ModeSocket == 0 {
		return false
	}
	conn, err := net.DialTimeout("unix", path, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// NewListener creates the remote-control listener, unlinking a stale
// socket left behind by a crashed server. If a server is already
// running at path, it returns ErrAlreadyRunning so the caller can fall
// back to acting as a client instead.
func NewListener(path string) (net.Listener, error) {
	if _, err := os.Lstat(path); err == nil {
		if probeExisting(path) {
			return nil, ErrAlreadyRunning
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "unable to remove stale socket")
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "unable to stat socket path")
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to bind remote socket")
	}
	if err := os.Chmod(path, 0600); err != nil {
		listener.Close()
		return nil, errors.Wrap(err, "unable to set socket permissions")
	}
	return listener, nil
}

// DialTimeout attempts to connect to a running remote-control server.
func DialTimeout(path string, timeout time.Duration) (net.Conn, error) {
	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to remote socket: %w", err)
	}
	return conn, nil
}

// ErrAlreadyRunning is returned by NewListener when an existing server
// is already bound to the socket path.
var ErrAlreadyRunning = errors.New("a remote server is already running")
