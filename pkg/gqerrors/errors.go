// Package gqerrors defines the closed set of first-class error kinds used
// across the core: NotFound, Io, Permission, StaleCache, DecodeFailed,
// ProtocolError, Cancelled, and Internal. Each kind is a sentinel usable
// with errors.Is; Wrap attaches context and an optional underlying OS
// error while preserving the kind for classification.
package gqerrors

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Test membership with errors.Is, not equality,
// since Wrap returns a distinct wrapping value each time.
var (
	// NotFound indicates a path absent, a cache miss, or an unknown verb.
	NotFound = errors.New("not found")
	// Io indicates a stat/open/read/write/unlink/mkdir failure.
	Io = errors.New("i/o error")
	// Permission indicates a write was attempted where not permitted.
	Permission = errors.New("permission denied")
	// StaleCache indicates a cache file was found but its mtime did not
	// match the source; it is treated as a miss by callers.
	StaleCache = errors.New("stale cache entry")
	// DecodeFailed indicates the image loader returned no pixels. For the
	// class=broken predicate this is actually a match, not a failure.
	DecodeFailed = errors.New("decode failed")
	// ProtocolError indicates a malformed remote command.
	ProtocolError = errors.New("protocol error")
	// Cancelled indicates the caller requested that an operation stop.
	Cancelled = errors.New("cancelled")
	// Internal indicates a condition that should be unreachable given the
	// program's own invariants. Internal errors are logged, never
	// propagated to a caller.
	Internal = errors.New("internal error")
)

// kindError pairs a sentinel kind with a contextual message and an
// optional wrapped cause, so errors.Is(err, gqerrors.Io) keeps working
// after fmt.Errorf-style wrapping.
type kindError struct {
	kind    error
	message string
	cause   error
}

func (e *kindError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind.Error(), e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind.Error(), e.message)
}

func (e *kindError) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return e.kind
}

func (e *kindError) Is(target error) bool {
	return target == e.kind
}

// Wrap attaches kind and a description to cause, which may be nil.
func Wrap(kind error, message string, cause error) error {
	return &kindError{kind: kind, message: message, cause: cause}
}

// New creates a new kind-classified error with no wrapped cause.
func New(kind error, message string) error {
	return &kindError{kind: kind, message: message}
}

// Kind classifies err against the known sentinel kinds, returning Internal
// if none match.
func Kind(err error) error {
	for _, kind := range []error{NotFound, Io, Permission, StaleCache, DecodeFailed, ProtocolError, Cancelled, Internal} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return Internal
}
