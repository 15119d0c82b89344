package cache

import (
	"github.com/gqcore/gqcore/pkg/digest"
	"github.com/gqcore/gqcore/pkg/similarity"
)

// Entry is an in-memory materialization of a persisted cache record. Each
// field is independently present or absent; a partial entry (e.g.
// dimensions alone, with no fingerprint) is legal and common — it is
// exactly what an orphan-aware render pass produces as a cheap byproduct.
type Entry struct {
	SourcePath string

	HasDims bool
	Width   int
	Height  int

	HasDate bool
	Date    int64 // seconds since epoch

	HasMD5 bool
	MD5    digest.Digest

	HasFingerprint bool
	Fingerprint    similarity.Fingerprint
}
