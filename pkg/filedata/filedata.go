// Package filedata implements the canonical per-path FileData record and
// the process-wide registry that owns it. Every holder (a search result
// row, a cache operation, an open view) acquires a reference through the
// registry and releases it when done; the registry is the sole mutable
// shared structure in the core.
package filedata

import (
	"path/filepath"
	"strings"
	"time"
)

// Class is the format class inferred for a file.
type Class uint8

const (
	ClassUnknown Class = iota
	ClassImage
	ClassRawImage
	ClassMetadataSidecar
	ClassVideo
	ClassCollection
	ClassDocument
	ClassArchive
)

// String renders the class name used by the Class search predicate and by
// the remote protocol's get-file-info verb.
func (c Class) String() string {
	switch c {
	case ClassImage:
		return "image"
	case ClassRawImage:
		return "raw-image"
	case ClassMetadataSidecar:
		return "metadata-sidecar"
	case ClassVideo:
		return "video"
	case ClassCollection:
		return "collection"
	case ClassDocument:
		return "document"
	case ClassArchive:
		return "archive"
	default:
		return "unknown"
	}
}

// RatingUnset is the sentinel meaning "no rating has been assigned", which
// the rating predicate must distinguish from both -1 ("unrated", a
// deliberate user-facing value) and 0.
const RatingUnset = -2

// ChangeKind enumerates the pending/complete change descriptor kinds.
type ChangeKind uint8

const (
	ChangeUnspecified ChangeKind = iota
	ChangeMove
	ChangeRename
	ChangeCopy
	ChangeDelete
	ChangeWriteMetadata
)

// ChangeDescriptor carries the source/destination paths, kind, and error
// flags of a pending or completed file operation.
type ChangeDescriptor struct {
	Source      string
	Destination string
	Kind        ChangeKind
	Error       bool
}

// FileData is the canonical record for a single filesystem path. Exactly
// one FileData exists per path at any time; the Registry enforces this.
// All mutation goes through Registry methods, which publish notify-bus
// events after updating state.
type FileData struct {
	Path string
	Name string

	Size  int64
	Mtime time.Time
	Ctime time.Time

	ExifOriginal  *time.Time
	ExifDigitized *time.Time

	Class Class

	Marks  uint16 // 10-bit mark bitset
	Rating int    // RatingUnset, or -1..5

	Parent   *FileData
	Sidecars []*FileData

	Change *ChangeDescriptor

	Pixels    interface{} // opaque decoded-pixel handle (image-loader collaborator)
	Histogram interface{} // opaque perceptual-histogram handle

	PageIndex int
	PageTotal int

	OrientationOverride int

	IsDirectory bool
	Unknown     bool // best-effort record; stat failed (permission error, etc.)

	refcount int
}

// IsSidecarPrimary reports whether fd owns a non-empty sidecar group,
// which keeps it alive in the registry even at zero refcount: a record is
// only destroyed when its refcount reaches zero AND it is not the primary
// of a non-empty sidecar group.
func (fd *FileData) IsSidecarPrimary() bool {
	return len(fd.Sidecars) > 0
}

// groupKey computes the sidecar-grouping key for a file: its directory
// plus its case-folded basename with the extension removed. Files sharing
// a group key form a sidecar group.
func groupKey(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.ToLower(strings.TrimSuffix(base, ext))
	return dir + "/" + stem
}

// sidecarExtensions are extensions that are never chosen as a group's
// primary, matching geeqie's notion of a "metadata sidecar" (e.g. XMP
// files riding alongside a RAW or JPEG original).
var sidecarExtensions = map[string]bool{
	".xmp": true,
	".thm": true,
}

// isSidecarExtension reports whether ext (as returned by filepath.Ext,
// including the leading dot) names a metadata-sidecar format.
func isSidecarExtension(ext string) bool {
	return sidecarExtensions[strings.ToLower(ext)]
}

