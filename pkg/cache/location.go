package cache

import (
	"path/filepath"
	"strings"

	"github.com/gqcore/gqcore/pkg/digest"
)

// Mode selects how a cache kind's files are laid out on disk.
type Mode int

const (
	// ModeMirrored places cache files under a cache root, mirroring the
	// source tree's directory structure. The default for all three kinds.
	ModeMirrored Mode = iota
	// ModeCacheInDirs places cache files next to the source file, in a
	// hidden subdirectory. Only meaningful for Thumb and Sim.
	ModeCacheInDirs
	// ModeStandardShared is the XDG shared thumbnail cache convention:
	// files keyed by the MD5 of the source's file:// URI, bucketed into
	// normal/large/fail. Only meaningful for Thumb.
	ModeStandardShared
)

// cacheInDirsSubdir returns the hidden subdirectory name used next to a
// source file when a kind operates in ModeCacheInDirs.
func cacheInDirsSubdir(kind Kind) string {
	switch kind {
	case Thumb:
		return ".thumbnails"
	case Sim:
		return ".simcache"
	default:
		return ".cache"
	}
}

// Layout describes where cache files for each kind are rooted and which
// mode each kind uses.
type Layout struct {
	ThumbRoot string
	SimRoot   string
	MetaRoot  string

	ThumbMode Mode
	SimMode   Mode
}

// StandardBucket names the three size buckets of the shared thumbnail
// cache convention.
type StandardBucket string

const (
	BucketNormal StandardBucket = "normal"
	BucketLarge  StandardBucket = "large"
	BucketFail   StandardBucket = "fail"
)

// mirroredPath joins root with source's path, dropping the leading
// separator so the result stays inside root, preserving full directory
// structure (and therefore resolving any basename collision, since the
// whole source path becomes part of the cache path).
func mirroredPath(root, source string) string {
	trimmed := strings.TrimPrefix(filepath.ToSlash(source), "/")
	return filepath.Join(root, filepath.FromSlash(trimmed))
}

// Location computes the cache-file path for kind and source under the
// mirrored or cache-in-dirs layout. For Thumb in ModeStandardShared, use
// StandardLocation instead — that mode requires a bucket, which depends
// on the requested thumbnail size rather than on source alone.
func (l Layout) Location(kind Kind, source string) string {
	switch kind {
	case Thumb:
		if l.ThumbMode == ModeCacheInDirs {
			return filepath.Join(filepath.Dir(source), cacheInDirsSubdir(Thumb), filepath.Base(source))
		}
		return mirroredPath(l.ThumbRoot, source)
	case Sim:
		if l.SimMode == ModeCacheInDirs {
			return filepath.Join(filepath.Dir(source), cacheInDirsSubdir(Sim), filepath.Base(source))
		}
		return mirroredPath(l.SimRoot, source)
	case Metadata:
		return mirroredPath(l.MetaRoot, source)
	default:
		return ""
	}
}

// StandardLocation computes the shared/standard thumbnail cache path for
// source in the given bucket: <ThumbRoot>/<bucket>/<md5(file-uri)>.png.
func (l Layout) StandardLocation(bucket StandardBucket, source string) string {
	sum := digest.OfString(digest.FileURI(source))
	return filepath.Join(l.ThumbRoot, string(bucket), sum.String()+".png")
}

// SourceFromMirrored reverses Location for a mirrored-layout cache path,
// recovering the absolute source path a cache file under root corresponds
// to. It is how maintenance's orphan purge decides, for each file it
// finds while walking a cache tree, whether the source still exists. It
// only applies to ModeMirrored; cache-in-dirs entries live next to their
// source and have no separate tree to walk for orphans.
func (l Layout) SourceFromMirrored(kind Kind, cachePath string) (string, bool) {
	var root string
	switch kind {
	case Thumb:
		root = l.ThumbRoot
	case Sim:
		root = l.SimRoot
	case Metadata:
		root = l.MetaRoot
	default:
		return "", false
	}

	rel, err := filepath.Rel(root, cachePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return "/" + filepath.ToSlash(rel), true
}
