package metadata

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectMIME sniffs the file at path's magic bytes and returns its MIME
// type, refining the registry's extension-only classification. An
// extensionless file, or one whose extension was misleading (a renamed
// download, for instance), still gets a usable class this way.
func DetectMIME(path string) (string, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	return mtype.String(), nil
}

// IsImageMIME reports whether a MIME type (as returned by DetectMIME)
// names a raster image format.
func IsImageMIME(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}

// IsVideoMIME reports whether a MIME type names a video format.
func IsVideoMIME(mime string) bool {
	return strings.HasPrefix(mime, "video/")
}
