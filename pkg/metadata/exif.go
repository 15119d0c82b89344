// Package metadata implements the lazy-fill EXIF/GPS reads and the
// magic-byte format-class refinement the registry's extension-only guess
// can't provide on its own.
package metadata

import (
	"fmt"
	"os"
	"time"

	"github.com/gqcore/gqcore/pkg/gqerrors"
	"github.com/rwcarlsen/goexif/exif"
)

// Exif holds the lazily-filled EXIF fields a FileData carries: original
// and digitized capture times, and GPS coordinates when geocoded.
type Exif struct {
	Original  *time.Time
	Digitized *time.Time

	Geocoded bool
	Lat, Lon float64

	decoded *exif.Exif
}

// TagString returns the formatted value of the named EXIF tag (e.g.
// "Make", "Model", "ISOSpeedRatings"), for the Exif search predicate's
// arbitrary-tag-name matching. Absent tags, or an Exif with no decoded
// block at all, report false rather than an error.
func (x *Exif) TagString(name string) (string, bool) {
	if x.decoded == nil {
		return "", false
	}
	tag, err := x.decoded.Get(exif.FieldName(name))
	if err != nil {
		return "", false
	}
	return tag.String(), true
}

// ReadExif decodes the EXIF block of the file at path, if any. A file
// with no EXIF data (or no EXIF support for its format) returns a zero
// Exif and a nil error — absence of EXIF is not a failure condition.
func ReadExif(path string) (*Exif, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("open '%s' for EXIF read", path), err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// No EXIF block, or an unsupported container: treat as "no EXIF",
		// not an error, so a predicate testing an EXIF field on a PNG just
		// finds nothing rather than failing the whole evaluation.
		return &Exif{}, nil
	}

	result := &Exif{decoded: x}
	if tag, err := x.Get(exif.DateTimeOriginal); err == nil {
		if s, err := tag.StringVal(); err == nil {
			if t, err := time.Parse("2006:01:02 15:04:05", s); err == nil {
				result.Original = &t
			}
		}
	}
	if tag, err := x.Get(exif.DateTimeDigitized); err == nil {
		if s, err := tag.StringVal(); err == nil {
			if t, err := time.Parse("2006:01:02 15:04:05", s); err == nil {
				result.Digitized = &t
			}
		}
	}
	if lat, lon, err := x.LatLong(); err == nil {
		result.Geocoded = true
		result.Lat = lat
		result.Lon = lon
	}

	return result, nil
}
