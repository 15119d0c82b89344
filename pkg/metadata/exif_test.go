package metadata

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadExifOnNonImageReturnsEmptyNotError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-an-image.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0644); err != nil {
		t.Fatal(err)
	}

	ex, err := ReadExif(path)
	if err != nil {
		t.Fatalf("expected no error for a file with no EXIF, got %v", err)
	}
	if ex.Original != nil || ex.Digitized != nil || ex.Geocoded {
		t.Errorf("expected an empty Exif, got %+v", ex)
	}
}

func TestReadExifMissingFileReturnsError(t *testing.T) {
	_, err := ReadExif(filepath.Join(t.TempDir(), "does-not-exist.jpg"))
	if err == nil {
		t.Error("expected an error for a missing file")
	}
}
