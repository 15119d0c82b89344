package cache

import (
	"encoding/binary"
	"testing"
)

func TestDecodeRejectsBadMagic(t *testing.T) {
	data := []byte{'X', 'X', 'X', 'X', 1, 0, 0, 0}
	if _, err := Decode(data, "/a"); err == nil {
		t.Error("expected an error for bad magic")
	}
}

func TestDecodeRejectsTruncatedHeader(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}, "/a"); err == nil {
		t.Error("expected an error for a too-short header")
	}
}

func TestDecodeSkipsUnknownChunkTags(t *testing.T) {
	entry := &Entry{SourcePath: "/a", HasDims: true, Width: 50, Height: 60}
	encoded := Encode(entry)

	// Splice in an unknown chunk before the real ones.
	var unknown []byte
	unknown = append(unknown, 'Z', 'Z', 'Z', 'Z')
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], 3)
	unknown = append(unknown, length[:]...)
	unknown = append(unknown, 'x', 'y', 'z')

	spliced := append(append([]byte{}, encoded[:8]...), append(unknown, encoded[8:]...)...)

	decoded, err := Decode(spliced, "/a")
	if err != nil {
		t.Fatalf("expected unknown tags to be skipped, got error: %v", err)
	}
	if !decoded.HasDims || decoded.Width != 50 || decoded.Height != 60 {
		t.Errorf("expected the known DIMS chunk to survive, got %+v", decoded)
	}
}

func TestEncodeOmitsAbsentFields(t *testing.T) {
	entry := &Entry{SourcePath: "/a"}
	encoded := Encode(entry)
	if len(encoded) != 8 {
		t.Errorf("expected a bare 8-byte header for an empty entry, got %d bytes", len(encoded))
	}
}
