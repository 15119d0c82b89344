package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gqcore/gqcore/pkg/digest"
	"github.com/gqcore/gqcore/pkg/similarity"
)

// magic identifies a gqcore cache file. version 1 is the only format that
// has ever existed; a future incompatible change would bump it and
// Decode would reject anything newer than it understands.
var magic = [4]byte{'G', 'Q', 'C', 'C'}

const formatVersion = 1

var (
	tagDims = [4]byte{'D', 'I', 'M', 'S'}
	tagDate = [4]byte{'D', 'A', 'T', 'E'}
	tagMD5  = [4]byte{'M', 'D', '5', 'S'}
	tagSim  = [4]byte{'S', 'I', 'M', ' '}
)

// Encode serializes entry into the versioned chunked format: an 8-byte
// header (magic, version, one reserved byte, two zero bytes) followed by
// a chunk per populated field. Unknown tags written by a future version
// would be skipped by this version's Decode.
func Encode(entry *Entry) []byte {
	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.WriteByte(formatVersion)
	buf.WriteByte(0) // reserved
	buf.Write([]byte{0, 0})

	if entry.HasDims {
		payload := make([]byte, 8)
		binary.BigEndian.PutUint32(payload[0:4], uint32(entry.Width))
		binary.BigEndian.PutUint32(payload[4:8], uint32(entry.Height))
		writeChunk(&buf, tagDims, payload)
	}
	if entry.HasDate {
		payload := make([]byte, 8)
		binary.BigEndian.PutUint64(payload, uint64(entry.Date))
		writeChunk(&buf, tagDate, payload)
	}
	if entry.HasMD5 {
		writeChunk(&buf, tagMD5, entry.MD5[:])
	}
	if entry.HasFingerprint {
		writeChunk(&buf, tagSim, entry.Fingerprint[:])
	}

	return buf.Bytes()
}

func writeChunk(buf *bytes.Buffer, tag [4]byte, payload []byte) {
	buf.Write(tag[:])
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(payload)))
	buf.Write(length[:])
	buf.Write(payload)
}

// Decode parses the chunked format written by Encode. Chunks with an
// unrecognized tag are skipped using their declared length, so a newer
// writer's extra chunks don't break an older reader.
func Decode(data []byte, sourcePath string) (*Entry, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("cache entry too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[0:4], magic[:]) {
		return nil, fmt.Errorf("not a gqcore cache file (bad magic)")
	}
	version := data[4]
	if version > formatVersion {
		return nil, fmt.Errorf("cache file format version %d is newer than supported version %d", version, formatVersion)
	}

	entry := &Entry{SourcePath: sourcePath}
	r := bytes.NewReader(data[8:])

	for r.Len() > 0 {
		var tag [4]byte
		if _, err := io.ReadFull(r, tag[:]); err != nil {
			return nil, fmt.Errorf("truncated chunk tag: %w", err)
		}
		var lengthBytes [4]byte
		if _, err := io.ReadFull(r, lengthBytes[:]); err != nil {
			return nil, fmt.Errorf("truncated chunk length: %w", err)
		}
		length := binary.BigEndian.Uint32(lengthBytes[:])
		payload := make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("truncated chunk payload for tag %q: %w", tag, err)
		}

		switch tag {
		case tagDims:
			if len(payload) == 8 {
				entry.Width = int(binary.BigEndian.Uint32(payload[0:4]))
				entry.Height = int(binary.BigEndian.Uint32(payload[4:8]))
				entry.HasDims = true
			}
		case tagDate:
			if len(payload) == 8 {
				entry.Date = int64(binary.BigEndian.Uint64(payload))
				entry.HasDate = true
			}
		case tagMD5:
			if len(payload) == digest.Size {
				copy(entry.MD5[:], payload)
				entry.HasMD5 = true
			}
		case tagSim:
			if len(payload) == similarity.Size {
				copy(entry.Fingerprint[:], payload)
				entry.HasFingerprint = true
			}
		default:
			// Unknown tag: already consumed via its declared length, skip.
		}
	}

	return entry, nil
}
