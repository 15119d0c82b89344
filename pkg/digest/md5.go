// Package digest computes the 16-byte content digest used to key the
// shared/standard thumbnail cache layout and provides the hex<->bytes
// conversions needed to serialize it.
package digest

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Size is the length, in bytes, of an MD5 digest.
const Size = md5.Size

// Digest is a 16-byte content digest.
type Digest [Size]byte

// String renders the digest as 32 lowercase hex characters.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ParseHex parses a 32-character hex string into a Digest.
func ParseHex(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("invalid digest hex: %w", err)
	}
	if len(b) != Size {
		return d, fmt.Errorf("invalid digest length: %d", len(b))
	}
	copy(d[:], b)
	return d, nil
}

// OfBytes computes the MD5 digest of b.
func OfBytes(b []byte) Digest {
	return Digest(md5.Sum(b))
}

// OfString computes the MD5 digest of s, used to key the shared thumbnail
// cache by the canonical file:// URI of a source path.
func OfString(s string) Digest {
	return OfBytes([]byte(s))
}

// OfFile streams the content of the file at path through MD5, avoiding
// loading the whole file into memory. This is the digest recorded in a
// CacheEntry's MD5S chunk.
func OfFile(path string) (Digest, error) {
	var d Digest
	f, err := os.Open(path)
	if err != nil {
		return d, err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return d, err
	}
	copy(d[:], h.Sum(nil))
	return d, nil
}

// FileURI computes the canonical file:// URI for an absolute path, as used
// by the shared/standard thumbnail cache key.
func FileURI(absolutePath string) string {
	return "file://" + absolutePath
}
