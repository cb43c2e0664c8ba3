package manifest

import (
	"os"

	"github.com/opencontainers/go-digest"
)

// HashBytes computes the content-addressed digest of data in the wire form
// "sha256:<lowercase-hex>".
func HashBytes(data []byte) string {
	return digest.FromBytes(data).String()
}

// HashFile computes the content digest of the complete, exact file contents.
//
// The whole file is read into memory; the digest covers final bytes, not a
// parsed or re-derived representation. Any single-bit change in the asset
// produces a different digest.
func HashFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashBytes(b), nil
}

// ValidateHash rejects malformed content-hash strings before any hashing or
// signing work begins. Only sha256 digests are valid in v1 manifests.
func ValidateHash(s string) error {
	d, err := digest.Parse(s)
	if err != nil {
		return wrapError(KindValidation, "TRACE-MAN-121", "malformed content hash", err)
	}
	if d.Algorithm() != digest.SHA256 {
		return newError(KindValidation, "TRACE-MAN-122", "unsupported content hash algorithm")
	}
	return nil
}
