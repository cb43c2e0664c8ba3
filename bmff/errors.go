package bmff

import "errors"

var (
	// ErrMissingMoov is the structural hard error for embed: the buffer is
	// not a valid MP4-family container.
	ErrMissingMoov = errors.New("bmff: missing moov box")

	// ErrNoMetadata is the soft signal for extract: the container is intact
	// but carries no TRACE vendor box. Callers fall back to sidecar files.
	ErrNoMetadata = errors.New("bmff: no embedded metadata")

	// ErrBoxNotFound is returned by SpliceBox when no box carries the
	// requested tag.
	ErrBoxNotFound = errors.New("bmff: box not found")
)

// IsNoMetadata reports whether err signals absence of embedded metadata
// rather than a structural failure.
func IsNoMetadata(err error) bool { return errors.Is(err, ErrNoMetadata) }
