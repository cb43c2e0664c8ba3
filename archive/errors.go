package archive

import "errors"

var (
	ErrNotFound    = errors.New("archive: not found")
	ErrInvalidCID  = errors.New("archive: invalid cid")
	ErrCIDMismatch = errors.New("archive: cid mismatch")
	ErrImmutable   = errors.New("archive: immutable object mismatch")

	// ErrDanglingLink marks a custody chain whose input hash has no archived
	// predecessor.
	ErrDanglingLink = errors.New("archive: dangling custody link")

	// ErrCycle marks a custody chain that revisits a manifest.
	ErrCycle = errors.New("archive: custody cycle")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
