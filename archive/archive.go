// Package archive keeps a local content-addressed store of canonical
// manifest bytes and reconstructs chains of custody across them.
//
// The archive is offline and deterministic: it never uses the network and
// never depends on wall-clock time.
package archive

import "github.com/ipfs/go-cid"

// Archive is a minimal content-addressed store for canonical manifest bytes.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written (callers supply canonical bytes).
// - Get MUST return ErrNotFound when the CID is absent.
// - List MUST return a stable order across calls on an unchanged store.
type Archive interface {
	Put(canonical []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
	List() ([]cid.Cid, error)
}
