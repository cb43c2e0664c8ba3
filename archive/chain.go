package archive

import (
	"github.com/ipfs/go-cid"

	"xdao.co/traceprov/manifest"
)

// Link is one step in a chain of custody: an archived manifest and its CID.
type Link struct {
	CID      cid.Cid
	Manifest *manifest.Manifest
}

// Chain walks the custody lineage of a manifest backward through the
// archive: each step finds the archived predecessor whose output hash equals
// the current manifest's input hash, until a root manifest (null input) is
// reached.
//
// The returned links run newest to oldest and exclude the starting manifest
// itself. A missing predecessor yields the partial chain plus
// ErrDanglingLink; a revisited manifest yields the partial chain plus
// ErrCycle. When several archived manifests share an output hash, the one
// with the lexically smallest CID wins, keeping the walk deterministic.
func Chain(a Archive, start *manifest.Manifest) ([]Link, error) {
	index, err := indexByOutputHash(a)
	if err != nil {
		return nil, err
	}

	var links []Link
	seen := make(map[cid.Cid]bool)
	cur := start
	for cur.Input.Hash != nil && *cur.Input.Hash != "" {
		pred, ok := index[*cur.Input.Hash]
		if !ok {
			return links, ErrDanglingLink
		}
		if seen[pred.CID] {
			return links, ErrCycle
		}
		seen[pred.CID] = true
		links = append(links, pred)
		cur = pred.Manifest
	}
	return links, nil
}

// indexByOutputHash loads every archived manifest once. List order is
// lexical by CID, so for duplicate output hashes the first (smallest CID)
// entry sticks.
func indexByOutputHash(a Archive) (map[string]Link, error) {
	ids, err := a.List()
	if err != nil {
		return nil, err
	}
	index := make(map[string]Link, len(ids))
	for _, id := range ids {
		b, err := a.Get(id)
		if err != nil {
			return nil, err
		}
		m, err := manifest.Parse(b)
		if err != nil {
			continue // foreign blob, not a manifest
		}
		if _, exists := index[m.Output.Hash]; exists {
			continue
		}
		index[m.Output.Hash] = Link{CID: id, Manifest: m}
	}
	return index, nil
}
