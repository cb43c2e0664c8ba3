// Package verify orchestrates evidence resolution, signature checking, and
// hash recomputation into a single three-state outcome.
package verify

import (
	"fmt"
	"os"

	"xdao.co/traceprov/attach"
	"xdao.co/traceprov/manifest"
)

// Status is the terminal verification state. There are exactly three; no
// retries, no partial results.
type Status string

const (
	StatusValid        Status = "VALID"
	StatusInvalid      Status = "INVALID"
	StatusInconclusive Status = "INCONCLUSIVE"
)

// Outcome materializes one verification run.
//
// Manifest and Source are populated whenever evidence was resolved, even for
// INVALID outcomes, so callers can report what was checked. A nil Manifest
// always accompanies INCONCLUSIVE.
type Outcome struct {
	Status   Status
	Reason   string
	Source   attach.Source
	Manifest *manifest.Manifest
}

// Asset verifies the provenance of the asset at path.
//
// The transition order is fixed and short-circuits at the first applicable
// state: missing asset is INCONCLUSIVE, unresolvable or unparseable evidence
// is INCONCLUSIVE, a failed signature is INVALID, a hash mismatch is INVALID,
// anything else is VALID. Absence of evidence is never reported as tampering,
// and VALID requires both a valid signature and a matching hash.
//
// The hash is recomputed over the asset's content bytes with attached
// evidence stripped, mirroring how stamping hashed them before embedding.
func Asset(path string) Outcome {
	asset, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Outcome{
				Status: StatusInconclusive,
				Reason: fmt.Sprintf("asset file not found: %s", path),
			}
		}
		return Outcome{
			Status: StatusInconclusive,
			Reason: fmt.Sprintf("asset file unreadable: %v", err),
		}
	}

	ev, err := attach.Resolve(path, asset)
	if err != nil {
		return Outcome{
			Status: StatusInconclusive,
			Reason: "no provenance found (no embedded metadata or sidecar files)",
		}
	}

	m, err := manifest.Parse(ev.Canonical)
	if err != nil {
		return Outcome{
			Status: StatusInconclusive,
			Reason: fmt.Sprintf("manifest could not be parsed: %v", err),
			Source: ev.Source,
		}
	}

	if err := manifest.VerifySignature(m, ev.Signature); err != nil {
		return Outcome{
			Status:   StatusInvalid,
			Reason:   "signature verification failed over the canonical manifest",
			Source:   ev.Source,
			Manifest: m,
		}
	}

	computed := manifest.HashBytes(attach.ForPath(path).Strip(asset))
	if computed != m.Output.Hash {
		return Outcome{
			Status:   StatusInvalid,
			Reason:   fmt.Sprintf("asset hash mismatch: computed %s, manifest records %s", computed, m.Output.Hash),
			Source:   ev.Source,
			Manifest: m,
		}
	}

	return Outcome{
		Status:   StatusValid,
		Reason:   "signature valid and asset hash matches manifest",
		Source:   ev.Source,
		Manifest: m,
	}
}
