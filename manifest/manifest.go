// Package manifest implements the TRACE-Prov provenance manifest: a signed,
// canonical record binding who produced a media asset, how, and from what
// input, to the asset's exact bytes.
package manifest

import (
	"encoding/json"

	"xdao.co/traceprov/cidutil"
)

// SpecVersion is the manifest schema version emitted by this implementation.
const SpecVersion = "trace-prov-1"

// MediaProfileVideo is the only media profile defined by v1.
const MediaProfileVideo = "video"

// Operation names the provenance-relevant act that produced the asset.
type Operation string

const (
	OpAIGenerated   Operation = "ai_generated"
	OpAITransformed Operation = "ai_transformed"
)

// MediaType is the container media type of the stamped asset.
type MediaType string

const (
	MediaTypeMP4  MediaType = "video/mp4"
	MediaTypeWebM MediaType = "video/webm"
)

type Provider struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PublicKey string `json:"public_key"`
}

type Model struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

type Timestamps struct {
	CreatedUTC string `json:"created_utc"`
}

// Input references the source asset of a transformation.
//
// Hash serializes as JSON null when absent; the field is never omitted, so
// the canonical form of a generated asset is distinguishable from a
// truncated manifest.
type Input struct {
	Hash *string `json:"hash"`
}

type Output struct {
	Hash      string    `json:"hash"`
	MediaType MediaType `json:"media_type"`
}

// Manifest is the signed provenance record.
//
// Once signed, a manifest is immutable: the signature covers the canonical
// byte form, so any mutation invalidates it by construction. Downstream
// transformations issue a new manifest whose input.hash references the prior
// output.hash, forming a chain of custody.
type Manifest struct {
	SpecVersion  string     `json:"spec_version"`
	MediaProfile string     `json:"media_profile"`
	Provider     Provider   `json:"provider"`
	Operation    Operation  `json:"operation"`
	Model        Model      `json:"model"`
	Timestamps   Timestamps `json:"timestamps"`
	Input        Input      `json:"input"`
	Output       Output     `json:"output"`
	Claims       []string   `json:"claims"`
	Nonce        string     `json:"nonce"`
}

// ClaimsFor returns the claim list derived from an operation. v1 defines
// exactly one claim per operation.
func ClaimsFor(op Operation) []string {
	return []string{string(op)}
}

// Parse decodes manifest JSON and validates the field set.
//
// Parse accepts non-canonical input; callers needing the signature scope
// must re-derive it with Encode.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, wrapError(KindParse, "TRACE-MAN-001", "manifest is not valid JSON", err)
	}
	if err := Validate(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// CID returns a deterministic content identifier for the manifest: a CIDv1
// (raw + sha2-256) derived from the canonical encoding.
func (m *Manifest) CID() (string, error) {
	enc, err := Encode(m)
	if err != nil {
		return "", err
	}
	return cidutil.CIDv1RawSHA256(enc), nil
}
