package manifest

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"io"
	"path/filepath"
	"strings"
	"time"

	"xdao.co/traceprov/keys"
)

// nonceSize is 128 bits of CSPRNG entropy, the minimum that makes two
// otherwise-identical manifests distinct signing scopes.
const nonceSize = 16

// BuildParams carries the caller-supplied identity and claims for a stamp.
type BuildParams struct {
	AssetPath string
	Operation Operation
	Provider  Provider // PublicKey optional; derived from the signing key when empty
	Model     Model
	InputHash string // optional; required in practice for ai_transformed

	// HashAsset overrides content hashing; nil means HashFile. Stamping
	// pipelines inject a codec-aware hasher that ignores previously attached
	// evidence, so re-stamping an asset hashes the same content bytes.
	HashAsset func(path string) (string, error)

	// Clock and entropy sources; nil means time.Now / crypto-rand.
	Now  func() time.Time
	Rand io.Reader
}

// Stamped is the result of building and signing a manifest. The manifest is
// returned, not persisted; attachment is the caller's concern.
type Stamped struct {
	Manifest  *Manifest
	Canonical []byte // canonical manifest bytes, the exact signature scope
	Signature string // detached base64 Ed25519 signature
	Warnings  []string
}

// Build assembles a provenance manifest for the asset at params.AssetPath,
// computes its content hash, and signs the canonical encoding.
//
// ai_transformed with no input hash produces a manifest with input.hash null
// and a warning, not a hard error: an incomplete chain is still a claim
// worth recording.
func Build(params BuildParams, signingKey ed25519.PrivateKey) (*Stamped, error) {
	switch params.Operation {
	case OpAIGenerated, OpAITransformed:
	default:
		return nil, newError(KindValidation, "TRACE-MAN-106", "unknown operation")
	}
	// Reject malformed inputs before any hashing or signing work.
	if params.InputHash != "" {
		if err := ValidateHash(params.InputHash); err != nil {
			return nil, err
		}
	}
	if l := len(signingKey); l != ed25519.PrivateKeySize {
		return nil, newError(KindCrypto, "TRACE-CRYPTO-101", "invalid ed25519 private key length")
	}

	var warnings []string
	if params.Operation == OpAITransformed && params.InputHash == "" {
		warnings = append(warnings, "ai_transformed without input hash; input.hash will be null")
	}

	hashAsset := params.HashAsset
	if hashAsset == nil {
		hashAsset = HashFile
	}
	outputHash, err := hashAsset(params.AssetPath)
	if err != nil {
		return nil, wrapError(KindAvailability, "TRACE-MAN-130", "cannot read asset", err)
	}

	provider := params.Provider
	if provider.PublicKey == "" {
		pub, err := keys.DerivePublicKey(signingKey)
		if err != nil {
			return nil, wrapError(KindCrypto, "TRACE-CRYPTO-103", "cannot derive public key", err)
		}
		provider.PublicKey, err = keys.ProviderKeyFromPublicKey(pub)
		if err != nil {
			return nil, wrapError(KindCrypto, "TRACE-CRYPTO-103", "cannot derive public key", err)
		}
	}

	now := params.Now
	if now == nil {
		now = time.Now
	}
	entropy := params.Rand
	if entropy == nil {
		entropy = rand.Reader
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(entropy, nonce); err != nil {
		return nil, wrapError(KindCrypto, "TRACE-CRYPTO-104", "nonce generation failed", err)
	}

	m := &Manifest{
		SpecVersion:  SpecVersion,
		MediaProfile: MediaProfileVideo,
		Provider:     provider,
		Operation:    params.Operation,
		Model:        params.Model,
		Timestamps:   Timestamps{CreatedUTC: now().UTC().Format(time.RFC3339)},
		Output: Output{
			Hash:      outputHash,
			MediaType: MediaTypeForPath(params.AssetPath),
		},
		Claims: ClaimsFor(params.Operation),
		Nonce:  hex.EncodeToString(nonce),
	}
	if params.InputHash != "" {
		h := params.InputHash
		m.Input.Hash = &h
	}

	if err := Validate(m); err != nil {
		return nil, err
	}

	enc, err := Encode(m)
	if err != nil {
		return nil, err
	}
	return &Stamped{
		Manifest:  m,
		Canonical: enc,
		Signature: keys.SignEd25519(enc, signingKey),
		Warnings:  warnings,
	}, nil
}

// MediaTypeForPath derives the output media type from the file extension.
// Unknown extensions silently default to MP4.
func MediaTypeForPath(path string) MediaType {
	if strings.EqualFold(filepath.Ext(path), ".webm") {
		return MediaTypeWebM
	}
	return MediaTypeMP4
}
