package attach

import (
	"errors"
	"os"
)

// Source identifies where resolved evidence came from.
type Source string

const (
	SourceEmbedded Source = "embedded"
	SourceSidecar  Source = "sidecar"
)

// ErrNoProvenance signals that neither embedded metadata nor sidecar files
// exist for an asset. Verification reports this as missing evidence, never as
// tampering.
var ErrNoProvenance = errors.New("attach: no provenance found")

// Evidence is the resolved manifest/signature pair for an asset.
type Evidence struct {
	Canonical []byte
	Signature string
	Source    Source
}

// Resolve finds provenance for an asset, trying strategies in fixed order:
// embedded container metadata first, then sidecar files. Any failure on the
// embedded path (absent box, malformed envelope, unparseable container) falls
// through to sidecars; only the absence of both sources is an error.
func Resolve(assetPath string, asset []byte) (Evidence, error) {
	if env, err := extractEmbedded(assetPath, asset); err == nil {
		return Evidence{
			Canonical: []byte(env.Manifest),
			Signature: env.Signature,
			Source:    SourceEmbedded,
		}, nil
	}

	canonical, signature, err := ReadSidecar(assetPath)
	if err != nil {
		if errors.Is(err, ErrNoSidecar) {
			return Evidence{}, ErrNoProvenance
		}
		return Evidence{}, err
	}
	return Evidence{Canonical: canonical, Signature: signature, Source: SourceSidecar}, nil
}

func extractEmbedded(assetPath string, asset []byte) (Envelope, error) {
	payload, err := ForPath(assetPath).Extract(asset)
	if err != nil {
		return Envelope{}, err
	}
	return ParseEnvelope(payload)
}

// Stamp attaches evidence to an asset. Sidecar files are always written;
// container embedding is an additional step and a hard failure when the
// container is structurally invalid. The asset file itself is rewritten only
// on the embed path.
func Stamp(assetPath string, canonical []byte, signature string, embedInContainer bool) error {
	if err := WriteSidecar(assetPath, canonical, signature); err != nil {
		return err
	}
	if !embedInContainer {
		return nil
	}

	info, err := os.Stat(assetPath)
	if err != nil {
		return err
	}
	asset, err := os.ReadFile(assetPath)
	if err != nil {
		return err
	}
	envelope, err := EncodeEnvelope(canonical, signature)
	if err != nil {
		return err
	}
	stamped, err := ForPath(assetPath).Embed(asset, envelope)
	if err != nil {
		return err
	}
	return os.WriteFile(assetPath, stamped, info.Mode().Perm())
}
