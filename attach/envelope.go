// Package attach binds provenance evidence to assets: the JSON envelope
// carried inside containers, sidecar files written next to the asset, and the
// ordered resolution path that prefers embedded evidence and falls back to
// sidecars.
package attach

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Envelope is the unit of attached evidence: the canonical manifest text plus
// its detached signature.
//
// The manifest travels as the canonical JSON text itself, not as a nested
// object. The signature covers those exact bytes, so the envelope must never
// subject them to a re-marshal.
type Envelope struct {
	Manifest  string `json:"manifest"`
	Signature string `json:"signature"`
}

// EncodeEnvelope serializes an envelope around canonical manifest bytes and a
// base64 signature.
func EncodeEnvelope(canonical []byte, signature string) ([]byte, error) {
	if len(canonical) == 0 {
		return nil, errors.New("attach: empty canonical manifest")
	}
	if signature == "" {
		return nil, errors.New("attach: empty signature")
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Envelope{Manifest: string(canonical), Signature: signature}); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ParseEnvelope decodes an envelope and rejects one missing either field.
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	if env.Manifest == "" {
		return Envelope{}, errors.New("attach: envelope missing manifest")
	}
	if env.Signature == "" {
		return Envelope{}, errors.New("attach: envelope missing signature")
	}
	return env, nil
}
