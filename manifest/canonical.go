package manifest

import (
	"bytes"
	"encoding/json"
)

// Canonicalize is the mandatory canonicalization choke point for manifests.
//
// Manifest bytes MUST be canonical before signing, verification, or CID
// derivation. Canonical form: every object's keys in strict lexicographic
// order at every depth, arrays in element order, UTF-8, no whitespace, no
// HTML escaping.
//
// The input is decoded into a neutral value first, so the output is
// independent of the key order of the source bytes. Numbers round-trip
// literally (json.Number), never through float64.
func Canonicalize(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, wrapError(KindCanonical, "TRACE-CANON-001", "invalid JSON", err)
	}
	if dec.More() {
		return nil, newError(KindCanonical, "TRACE-CANON-002", "trailing data after JSON value")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// encoding/json serializes map keys in sorted order at every depth,
	// which is exactly the canonical ordering rule.
	if err := enc.Encode(v); err != nil {
		return nil, wrapError(KindCanonical, "TRACE-CANON-003", "canonical encoding failed", err)
	}

	out := buf.Bytes()
	// Encoder.Encode appends a newline; canonical bytes carry none.
	if len(out) > 0 && out[len(out)-1] == '\n' {
		out = out[:len(out)-1]
	}
	return out, nil
}

// Encode returns the canonical byte form of a manifest. This is the exact
// signature scope: identical manifest values always produce byte-identical
// output, independent of construction order.
func Encode(m *Manifest) ([]byte, error) {
	if m == nil {
		return nil, newError(KindCanonical, "TRACE-CANON-004", "nil manifest")
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, wrapError(KindCanonical, "TRACE-CANON-005", "manifest marshal failed", err)
	}
	return Canonicalize(raw)
}
