package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ProviderKeyFromPublicKey encodes an Ed25519 public key into the TRACE-Prov
// provider-key string.
//
// Format: "ed25519:" + base64(pubkey).
func ProviderKeyFromPublicKey(pub ed25519.PublicKey) (string, error) {
	if l := len(pub); l != ed25519.PublicKeySize {
		return "", fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, l)
	}
	return "ed25519:" + base64.StdEncoding.EncodeToString(pub), nil
}

// ParseProviderKey decodes a provider-key string into raw Ed25519 public key
// bytes. Only the "ed25519" encoding is accepted.
func ParseProviderKey(s string) (ed25519.PublicKey, error) {
	alg, enc, ok := strings.Cut(s, ":")
	if !ok {
		return nil, errors.New("invalid provider key encoding")
	}
	if alg != "ed25519" {
		return nil, fmt.Errorf("unsupported provider key algorithm %q", alg)
	}
	b, err := decodeBase64(enc)
	if err != nil {
		return nil, fmt.Errorf("invalid provider key base64: %w", err)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, errors.New("invalid ed25519 public key length")
	}
	return ed25519.PublicKey(b), nil
}

func decodeBase64(s string) ([]byte, error) {
	// Prefer standard padded encoding, but accept raw encoding too.
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
