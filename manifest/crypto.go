package manifest

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"xdao.co/traceprov/keys"
)

// Sign produces a detached base64 Ed25519 signature over the canonical
// encoding of the manifest. Ed25519 signs the canonical bytes raw; its
// internal hashing suffices, and independent implementations can verify
// without a pre-hash convention.
func Sign(m *Manifest, privateKey ed25519.PrivateKey) (string, error) {
	enc, err := Encode(m)
	if err != nil {
		return "", err
	}
	if l := len(privateKey); l != ed25519.PrivateKeySize {
		return "", newError(KindCrypto, "TRACE-CRYPTO-101", "invalid ed25519 private key length")
	}
	return keys.SignEd25519(enc, privateKey), nil
}

// VerifySignature checks sigB64 against the re-derived canonical encoding of
// m, using the public key the manifest itself carries in provider.public_key.
//
// Supported provider-key encodings:
//   - ed25519:<base64>
//   - dilithium3:<base64>
func VerifySignature(m *Manifest, sigB64 string) error {
	enc, err := Encode(m)
	if err != nil {
		return err
	}

	pk := m.Provider.PublicKey
	if pk == "" {
		return newError(KindCrypto, "TRACE-CRYPTO-102", "missing provider.public_key")
	}
	alg, _, ok := strings.Cut(pk, ":")
	if !ok {
		return newError(KindCrypto, "TRACE-CRYPTO-111", "invalid provider key encoding")
	}

	sig, err := decodeBase64(sigB64)
	if err != nil {
		return wrapError(KindCrypto, "TRACE-CRYPTO-131", "invalid signature base64", err)
	}

	switch alg {
	case "ed25519":
		pub, err := keys.ParseProviderKey(pk)
		if err != nil {
			return wrapError(KindCrypto, "TRACE-CRYPTO-113", "invalid provider key", err)
		}
		if len(sig) != ed25519.SignatureSize {
			return newError(KindCrypto, "TRACE-CRYPTO-132", "invalid ed25519 signature length")
		}
		if !keys.VerifyEd25519(enc, sig, pub) {
			return newError(KindCrypto, "TRACE-CRYPTO-401", "signature invalid")
		}
		return nil
	case "dilithium3":
		raw, err := decodeBase64(strings.TrimPrefix(pk, "dilithium3:"))
		if err != nil {
			return wrapError(KindCrypto, "TRACE-CRYPTO-114", "invalid provider key base64", err)
		}
		var pub mode3.PublicKey
		if err := pub.UnmarshalBinary(raw); err != nil {
			return wrapError(KindCrypto, "TRACE-CRYPTO-115", "invalid dilithium3 public key", err)
		}
		if len(sig) != mode3.SignatureSize {
			return newError(KindCrypto, "TRACE-CRYPTO-133", "invalid dilithium3 signature length")
		}
		ok, err := keys.VerifyDilithium3(enc, sig, "sha256", &pub)
		if err != nil {
			return wrapError(KindCrypto, "TRACE-CRYPTO-301", "dilithium3 verification failed", err)
		}
		if !ok {
			return newError(KindCrypto, "TRACE-CRYPTO-401", "signature invalid")
		}
		return nil
	default:
		return newError(KindCrypto, "TRACE-CRYPTO-112", "unsupported provider key encoding")
	}
}

func decodeBase64(s string) ([]byte, error) {
	// Prefer standard padded encoding, but accept raw encoding too.
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
