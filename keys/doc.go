// Package keys provides the signing primitives and key management used by
// the TRACE-Prov reference implementation.
//
// Stable:
//   - Pure, deterministic primitives: raw Ed25519 sign/verify, provider-key
//     formatting, and role-seed derivation.
//   - PEM encoding of key material (PKCS#8 private, PKIX public).
//
// Experimental:
//   - Filesystem-backed key storage (KeyStore and related functions). These
//     are local-first utilities and not part of the long-term protocol
//     contract.
package keys
