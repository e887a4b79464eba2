// Package crypto exposes the minimal primitives used by fuselink.
//
// Contents
//
//   - X25519 key generation with RFC 7748 clamping and Diffie–Hellman
//     (GenerateX25519, DH)
//   - Session-key derivation over the agreed secret (DeriveSessionKey)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//   - Base64 helpers for token and CLI output (B64, B64Decode)
//
// All functions return fixed-size array types defined in internal/domain to
// avoid accidental reallocations. Callers should treat returned secrets as
// sensitive and rely on memzero.Wipe when practical.
package crypto
