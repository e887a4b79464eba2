// Package session turns a local key pair and a peer public key into a
// pair-wise encryption context, and performs per-message crypto.
//
// # Flows
//
// Establish:
//  1. Validate the peer key bytes (low-order points are rejected).
//  2. X25519 Diffie–Hellman with the local private key.
//  3. HKDF-SHA256 over the agreed secret to derive the session key.
//  4. Register the session; repeated calls for the same peer and relay
//     address return the existing session.
//
// Encrypt/Decrypt use ChaCha20-Poly1305. The opaque blob handed to the
// relay layer is
//
//	[4B destinationID big-endian][12B nonce][AEAD ciphertext]
//
// with the destination prefix bound as AEAD additional data. Only the two
// endpoints parse this layout; the fusion node forwards it blindly.
//
// # States
//
// A session moves NoSession -> Establishing -> Established -> Discarded.
// Establishing never outlives an Establish call: on failure, timeout or
// cancellation the engine holds no record and any partially derived key is
// wiped.
package session
