// Package store persists the device key pair and established sessions as
// passphrase-sealed blobs on disk.
//
// Each file is a JSON envelope carrying a format version, the scrypt salt,
// the AEAD nonce and the ciphertext. The key-encryption key is derived with
// scrypt and the payload sealed with ChaCha20-Poly1305; the version label is
// bound as additional data so blobs cannot be replayed across formats.
package store
