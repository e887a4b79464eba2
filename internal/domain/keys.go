package domain

import "fmt"

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// IsZero reports whether the key is all zero bytes.
func (p X25519Public) IsZero() bool { return p == (X25519Public{}) }

// X25519Private is a Curve25519 private key.
type X25519Private [32]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// MustX25519Public converts b to a public key and panics on a size mismatch.
func MustX25519Public(b []byte) X25519Public {
	if len(b) != 32 {
		panic(fmt.Errorf("X25519 public: want 32 bytes, got %d", len(b)))
	}
	var out X25519Public
	copy(out[:], b)
	return out
}

// MustX25519Private converts b to a private key and panics on a size mismatch.
func MustX25519Private(b []byte) X25519Private {
	if len(b) != 32 {
		panic(fmt.Errorf("X25519 private: want 32 bytes, got %d", len(b)))
	}
	var out X25519Private
	copy(out[:], b)
	return out
}

// KeyPair is a device's long-term Curve25519 key pair. Exactly one pair is
// active per device identity; it is replaced wholesale on reset, never
// mutated.
type KeyPair struct {
	Public  X25519Public  `json:"public"`
	Private X25519Private `json:"private"`
}
