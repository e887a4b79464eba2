package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"fuselink/internal/domain"
	"fuselink/internal/util/memzero"
)

// SessionKeyBytes is the size of a derived session key.
const SessionKeyBytes = 32

// ErrLowOrderPoint is returned by DH when the peer public key is a
// low-order point and the agreement would yield an all-zero secret.
var ErrLowOrderPoint = errors.New("x25519: low-order peer point")

// GenerateX25519 returns a fresh Curve25519 key pair.
// The private key is clamped per RFC 7748.
func GenerateX25519() (priv domain.X25519Private, pub domain.X25519Public, err error) {
	if _, err = rand.Read(priv[:]); err != nil {
		return
	}
	clamp(&priv)
	pb, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	if err != nil {
		return
	}
	copy(pub[:], pb)
	return
}

// DH computes X25519 Diffie–Hellman. Low-order peer points are rejected.
func DH(priv domain.X25519Private, pub domain.X25519Public) (out [32]byte, err error) {
	secret, err := curve25519.X25519(priv.Slice(), pub.Slice())
	if err != nil {
		return out, ErrLowOrderPoint
	}
	copy(out[:], secret)
	return out, nil
}

// DeriveSessionKey expands an agreed secret into a session key with
// HKDF-SHA256 under the given label. The secret is wiped before returning.
func DeriveSessionKey(secret [32]byte, label string) ([]byte, error) {
	r := hkdf.New(sha256.New, secret[:], nil, []byte(label))
	key := make([]byte, SessionKeyBytes)
	_, err := io.ReadFull(r, key)
	memzero.Wipe(secret[:])
	if err != nil {
		memzero.Wipe(key)
		return nil, err
	}
	return key, nil
}

func clamp(k *domain.X25519Private) {
	kb := k[:]
	kb[0] &= 248
	kb[31] &= 127
	kb[31] |= 64
}
