package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"fuselink/internal/util/memzero"
)

const blobVersion = 1

// ErrWrongPassphrase is returned when the passphrase is incorrect or the
// blob has been modified or corrupted.
var ErrWrongPassphrase = errors.New("store: wrong passphrase or corrupted blob")

// blob is the on-disk JSON structure holding ciphertext and KDF parameters.
type blob struct {
	Version int    `json:"v"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	CT      []byte `json:"ct"`
}

func scryptParams() (N, r, p int) { return 1 << 15, 8, 1 }

func seal(passphrase string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	N, r, p := scryptParams()
	key, err := scrypt.Key([]byte(passphrase), salt, N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Wipe(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ct := aead.Seal(nil, nonce, plaintext, versionAD())
	return json.Marshal(blob{Version: blobVersion, Salt: salt, Nonce: nonce, CT: ct})
}

func open(passphrase string, raw []byte) ([]byte, error) {
	var b blob
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, ErrWrongPassphrase
	}
	if b.Version != blobVersion {
		return nil, fmt.Errorf("store: unsupported blob version %d", b.Version)
	}
	N, r, p := scryptParams()
	key, err := scrypt.Key([]byte(passphrase), b.Salt, N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Wipe(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, b.Nonce, b.CT, versionAD())
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

func versionAD() []byte { return []byte(fmt.Sprintf("fuselink-store-v%d", blobVersion)) }
