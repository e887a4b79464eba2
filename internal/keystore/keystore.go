// Package keystore owns the device's single long-term Curve25519 key pair.
package keystore

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"fuselink/internal/crypto"
	"fuselink/internal/domain"
	"fuselink/internal/util/workpool"
)

// GenerateTimeout bounds key generation; expiry is reported as ErrTimedOut
// and is retryable.
const GenerateTimeout = 10 * time.Second

var (
	// ErrKeyGeneration means the secure random source or curve primitive
	// failed. Retryable.
	ErrKeyGeneration = errors.New("keystore: key generation failed")

	// ErrTimedOut means generation exceeded its time budget. Retryable; no
	// partial state survives.
	ErrTimedOut = errors.New("keystore: key generation timed out")

	// ErrNoKeyPair means no active key pair exists yet.
	ErrNoKeyPair = errors.New("keystore: no active key pair")
)

// Store holds the active key pair in memory and persists it through a
// sealed KeyPairStore. Successful generation replaces any previous pair; no
// key history is retained.
type Store struct {
	log     zerolog.Logger
	persist domain.KeyPairStore
	pool    *workpool.Pool
	timeout time.Duration

	mu     sync.RWMutex
	active *domain.KeyPair
}

// New returns a store backed by persist. persist may be nil for a purely
// in-memory store (tests).
func New(persist domain.KeyPairStore, log zerolog.Logger) *Store {
	return &Store{
		log:     log,
		persist: persist,
		pool:    workpool.New(int64(runtime.GOMAXPROCS(0))),
		timeout: GenerateTimeout,
	}
}

// Generate creates a fresh key pair on the bounded work pool, persists it
// sealed under passphrase, and makes it the active pair.
func (s *Store) Generate(ctx context.Context, passphrase string) (domain.KeyPair, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var kp domain.KeyPair
	err := s.pool.Do(ctx, func() error {
		priv, pub, err := crypto.GenerateX25519()
		if err != nil {
			return ErrKeyGeneration
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		kp = domain.KeyPair{Public: pub, Private: priv}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return domain.KeyPair{}, ErrTimedOut
		}
		return domain.KeyPair{}, err
	}

	if s.persist != nil {
		if err := s.persist.SaveKeyPair(passphrase, kp); err != nil {
			return domain.KeyPair{}, err
		}
	}

	s.mu.Lock()
	s.active = &kp
	s.mu.Unlock()

	s.log.Info().Str("fingerprint", crypto.Fingerprint(kp.Public.Slice())).Msg("key pair generated")
	return kp, nil
}

// Current returns the active key pair. It never generates implicitly.
func (s *Store) Current() (domain.KeyPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return domain.KeyPair{}, ErrNoKeyPair
	}
	return *s.active, nil
}

// Load pulls the persisted pair into memory. Returns ErrNoKeyPair when
// nothing is stored yet.
func (s *Store) Load(passphrase string) (domain.KeyPair, error) {
	if s.persist == nil {
		return domain.KeyPair{}, ErrNoKeyPair
	}
	kp, ok, err := s.persist.LoadKeyPair(passphrase)
	if err != nil {
		return domain.KeyPair{}, err
	}
	if !ok {
		return domain.KeyPair{}, ErrNoKeyPair
	}
	s.mu.Lock()
	s.active = &kp
	s.mu.Unlock()
	return kp, nil
}

// Reset drops the active pair and its persisted copy.
func (s *Store) Reset() error {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
	if s.persist == nil {
		return nil
	}
	return s.persist.DeleteKeyPair()
}
