package session

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/chacha20poly1305"

	"fuselink/internal/crypto"
	"fuselink/internal/domain"
	"fuselink/internal/util/memzero"
	"fuselink/internal/util/workpool"
)

const (
	// EstablishTimeout bounds the key agreement; expiry reverts to
	// NoSession.
	EstablishTimeout = 10 * time.Second

	// kdfLabel is the HKDF info string for session-key derivation.
	kdfLabel = "fuselink-session"

	destLen   = 4
	nonceLen  = chacha20poly1305.NonceSize
	headerLen = destLen + nonceLen
)

var (
	// ErrInvalidPeerKey means the supplied bytes are not a usable point on
	// the curve.
	ErrInvalidPeerKey = errors.New("session: invalid peer public key")

	// ErrAgreementFailed covers primitive-level failures during key
	// agreement or derivation.
	ErrAgreementFailed = errors.New("session: key agreement failed")

	// ErrTimedOut is returned when an establish is cancelled by timeout
	// expiry. No partial state survives it.
	ErrTimedOut = errors.New("session: establish timed out")

	// ErrNoActiveSession means the session is unknown or not Established.
	ErrNoActiveSession = errors.New("session: no active session")

	// ErrSessionDiscarded means the session was explicitly discarded.
	ErrSessionDiscarded = errors.New("session: session discarded")

	// ErrAuthenticationFailed means integrity verification failed: the
	// ciphertext was tampered with or sealed under a different key.
	ErrAuthenticationFailed = errors.New("session: authentication failed")

	// ErrShortCiphertext means the opaque blob is too short to carry the
	// destination and nonce header.
	ErrShortCiphertext = errors.New("session: ciphertext too short")
)

// State is the lifecycle position of a session.
type State int

const (
	StateNone State = iota
	StateEstablishing
	StateEstablished
	StateDiscarded
)

// pairKey identifies a peer relationship for idempotent establish.
type pairKey struct {
	peer domain.X25519Public
	node domain.RelayAddress
}

type record struct {
	sess  domain.Session
	aead  cipher.AEAD
	state State
}

// Engine owns all session cryptographic material for one device. Establish
// runs on a bounded work pool; encrypt and decrypt are synchronous and do
// not suspend.
type Engine struct {
	log     zerolog.Logger
	pool    *workpool.Pool
	timeout time.Duration

	mu       sync.Mutex
	byPair   map[pairKey]domain.SessionID
	sessions map[domain.SessionID]*record
	locks    map[pairKey]*sync.Mutex
}

// New returns an engine logging through log. Pass zerolog.Nop() to silence.
func New(log zerolog.Logger) *Engine {
	return &Engine{
		log:      log,
		pool:     workpool.New(int64(runtime.GOMAXPROCS(0))),
		timeout:  EstablishTimeout,
		byPair:   make(map[pairKey]domain.SessionID),
		sessions: make(map[domain.SessionID]*record),
		locks:    make(map[pairKey]*sync.Mutex),
	}
}

// Establish derives a session with the peer, or returns the existing one
// for the same (peer key, relay address) pair. Concurrent calls for the
// same pair are serialized.
func (e *Engine) Establish(
	ctx context.Context,
	local domain.KeyPair,
	peerPub domain.X25519Public,
	node domain.RelayAddress,
) (domain.Session, error) {
	if peerPub.IsZero() {
		return domain.Session{}, ErrInvalidPeerKey
	}

	key := pairKey{peer: peerPub, node: node}
	lock := e.pairLock(key)
	lock.Lock()
	defer lock.Unlock()

	if sess, ok := e.established(key); ok {
		e.log.Debug().Str("session", sess.ID.String()).Msg("establish: reusing existing session")
		return sess, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var sessionKey []byte
	err := e.pool.Do(ctx, func() error {
		secret, err := crypto.DH(local.Private, peerPub)
		if err != nil {
			return ErrInvalidPeerKey
		}
		k, err := crypto.DeriveSessionKey(secret, kdfLabel)
		if err != nil {
			return ErrAgreementFailed
		}
		if ctx.Err() != nil {
			// The caller already gave up; release the secret.
			memzero.Wipe(k)
			return ctx.Err()
		}
		sessionKey = k
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return domain.Session{}, ErrTimedOut
		}
		return domain.Session{}, err
	}

	aead, err := chacha20poly1305.New(sessionKey)
	if err != nil {
		memzero.Wipe(sessionKey)
		return domain.Session{}, ErrAgreementFailed
	}

	sess := domain.Session{
		ID:          domain.SessionID(uuid.NewString()),
		LocalPublic: local.Public,
		PeerPublic:  peerPub,
		Node:        node,
		Key:         sessionKey,
		CreatedUTC:  time.Now().Unix(),
	}

	e.mu.Lock()
	e.byPair[key] = sess.ID
	e.sessions[sess.ID] = &record{sess: sess, aead: aead, state: StateEstablished}
	e.mu.Unlock()

	e.log.Info().
		Str("session", sess.ID.String()).
		Str("node", node.String()).
		Str("peer", crypto.Fingerprint(peerPub.Slice())).
		Msg("session established")
	return sess, nil
}

// Restore admits a previously persisted session as Established. Used when
// reloading sessions from the sealed store at startup.
func (e *Engine) Restore(sess domain.Session) error {
	if len(sess.Key) != crypto.SessionKeyBytes {
		return ErrAgreementFailed
	}
	aead, err := chacha20poly1305.New(sess.Key)
	if err != nil {
		return ErrAgreementFailed
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byPair[pairKey{peer: sess.PeerPublic, node: sess.Node}] = sess.ID
	e.sessions[sess.ID] = &record{sess: sess, aead: aead, state: StateEstablished}
	return nil
}

// Encrypt seals plaintext for destination under the session key.
func (e *Engine) Encrypt(id domain.SessionID, plaintext []byte, dest domain.DestinationID) ([]byte, error) {
	e.mu.Lock()
	rec, ok := e.sessions[id]
	if !ok {
		e.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	if rec.state == StateDiscarded {
		e.mu.Unlock()
		return nil, ErrSessionDiscarded
	}
	aead := rec.aead
	e.mu.Unlock()

	out := make([]byte, headerLen, headerLen+len(plaintext)+aead.Overhead())
	binary.BigEndian.PutUint32(out[:destLen], uint32(dest))
	if _, err := rand.Read(out[destLen:headerLen]); err != nil {
		return nil, ErrAgreementFailed
	}
	return aead.Seal(out, out[destLen:headerLen], plaintext, out[:destLen]), nil
}

// Decrypt opens an opaque blob. A failed decrypt reports
// ErrAuthenticationFailed and leaves the session state untouched.
func (e *Engine) Decrypt(id domain.SessionID, ciphertext []byte) ([]byte, error) {
	e.mu.Lock()
	rec, ok := e.sessions[id]
	if !ok {
		e.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	if rec.state == StateDiscarded {
		e.mu.Unlock()
		return nil, ErrSessionDiscarded
	}
	aead := rec.aead
	e.mu.Unlock()

	if len(ciphertext) < headerLen {
		return nil, ErrAuthenticationFailed
	}
	pt, err := aead.Open(nil, ciphertext[destLen:headerLen], ciphertext[headerLen:], ciphertext[:destLen])
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return pt, nil
}

// Discard wipes the session key and moves the session to its terminal
// state. The peer pair becomes free for a fresh establish.
func (e *Engine) Discard(id domain.SessionID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.sessions[id]
	if !ok {
		return ErrNoActiveSession
	}
	if rec.state == StateDiscarded {
		return ErrSessionDiscarded
	}
	memzero.Wipe(rec.sess.Key)
	rec.aead = nil
	rec.state = StateDiscarded
	delete(e.byPair, pairKey{peer: rec.sess.PeerPublic, node: rec.sess.Node})
	e.log.Info().Str("session", id.String()).Msg("session discarded")
	return nil
}

// DiscardAll discards every live session. Used on reset.
func (e *Engine) DiscardAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, rec := range e.sessions {
		if rec.state != StateDiscarded {
			memzero.Wipe(rec.sess.Key)
			rec.aead = nil
			rec.state = StateDiscarded
			delete(e.byPair, pairKey{peer: rec.sess.PeerPublic, node: rec.sess.Node})
		}
	}
}

// Get returns a copy of the session record and its state.
func (e *Engine) Get(id domain.SessionID) (domain.Session, State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.sessions[id]
	if !ok {
		return domain.Session{}, StateNone, false
	}
	return rec.sess, rec.state, true
}

// PeekDestination reads the 4-byte destination prefix of an opaque blob
// without decrypting it. The routing step runs before decryption and needs
// only this field.
func PeekDestination(ciphertext []byte) (domain.DestinationID, error) {
	if len(ciphertext) < destLen {
		return 0, ErrShortCiphertext
	}
	return domain.DestinationID(binary.BigEndian.Uint32(ciphertext[:destLen])), nil
}

func (e *Engine) pairLock(key pairKey) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[key] = lock
	}
	return lock
}

func (e *Engine) established(key pairKey) (domain.Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, ok := e.byPair[key]
	if !ok {
		return domain.Session{}, false
	}
	rec, ok := e.sessions[id]
	if !ok || rec.state != StateEstablished {
		return domain.Session{}, false
	}
	return rec.sess, true
}
