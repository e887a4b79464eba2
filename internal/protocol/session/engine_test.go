package session_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"fuselink/internal/crypto"
	"fuselink/internal/domain"
	"fuselink/internal/protocol/session"
)

func makeKeyPair(t *testing.T) domain.KeyPair {
	t.Helper()
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	return domain.KeyPair{Public: pub, Private: priv}
}

func establish(t *testing.T, e *session.Engine, local domain.KeyPair, peer domain.X25519Public) domain.Session {
	t.Helper()
	sess, err := e.Establish(context.Background(), local, peer, "relay1")
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	return sess
}

func TestEstablishSymmetry(t *testing.T) {
	x := makeKeyPair(t)
	y := makeKeyPair(t)

	sessX := establish(t, session.New(zerolog.Nop()), x, y.Public)
	sessY := establish(t, session.New(zerolog.Nop()), y, x.Public)

	if !bytes.Equal(sessX.Key, sessY.Key) {
		t.Fatal("both sides should derive the same session key")
	}
}

func TestEstablishIdempotent(t *testing.T) {
	e := session.New(zerolog.Nop())
	local := makeKeyPair(t)
	peer := makeKeyPair(t)

	first := establish(t, e, local, peer.Public)
	second := establish(t, e, local, peer.Public)
	if first.ID != second.ID {
		t.Fatalf("want same session ID, got %s and %s", first.ID, second.ID)
	}

	// A different relay address is a different relationship.
	other, err := e.Establish(context.Background(), local, peer.Public, "relay2")
	if err != nil {
		t.Fatalf("Establish relay2: %v", err)
	}
	if other.ID == first.ID {
		t.Fatal("different relay address should create a distinct session")
	}
}

func TestEstablishInvalidPeerKey(t *testing.T) {
	e := session.New(zerolog.Nop())
	local := makeKeyPair(t)

	// All-zero key: low-order point, never valid.
	_, err := e.Establish(context.Background(), local, domain.X25519Public{}, "relay1")
	if !errors.Is(err, session.ErrInvalidPeerKey) {
		t.Fatalf("want ErrInvalidPeerKey, got %v", err)
	}
}

func TestEstablishCancelled(t *testing.T) {
	e := session.New(zerolog.Nop())
	local := makeKeyPair(t)
	peer := makeKeyPair(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Establish(ctx, local, peer.Public, "relay1")
	if !errors.Is(err, session.ErrTimedOut) {
		t.Fatalf("want ErrTimedOut, got %v", err)
	}

	// Cancellation must leave nothing behind: a fresh establish succeeds.
	establish(t, e, local, peer.Public)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	e := session.New(zerolog.Nop())
	local := makeKeyPair(t)
	peer := makeKeyPair(t)
	sess := establish(t, e, local, peer.Public)

	ct, err := e.Encrypt(sess.ID, []byte("hello"), 2)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	dest, err := session.PeekDestination(ct)
	if err != nil {
		t.Fatalf("PeekDestination: %v", err)
	}
	if dest != 2 {
		t.Fatalf("destination: want 2, got %d", dest)
	}
	pt, err := e.Decrypt(sess.ID, ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(pt) != "hello" {
		t.Fatalf("plaintext: want %q, got %q", "hello", pt)
	}
}

func TestDecryptWrongSession(t *testing.T) {
	x := makeKeyPair(t)
	y := makeKeyPair(t)
	z := makeKeyPair(t)

	e := session.New(zerolog.Nop())
	sessXY := establish(t, e, x, y.Public)
	sessXZ, err := e.Establish(context.Background(), x, z.Public, "relay2")
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}

	ct, err := e.Encrypt(sessXY.ID, []byte("secret"), 1)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := e.Decrypt(sessXZ.ID, ct); !errors.Is(err, session.ErrAuthenticationFailed) {
		t.Fatalf("want ErrAuthenticationFailed, got %v", err)
	}
}

func TestDecryptTamperedAndState(t *testing.T) {
	e := session.New(zerolog.Nop())
	local := makeKeyPair(t)
	peer := makeKeyPair(t)
	sess := establish(t, e, local, peer.Public)

	ct, err := e.Encrypt(sess.ID, []byte("payload"), 1)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	tampered := append([]byte(nil), ct...)
	tampered[len(tampered)-1] ^= 0x01
	if _, err := e.Decrypt(sess.ID, tampered); !errors.Is(err, session.ErrAuthenticationFailed) {
		t.Fatalf("tampered: want ErrAuthenticationFailed, got %v", err)
	}
	if _, err := e.Decrypt(sess.ID, ct[:3]); !errors.Is(err, session.ErrAuthenticationFailed) {
		t.Fatalf("short: want ErrAuthenticationFailed, got %v", err)
	}

	// A failed decrypt must not poison the session.
	pt, err := e.Decrypt(sess.ID, ct)
	if err != nil {
		t.Fatalf("Decrypt after failure: %v", err)
	}
	if string(pt) != "payload" {
		t.Fatalf("plaintext after failure: got %q", pt)
	}
}

func TestDiscard(t *testing.T) {
	e := session.New(zerolog.Nop())
	local := makeKeyPair(t)
	peer := makeKeyPair(t)
	sess := establish(t, e, local, peer.Public)

	if err := e.Discard(sess.ID); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := e.Encrypt(sess.ID, []byte("x"), 1); !errors.Is(err, session.ErrSessionDiscarded) {
		t.Fatalf("encrypt after discard: want ErrSessionDiscarded, got %v", err)
	}
	if _, err := e.Decrypt(sess.ID, []byte("x")); !errors.Is(err, session.ErrSessionDiscarded) {
		t.Fatalf("decrypt after discard: want ErrSessionDiscarded, got %v", err)
	}
	if err := e.Discard(sess.ID); !errors.Is(err, session.ErrSessionDiscarded) {
		t.Fatalf("double discard: want ErrSessionDiscarded, got %v", err)
	}

	// The pair is free again.
	fresh := establish(t, e, local, peer.Public)
	if fresh.ID == sess.ID {
		t.Fatal("establish after discard should mint a new session")
	}
}

func TestUnknownSession(t *testing.T) {
	e := session.New(zerolog.Nop())
	if _, err := e.Encrypt("nope", []byte("x"), 1); !errors.Is(err, session.ErrNoActiveSession) {
		t.Fatalf("want ErrNoActiveSession, got %v", err)
	}
	if _, err := e.Decrypt("nope", []byte("x")); !errors.Is(err, session.ErrNoActiveSession) {
		t.Fatalf("want ErrNoActiveSession, got %v", err)
	}
}

func TestRestore(t *testing.T) {
	e := session.New(zerolog.Nop())
	local := makeKeyPair(t)
	peer := makeKeyPair(t)
	sess := establish(t, e, local, peer.Public)
	ct, err := e.Encrypt(sess.ID, []byte("persisted"), 7)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	// A new engine (new process) restores the stored session value.
	e2 := session.New(zerolog.Nop())
	if err := e2.Restore(sess); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	pt, err := e2.Decrypt(sess.ID, ct)
	if err != nil {
		t.Fatalf("Decrypt after restore: %v", err)
	}
	if string(pt) != "persisted" {
		t.Fatalf("plaintext: got %q", pt)
	}

	// Restore keeps idempotence: establishing the same pair reuses the ID.
	again, err := e2.Establish(context.Background(), local, peer.Public, sess.Node)
	if err != nil {
		t.Fatalf("Establish after restore: %v", err)
	}
	if again.ID != sess.ID {
		t.Fatalf("want restored session %s, got %s", sess.ID, again.ID)
	}
}
