package store_test

import (
	"bytes"
	"errors"
	"testing"

	"fuselink/internal/domain"
	"fuselink/internal/store"
)

func TestKeyPairRoundTrip(t *testing.T) {
	s := store.NewFileStore(t.TempDir())

	kp := domain.KeyPair{
		Public:  domain.X25519Public{1, 2, 3},
		Private: domain.X25519Private{4, 5, 6},
	}
	if err := s.SaveKeyPair("correct horse Battery1!", kp); err != nil {
		t.Fatalf("SaveKeyPair: %v", err)
	}
	got, ok, err := s.LoadKeyPair("correct horse Battery1!")
	if err != nil {
		t.Fatalf("LoadKeyPair: %v", err)
	}
	if !ok {
		t.Fatal("want stored pair")
	}
	if got != kp {
		t.Fatal("loaded pair differs")
	}
}

func TestKeyPairMissing(t *testing.T) {
	s := store.NewFileStore(t.TempDir())
	_, ok, err := s.LoadKeyPair("pw")
	if err != nil {
		t.Fatalf("LoadKeyPair: %v", err)
	}
	if ok {
		t.Fatal("empty dir should report no pair")
	}
}

func TestWrongPassphrase(t *testing.T) {
	s := store.NewFileStore(t.TempDir())
	if err := s.SaveKeyPair("right", domain.KeyPair{}); err != nil {
		t.Fatalf("SaveKeyPair: %v", err)
	}
	_, _, err := s.LoadKeyPair("wrong")
	if !errors.Is(err, store.ErrWrongPassphrase) {
		t.Fatalf("want ErrWrongPassphrase, got %v", err)
	}
}

func TestSessionsRoundTrip(t *testing.T) {
	s := store.NewFileStore(t.TempDir())

	a := domain.Session{ID: "a", Node: "relay1", Key: bytes.Repeat([]byte{1}, 32), CreatedUTC: 10}
	b := domain.Session{ID: "b", Node: "relay2", Key: bytes.Repeat([]byte{2}, 32), CreatedUTC: 20}
	for _, sess := range []domain.Session{a, b} {
		if err := s.SaveSession("pw", sess); err != nil {
			t.Fatalf("SaveSession %s: %v", sess.ID, err)
		}
	}

	got, err := s.LoadSessions("pw")
	if err != nil {
		t.Fatalf("LoadSessions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 sessions, got %d", len(got))
	}
	byID := map[domain.SessionID]domain.Session{got[0].ID: got[0], got[1].ID: got[1]}
	if !bytes.Equal(byID["a"].Key, a.Key) || byID["a"].Node != "relay1" {
		t.Fatal("session a corrupted")
	}

	// Saving the same ID overwrites.
	a.Node = "relay9"
	if err := s.SaveSession("pw", a); err != nil {
		t.Fatalf("SaveSession overwrite: %v", err)
	}
	got, err = s.LoadSessions("pw")
	if err != nil {
		t.Fatalf("LoadSessions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("overwrite should not add entries, got %d", len(got))
	}
}

func TestDeleteSessions(t *testing.T) {
	s := store.NewFileStore(t.TempDir())
	if err := s.SaveSession("pw", domain.Session{ID: "a", Key: make([]byte, 32)}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := s.DeleteSessions(); err != nil {
		t.Fatalf("DeleteSessions: %v", err)
	}
	got, err := s.LoadSessions("pw")
	if err != nil {
		t.Fatalf("LoadSessions: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty after delete, got %d", len(got))
	}
	// Deleting twice is fine.
	if err := s.DeleteSessions(); err != nil {
		t.Fatalf("second DeleteSessions: %v", err)
	}
}
