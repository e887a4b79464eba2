package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"fuselink/internal/domain"
)

const (
	keyPairFile  = "keypair.enc"
	sessionsFile = "sessions.enc"
)

// FileStore keeps sealed blobs under a single directory with 0600 modes.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore returns a store rooted at dir. The directory must exist.
func NewFileStore(dir string) *FileStore { return &FileStore{dir: dir} }

// ---------- Key pair ----------

func (s *FileStore) SaveKeyPair(passphrase string, kp domain.KeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(kp)
	if err != nil {
		return err
	}
	sealed, err := seal(passphrase, raw)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, keyPairFile), sealed, 0o600)
}

func (s *FileStore) LoadKeyPair(passphrase string) (domain.KeyPair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, err := os.ReadFile(filepath.Join(s.dir, keyPairFile))
	if errors.Is(err, os.ErrNotExist) {
		return domain.KeyPair{}, false, nil
	}
	if err != nil {
		return domain.KeyPair{}, false, err
	}
	raw, err := open(passphrase, sealed)
	if err != nil {
		return domain.KeyPair{}, false, err
	}
	var kp domain.KeyPair
	if err := json.Unmarshal(raw, &kp); err != nil {
		return domain.KeyPair{}, false, err
	}
	return kp, true, nil
}

func (s *FileStore) DeleteKeyPair() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.dir, keyPairFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ---------- Sessions ----------

func (s *FileStore) SaveSession(passphrase string, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.loadSessionMap(passphrase)
	if err != nil {
		return err
	}
	m[sess.ID] = sess
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	sealed, err := seal(passphrase, raw)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, sessionsFile), sealed, 0o600)
}

func (s *FileStore) LoadSessions(passphrase string) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.loadSessionMap(passphrase)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Session, 0, len(m))
	for _, sess := range m {
		out = append(out, sess)
	}
	return out, nil
}

func (s *FileStore) DeleteSessions() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.dir, sessionsFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// loadSessionMap reads the sealed session file; a missing file is an empty
// map. Callers hold s.mu.
func (s *FileStore) loadSessionMap(passphrase string) (map[domain.SessionID]domain.Session, error) {
	sealed, err := os.ReadFile(filepath.Join(s.dir, sessionsFile))
	if errors.Is(err, os.ErrNotExist) {
		return make(map[domain.SessionID]domain.Session), nil
	}
	if err != nil {
		return nil, err
	}
	raw, err := open(passphrase, sealed)
	if err != nil {
		return nil, err
	}
	m := make(map[domain.SessionID]domain.Session)
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Compile-time assertions.
var (
	_ domain.KeyPairStore = (*FileStore)(nil)
	_ domain.SessionStore = (*FileStore)(nil)
)
