package client

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Identity is the participant credential handed out by a join operation. It
// carries no expiry; it is reused across sessions to skip the join step.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// IdentityStore persists a participant identity between sessions. It is an
// explicit dependency of PlaySession so tests can inject arbitrary
// identities without shared state.
type IdentityStore interface {
	Load() (Identity, bool, error)
	Save(Identity) error
	Clear() error
}

// FileIdentityStore keeps the identity as a small JSON file, the durable
// local storage of this client.
type FileIdentityStore struct {
	path string
}

func NewFileIdentityStore(path string) *FileIdentityStore {
	return &FileIdentityStore{path: path}
}

func (s *FileIdentityStore) Load() (Identity, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Identity{}, false, nil
	}
	if err != nil {
		return Identity{}, false, err
	}
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, false, err
	}
	if id.UserID == "" {
		return Identity{}, false, nil
	}
	return id, true, nil
}

func (s *FileIdentityStore) Save(id Identity) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileIdentityStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryIdentityStore is an in-process store for tests.
type MemoryIdentityStore struct {
	mu sync.Mutex
	id Identity
	ok bool
}

func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{}
}

func (s *MemoryIdentityStore) Load() (Identity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.ok, nil
}

func (s *MemoryIdentityStore) Save(id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id, s.ok = id, true
	return nil
}

func (s *MemoryIdentityStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id, s.ok = Identity{}, false
	return nil
}
