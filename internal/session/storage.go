package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/parkspot/internal/errors"
)

// Keys under which the session is persisted
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Storage is a durable string key-value store that survives restarts.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(keys ...string) error
}

// FileStorage keeps all keys in one JSON object file
type FileStorage struct {
	path string

	mu     sync.RWMutex
	values map[string]string
	// discarded holds the decode error of a file that was not valid JSON.
	// It is cleared by the next successful write.
	discarded error
}

// NewFileStorage opens (or lazily creates) the storage file at path. A
// file that cannot be decoded is treated as empty and replaced on the
// next write; Discarded reports it.
func NewFileStorage(path string) (*FileStorage, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.NewConfigInvalidError("session file path is required")
	}

	s := &FileStorage{
		path:   path,
		values: make(map[string]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the file backing the storage
func (s *FileStorage) Path() string {
	return s.path
}

// Discarded returns the SESSION-001 error describing why the file's
// contents were ignored, or nil.
func (s *FileStorage) Discarded() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.discarded
}

// Get returns the value stored under key
func (s *FileStorage) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and writes the file
func (s *FileStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.values[key]
	s.values[key] = value
	if err := s.persistLocked(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

// Remove deletes keys and writes the file. Missing keys are ignored, but
// an undecodable file is always rewritten.
func (s *FileStorage) Remove(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, k := range keys {
		if _, ok := s.values[k]; ok {
			delete(s.values, k)
			changed = true
		}
	}
	if !changed && s.discarded == nil {
		return nil
	}
	return s.persistLocked()
}

// Keys lists stored keys in sorted order
func (s *FileStorage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *FileStorage) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeFileReadFailed, "failed to read session file "+s.path, err).
			WithSuggestion("Use --session-file to store the session elsewhere")
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil
	}

	var values map[string]string
	if err := json.Unmarshal(b, &values); err != nil {
		s.discarded = errors.Wrap(errors.ErrCodeSessionCorrupt, "session file "+s.path+" is not valid JSON", err).
			WithSuggestion("Sign in again; the file is replaced on the next login or logout")
		return nil
	}
	if values != nil {
		s.values = values
	}
	return nil
}

// persistLocked writes through a temp file and rename so a crash never
// leaves a half-written session behind.
func (s *FileStorage) persistLocked() error {
	b, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	s.discarded = nil
	return nil
}

// MemoryStorage is a Storage that lives only as long as the process
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage creates an empty MemoryStorage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

// Get returns the value stored under key
func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key
func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Remove deletes keys
func (m *MemoryStorage) Remove(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}
