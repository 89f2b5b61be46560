package platform

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/crafted-tech/packflow"
)

// ErrNotExist is returned when a requested store value or key is absent.
var ErrNotExist = errors.New("store value does not exist")

// Store is a registry-like key/value store. On Windows the default store is
// the real registry; elsewhere (and in tests) it is a file-backed store.
// Values are either strings or 32-bit unsigned integers, matching registry
// REG_SZ / REG_DWORD semantics.
type Store interface {
	SetString(hive packflow.Hive, key, name, value string) error
	SetDWord(hive packflow.Hive, key, name string, value uint32) error
	GetString(hive packflow.Hive, key, name string) (string, error)
	GetDWord(hive packflow.Hive, key, name string) (uint32, error)
	DeleteValue(hive packflow.Hive, key, name string) error
	// DeleteKey removes a key, all its values, and any subkeys.
	DeleteKey(hive packflow.Hive, key string) error
}

type storedValue struct {
	Kind   string `json:"kind"` // "string" or "dword"
	String string `json:"string,omitempty"`
	DWord  uint32 `json:"dword,omitempty"`
}

// FileStore is a JSON-file-backed Store. It persists after every mutation so
// state survives across installer and uninstaller runs. Keys are compared
// exactly (no registry-style case folding). Safe for concurrent use.
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]map[string]storedValue
}

// NewFileStore opens or creates a file-backed store at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		data: make(map[string]map[string]storedValue),
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("open store: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, fmt.Errorf("parse store %s: %w", path, err)
		}
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Empty reports whether the store holds no keys at all.
func (s *FileStore) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data) == 0
}

func fullKey(hive packflow.Hive, key string) string {
	return string(hive) + `\` + key
}

func (s *FileStore) SetString(hive packflow.Hive, key, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(fullKey(hive, key), name, storedValue{Kind: "string", String: value})
	return s.flushLocked()
}

func (s *FileStore) SetDWord(hive packflow.Hive, key, name string, value uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(fullKey(hive, key), name, storedValue{Kind: "dword", DWord: value})
	return s.flushLocked()
}

func (s *FileStore) GetString(hive packflow.Hive, key, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[fullKey(hive, key)][name]
	if !ok || v.Kind != "string" {
		return "", ErrNotExist
	}
	return v.String, nil
}

func (s *FileStore) GetDWord(hive packflow.Hive, key, name string) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[fullKey(hive, key)][name]
	if !ok || v.Kind != "dword" {
		return 0, ErrNotExist
	}
	return v.DWord, nil
}

func (s *FileStore) DeleteValue(hive packflow.Hive, key, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	full := fullKey(hive, key)
	values, ok := s.data[full]
	if !ok {
		return nil
	}
	delete(values, name)
	if len(values) == 0 {
		delete(s.data, full)
	}
	return s.flushLocked()
}

func (s *FileStore) DeleteKey(hive packflow.Hive, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	full := fullKey(hive, key)
	delete(s.data, full)
	prefix := full + `\`
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
		}
	}
	return s.flushLocked()
}

func (s *FileStore) set(full, name string, v storedValue) {
	values, ok := s.data[full]
	if !ok {
		values = make(map[string]storedValue)
		s.data[full] = values
	}
	values[name] = v
}

// flushLocked persists the store. Map keys marshal in sorted order, so the
// on-disk form is deterministic for a given state.
func (s *FileStore) flushLocked() error {
	if len(s.data) == 0 {
		// An empty store leaves no file behind, so install-then-uninstall
		// restores the pre-install state exactly.
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove store: %w", err)
		}
		return nil
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}
