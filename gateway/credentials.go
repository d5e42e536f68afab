package gateway

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// StorageKey is the name the client-side API key is persisted under.
const StorageKey = "api_key"

// Mode says where the gateway runs, which decides where the token comes from.
type Mode int

const (
	// ModeServer reads the key from process configuration.
	ModeServer Mode = iota
	// ModeClient reads the key a user saved locally.
	ModeClient
)

func (m Mode) String() string {
	if m == ModeClient {
		return "client"
	}
	return "server"
}

// ParseMode maps "client" to ModeClient and anything else to ModeServer.
func ParseMode(s string) Mode {
	if s == "client" {
		return ModeClient
	}
	return ModeServer
}

// KeyStore persists small string values such as the API key.
type KeyStore interface {
	Get(name string) (string, bool, error)
	Set(name, value string) error
	Delete(name string) error
}

// Credentials resolve the bearer token for each request.
type Credentials struct {
	Mode      Mode
	ServerKey string
	Store     KeyStore
}

// Token returns the bearer token, or "" when none applies. In client mode
// the persisted key is used; the server key only applies in server mode.
func (c Credentials) Token() (string, error) {
	switch c.Mode {
	case ModeClient:
		if c.Store == nil {
			return "", nil
		}
		key, ok, err := c.Store.Get(StorageKey)
		if err != nil {
			return "", err
		}
		if ok && key != "" {
			return key, nil
		}
		return "", nil
	default:
		return c.ServerKey, nil
	}
}

// MemoryKeyStore keeps values in memory.
type MemoryKeyStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{values: make(map[string]string)}
}

func (s *MemoryKeyStore) Get(name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok, nil
}

func (s *MemoryKeyStore) Set(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return nil
}

func (s *MemoryKeyStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
	return nil
}

// FileKeyStore keeps values in a JSON object on disk, readable only by the
// owner. The file is read on every Get so a login from another process is
// picked up by the next request.
type FileKeyStore struct {
	path string
	mu   sync.Mutex
}

func NewFileKeyStore(path string) *FileKeyStore {
	return &FileKeyStore{path: path}
}

// Path returns the backing file.
func (s *FileKeyStore) Path() string {
	return s.path
}

func (s *FileKeyStore) Get(name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[name]
	return v, ok, nil
}

func (s *FileKeyStore) Set(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[name] = value
	return s.save(values)
}

func (s *FileKeyStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	delete(values, name)
	return s.save(values)
}

func (s *FileKeyStore) load() (map[string]string, error) {
	values := make(map[string]string)
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "read key store")
	}
	if len(raw) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "decode key store")
	}
	return values, nil
}

func (s *FileKeyStore) save(values map[string]string) error {
	raw, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "encode key store")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "create key store directory")
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "write key store")
	}
	return nil
}
