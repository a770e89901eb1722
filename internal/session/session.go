// Package session keeps the client's authenticated identity between runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hongminglow/aparthus-be/internal/models"
)

// FileName is the fixed key the session is stored under inside the state directory.
const FileName = "session.json"

// ErrNoSession is returned when nothing has been stored yet or the session was invalidated.
var ErrNoSession = errors.New("no active session")

// Session is the durable record of who is logged in.
type Session struct {
	Role       models.Role `json:"role"`
	Username   string      `json:"username,omitempty"`
	ResidentID string      `json:"residentId,omitempty"`
	Token      string      `json:"token,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// Store persists a single session blob.
type Store interface {
	Save(s Session) error
	Load() (Session, error)
	Delete() error
}

// FileStore writes the session as JSON to <dir>/session.json with owner-only permissions.
type FileStore struct {
	path string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, FileName)}
}

func (f *FileStore) Path() string { return f.path }

// Save replaces the stored session atomically.
func (f *FileStore) Save(s Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (f *FileStore) Load() (Session, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("decode session %s: %w", f.path, err)
	}
	if !s.Role.Valid() {
		return Session{}, fmt.Errorf("decode session %s: %w", f.path, models.ErrUnknownRole)
	}
	return s, nil
}

func (f *FileStore) Delete() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// MemoryStore keeps the session in memory. It counts writes so callers can check that a
// failed login left storage untouched.
type MemoryStore struct {
	mu      sync.Mutex
	session *Session
	writes  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &s
	m.writes++
	return nil
}

func (m *MemoryStore) Load() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, ErrNoSession
	}
	return *m.session, nil
}

func (m *MemoryStore) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

// Writes reports how many times Save has been called.
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
