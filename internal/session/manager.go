package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hongminglow/aparthus-be/internal/models"
)

// Manager owns the session lifecycle. Screens receive it instead of reading storage directly.
type Manager struct {
	store Store
	now   func() time.Time
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// Create stores a new session in a single write, replacing any previous one.
func (m *Manager) Create(role models.Role, username, residentID, token string) (Session, error) {
	if !role.Valid() {
		return Session{}, fmt.Errorf("create session: %w", models.ErrUnknownRole)
	}
	s := Session{
		Role:       role,
		Username:   strings.TrimSpace(username),
		ResidentID: strings.TrimSpace(residentID),
		Token:      token,
		CreatedAt:  m.now().UTC(),
	}
	if err := m.store.Save(s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Current returns the stored session or ErrNoSession.
func (m *Manager) Current() (Session, error) {
	return m.store.Load()
}

// Active reports whether a session exists. Storage failures count as logged out.
func (m *Manager) Active() bool {
	_, err := m.store.Load()
	return err == nil
}

// Invalidate removes the session. Invalidating with nothing stored is not an error.
func (m *Manager) Invalidate() error {
	if err := m.store.Delete(); err != nil && !errors.Is(err, ErrNoSession) {
		return err
	}
	return nil
}
