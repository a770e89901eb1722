package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/aparthus-be/internal/config"
	"github.com/hongminglow/aparthus-be/internal/models"
)

// StaticCredentials checks logins against accounts fixed at startup. Only bcrypt hashes are
// kept in memory.
type StaticCredentials struct {
	accounts map[string]staticEntry
}

type staticEntry struct {
	hash string
	role models.Role
}

// NewStaticCredentials hashes every account with a username and password; half-configured
// pairs are skipped.
func NewStaticCredentials(accounts ...config.StaticAccount) (*StaticCredentials, error) {
	sc := &StaticCredentials{accounts: make(map[string]staticEntry)}
	for _, a := range accounts {
		username := strings.TrimSpace(a.Username)
		if username == "" || a.Password == "" {
			continue
		}
		if !a.Role.Valid() {
			return nil, fmt.Errorf("static account %s: %w", username, models.ErrUnknownRole)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash static account %s: %w", username, err)
		}
		sc.accounts[strings.ToLower(username)] = staticEntry{hash: string(hash), role: a.Role}
	}
	return sc, nil
}

// Len returns the number of configured accounts.
func (s *StaticCredentials) Len() int {
	if s == nil {
		return 0
	}
	return len(s.accounts)
}

// Verify returns the synthetic user for a matching pair.
func (s *StaticCredentials) Verify(username, password string) (models.User, bool) {
	if s == nil {
		return models.User{}, false
	}
	key := strings.ToLower(strings.TrimSpace(username))
	entry, ok := s.accounts[key]
	if !ok || !CheckPassword(entry.hash, password) {
		return models.User{}, false
	}
	return models.User{
		ID:       "static-" + string(entry.role),
		Username: key,
		Role:     entry.role,
	}, true
}
