package client

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/navigation"
	"github.com/hongminglow/aparthus-be/internal/session"
)

// LoginTimeout aborts a login attempt that has not been answered.
const LoginTimeout = 10 * time.Second

// LoginResult is what a successful login resolves to.
type LoginResult struct {
	Role       models.Role
	ResidentID string
	Home       navigation.Screen
}

// Bootstrapper turns credentials into a stored session and an authenticated router.
type Bootstrapper struct {
	api      *Client
	sessions *session.Manager
	router   *navigation.Router
	timeout  time.Duration
}

// NewBootstrapper wires api so a rejected token ends the stored session.
func NewBootstrapper(api *Client, sessions *session.Manager, router *navigation.Router) *Bootstrapper {
	b := &Bootstrapper{api: api, sessions: sessions, router: router, timeout: LoginTimeout}
	api.OnSessionExpired(b.expire)
	return b
}

// Login authenticates once without retrying. Identifiers containing "@" go to the generic
// login route, anything else to the resident route. The session is written only on success.
func (b *Bootstrapper) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return LoginResult{}, &ValidationError{Field: "identifier", Message: "Kullanıcı adı boş olamaz."}
	}
	if password == "" {
		return LoginResult{}, &ValidationError{Field: "password", Message: "Şifre boş olamaz."}
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var (
		role       models.Role
		residentID string
		username   string
		token      string
	)
	if strings.Contains(identifier, "@") {
		resp, err := b.api.LoginStaff(ctx, identifier, password)
		if err != nil {
			return LoginResult{}, err
		}
		role, residentID, token = resp.Role, resp.ResidentID, resp.Token
		username = identifier
		if resp.User != nil && resp.User.Username != "" {
			username = resp.User.Username
		}
	} else {
		resp, err := b.api.LoginResident(ctx, identifier, password)
		if err != nil {
			return LoginResult{}, err
		}
		role, residentID, token = resp.Resident.Role, resp.Resident.ID, resp.Token
		username = resp.Resident.Username
	}
	if !role.Valid() {
		return LoginResult{}, &FormatError{Status: 200, Err: fmt.Errorf("%w %q", models.ErrUnknownRole, role)}
	}

	if _, err := b.sessions.Create(role, username, residentID, token); err != nil {
		return LoginResult{}, fmt.Errorf("store session: %w", err)
	}
	b.api.SetToken(token)
	home, err := b.router.Authenticate(role)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Role: role, ResidentID: residentID, Home: home}, nil
}

// Resume restores a stored session into the router and client. It returns ErrNoSession when
// nobody is logged in.
func (b *Bootstrapper) Resume() (session.Session, error) {
	s, err := b.sessions.Current()
	if err != nil {
		return session.Session{}, err
	}
	if _, err := b.router.Authenticate(s.Role); err != nil {
		return session.Session{}, err
	}
	b.api.SetToken(s.Token)
	return s, nil
}

// Logout invalidates the session and returns the router to the login screen.
func (b *Bootstrapper) Logout() (navigation.Screen, error) {
	if err := b.sessions.Invalidate(); err != nil {
		return navigation.Home(b.router.State().Role), err
	}
	b.api.SetToken("")
	return b.router.Logout(), nil
}

// expire drops a session whose token the server no longer accepts.
func (b *Bootstrapper) expire() {
	if err := b.sessions.Invalidate(); err != nil {
		log.Printf("drop expired session: %v", err)
	}
	b.router.Logout()
}
