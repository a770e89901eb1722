package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/models/dto"
	"github.com/hongminglow/aparthus-be/internal/navigation"
	"github.com/hongminglow/aparthus-be/internal/session"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": status, "message": message, "data": data})
}

type fixture struct {
	api      *Client
	store    *session.MemoryStore
	sessions *session.Manager
	router   *navigation.Router
	boot     *Bootstrapper
}

func newFixture(baseURL string, opts ...Option) *fixture {
	f := &fixture{
		api:    New(baseURL, opts...),
		store:  session.NewMemoryStore(),
		router: navigation.NewRouter(),
	}
	f.sessions = session.NewManager(f.store)
	f.boot = NewBootstrapper(f.api, f.sessions, f.router)
	return f
}

func TestLoginRoutesByIdentifier(t *testing.T) {
	var paths []string
	var bodies []map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		paths = append(paths, r.URL.Path)
		bodies = append(bodies, body)
		switch r.URL.Path {
		case "/api/login":
			writeEnvelope(w, http.StatusOK, "login successful", map[string]any{"token": "staff-token", "role": "admin"})
		case "/api/residents/login":
			writeEnvelope(w, http.StatusOK, "login successful", map[string]any{
				"token":    "res-token",
				"resident": map[string]string{"_id": "r-1", "role": "resident", "username": "res01"},
			})
		default:
			writeEnvelope(w, http.StatusNotFound, "route not found", nil)
		}
	}))
	defer ts.Close()

	f := newFixture(ts.URL)
	res, err := f.boot.Login(context.Background(), "admin@site.com", "adminpass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.Role)
	assert.Equal(t, navigation.AdminHome, res.Home)
	assert.Equal(t, "staff-token", f.api.Token())

	res, err = f.boot.Login(context.Background(), "res01", "res01pass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleResident, res.Role)
	assert.Equal(t, "r-1", res.ResidentID)

	require.Equal(t, []string{"/api/login", "/api/residents/login"}, paths)
	assert.Equal(t, "admin@site.com", bodies[0]["identifier"])
	assert.Equal(t, "res01", bodies[1]["username"])

	s, err := f.sessions.Current()
	require.NoError(t, err)
	assert.Equal(t, models.RoleResident, s.Role)
	assert.Equal(t, "r-1", s.ResidentID)
	assert.Equal(t, 2, f.store.Writes())
}

func TestLoginValidation(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer ts.Close()

	f := newFixture(ts.URL)
	for _, creds := range [][2]string{{"", "x"}, {"   ", "x"}, {"res01", ""}} {
		_, err := f.boot.Login(context.Background(), creds[0], creds[1])
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "Hata", AlertFor(err).Title)
	}
	assert.Zero(t, calls.Load())
	assert.Zero(t, f.store.Writes())
}

func TestLoginFailuresLeaveNoSession(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "bad credentials",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusUnauthorized, "Hatalı kullanıcı adı veya şifre", nil)
			},
			check: func(t *testing.T, err error) {
				var authErr *AuthError
				require.ErrorAs(t, err, &authErr)
				alert := AlertFor(err)
				assert.Equal(t, "Hatalı giriş", alert.Title)
				assert.Equal(t, "Hatalı kullanıcı adı veya şifre", alert.Message)
			},
		},
		{
			name: "server failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusInternalServerError, "failed to fetch user", nil)
			},
			check: func(t *testing.T, err error) {
				assert.True(t, IsStatus(err, http.StatusInternalServerError))
				assert.Equal(t, "failed to fetch user", AlertFor(err).Message)
			},
		},
		{
			name: "gateway html",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("<html>bad gateway</html>"))
			},
			check: func(t *testing.T, err error) {
				var server *ServerError
				require.ErrorAs(t, err, &server)
				assert.Empty(t, server.Message)
				assert.Equal(t, "İşlem başarısız oldu.", AlertFor(err).Message)
			},
		},
		{
			name: "non json success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("welcome"))
			},
			check: func(t *testing.T, err error) {
				var format *FormatError
				require.ErrorAs(t, err, &format)
				assert.Equal(t, "Sunucudan beklenmeyen veri formatı alındı.", AlertFor(err).Message)
			},
		},
		{
			name: "unknown role",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusOK, "ok", map[string]any{"token": "t", "role": "janitor"})
			},
			check: func(t *testing.T, err error) {
				var format *FormatError
				require.ErrorAs(t, err, &format)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			f := newFixture(ts.URL)
			_, err := f.boot.Login(context.Background(), "admin@site.com", "pw")
			require.Error(t, err)
			tt.check(t, err)

			assert.Zero(t, f.store.Writes())
			assert.False(t, f.router.State().Authenticated)
			assert.Empty(t, f.api.Token())
		})
	}
}

func TestLoginTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	f := newFixture(ts.URL)
	f.boot.timeout = 50 * time.Millisecond

	_, err := f.boot.Login(context.Background(), "res01", "pw")
	var network *NetworkError
	require.ErrorAs(t, err, &network)
	assert.True(t, network.Timeout)
	assert.Equal(t, "Bağlantı hatası", AlertFor(err).Title)
	assert.Zero(t, f.store.Writes())
}

func TestUnreachableServer(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	f := newFixture(url)
	_, err := f.boot.Login(context.Background(), "res01", "pw")
	var network *NetworkError
	require.ErrorAs(t, err, &network)
	assert.False(t, network.Timeout)
	assert.Equal(t, "Sunucuya ulaşılamıyor. Lütfen tekrar deneyin.", AlertFor(err).Message)
}

func TestRetryPolicy(t *testing.T) {
	var attempts atomic.Int32
	failing := errors.New("connection reset")
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if attempts.Add(1) <= 2 {
			return nil, failing
		}
		rec := httptest.NewRecorder()
		writeEnvelope(rec, http.StatusOK, "expenses fetched", []any{})
		return rec.Result(), nil
	})
	policy := RetryPolicy{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
	api := New("http://aparthus.test", WithHTTPClient(&http.Client{Transport: transport}), WithRetryPolicy(policy))

	expenses, err := api.ListExpenses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, expenses)
	assert.Equal(t, int32(3), attempts.Load())

	attempts.Store(0)
	_, err = api.CreateExpense(context.Background(), dto.ExpenseRequest{Description: "Temizlik", Amount: decimal.NewFromInt(10)})
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestRetryGivesUp(t *testing.T) {
	var attempts atomic.Int32
	failing := errors.New("connection reset")
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		attempts.Add(1)
		return nil, failing
	})
	policy := RetryPolicy{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
	api := New("http://aparthus.test", WithHTTPClient(&http.Client{Transport: transport}), WithRetryPolicy(policy))

	_, err := api.ListExpenses(context.Background())
	var network *NetworkError
	require.ErrorAs(t, err, &network)
	assert.ErrorIs(t, err, failing)
	assert.Equal(t, int32(3), attempts.Load())

	attempts.Store(0)
	api = New("http://aparthus.test", WithHTTPClient(&http.Client{Transport: transport}), WithRetryPolicy(NoRetry))
	_, err = api.ListExpenses(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestRetrySkipsServerErrors(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		writeEnvelope(w, http.StatusForbidden, "forbidden", nil)
	}))
	defer ts.Close()

	api := New(ts.URL, WithRetryPolicy(RetryPolicy{MaxRetries: 3, InitialInterval: time.Millisecond}))
	_, err := api.ListResidents(context.Background())
	assert.True(t, IsStatus(err, http.StatusForbidden))
	assert.Equal(t, int32(1), attempts.Load())
}

func TestLogoutAndResume(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, "login successful", map[string]any{"token": "tok", "role": "security"})
	}))
	defer ts.Close()

	f := newFixture(ts.URL)
	_, err := f.boot.Resume()
	require.ErrorIs(t, err, session.ErrNoSession)

	_, err = f.boot.Login(context.Background(), "guard@site.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, []navigation.Screen{navigation.SecurityHome, navigation.QRCodeScanner}, f.router.Screens())

	// a fresh process sharing the same storage picks the session back up
	next := &fixture{api: New(ts.URL), router: navigation.NewRouter(), sessions: f.sessions}
	next.boot = NewBootstrapper(next.api, next.sessions, next.router)
	s, err := next.boot.Resume()
	require.NoError(t, err)
	assert.Equal(t, models.RoleSecurity, s.Role)
	assert.Equal(t, "tok", next.api.Token())
	assert.Equal(t, navigation.QRCodeScanner, next.router.Navigate(navigation.QRCodeScanner))

	screen, err := f.boot.Logout()
	require.NoError(t, err)
	assert.Equal(t, navigation.Login, screen)
	assert.False(t, f.router.State().Authenticated)
	assert.Empty(t, f.api.Token())
	_, err = f.sessions.Current()
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestExpiredTokenEndsSession(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Path {
		case "/api/login":
			assert.Empty(t, r.Header.Get("Authorization"))
			writeEnvelope(w, http.StatusOK, "login successful", map[string]any{"token": "old-token", "role": "admin"})
		default:
			assert.Equal(t, "Bearer old-token", r.Header.Get("Authorization"))
			writeEnvelope(w, http.StatusUnauthorized, "invalid token", nil)
		}
	}))
	defer ts.Close()

	f := newFixture(ts.URL)
	_, err := f.boot.Login(context.Background(), "admin@site.com", "adminpass")
	require.NoError(t, err)
	writes := f.store.Writes()

	_, err = f.api.ListResidents(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.True(t, authErr.Expired)
	assert.Equal(t, "Oturum sona erdi", AlertFor(err).Title)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	assert.Empty(t, f.api.Token())
	assert.False(t, f.router.State().Authenticated)
	_, err = f.sessions.Current()
	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.Equal(t, writes, f.store.Writes())

	// logging in again needs no token
	_, err = f.api.LoginStaff(context.Background(), "admin@site.com", "adminpass")
	require.NoError(t, err)
}
