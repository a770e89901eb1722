package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/aparthus-be/internal/auth"
	"github.com/hongminglow/aparthus-be/internal/config"
	"github.com/hongminglow/aparthus-be/internal/middleware"
	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/notify"
	"github.com/hongminglow/aparthus-be/internal/storage"
)

type testAPI struct {
	t      *testing.T
	router http.Handler
	store  storage.Store
	tokens *auth.TokenManager
}

func newTestAPI(t *testing.T, store storage.Store, static ...config.StaticAccount) *testAPI {
	t.Helper()
	tokens := auth.NewTokenManager("test-secret", "aparthus-test", time.Hour)
	creds, err := auth.NewStaticCredentials(static...)
	require.NoError(t, err)
	notifier := notify.NewService(store)

	root := mux.NewRouter()
	NewHealthHandler(time.Now()).Register(root)
	authHandler := NewAuthHandler(store, creds, tokens)
	authHandler.RegisterPublic(root, middleware.NewRateLimiter(0).Limit)

	api := root.PathPrefix("/api").Subrouter()
	api.Use(middleware.Authenticate(tokens))
	NewResidentHandler(store, store, notifier).Register(api)
	NewLedgerHandler(store).Register(api)
	NewCommunityHandler(store, notifier).Register(api)
	NewQRHandler(store).Register(api)

	return &testAPI{t: t, router: root, store: store, tokens: tokens}
}

func (a *testAPI) token(p auth.Principal) string {
	a.t.Helper()
	token, err := a.tokens.Generate(p)
	require.NoError(a.t, err)
	return token
}

func (a *testAPI) adminToken() string {
	return a.token(auth.Principal{ID: "admin-1", Username: "admin", Role: models.RoleAdmin})
}

func (a *testAPI) securityToken() string {
	return a.token(auth.Principal{ID: "sec-1", Username: "guard", Role: models.RoleSecurity})
}

func (a *testAPI) residentToken(r models.Resident) string {
	return a.token(auth.PrincipalFromResident(r))
}

// envelope mirrors respond.Envelope with the data left raw.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *testAPI) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), string(env.Data))
	return out
}

func createResident(t *testing.T, store storage.Store, username, password string, due int64) models.Resident {
	t.Helper()
	r := models.Resident{
		Username:  username,
		FirstName: "Ali",
		LastName:  "Kaya",
		Block:     "A",
		AmountDue: decimal.NewFromInt(due),
		HasPaid:   due == 0,
	}
	if password != "" {
		hash, err := auth.HashPassword(password)
		require.NoError(t, err)
		r.PasswordHash = hash
	}
	created, err := store.CreateResident(context.Background(), r)
	require.NoError(t, err)
	return created
}
