package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/models/dto"
	"github.com/hongminglow/aparthus-be/internal/storage/postgres"
	"github.com/hongminglow/aparthus-be/internal/testhelpers"
)

// TestAuthIntegration exercises registration and both login flows against a disposable Postgres.
func TestAuthIntegration(t *testing.T) {
	testhelpers.RequireIntegration(t)
	dsn := testhelpers.StartPostgres(t)

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	defer store.Close()

	api := newTestAPI(t, store)
	ts := httptest.NewServer(api.router)
	defer ts.Close()

	username := fmt.Sprintf("apitest_%d", time.Now().UnixNano())
	email := fmt.Sprintf("%s@example.com", username)
	phone := fmt.Sprintf("+1555%07d", time.Now().UnixNano()%1_000_0000)
	password := fmt.Sprintf("Pass!%d", time.Now().UnixNano())

	var user models.User
	postJSON(t, ts.URL+"/api/users/register", api.adminToken(), map[string]string{
		"username": username,
		"email":    email,
		"phone":    phone,
		"password": password,
	}, http.StatusCreated, &user)
	if user.Username != username || user.Email != email || user.Phone != phone {
		t.Fatalf("register mismatch: got %+v", user)
	}
	if user.Role != models.RoleSecurity {
		t.Fatalf("register role = %q, want security", user.Role)
	}

	var loggedIn dto.LoginResponse
	postJSON(t, ts.URL+"/api/login", "", map[string]string{
		"identifier": strings.ToUpper(email),
		"password":   password,
	}, http.StatusOK, &loggedIn)
	if loggedIn.User == nil || loggedIn.User.ID != user.ID {
		t.Fatalf("login returned wrong user: %+v", loggedIn.User)
	}
	if strings.TrimSpace(loggedIn.Token) == "" {
		t.Fatal("login response missing token")
	}

	var resident models.Resident
	postJSON(t, ts.URL+"/api/residents", api.adminToken(), map[string]any{
		"username":  username + "_res",
		"password":  password,
		"firstName": "Deneme",
		"block":     "C",
		"amountDue": 300,
	}, http.StatusCreated, &resident)

	var residentLogin dto.ResidentLoginResponse
	postJSON(t, ts.URL+"/api/residents/login", "", map[string]string{
		"username": username + "_res",
		"password": password,
	}, http.StatusOK, &residentLogin)
	if residentLogin.Resident.ID != resident.ID {
		t.Fatalf("resident login id = %q, want %q", residentLogin.Resident.ID, resident.ID)
	}

	var paid dto.PaymentResponse
	postJSON(t, ts.URL+"/api/residents/payAidat", residentLogin.Token, map[string]any{"amount": 300}, http.StatusOK, &paid)
	if !paid.Resident.HasPaid || !paid.Resident.AmountDue.IsZero() {
		t.Fatalf("payment did not settle dues: %+v", paid.Resident)
	}

	postJSON(t, ts.URL+"/api/login", "", map[string]string{
		"identifier": username,
		"password":   "wrong-password",
	}, http.StatusUnauthorized, nil)

	t.Logf("registered %s (id=%s) and resident %s, both logged in", username, user.ID, resident.ID)
}

// postJSON sends payload, checks the status and decodes the envelope data into out when non-nil.
func postJSON(t *testing.T, url, token string, payload any, wantStatus int, out any) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s response: %v", url, err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s status = %d, want %d (%s)", url, resp.StatusCode, wantStatus, env.Message)
	}
	if out == nil {
		return
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode %s data: %v", url, err)
	}
}
