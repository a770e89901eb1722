package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hongminglow/aparthus-be/internal/auth"
	"github.com/hongminglow/aparthus-be/internal/http/respond"
	"github.com/hongminglow/aparthus-be/internal/middleware"
	"github.com/hongminglow/aparthus-be/internal/models"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into dst, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

// only wraps fn so it runs for the listed roles.
func only(fn http.HandlerFunc, roles ...models.Role) http.Handler {
	return middleware.RequireRole(roles...)(fn)
}

// caller returns the authenticated claims. Routes are registered behind Authenticate, so a
// missing value is a wiring bug answered with 401.
func caller(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
	}
	return claims, ok
}
