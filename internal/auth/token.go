package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hongminglow/aparthus-be/internal/models"
)

// ErrInvalidToken is returned for tokens that fail signature, issuer, or expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload shared by staff and resident tokens. Subject holds the user or
// resident id.
type Claims struct {
	Username   string      `json:"username"`
	Role       models.Role `json:"role"`
	ResidentID string      `json:"residentId,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the identity a token is issued for.
type Principal struct {
	ID         string
	Username   string
	Role       models.Role
	ResidentID string
}

// PrincipalFromUser builds the token identity of a staff user.
func PrincipalFromUser(u models.User) Principal {
	return Principal{ID: u.ID, Username: u.Username, Role: u.Role}
}

// PrincipalFromResident builds the token identity of a resident.
func PrincipalFromResident(r models.Resident) Principal {
	return Principal{ID: r.ID, Username: r.Username, Role: models.RoleResident, ResidentID: r.ID}
}

// TokenManager issues signed JWTs for authenticated users.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate issues a signed JWT string for the principal.
func (t *TokenManager) Generate(p Principal) (string, error) {
	if !p.Role.Valid() {
		return "", fmt.Errorf("generate token: %w", models.ErrUnknownRole)
	}
	now := t.now()
	claims := Claims{
		Username:   p.Username,
		Role:       p.Role,
		ResidentID: p.ResidentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse validates the token string and returns its claims.
func (t *TokenManager) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
