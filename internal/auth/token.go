package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken      = errors.New("missing auth token")
	ErrInvalidToken = errors.New("invalid auth token")
)

// SessionClaims is the shape of the tokens the external auth service issues.
// The core only reads the user id; issuance and revocation live elsewhere.
type SessionClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Verifier validates session tokens and extracts the caller's identity.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for HS256 tokens signed with secret. An
// empty secret yields a verifier that rejects everything (fail closed).
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Identify extracts and validates the identity for a request. The token is
// read from the "token" query parameter (websocket handshake) or from an
// Authorization: Bearer header (API calls).
func (v *Verifier) Identify(r *http.Request) (string, error) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			raw = strings.TrimPrefix(h, "Bearer ")
		}
	}
	if raw == "" {
		return "", ErrNoToken
	}
	return v.Validate(raw)
}

// Validate parses a signed token string and returns the user id claim.
func (v *Verifier) Validate(raw string) (string, error) {
	if len(v.secret) == 0 {
		return "", ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(raw, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
