// internal/identity/tokens.go
//
// Bearer tokens for the portal JSON API.
//
// The admin surface rides on server-side sessions; the portal API is
// stateless and uses short-lived HS256 JWTs instead.  Verify pins the
// signing method before trusting any claim, so an RS256 token with a
// public-key confusion payload dies at the method check.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "mosaic"

var ErrInvalidToken = errors.New("identity: invalid token")

// TokenClaims is the payload carried by portal tokens.
type TokenClaims struct {
	UserID int64    `json:"uid"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies portal tokens with one HMAC secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds an issuer.  ttl <= 0 falls back to 15 minutes.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed token for the user.
func (t *TokenIssuer) Issue(u *User, roles []string) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID: u.ID,
		Email:  u.Email,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("%d", u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses and validates a raw token, returning its claims.
func (t *TokenIssuer) Verify(raw string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
