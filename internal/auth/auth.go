// Package auth verifies the access tokens issued by the external auth
// provider and carries the resulting identity through request contexts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the signed-in shopper. A zero Identity means anonymous.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (i Identity) Authenticated() bool { return i.UserID != "" }

// Claims mirrors the provider's access token: sub is the user id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier { return &Verifier{secret: []byte(secret)} }

// FromHeader parses an "Authorization: Bearer <token>" value.
func (v *Verifier) FromHeader(h string) (Identity, error) {
	if h == "" {
		return Identity{}, ErrMissingToken
	}
	tok, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || tok == "" {
		return Identity{}, ErrInvalidToken
	}
	return v.Verify(tok)
}

func (v *Verifier) Verify(token string) (Identity, error) {
	if len(v.secret) == 0 {
		return Identity{}, ErrInvalidToken
	}
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

// Sign issues a token the Verifier accepts. Used by tests and storefrontctl.
func (v *Verifier) Sign(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(ctxKey{}).(Identity)
	return id
}
