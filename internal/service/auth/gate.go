// Package auth issues and verifies bearer tokens and hashes passwords.
// The rest of the system treats it as an opaque gate: hand in a credential,
// get back an identity or nothing.
package auth

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pixhy/voizchat/internal/model/user"
)

// ErrInvalidToken covers malformed, mis-signed and expired tokens alike.
var ErrInvalidToken = errors.New("invalid or expired token")

// UserSource resolves an authenticated subject to an account.
type UserSource interface {
	UserByUserID(ctx context.Context, userID string) (user.User, error)
}

// Gate signs tokens with an Ed25519 key and authenticates bearers.
type Gate struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	ttl        time.Duration
	users      UserSource
}

// NewGate builds a gate from a signing key pair and a token lifetime.
func NewGate(privateKey ed25519.PrivateKey, publicKey ed25519.PublicKey, ttl time.Duration, users UserSource) *Gate {
	return &Gate{privateKey: privateKey, publicKey: publicKey, ttl: ttl, users: users}
}

// IssueToken mints a signed token whose subject is the user's public id.
func (g *Gate) IssueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(g.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Authenticate verifies the token and returns the account it belongs to.
func (g *Gate) Authenticate(ctx context.Context, tokenString string) (user.User, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return g.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return user.User{}, ErrInvalidToken
	}

	account, err := g.users.UserByUserID(ctx, claims.Subject)
	if err != nil {
		return user.User{}, ErrInvalidToken
	}
	return account, nil
}
