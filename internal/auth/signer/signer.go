// Package signer issues and verifies the short-lived bearer tokens wallets
// use to authenticate. A token is an EdDSA JWT signed with the wallet's
// ed25519 key; its subject is the wallet address, so the verification key
// comes from the token itself.
package signer

import (
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "tollgate/pkg/domain-errors"
)

// DefaultMaxTTL is the longest lifetime a token may declare.
const DefaultMaxTTL = 5 * time.Minute

// Claims is the verified content of a signer token.
type Claims struct {
	Signer    solana.PublicKey
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TTL is the lifetime the token declared.
func (c *Claims) TTL() time.Duration {
	return c.ExpiresAt.Sub(c.IssuedAt)
}

// Verifier checks signer tokens for one audience.
type Verifier struct {
	audience string
	maxTTL   time.Duration
	now      func() time.Time
}

type Option func(*Verifier)

func WithMaxTTL(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.maxTTL = d
		}
	}
}

// WithClock replaces the verification clock. Tests only.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) { v.now = now }
}

func NewVerifier(audience string, opts ...Option) *Verifier {
	v := &Verifier{
		audience: audience,
		maxTTL:   DefaultMaxTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify parses token, checks its signature against the subject's key and
// enforces audience, lifetime and jti presence.
func (v *Verifier) Verify(token string) (*Claims, error) {
	var reg jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &reg, func(t *jwt.Token) (any, error) {
		c, ok := t.Claims.(*jwt.RegisteredClaims)
		if !ok {
			return nil, jwt.ErrTokenInvalidClaims
		}
		pk, err := solana.PublicKeyFromBase58(c.Subject)
		if err != nil {
			return nil, jwt.ErrTokenInvalidSubject
		}
		return ed25519.PublicKey(pk[:]), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if reg.IssuedAt == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token must carry iat")
	}
	if reg.ID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token must carry jti")
	}

	// Subject already parsed inside the key func.
	pk := solana.MustPublicKeyFromBase58(reg.Subject)
	claims := &Claims{
		Signer:    pk,
		JTI:       reg.ID,
		IssuedAt:  reg.IssuedAt.Time,
		ExpiresAt: reg.ExpiresAt.Time,
	}
	if claims.TTL() <= 0 || claims.TTL() > v.maxTTL {
		return nil, dErrors.Newf(dErrors.CodeUnauthorized, "token lifetime must be at most %s", v.maxTTL)
	}
	return claims, nil
}

// Issue signs a token for key's wallet.
func Issue(key solana.PrivateKey, audience string, ttl time.Duration, now time.Time) (string, error) {
	if len(key) != ed25519.PrivateKeySize {
		return "", dErrors.New(dErrors.CodeValidation, "private key must be 64 bytes")
	}
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.RegisteredClaims{
		Subject:   key.PublicKey().String(),
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	})
	return t.SignedString(ed25519.PrivateKey(key))
}
