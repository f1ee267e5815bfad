// Package auth implements the credential signer: short-lived HMAC-signed
// access tokens carrying identity claims, and generation of the opaque
// random secrets used as refresh-token values.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avetrovs/folioauth/internal/server/models"
)

// MinKeyLen is the minimum accepted HMAC key length in bytes (256 bits).
const MinKeyLen = 32

// opaqueSecretLen is the number of random bytes in a refresh secret
// (512 bits of entropy before encoding).
const opaqueSecretLen = 64

var (
	// ErrKeyTooShort rejects signing keys below MinKeyLen at construction.
	ErrKeyTooShort = errors.New("signing key too short")

	// Verification failures. They are distinguished here so the session
	// manager can log the cause; boundary code collapses them all into a
	// single unauthorized response.
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("invalid token")
	ErrWrongIssuer   = errors.New("wrong issuer")
	ErrWrongAudience = errors.New("wrong audience")
)

// Claims is the set of assertions embedded in an access token. The numeric
// UserID is the canonical identity; username and email are convenience
// claims and must never be used to re-derive it.
type Claims struct {
	jwt.RegisteredClaims
	UserID       int64  `json:"uid"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	BaseCurrency string `json:"base_currency"`
}

// Signer mints and verifies access credentials. It is stateless and safe
// for concurrent use; the key lives only in process memory.
type Signer struct {
	key      []byte
	ttl      time.Duration
	issuer   string
	audience string
}

// NewSigner constructs a Signer. The key must be at least MinKeyLen bytes;
// ttl is the access-token lifetime.
func NewSigner(key []byte, ttl time.Duration, issuer, audience string) (*Signer, error) {
	if len(key) < MinKeyLen {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrKeyTooShort, len(key), MinKeyLen)
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Signer{key: k, ttl: ttl, issuer: issuer, audience: audience}, nil
}

// Mint signs a new access token for the given user and returns it together
// with its absolute expiry instant.
func (s *Signer) Mint(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		BaseCurrency: user.BaseCurrency,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses and validates an access token: HS256 only, matching issuer
// and audience, signature checked in constant time by the library, and
// expiry with zero leeway. An explicit expiry comparison keeps the boundary
// hard even if parser defaults ever change.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(0),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return nil, ErrWrongIssuer
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return nil, ErrWrongAudience
	default:
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.ExpiresAt == nil || !time.Now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

// NewOpaqueSecret returns a new refresh-token value: opaqueSecretLen bytes
// from the CSPRNG, base64url-encoded without padding for safe transport.
func (s *Signer) NewOpaqueSecret() (string, error) {
	b := make([]byte, opaqueSecretLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
