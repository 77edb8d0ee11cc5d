package token

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalid is returned for every verification failure: malformed,
// tampered, expired or revoked tokens all look the same to callers so
// the API leaks nothing about why a token was rejected.
var ErrInvalid = errors.New("token: invalid or expired")

// Claims is the decoded content of a session token.
type Claims struct {
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Service issues, verifies and revokes signed session tokens. Signing is
// HS256; revocation state lives behind the Registry so the backing store
// is swappable (process-local set or shared Redis).
type Service struct {
	secret   []byte
	expiry   time.Duration
	registry Registry
}

// NewService wires a token service. secret and expiry are required
// configuration; callers must have validated them at startup.
func NewService(secret string, expiry time.Duration, registry Registry) *Service {
	return &Service{
		secret:   []byte(secret),
		expiry:   expiry,
		registry: registry,
	}
}

// Issue produces a signed token for the given user id, valid for the
// configured expiry window.
func (s *Service) Issue(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the signature and expiry of a token and, when a registry
// is configured, that the exact token string has not been revoked. A
// registry lookup failure counts as invalid: a token that cannot be
// proven unrevoked is not accepted.
func (s *Service) Verify(ctx context.Context, tokenString string) (Claims, error) {
	if tokenString == "" {
		return Claims{}, ErrInvalid
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalid
	}

	reg, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || reg.Subject == "" {
		return Claims{}, ErrInvalid
	}

	userID, err := strconv.ParseInt(reg.Subject, 10, 64)
	if err != nil {
		return Claims{}, ErrInvalid
	}

	revoked, err := s.registry.IsRevoked(ctx, tokenString)
	if err != nil || revoked {
		return Claims{}, ErrInvalid
	}

	claims := Claims{UserID: userID}
	if reg.IssuedAt != nil {
		claims.IssuedAt = reg.IssuedAt.Time
	}
	if reg.ExpiresAt != nil {
		claims.ExpiresAt = reg.ExpiresAt.Time
	}

	return claims, nil
}

// Revoke invalidates the exact token string for all future requests.
// Returns false for an empty token or when the registry write fails,
// true otherwise.
func (s *Service) Revoke(ctx context.Context, tokenString string) bool {
	if tokenString == "" {
		return false
	}

	if err := s.registry.Revoke(ctx, tokenString); err != nil {
		return false
	}
	return true
}
