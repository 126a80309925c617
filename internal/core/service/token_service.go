package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskmanagement/task-system/internal/core/domain"
)

// TokenClaims is the session token payload. The registered subject carries
// the user's email.
type TokenClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 session tokens. The signing key is
// fixed for the lifetime of the service.
type TokenService struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces the time source used for issuing and checking expiry.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService decodes the base64 secret once. A missing or undecodable
// secret is a startup error.
func NewTokenService(base64Secret string, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if base64Secret == "" {
		return nil, errors.New("token service: signing key is not configured")
	}
	key, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("token service: decode signing key: %w", err)
	}
	if len(key) == 0 {
		return nil, errors.New("token service: signing key is empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	s := &TokenService{key: key, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for user, expiring after the configured TTL.
func (s *TokenService) Issue(user *domain.User) (string, error) {
	now := s.now()
	claims := &TokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Validate verifies the signature and registered claims of token. Every
// failure is reported as domain.ErrInvalidToken.
func (s *TokenService) Validate(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// IsValid reports whether token verifies, belongs to expectedSubject and has
// not yet expired.
func (s *TokenService) IsValid(token, expectedSubject string) bool {
	claims, err := s.Validate(token)
	if err != nil {
		return false
	}
	if claims.Subject != expectedSubject || claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Time.After(s.now())
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
