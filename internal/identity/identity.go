// Package identity carries the student's session. It is built once at
// startup and injected into the components that need it; no screen reads
// tokens from the environment or any other global.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrExpired = errors.New("access token is expired")

// Session is the authenticated student context for one run of the client.
type Session struct {
	Token     string
	StudentID string
	Name      string
	ExpiresAt time.Time
}

// FromToken decodes the claims of a JWT access token without verifying
// its signature. The backend is the verifier; the client only needs the
// subject and expiry to label the UI and fail fast on stale tokens.
func FromToken(token string, now time.Time) (*Session, error) {
	if token == "" {
		return nil, errors.New("no access token configured")
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	s := &Session{Token: token}

	if sub, err := claims.GetSubject(); err == nil {
		s.StudentID = sub
	}
	if name, ok := claims["name"].(string); ok {
		s.Name = name
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
		if now.After(exp.Time) {
			return nil, ErrExpired
		}
	}

	return s, nil
}

// Valid reports whether the session is still usable at the given time.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}
