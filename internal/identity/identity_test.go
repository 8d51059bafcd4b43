package identity

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestFromToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tok := signedToken(t, jwt.MapClaims{
		"sub":  "student-42",
		"name": "Aziza",
		"exp":  now.Add(time.Hour).Unix(),
	})

	s, err := FromToken(tok, now)
	if err != nil {
		t.Fatalf("FromToken: %v", err)
	}
	if s.StudentID != "student-42" {
		t.Errorf("StudentID = %q", s.StudentID)
	}
	if s.Name != "Aziza" {
		t.Errorf("Name = %q", s.Name)
	}
	if !s.Valid(now) {
		t.Error("session should be valid before expiry")
	}
	if s.Valid(now.Add(2 * time.Hour)) {
		t.Error("session should be invalid after expiry")
	}
}

func TestFromToken_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tok := signedToken(t, jwt.MapClaims{
		"sub": "student-42",
		"exp": now.Add(-time.Minute).Unix(),
	})

	if _, err := FromToken(tok, now); !errors.Is(err, ErrExpired) {
		t.Errorf("err = %v, want ErrExpired", err)
	}
}

func TestFromToken_NoExpiry(t *testing.T) {
	now := time.Now()
	tok := signedToken(t, jwt.MapClaims{"sub": "student-42"})

	s, err := FromToken(tok, now)
	if err != nil {
		t.Fatalf("FromToken: %v", err)
	}
	if !s.Valid(now.Add(100 * 24 * time.Hour)) {
		t.Error("a token without exp never goes stale locally")
	}
}

func TestFromToken_Garbage(t *testing.T) {
	if _, err := FromToken("not-a-jwt", time.Now()); err == nil {
		t.Error("expected an error for a malformed token")
	}
	if _, err := FromToken("", time.Now()); err == nil {
		t.Error("expected an error for an empty token")
	}
}
