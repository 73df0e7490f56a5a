package auth

import (
	"errors"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", 15*time.Minute)

	token, expiresAt, err := m.GenerateAccessToken(42, "sid-42", "student")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("token expires in the past")
	}

	claims, err := m.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.SID != "sid-42" || claims.Role != "student" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTManager("secret-a", 15*time.Minute)
	verifier := NewJWTManager("secret-b", 15*time.Minute)

	token, _, err := issuer.GenerateAccessToken(1, "sid-1", "student")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := verifier.ParseAccessToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := m.GenerateAccessToken(1, "sid-1", "student")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	m.now = time.Now
	if _, err := m.ParseAccessToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)

	for _, raw := range []string{"", "   ", "not.a.token"} {
		if _, err := m.ParseAccessToken(raw); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("%q: expected ErrUnauthorized, got %v", raw, err)
		}
	}
}
