package auth

import (
	"errors"
	"testing"
	"time"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("demo123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "demo123" {
		t.Fatalf("hash must not equal the password")
	}
	if err := CheckPassword(hash, "demo123"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSessionIssueVerify(t *testing.T) {
	sessions := NewSessions("0123456789abcdef", time.Hour)

	token, err := sessions.Issue("demo")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	username, err := sessions.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if username != "demo" {
		t.Fatalf("expected demo, got %q", username)
	}
}

func TestSessionRejectsExpiredAndForeignTokens(t *testing.T) {
	sessions := NewSessions("0123456789abcdef", time.Minute)
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return start }

	token, err := sessions.Issue("demo")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	sessions.now = func() time.Time { return start.Add(2 * time.Minute) }
	if _, err := sessions.Verify(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}

	other := NewSessions("fedcba9876543210", time.Hour)
	foreign, err := other.Issue("demo")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := NewSessions("0123456789abcdef", time.Hour).Verify(foreign); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected foreign token to be rejected, got %v", err)
	}
}
