package xsrf

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueVerify_RoundTrip(t *testing.T) {
	c := New(testSecret, time.Hour)

	tok, err := c.Issue("access-token-1")
	if err != nil {
		t.Fatalf("Issue err: %v", err)
	}
	if err := c.Verify("access-token-1", tok); err != nil {
		t.Fatalf("Verify err: %v", err)
	}
}

func TestVerify_Recomputable(t *testing.T) {
	// Two codecs with the same secret must accept each other's tokens:
	// verification is recomputation, not a session lookup.
	a := New(testSecret, time.Hour)
	b := New(testSecret, time.Hour)

	tok, err := a.Issue("access-token-1")
	if err != nil {
		t.Fatalf("Issue err: %v", err)
	}
	if err := b.Verify("access-token-1", tok); err != nil {
		t.Fatalf("Verify on second codec err: %v", err)
	}
}

func TestVerify_WrongAccessToken(t *testing.T) {
	c := New(testSecret, time.Hour)

	tok, err := c.Issue("access-token-1")
	if err != nil {
		t.Fatalf("Issue err: %v", err)
	}
	err = c.Verify("access-token-2", tok)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("want ErrTokenInvalid, got %v", err)
	}
}

func TestVerify_Tampered(t *testing.T) {
	c := New(testSecret, time.Hour)

	tok, err := c.Issue("access-token-1")
	if err != nil {
		t.Fatalf("Issue err: %v", err)
	}
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", tok)
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	err = c.Verify("access-token-1", tampered)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("want ErrTokenInvalid, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	a := New(testSecret, time.Hour)
	b := New("another-secret-another-secret-32", time.Hour)

	tok, err := a.Issue("access-token-1")
	if err != nil {
		t.Fatalf("Issue err: %v", err)
	}
	err = b.Verify("access-token-1", tok)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("want ErrTokenInvalid, got %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	issued := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := New(testSecret, time.Hour)
	c.now = func() time.Time { return issued }

	tok, err := c.Issue("access-token-1")
	if err != nil {
		t.Fatalf("Issue err: %v", err)
	}

	// Inside the window: ok.
	c.now = func() time.Time { return issued.Add(30 * time.Minute) }
	if err := c.Verify("access-token-1", tok); err != nil {
		t.Fatalf("Verify inside window err: %v", err)
	}

	// Past the window: expired, not invalid.
	c.now = func() time.Time { return issued.Add(2 * time.Hour) }
	err = c.Verify("access-token-1", tok)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
	if errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expired must be distinguishable from invalid")
	}
}
