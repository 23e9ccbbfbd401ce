package auth

import (
	"errors"
	"testing"
	"time"

	"live-quiz-service/internal/domain"
)

func TestSignAndVerify(t *testing.T) {
	a := NewAuthenticator("test-secret")
	tok, err := a.Sign("host-1", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	host, err := a.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if host != "host-1" {
		t.Fatalf("expected host-1, got %s", host)
	}
}

func TestVerifyRejectsForeignAndExpiredTokens(t *testing.T) {
	a := NewAuthenticator("test-secret")
	other := NewAuthenticator("other-secret")
	tok, _ := other.Sign("host-1", time.Hour)
	if _, err := a.Verify(tok); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for foreign signature, got %v", err)
	}

	a.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := a.Sign("host-1", time.Hour)
	a.now = time.Now
	if _, err := a.Verify(old); !errors.Is(err, domain.ErrInvalidHostToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
	if _, err := a.Verify("not-a-token"); err == nil {
		t.Fatalf("expected garbage to fail")
	}
}

func TestDisabled(t *testing.T) {
	a := NewAuthenticator("")
	if a.Enabled() {
		t.Fatalf("empty secret must disable auth")
	}
	if _, err := a.Sign("host-1", time.Minute); err == nil {
		t.Fatalf("expected sign to fail without a secret")
	}
}
