package auth_test

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/eventrahq/eventra/internal/app/system/auth"
)

const testSecret = "test-secret-0123456789abcdef0123456789abcdef"

func TestTokenManager_IssueVerify(t *testing.T) {
	tm, err := auth.NewTokenManager(testSecret, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}

	token, err := tm.Issue("user-123", "student")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	userID, err := tm.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != "user-123" {
		t.Errorf("Verify returned %q, want user-123", userID)
	}
}

func TestTokenManager_EmptySecret(t *testing.T) {
	if _, err := auth.NewTokenManager("", time.Hour, zap.NewNop()); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestTokenManager_RejectsTampered(t *testing.T) {
	tm, err := auth.NewTokenManager(testSecret, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	token, err := tm.Issue("user-123", "student")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := tm.Verify(tampered); err == nil {
		t.Error("expected tampered token to fail verification")
	}
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	issuer, err := auth.NewTokenManager(testSecret, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	verifier, err := auth.NewTokenManager("another-secret-0123456789abcdef01234567", time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}

	token, err := issuer.Issue("user-123", "student")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Error("expected token signed with a different secret to fail")
	}
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	tm, err := auth.NewTokenManager(testSecret, time.Millisecond, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}

	token, err := tm.Issue("user-123", "student")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if _, err := tm.Verify(token); err == nil {
		t.Error("expected expired token to fail verification")
	}
}
