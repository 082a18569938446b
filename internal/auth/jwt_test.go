package auth

import (
	"testing"
)

func TestGenerateValidateRoundtrip(t *testing.T) {
	svc := NewJWTService("test-secret", 1)

	token, err := svc.Generate(7, "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 7 {
		t.Errorf("expected user_id 7, got %d", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("expected username alice, got %q", claims.Username)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", 1).Generate(1, "bob")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewJWTService("secret-b", 1).Validate(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewJWTService("test-secret", -1)
	token, err := svc.Generate(1, "bob")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.Validate(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestConfirmTokenPurposeIsolation(t *testing.T) {
	svc := NewJWTService("test-secret", 1)

	confirm, err := svc.GenerateConfirmToken(9)
	if err != nil {
		t.Fatalf("generate confirm: %v", err)
	}

	// A confirmation token must not pass as an access token.
	if _, err := svc.Validate(confirm); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for confirm token, got %v", err)
	}

	userID, err := svc.ValidateConfirmToken(confirm)
	if err != nil {
		t.Fatalf("validate confirm: %v", err)
	}
	if userID != 9 {
		t.Errorf("expected user_id 9, got %d", userID)
	}

	// And an access token must not pass as a confirmation token.
	access, err := svc.Generate(9, "carol")
	if err != nil {
		t.Fatalf("generate access: %v", err)
	}
	if _, err := svc.ValidateConfirmToken(access); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for access token, got %v", err)
	}
}
