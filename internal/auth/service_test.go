package auth

import (
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		JWTSecret:   "test-secret",
		JWTIssuer:   "streamforge-test",
		JWTAudience: "streamforge-app",
	}
}

func TestValidateAccessToken(t *testing.T) {
	svc := NewService(testConfig())

	token, err := svc.SignAccessToken("user-123", time.Minute)
	if err != nil {
		t.Fatalf("SignAccessToken() error = %v", err)
	}

	userID, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}
	if userID != "user-123" {
		t.Errorf("userID = %q, want %q", userID, "user-123")
	}
}

func TestValidateAccessToken_Expired(t *testing.T) {
	svc := NewService(testConfig())

	token, err := svc.SignAccessToken("user-123", -time.Minute)
	if err != nil {
		t.Fatalf("SignAccessToken() error = %v", err)
	}

	if _, err := svc.ValidateAccessToken(token); err == nil {
		t.Error("ValidateAccessToken() accepted an expired token")
	}
}

func TestValidateAccessToken_WrongIssuer(t *testing.T) {
	other := NewService(Config{
		JWTSecret:   "test-secret",
		JWTIssuer:   "someone-else",
		JWTAudience: "streamforge-app",
	})
	token, err := other.SignAccessToken("user-123", time.Minute)
	if err != nil {
		t.Fatalf("SignAccessToken() error = %v", err)
	}

	svc := NewService(testConfig())
	if _, err := svc.ValidateAccessToken(token); err == nil {
		t.Error("ValidateAccessToken() accepted a token from another issuer")
	}
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "other-secret"
	other := NewService(cfg)
	token, err := other.SignAccessToken("user-123", time.Minute)
	if err != nil {
		t.Fatalf("SignAccessToken() error = %v", err)
	}

	svc := NewService(testConfig())
	if _, err := svc.ValidateAccessToken(token); err == nil {
		t.Error("ValidateAccessToken() accepted a token signed with another secret")
	}
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	svc := NewService(testConfig())
	if _, err := svc.ValidateAccessToken("not-a-token"); err == nil {
		t.Error("ValidateAccessToken() accepted garbage")
	}
}
