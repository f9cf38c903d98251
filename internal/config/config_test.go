package config

import (
	"testing"
)

func TestLoadAuthConfig_Defaults(t *testing.T) {
	cfg := loadAuthConfig()
	if cfg.JWTSecret == "" {
		t.Error("JWTSecret default is empty")
	}
	if cfg.JWTIssuer != "streamforge" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "streamforge")
	}
}

func TestLoadAuthConfig_EnvOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "env-secret")
	t.Setenv("AUTH_JWT_ISSUER", "env-issuer")
	t.Setenv("AUTH_JWT_AUDIENCE", "env-audience")

	cfg := loadAuthConfig()
	if cfg.JWTSecret != "env-secret" {
		t.Errorf("JWTSecret = %q, want env override", cfg.JWTSecret)
	}
	if cfg.JWTIssuer != "env-issuer" {
		t.Errorf("JWTIssuer = %q, want env override", cfg.JWTIssuer)
	}
	if cfg.JWTAudience != "env-audience" {
		t.Errorf("JWTAudience = %q, want env override", cfg.JWTAudience)
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	if got := getEnvOrDefault("STREAMFORGE_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getEnvOrDefault() = %q, want fallback", got)
	}
	t.Setenv("STREAMFORGE_TEST_SET", "value")
	if got := getEnvOrDefault("STREAMFORGE_TEST_SET", "fallback"); got != "value" {
		t.Errorf("getEnvOrDefault() = %q, want env value", got)
	}
}

func TestEnvInt(t *testing.T) {
	if got := envInt("STREAMFORGE_TEST_UNSET_INT", 7); got != 7 {
		t.Errorf("envInt() = %d, want default 7", got)
	}
	t.Setenv("STREAMFORGE_TEST_INT", "42")
	if got := envInt("STREAMFORGE_TEST_INT", 7); got != 42 {
		t.Errorf("envInt() = %d, want 42", got)
	}
	t.Setenv("STREAMFORGE_TEST_BAD_INT", "nope")
	if got := envInt("STREAMFORGE_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("envInt() = %d, want default on parse failure", got)
	}
}
