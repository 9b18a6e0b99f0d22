package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drive-nexus.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FileThenEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
google:
  client_id: file-client
  client_secret: file-secret
identity:
  jwt_secret: file-jwt
security:
  state_ttl: 5m
`)
	t.Setenv("GOOGLE_CLIENT_ID", "env-client")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("ENFORCE_OAUTH_STATE", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Google.ClientID != "env-client" {
		t.Fatalf("ClientID = %q, env should win", cfg.Google.ClientID)
	}
	if cfg.Google.ClientSecret != "file-secret" {
		t.Fatalf("ClientSecret = %q, want file value", cfg.Google.ClientSecret)
	}
	if got := cfg.Server.Addr(); got != "127.0.0.1:9090" {
		t.Fatalf("Addr() = %q", got)
	}
	if cfg.Security.StateTTL != 5*time.Minute {
		t.Fatalf("StateTTL = %v", cfg.Security.StateTTL)
	}
	if !cfg.Security.EnforceOAuthState {
		t.Fatal("EnforceOAuthState should be set from env")
	}
	origins := cfg.CORS.AllowedOrigins
	if len(origins) != 2 || origins[0] != "https://app.example.com" || origins[1] != "https://admin.example.com" {
		t.Fatalf("AllowedOrigins = %v", origins)
	}

	// Untouched defaults survive a partial file.
	if cfg.Google.TokenURL != "https://oauth2.googleapis.com/token" {
		t.Fatalf("TokenURL = %q", cfg.Google.TokenURL)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("Driver = %q", cfg.Database.Driver)
	}
}

func TestLoad_MissingGoogleCredentials(t *testing.T) {
	path := writeConfig(t, `
identity:
  jwt_secret: x
`)
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "ClientID") {
		t.Fatalf("expected ClientID validation error, got %v", err)
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: mysql
  dsn: whatever
google:
  client_id: a
  client_secret: b
identity:
  jwt_secret: c
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
