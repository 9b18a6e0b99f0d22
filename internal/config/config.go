// Package config loads drive-nexus settings from a YAML file, an optional .env file
// and the process environment, in increasing order of precedence.
package config

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Google   GoogleConfig   `yaml:"google"`
	Identity IdentityConfig `yaml:"identity"`
	Security SecurityConfig `yaml:"security"`
	Redis    RedisConfig    `yaml:"redis"`
	CORS     CORSConfig     `yaml:"cors"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" validate:"required"`
	Port            string        `yaml:"port" validate:"required,numeric"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string { return net.JoinHostPort(s.Host, s.Port) }

type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"oneof=sqlite postgres"`
	DSN    string `yaml:"dsn" validate:"required"`
}

// GoogleConfig holds the OAuth client and provider endpoints. Endpoints default to Google's.
type GoogleConfig struct {
	ClientID     string        `yaml:"client_id" validate:"required"`
	ClientSecret string        `yaml:"client_secret" validate:"required"`
	AuthURL      string        `yaml:"auth_url" validate:"required,url"`
	TokenURL     string        `yaml:"token_url" validate:"required,url"`
	UserInfoURL  string        `yaml:"userinfo_url" validate:"required,url"`
	RevokeURL    string        `yaml:"revoke_url" validate:"required,url"`
	DriveBaseURL string        `yaml:"drive_base_url" validate:"required,url"`
	Timeout      time.Duration `yaml:"timeout"`
}

// IdentityConfig configures verification of the caller's bearer identity token.
type IdentityConfig struct {
	JWTSecret string `yaml:"jwt_secret" validate:"required"`
	Audience  string `yaml:"audience"`
}

type SecurityConfig struct {
	// TokenEncryptionKey seals stored provider tokens. Empty means plaintext storage.
	TokenEncryptionKey string `yaml:"token_encryption_key"`
	// EnforceOAuthState rejects callbacks that do not present a server-issued state.
	EnforceOAuthState bool          `yaml:"enforce_oauth_state"`
	StateTTL          time.Duration `yaml:"state_ttl"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            "8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "drive-nexus.db",
		},
		Google: GoogleConfig{
			AuthURL:      "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:     "https://oauth2.googleapis.com/token",
			UserInfoURL:  "https://www.googleapis.com/oauth2/v2/userinfo",
			RevokeURL:    "https://oauth2.googleapis.com/revoke",
			DriveBaseURL: "https://www.googleapis.com/drive/v3",
			Timeout:      30 * time.Second,
		},
		Identity: IdentityConfig{
			Audience: "authenticated",
		},
		Security: SecurityConfig{
			StateTTL: 10 * time.Minute,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load reads configuration. path may be empty, in which case DRIVE_NEXUS_CONFIG and the
// well-known locations are tried; a missing file is not an error.
func Load(path string) (*Config, error) {
	loadDotEnv()

	cfg := Default()

	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, err
	}
	if resolved != "" {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", resolved, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", resolved, err)
		}
		log.Printf("📄 Loaded config from %s", resolved)
	}

	applyEnv(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadDotEnv() {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE_PATH"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err == nil {
		log.Printf("📄 Loaded environment from %s", envFile)
	}
}

func resolveConfigPath(explicit string) (string, error) {
	if explicit == "" {
		explicit = strings.TrimSpace(os.Getenv("DRIVE_NEXUS_CONFIG"))
	}
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %q: %w", explicit, err)
		}
		return explicit, nil
	}

	candidates := []string{
		"config/drive-nexus.yaml",
		"/etc/drive-nexus/drive-nexus.yaml",
	}
	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != "" {
		candidates = append(candidates, filepath.Join(homeDir, ".config", "drive-nexus", "drive-nexus.yaml"))
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Host, "HOST")
	setString(&cfg.Server.Port, "PORT")

	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.DSN, "DATABASE_URL")

	setString(&cfg.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&cfg.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")

	setString(&cfg.Identity.JWTSecret, "SUPABASE_JWT_SECRET")
	setString(&cfg.Identity.Audience, "IDENTITY_AUDIENCE")

	setString(&cfg.Security.TokenEncryptionKey, "TOKEN_ENCRYPTION_KEY")
	if v := strings.TrimSpace(os.Getenv("ENFORCE_OAUTH_STATE")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Security.EnforceOAuthState = b
		}
	}

	setString(&cfg.Redis.URL, "REDIS_URL")

	if v := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORS.AllowedOrigins = origins
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
