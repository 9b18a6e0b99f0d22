package google

import (
	"strings"

	"github.com/pysugar/drive-nexus/internal/config"
	"golang.org/x/oauth2"
	googleOAuth "golang.org/x/oauth2/google"
)

// Scopes requested on consent: read-only file listing and the account email.
var Scopes = []string{
	"https://www.googleapis.com/auth/drive.readonly",
	"https://www.googleapis.com/auth/userinfo.email",
}

// ProviderConfig describes the OAuth client and the provider endpoints it talks to.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RevokeURL    string
}

// NewProviderConfig builds a ProviderConfig from the service configuration,
// falling back to Google's published endpoints.
func NewProviderConfig(cfg config.GoogleConfig) ProviderConfig {
	p := ProviderConfig{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		AuthURL:      strings.TrimSpace(cfg.AuthURL),
		TokenURL:     strings.TrimSpace(cfg.TokenURL),
		UserInfoURL:  strings.TrimSpace(cfg.UserInfoURL),
		RevokeURL:    strings.TrimSpace(cfg.RevokeURL),
	}
	if p.AuthURL == "" {
		p.AuthURL = googleOAuth.Endpoint.AuthURL
	}
	if p.TokenURL == "" {
		p.TokenURL = googleOAuth.Endpoint.TokenURL
	}
	if p.UserInfoURL == "" {
		p.UserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	}
	if p.RevokeURL == "" {
		p.RevokeURL = "https://oauth2.googleapis.com/revoke"
	}
	return p
}

// OAuthConfig returns the oauth2 config for the given redirect URI. The redirect URI
// must match the one the authorization code was issued for.
func (p ProviderConfig) OAuthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.AuthURL,
			TokenURL:  p.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}
