package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pysugar/drive-nexus/internal/apperr"
	"github.com/pysugar/drive-nexus/internal/auth/state"
	"github.com/pysugar/drive-nexus/internal/db/models"
	"github.com/pysugar/drive-nexus/internal/logging"
	"github.com/pysugar/drive-nexus/internal/util"
	"golang.org/x/oauth2"
)

// CallbackRequest is what the client posts after the provider redirected back to it.
type CallbackRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
	// State is optional unless state enforcement is enabled.
	State string `json:"state,omitempty"`
}

// CompleteAuthorization exchanges the authorization code and stores the resulting
// credential for userID, replacing any previous one. It returns the account email,
// which is empty when the userinfo lookup failed.
func (b *Broker) CompleteAuthorization(ctx context.Context, userID string, req CallbackRequest) (string, error) {
	if userID == "" {
		return "", apperr.New(apperr.Unauthenticated, "Not authenticated")
	}
	if req.Code == "" || req.RedirectURI == "" {
		return "", apperr.New(apperr.InvalidArgument, "code and redirect_uri are required")
	}
	if err := b.checkState(ctx, userID, req); err != nil {
		return "", err
	}

	start := time.Now()
	tok, err := b.provider.OAuthConfig(req.RedirectURI).Exchange(b.clientContext(ctx), req.Code)
	if err != nil {
		b.metrics.ProviderCall("token.exchange", "error", start)
		logging.Printf(ctx, "❌ Token exchange failed for user %s: %s", userID, describeTokenError(err))
		return "", apperr.Wrap(apperr.ExternalAuthFailure, "Failed to exchange code for tokens", err)
	}
	b.metrics.ProviderCall("token.exchange", "ok", start)

	email := b.fetchEmail(ctx, tok.AccessToken)

	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		// No expires_in: treat as already stale so the first use refreshes it.
		expiresAt = b.now()
	}

	err = b.connections.Upsert(ctx, models.Credential{
		UserID:         userID,
		AccessToken:    tok.AccessToken,
		RefreshToken:   tok.RefreshToken,
		TokenExpiresAt: expiresAt,
		Email:          email,
	})
	if err != nil {
		logging.Printf(ctx, "❌ Failed to store Drive connection for user %s: %v", userID, err)
		return "", apperr.Wrap(apperr.StorageFailure, "Failed to store connection", err)
	}

	if tok.RefreshToken == "" {
		logging.Printf(ctx, "⚠️ Provider issued no refresh token for user %s, re-consent will be needed on expiry", userID)
	}
	logging.Printf(ctx, "✅ Drive connected for user %s (%s, expires: %s)",
		userID, util.RedactEmail(email), expiresAt.Format(time.RFC3339))
	return email, nil
}

func (b *Broker) checkState(ctx context.Context, userID string, req CallbackRequest) error {
	if req.State == "" && !b.enforceState {
		return nil
	}
	if req.State == "" {
		return apperr.New(apperr.InvalidArgument, "state is required")
	}
	if b.states == nil {
		if b.enforceState {
			return apperr.New(apperr.Internal, "state enforcement enabled without a state store")
		}
		return nil
	}

	entry, err := b.states.Consume(ctx, req.State)
	if errors.Is(err, state.ErrNotFound) {
		return apperr.New(apperr.InvalidArgument, "invalid state parameter")
	}
	if err != nil {
		return apperr.Wrap(apperr.StorageFailure, "Failed to verify state", err)
	}
	if entry.UserID != userID || entry.RedirectURI != req.RedirectURI {
		logging.Printf(ctx, "⚠️ State %s was issued for a different flow, rejecting callback for user %s", req.State, userID)
		return apperr.New(apperr.InvalidArgument, "invalid state parameter")
	}
	return nil
}

// fetchEmail looks up the account email. Failures are logged and yield "".
func (b *Broker) fetchEmail(ctx context.Context, accessToken string) string {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.provider.UserInfoURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		b.metrics.ProviderCall("userinfo", "error", start)
		logging.Printf(ctx, "⚠️ Userinfo lookup failed: %v", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		b.metrics.ProviderCall("userinfo", "error", start)
		logging.Printf(ctx, "⚠️ Userinfo returned %d: %s", resp.StatusCode, util.TruncateBytes(body))
		return ""
	}

	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		b.metrics.ProviderCall("userinfo", "error", start)
		logging.Printf(ctx, "⚠️ Failed to decode userinfo: %v", err)
		return ""
	}
	b.metrics.ProviderCall("userinfo", "ok", start)
	return info.Email
}

func (b *Broker) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
}

// describeTokenError renders a token endpoint failure without echoing request secrets.
func describeTokenError(err error) string {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		if re.ErrorCode != "" {
			return fmt.Sprintf("%d %s %s", status, re.ErrorCode, re.ErrorDescription)
		}
		return fmt.Sprintf("%d %s", status, util.TruncateBytes(re.Body))
	}
	return err.Error()
}
