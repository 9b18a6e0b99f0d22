// Package token resolves a usable provider access token for a user, refreshing it
// through the refresh-token grant when the stored one is close to expiry.
package token

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/pysugar/drive-nexus/internal/apperr"
	"github.com/pysugar/drive-nexus/internal/auth/google"
	"github.com/pysugar/drive-nexus/internal/db"
	"github.com/pysugar/drive-nexus/internal/db/models"
	"github.com/pysugar/drive-nexus/internal/logging"
	"github.com/pysugar/drive-nexus/internal/metrics"
	"github.com/pysugar/drive-nexus/internal/upstream"
	"github.com/pysugar/drive-nexus/internal/util"
	"golang.org/x/oauth2"
)

// RefreshBuffer is the remaining lifetime below which a stored access token is refreshed.
const RefreshBuffer = 5 * time.Minute

// Store is the slice of the credential store the manager needs.
type Store interface {
	Get(ctx context.Context, userID string) (*models.Credential, error)
	UpdateAccessToken(ctx context.Context, userID, accessToken string, expiresAt time.Time) error
	ExpireAccessToken(ctx context.Context, userID string, at time.Time) error
	Delete(ctx context.Context, userID string) error
}

// Manager handles the access token lifecycle. It keeps no state between calls:
// every lookup re-reads the stored credential.
type Manager struct {
	store      Store
	provider   google.ProviderConfig
	httpClient *http.Client
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewManager creates a manager. httpClient and m may be nil.
func NewManager(store Store, provider google.ProviderConfig, httpClient *http.Client, m *metrics.Metrics) *Manager {
	if httpClient == nil {
		httpClient = upstream.NewHTTPClient(upstream.DefaultTimeout)
	}
	return &Manager{
		store:      store,
		provider:   provider,
		httpClient: httpClient,
		metrics:    m,
		now:        time.Now,
	}
}

// ValidAccessToken returns a usable access token for userID. connected is false when
// the user has no credential, or had one that the provider refused to refresh (it is
// deleted in that case). A non-nil error means the lookup itself failed.
func (m *Manager) ValidAccessToken(ctx context.Context, userID string) (accessToken string, connected bool, err error) {
	cred, err := m.store.Get(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperr.Wrap(apperr.StorageFailure, "Failed to load Drive connection", err)
	}

	if cred.Usable(m.now(), RefreshBuffer) {
		m.metrics.TokenLookup(metrics.RefreshCached)
		return cred.AccessToken, true, nil
	}
	return m.refresh(ctx, cred)
}

// Invalidate marks the stored access token as expired so the next lookup refreshes it.
// Used after the provider rejected a token we believed valid.
func (m *Manager) Invalidate(ctx context.Context, userID string) error {
	if err := m.store.ExpireAccessToken(ctx, userID, m.now()); err != nil {
		return apperr.Wrap(apperr.StorageFailure, "Failed to invalidate access token", err)
	}
	logging.Printf(ctx, "🔄 Invalidated cached access token for user %s", userID)
	return nil
}

// refresh runs the refresh-token grant. Concurrent refreshes for one user are not
// serialized; both results are valid and the later write wins.
func (m *Manager) refresh(ctx context.Context, cred *models.Credential) (string, bool, error) {
	if cred.RefreshToken == "" {
		logging.Printf(ctx, "🔒 No refresh token stored for user %s, removing connection", cred.UserID)
		return "", false, m.drop(ctx, cred.UserID, metrics.DeletedNoRefreshToken)
	}

	start := time.Now()
	src := m.provider.OAuthConfig("").TokenSource(
		context.WithValue(ctx, oauth2.HTTPClient, m.httpClient),
		&oauth2.Token{RefreshToken: cred.RefreshToken},
	)
	newToken, err := src.Token()
	if err != nil {
		if isPermanentRefreshError(err) {
			m.metrics.ProviderCall("token.refresh", "rejected", start)
			m.metrics.TokenLookup(metrics.RefreshRejected)
			logging.Printf(ctx, "🔒 Refresh token rejected for user %s (%v), removing connection", cred.UserID, err)
			return "", false, m.drop(ctx, cred.UserID, metrics.DeletedRefreshRejected)
		}

		m.metrics.ProviderCall("token.refresh", "error", start)
		m.metrics.TokenLookup(metrics.RefreshFailed)
		logging.Printf(ctx, "⏳ Transient refresh failure for user %s, connection kept: %v", cred.UserID, err)
		return "", false, apperr.Wrap(apperr.ExternalAPIFailure, "Failed to refresh access token", err)
	}
	m.metrics.ProviderCall("token.refresh", "ok", start)

	expiresAt := newToken.Expiry
	if expiresAt.IsZero() {
		expiresAt = m.now()
	}

	// The refresh token is not rotated by this provider; only the access token is persisted.
	err = m.store.UpdateAccessToken(ctx, cred.UserID, newToken.AccessToken, expiresAt)
	switch {
	case errors.Is(err, db.ErrNotFound):
		logging.Printf(ctx, "🔌 Connection for user %s was removed during refresh", cred.UserID)
		return "", false, nil
	case err != nil:
		// The token is still good for this call; the next one refreshes again.
		logging.Printf(ctx, "⚠️ Failed to save refreshed token for user %s: %v", cred.UserID, err)
	}

	m.metrics.TokenLookup(metrics.RefreshRotated)
	logging.Printf(ctx, "✅ Refreshed token for user %s (token: %s, expires: %s)",
		cred.UserID, util.MaskToken(newToken.AccessToken), expiresAt.Format(time.RFC3339))
	return newToken.AccessToken, true, nil
}

func (m *Manager) drop(ctx context.Context, userID, reason string) error {
	if err := m.store.Delete(ctx, userID); err != nil {
		return apperr.Wrap(apperr.StorageFailure, "Failed to remove Drive connection", err)
	}
	m.metrics.ConnectionDeleted(reason)
	return nil
}

var permanentRefreshMarkers = []string{
	"invalid_grant",
	"invalid_client",
	"unauthorized_client",
	"token has been expired or revoked",
	"revoked",
}

// isPermanentRefreshError reports whether the provider refused the refresh token,
// as opposed to a network or server-side failure worth retrying later. An explicit
// OAuth rejection is permanent whatever the status code.
func isPermanentRefreshError(err error) bool {
	if err == nil {
		return false
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.ErrorCode != "" || hasPermanentMarker(string(re.Body)) || hasPermanentMarker(re.ErrorDescription) {
			return true
		}
		// A server error without an OAuth error body is the provider failing, not refusing.
		if re.Response != nil && re.Response.StatusCode >= 500 {
			return false
		}
		return true
	}
	return hasPermanentMarker(err.Error())
}

func hasPermanentMarker(s string) bool {
	s = strings.ToLower(s)
	for _, marker := range permanentRefreshMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
