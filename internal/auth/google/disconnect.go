package google

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pysugar/drive-nexus/internal/apperr"
	"github.com/pysugar/drive-nexus/internal/db"
	"github.com/pysugar/drive-nexus/internal/logging"
	"github.com/pysugar/drive-nexus/internal/metrics"
)

const revokeTimeout = 5 * time.Second

// Disconnect revokes the stored access token with the provider, best effort,
// and deletes the credential. It succeeds when nothing is stored.
func (b *Broker) Disconnect(ctx context.Context, userID string) error {
	if userID == "" {
		return apperr.New(apperr.Unauthenticated, "Not authenticated")
	}

	cred, err := b.connections.Get(ctx, userID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		cred = nil
	case err != nil:
		// An unreadable row must still be removable.
		logging.Printf(ctx, "⚠️ Could not load Drive connection for user %s before disconnect: %v", userID, err)
		cred = nil
	}

	if cred != nil && cred.AccessToken != "" {
		b.revoke(ctx, cred.AccessToken)
	}

	if err := b.connections.Delete(ctx, userID); err != nil {
		logging.Printf(ctx, "❌ Failed to delete Drive connection for user %s: %v", userID, err)
		return apperr.Wrap(apperr.StorageFailure, "Failed to disconnect", err)
	}
	if cred != nil {
		b.metrics.ConnectionDeleted(metrics.DeletedDisconnect)
	}
	logging.Printf(ctx, "🔌 Drive disconnected for user %s", userID)
	return nil
}

func (b *Broker) revoke(ctx context.Context, token string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), revokeTimeout)
	defer cancel()

	start := time.Now()
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.provider.RevokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		b.metrics.ProviderCall("token.revoke", "error", start)
		logging.Printf(ctx, "⚠️ Token revocation failed: %v", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		b.metrics.ProviderCall("token.revoke", "error", start)
		logging.Printf(ctx, "⚠️ Token revocation returned %d, deleting local connection anyway", resp.StatusCode)
		return
	}
	b.metrics.ProviderCall("token.revoke", "ok", start)
}
