package google

import (
	"context"

	"github.com/google/uuid"
	"github.com/pysugar/drive-nexus/internal/apperr"
	"github.com/pysugar/drive-nexus/internal/auth/state"
	"github.com/pysugar/drive-nexus/internal/logging"
	"golang.org/x/oauth2"
)

// AuthURL is the consent URL handed back to the client together with its state token.
type AuthURL struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// BeginAuthorization builds the consent URL for userID. access_type=offline and
// prompt=consent are always sent so a refresh token is issued even on repeat consent.
func (b *Broker) BeginAuthorization(ctx context.Context, userID, redirectURI string) (AuthURL, error) {
	if userID == "" {
		return AuthURL{}, apperr.New(apperr.Unauthenticated, "Not authenticated")
	}
	if redirectURI == "" {
		return AuthURL{}, apperr.New(apperr.InvalidArgument, "redirect_uri is required")
	}

	stateToken := uuid.NewString()
	if b.states != nil {
		err := b.states.Save(ctx, state.Entry{
			State:       stateToken,
			UserID:      userID,
			RedirectURI: redirectURI,
			ExpiresAt:   b.now().Add(b.stateTTL),
		})
		if err != nil {
			return AuthURL{}, apperr.Wrap(apperr.StorageFailure, "Failed to start authorization", err)
		}
	}

	url := b.provider.OAuthConfig(redirectURI).AuthCodeURL(stateToken,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
	)
	logging.Printf(ctx, "🔗 Issued Drive consent URL for user %s", userID)
	return AuthURL{URL: url, State: stateToken}, nil
}
