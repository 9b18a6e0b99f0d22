package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pysugar/drive-nexus/internal/auth/google"
	"github.com/pysugar/drive-nexus/internal/auth/identity"
	"github.com/pysugar/drive-nexus/internal/db/models"
	"github.com/pysugar/drive-nexus/internal/proxy"
	"github.com/pysugar/drive-nexus/internal/upstream/drive"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// Broker is the authorization broker behind /drive-oauth.
type Broker interface {
	BeginAuthorization(ctx context.Context, userID, redirectURI string) (google.AuthURL, error)
	CompleteAuthorization(ctx context.Context, userID string, req google.CallbackRequest) (string, error)
	Disconnect(ctx context.Context, userID string) error
}

// DriveProxy is the delegated API proxy behind /drive-api.
type DriveProxy interface {
	List(ctx context.Context, userID string, params proxy.ListParams) (*drive.FileList, error)
	Search(ctx context.Context, userID string, params proxy.SearchParams) (*drive.FileList, error)
	Get(ctx context.Context, userID, fileID string) (json.RawMessage, error)
	Status(ctx context.Context, userID string) (models.ConnectionStatus, error)
}

// callerID returns the verified caller's user id, or "" when the request is anonymous.
func callerID(r *http.Request) string {
	id, _ := identity.FromContext(r.Context())
	return id.UserID
}
