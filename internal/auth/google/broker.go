// Package google implements the authorization broker for delegated Google Drive access:
// consent URL issuance, authorization-code exchange and disconnect.
package google

import (
	"context"
	"net/http"
	"time"

	"github.com/pysugar/drive-nexus/internal/auth/state"
	"github.com/pysugar/drive-nexus/internal/db/models"
	"github.com/pysugar/drive-nexus/internal/metrics"
	"github.com/pysugar/drive-nexus/internal/upstream"
)

// Connections is the slice of the credential store the broker needs.
type Connections interface {
	Get(ctx context.Context, userID string) (*models.Credential, error)
	Upsert(ctx context.Context, cred models.Credential) error
	Delete(ctx context.Context, userID string) error
}

// Options tunes a Broker. Zero values are usable.
type Options struct {
	// States records issued state tokens. Nil disables server-side state checks.
	States   state.Store
	StateTTL time.Duration
	// EnforceState rejects callbacks that do not present a known state.
	EnforceState bool
	HTTPClient   *http.Client
	Metrics      *metrics.Metrics
}

type Broker struct {
	provider     ProviderConfig
	connections  Connections
	states       state.Store
	stateTTL     time.Duration
	enforceState bool
	httpClient   *http.Client
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewBroker(provider ProviderConfig, connections Connections, opts Options) *Broker {
	if opts.StateTTL <= 0 {
		opts.StateTTL = 10 * time.Minute
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = upstream.NewHTTPClient(upstream.DefaultTimeout)
	}
	return &Broker{
		provider:     provider,
		connections:  connections,
		states:       opts.States,
		stateTTL:     opts.StateTTL,
		enforceState: opts.EnforceState,
		httpClient:   opts.HTTPClient,
		metrics:      opts.Metrics,
		now:          time.Now,
	}
}
