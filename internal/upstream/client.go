// Package upstream holds the outbound HTTP plumbing shared by every call to the provider.
package upstream

import (
	"net/http"
	"time"

	"github.com/pysugar/drive-nexus/internal/version"
)

// DefaultTimeout bounds any single provider call.
const DefaultTimeout = 30 * time.Second

// NewHTTPClient returns a client that stamps the service User-Agent on every request.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &userAgentTransport{base: http.DefaultTransport, userAgent: version.UserAgent()},
	}
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	// RoundTrippers must not mutate the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}
