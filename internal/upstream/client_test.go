package upstream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func captureUserAgent(t *testing.T) (*httptest.Server, *atomic.Value) {
	t.Helper()
	got := &atomic.Value{}
	got.Store("")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("User-Agent"))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestNewHTTPClient_StampsUserAgent(t *testing.T) {
	srv, got := captureUserAgent(t)

	resp, err := NewHTTPClient(time.Second).Get(srv.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if ua := got.Load().(string); !strings.HasPrefix(ua, "drive-nexus/") {
		t.Fatalf("expected drive-nexus user agent, got %q", ua)
	}
}

func TestNewHTTPClient_KeepsCallerUserAgent(t *testing.T) {
	srv, got := captureUserAgent(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("User-Agent", "custom-agent/1.0")
	resp, err := NewHTTPClient(time.Second).Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if ua := got.Load().(string); ua != "custom-agent/1.0" {
		t.Fatalf("caller user agent overwritten: %q", ua)
	}
	if req.Header.Get("User-Agent") != "custom-agent/1.0" {
		t.Fatal("caller request mutated")
	}
}

func TestNewHTTPClient_DefaultTimeout(t *testing.T) {
	if c := NewHTTPClient(0); c.Timeout != DefaultTimeout {
		t.Fatalf("timeout = %v, want %v", c.Timeout, DefaultTimeout)
	}
}
