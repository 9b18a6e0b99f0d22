package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.TokenLookup(RefreshCached)
	m.TokenLookup(RefreshCached)
	m.TokenLookup(RefreshRejected)
	m.ProviderCall("files.list", "ok", time.Now())
	m.ConnectionDeleted(DeletedDisconnect)

	if got := testutil.ToFloat64(m.tokenRefresh.WithLabelValues(RefreshCached)); got != 2 {
		t.Fatalf("cached lookups = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.providerRequests.WithLabelValues("files.list", "ok")); got != 1 {
		t.Fatalf("provider requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.connectionsDeleted.WithLabelValues(DeletedDisconnect)); got != 1 {
		t.Fatalf("deleted = %v, want 1", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.TokenLookup(RefreshRotated)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `drive_nexus_token_refresh_total{result="refreshed"} 1`) {
		t.Fatalf("metrics output missing refresh counter:\n%s", body)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.TokenLookup(RefreshCached)
	m.ProviderCall("x", "ok", time.Now())
	m.ConnectionDeleted(DeletedDisconnect)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Fatalf("nil metrics handler status = %d", rec.Code)
	}
}
