// Package logging carries the per-request correlation id through contexts and log lines.
package logging

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// HeaderRequestID is read from inbound requests and echoed on responses.
const HeaderRequestID = "X-Request-ID"

type contextKey string

const requestIDKey contextKey = "requestId"

// GenerateRequestID creates a request id of the form "req-<uuid>".
func GenerateRequestID() string {
	return "req-" + uuid.NewString()
}

// RequestIDFrom returns the caller-supplied X-Request-ID, or a fresh one.
// Oversized or multi-line values are replaced rather than trusted.
func RequestIDFrom(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
	if id == "" || len(id) > 128 || strings.ContainsAny(id, "\r\n") {
		return GenerateRequestID()
	}
	return id
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Printf logs with the request id of ctx as a prefix, when there is one.
func Printf(ctx context.Context, format string, args ...any) {
	if id := GetRequestID(ctx); id != "" {
		log.Printf("[%s] %s", id, fmt.Sprintf(format, args...))
		return
	}
	log.Printf(format, args...)
}
