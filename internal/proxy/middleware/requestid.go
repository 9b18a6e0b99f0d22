package middleware

import (
	"net/http"

	"github.com/pysugar/drive-nexus/internal/logging"
)

// RequestID tags the request context with a correlation id and echoes it back.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := logging.RequestIDFrom(r)
		w.Header().Set(logging.HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}
