package middleware

import (
	"net/http"
	"slices"
	"strings"
)

const (
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type, x-request-id"
	corsAllowMethods = "GET, POST, OPTIONS"
)

// CORS allows the browser UI to call the service. "*" in allowedOrigins admits any
// origin; otherwise the request origin is echoed only when listed. Preflight requests
// are answered here and never reach the handlers.
func CORS(allowedOrigins []string) func(next http.Handler) http.Handler {
	wildcard := slices.Contains(allowedOrigins, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			origin := r.Header.Get("Origin")
			switch {
			case wildcard:
				h.Set("Access-Control-Allow-Origin", "*")
			case origin != "" && slices.ContainsFunc(allowedOrigins, func(o string) bool {
				return strings.EqualFold(o, origin)
			}):
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Expose-Headers", "X-Request-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
