package middleware

import (
	"net/http"

	"github.com/pysugar/drive-nexus/internal/auth/identity"
	"github.com/pysugar/drive-nexus/internal/logging"
	"github.com/pysugar/drive-nexus/internal/proxy/respond"
)

// IdentityAuth verifies the caller's bearer identity token and stores the caller in
// the request context. Requests without a valid token get a 401 envelope.
func IdentityAuth(verifier *identity.Verifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := verifier.FromRequest(r)
			if err != nil {
				logging.Printf(r.Context(), "🔒 Rejected %s %s: %v", r.Method, r.URL.Path, err)
				respond.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
		})
	}
}
