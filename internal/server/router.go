// Package server assembles the drive-nexus HTTP routes.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pysugar/drive-nexus/internal/auth/identity"
	"github.com/pysugar/drive-nexus/internal/proxy/handlers"
	"github.com/pysugar/drive-nexus/internal/proxy/middleware"
)

// Deps are the collaborators behind the routes.
type Deps struct {
	Broker         handlers.Broker
	Proxy          handlers.DriveProxy
	Verifier       *identity.Verifier
	AllowedOrigins []string
	// Ping checks storage for /healthz. Nil means always healthy.
	Ping func() error
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// AccessLog enables chi's request logger.
	AccessLog bool
}

// NewRouter returns the service's HTTP handler.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	if d.AccessLog {
		r.Use(chimiddleware.Logger)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(d.AllowedOrigins))

	ping := d.Ping
	if ping == nil {
		ping = func() error { return nil }
	}
	r.Get("/healthz", handlers.HealthHandler(ping))
	r.Get("/version", handlers.VersionHandler())
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.IdentityAuth(d.Verifier))

		r.Route("/drive-oauth", func(r chi.Router) {
			r.Get("/auth-url", handlers.AuthURLHandler(d.Broker))
			r.Post("/callback", handlers.CallbackHandler(d.Broker))
			r.Post("/disconnect", handlers.DisconnectHandler(d.Broker))
		})

		r.Route("/drive-api", func(r chi.Router) {
			r.Get("/list", handlers.ListHandler(d.Proxy))
			r.Get("/search", handlers.SearchHandler(d.Proxy))
			r.Get("/get", handlers.GetHandler(d.Proxy))
			r.Get("/status", handlers.StatusHandler(d.Proxy))
		})

		// Single-endpoint form kept for clients that select the operation with ?action=.
		r.HandleFunc("/functions/v1/drive-oauth", handlers.OAuthActionHandler(d.Broker))
		r.HandleFunc("/functions/v1/drive-api", handlers.DriveActionHandler(d.Proxy))
	})

	return r
}
