package handlers

import (
	"net/http"

	"github.com/pysugar/drive-nexus/internal/apperr"
	"github.com/pysugar/drive-nexus/internal/proxy/respond"
	"github.com/pysugar/drive-nexus/internal/version"
)

// HealthHandler reports liveness and whether storage answers.
func HealthHandler(ping func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ping(); err != nil {
			respond.Error(w, r, apperr.Wrap(apperr.StorageFailure, "database unavailable", err))
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// VersionHandler returns build information.
func VersionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, version.Current())
	}
}
