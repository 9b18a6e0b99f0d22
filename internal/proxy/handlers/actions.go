package handlers

import (
	"net/http"

	"github.com/pysugar/drive-nexus/internal/apperr"
	"github.com/pysugar/drive-nexus/internal/proxy/respond"
)

// OAuthActionHandler serves the single-endpoint form used by existing clients:
// /functions/v1/drive-oauth?action=auth-url|callback|disconnect.
func OAuthActionHandler(broker Broker) http.HandlerFunc {
	return dispatch(map[string]http.HandlerFunc{
		"auth-url":   AuthURLHandler(broker),
		"callback":   CallbackHandler(broker),
		"disconnect": DisconnectHandler(broker),
	})
}

// DriveActionHandler serves /functions/v1/drive-api?action=list|search|get|status.
func DriveActionHandler(p DriveProxy) http.HandlerFunc {
	return dispatch(map[string]http.HandlerFunc{
		"list":   ListHandler(p),
		"search": SearchHandler(p),
		"get":    GetHandler(p),
		"status": StatusHandler(p),
	})
}

func dispatch(actions map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := actions[r.URL.Query().Get("action")]
		if !ok {
			respond.Error(w, r, apperr.New(apperr.InvalidArgument, "Invalid action"))
			return
		}
		h(w, r)
	}
}
