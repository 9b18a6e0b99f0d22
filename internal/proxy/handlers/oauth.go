package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pysugar/drive-nexus/internal/apperr"
	"github.com/pysugar/drive-nexus/internal/auth/google"
	"github.com/pysugar/drive-nexus/internal/proxy/respond"
)

type callbackResponse struct {
	Success bool    `json:"success"`
	Email   *string `json:"email"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// AuthURLHandler returns the provider consent URL for ?redirect_uri=.
func AuthURLHandler(broker Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authURL, err := broker.BeginAuthorization(r.Context(), callerID(r), r.URL.Query().Get("redirect_uri"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, authURL)
	}
}

// CallbackHandler exchanges the authorization code posted by the UI for stored credentials.
func CallbackHandler(broker Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req google.CallbackRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			respond.Error(w, r, apperr.Wrap(apperr.InvalidArgument, "Invalid request body", err))
			return
		}

		email, err := broker.CompleteAuthorization(r.Context(), callerID(r), req)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		resp := callbackResponse{Success: true}
		if email != "" {
			resp.Email = &email
		}
		respond.JSON(w, http.StatusOK, resp)
	}
}

// DisconnectHandler revokes and removes the caller's connection.
func DisconnectHandler(broker Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := broker.Disconnect(r.Context(), callerID(r)); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, successResponse{Success: true})
	}
}
