// Package respond writes the JSON bodies shared by every drive-nexus endpoint.
package respond

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/pysugar/drive-nexus/internal/apperr"
	"github.com/pysugar/drive-nexus/internal/logging"
)

// ErrorBody is the error envelope the UI switches on.
type ErrorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️ Failed to encode response: %v", err)
	}
}

// Error maps err to its status and envelope. Server-side failures are logged with
// their cause; the client only sees the public message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logging.Printf(ctx, "❌ %s %s failed: %v", r.Method, r.URL.Path, err)
	}
	JSON(w, status, ErrorBody{
		Error:     apperr.PublicMessage(err),
		Code:      apperr.KindOf(err).Code(),
		RequestID: logging.GetRequestID(ctx),
	})
}
