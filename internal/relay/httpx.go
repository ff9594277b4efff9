package relay

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/logging"
)

// NewRequestID returns an id for one relay call.
func NewRequestID() string {
	return "req_" + uuid.NewString()
}

// withRequestID keeps the caller's id when present, echoes it back and
// attaches it to the request's log fields.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(common.RequestIDHeaderName)
		if id == "" {
			id = NewRequestID()
		}
		w.Header().Set(common.RequestIDHeaderName, id)
		next.ServeHTTP(w, r.WithContext(logging.WithFields(r.Context(), "request_id", id)))
	})
}

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
