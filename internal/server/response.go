package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/trapdoor-ai/trapdoor/internal/apierr"
)

// ErrorResponse is the standard JSON error envelope returned by all HTTP
// error responses: a machine-readable kind plus a human-readable detail.
type ErrorResponse struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[APIServer] failed to write response: %v", err)
	}
}

// writeError converts err into its transport representation. Unexpected
// host-level errors become a generic 500; the server never exits because
// of a single request's failure.
func writeError(w http.ResponseWriter, err error) {
	kind := apierr.KindOf(err)
	if kind == apierr.KindUnauthenticated {
		w.Header().Set("WWW-Authenticate", `Bearer realm="trapdoor"`)
	}
	writeJSON(w, kind.HTTPStatus(), ErrorResponse{
		Kind:   string(kind),
		Detail: apierr.Detail(err),
	})
}
