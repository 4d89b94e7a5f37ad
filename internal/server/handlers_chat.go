package server

import (
	"net/http"

	"github.com/trapdoor-ai/trapdoor/internal/apierr"
	"github.com/trapdoor-ai/trapdoor/internal/chatproxy"
)

// handleChatCompletions relays an OpenAI-style chat request to the
// configured Ollama endpoint, or returns the fixed stub reply when none is
// configured.
func (s *APIServer) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatproxy.Request
	if !decodePost(w, r, &req) {
		return
	}

	resp, err := s.chat.Complete(r.Context(), req)
	if err != nil {
		writeError(w, apierr.New(apierr.KindInternal, "chat relay failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
