package server

import (
	"net/http"
	"testing"

	"github.com/trapdoor-ai/trapdoor/internal/access"
	"github.com/trapdoor-ai/trapdoor/internal/chatproxy"
)

func TestChatCompletionsRequiresAuth(t *testing.T) {
	srv := newTestServer(t, access.Limited)
	rec := doRequest(t, srv, http.MethodPost, "/v1/chat/completions", `{"model":"gpt-4","messages":[]}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestChatCompletionsStub(t *testing.T) {
	srv := newTestServer(t, access.Limited)

	rec := doRequest(t, srv, http.MethodPost, "/v1/chat/completions",
		`{"model":"gpt-4","messages":[{"role":"user","content":"hello"}]}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp chatproxy.Response
	decodeBody(t, rec, &resp)
	if resp.ID != "trapdoor-1" {
		t.Errorf("id = %q, want stub id", resp.ID)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Message.Role != "assistant" {
		t.Errorf("stub choices wrong: %+v", resp.Choices)
	}
}
