// Package chatproxy relays OpenAI-style chat completion requests to a
// locally configured Ollama endpoint. When no endpoint is configured it
// answers with a fixed stub so remote callers get a well-formed response
// either way.
package chatproxy

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultModel = "gpt-4"

const stubContent = "Chat proxy not configured. Set OLLAMA_HOST to enable."

// Message is one chat turn in the request body.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the accepted subset of the OpenAI chat completion body.
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// Response mirrors the OpenAI chat completion shape for both relayed and
// stub replies.
type Response struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices"`
}

// Choice is one completion alternative.
type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// ChoiceMessage is the assistant reply inside a choice.
type ChoiceMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Relay forwards chat completions to an OpenAI-compatible endpoint.
// A Relay with no client runs in stub mode.
type Relay struct {
	client *openai.Client
}

// New builds a Relay for the given Ollama base URL (e.g. the value of
// OLLAMA_HOST). An empty baseURL yields a stub-mode relay.
func New(baseURL string) *Relay {
	if baseURL == "" {
		return &Relay{}
	}

	base := strings.TrimSuffix(baseURL, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}

	// Ollama ignores the API key but the client requires one.
	client := openai.NewClient(
		option.WithAPIKey("ollama"),
		option.WithBaseURL(base),
		option.WithMaxRetries(0),
	)
	return &Relay{client: &client}
}

// Configured reports whether an upstream endpoint is wired.
func (r *Relay) Configured() bool {
	return r.client != nil
}

// Complete relays the request upstream, or answers with the stub when no
// endpoint is configured.
func (r *Relay) Complete(ctx context.Context, req Request) (*Response, error) {
	if req.Model == "" {
		req.Model = defaultModel
	}

	if r.client == nil {
		return stubResponse(), nil
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(msg.Content))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(msg.Content))
		case "user", "":
			messages = append(messages, openai.UserMessage(msg.Content))
		default:
			return nil, fmt.Errorf("chatproxy: unsupported role %q", msg.Role)
		}
	}

	completion, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("chatproxy: upstream completion: %w", err)
	}

	resp := &Response{
		ID:     completion.ID,
		Object: "chat.completion",
		Model:  completion.Model,
	}
	for i, choice := range completion.Choices {
		resp.Choices = append(resp.Choices, Choice{
			Index: i,
			Message: ChoiceMessage{
				Role:    string(choice.Message.Role),
				Content: choice.Message.Content,
			},
			FinishReason: choice.FinishReason,
		})
	}
	return resp, nil
}

func stubResponse() *Response {
	return &Response{
		ID:     "trapdoor-1",
		Object: "chat.completion",
		Choices: []Choice{{
			Index: 0,
			Message: ChoiceMessage{
				Role:    "assistant",
				Content: stubContent,
			},
			FinishReason: "stop",
		}},
	}
}
