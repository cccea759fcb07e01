// Package llm provides chat completion clients and the Completer that guards
// them with timeouts, retries and a canned fallback reply.
package llm

import (
	"context"
	"errors"

	"github.com/villa-concierge/concierge-platform/internal/model"
)

// CompletionRequest represents a completion request. System carries the
// system prompt; Messages holds only user and assistant turns.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []model.ChatMessage
	MaxTokens   int
	Temperature float64
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// ErrNoAPIKey is returned when a provider is configured without credentials.
var ErrNoAPIKey = errors.New("llm: API key is required")

const defaultMaxTokens = 1024

// NewClient creates a new LLM client based on provider.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	default:
		return NewAnthropicClient(apiKey)
	}
}

// splitSystem separates the system prompt from the conversational turns.
// Multiple system messages are joined in order.
func splitSystem(history []model.ChatMessage) (string, []model.ChatMessage) {
	var system string
	turns := make([]model.ChatMessage, 0, len(history))
	for _, m := range history {
		if m.Role == model.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}
