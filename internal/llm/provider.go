package llm

import (
	"context"
	"errors"
)

// ErrProviderDisabled is returned by NewProvider when no provider is configured
var ErrProviderDisabled = errors.New("llm provider disabled")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one system + user exchange and returns the reply
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for a single chat completion
type CompletionRequest struct {
	System string
	Prompt string

	// Model overrides the configured model when set
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// JSON asks the server for a JSON object reply
	JSON bool
}

// CompletionResponse contains the provider's reply
type CompletionResponse struct {
	Content string

	// Model is the model that generated the response
	Model string

	PromptTokens     int
	CompletionTokens int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI; optional for local OpenAI-compatible servers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama's /v1)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings; empty values fall back to the environment
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "gpt-4o-mini",
		Timeout:   60,
		MaxTokens: 1500,
	}
}
