package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/certmap/internal/model"
)

// OllamaBaseURL is the OpenAI-compatible endpoint of a local Ollama server
const OllamaBaseURL = "http://localhost:11434/v1"

// NewProvider creates a new LLM provider based on configuration.
// Returns ErrProviderDisabled when no provider is configured.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		if config.BaseURL == "" {
			config.BaseURL = OllamaBaseURL
		}
		return NewOpenAIProvider(config)

	case "":
		return nil, ErrProviderDisabled

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:   modelConfig.Provider,
		Model:      modelConfig.Model,
		APIKey:     modelConfig.APIKey,
		BaseURL:    modelConfig.BaseURL,
		Timeout:    modelConfig.Timeout,
		MaxTokens:  modelConfig.MaxTokens,
		HTTPProxy:  modelConfig.HTTPProxy,
		HTTPSProxy: modelConfig.HTTPSProxy,
		NoProxy:    modelConfig.NoProxy,
	}
}
