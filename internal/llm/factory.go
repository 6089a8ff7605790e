package llm

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/verity/internal/model"
)

// NewVerifier creates a verifier based on configuration.
// An empty provider returns (nil, nil): external verification disabled.
func NewVerifier(config Config) (Verifier, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIVerifier(config)

	case "anthropic", "claude":
		return NewAnthropicVerifier(config)

	case "ollama":
		return NewOllamaVerifier(config)

	case "", "none":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown verifier provider: %s (supported: anthropic, openai, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model configuration to llm.Config
func ConfigFromModel(v model.VerifierConfig, h model.HTTPConfig, logger *slog.Logger) Config {
	return Config{
		Provider:   v.Provider,
		Model:      v.Model,
		APIKey:     v.APIKey,
		BaseURL:    v.BaseURL,
		Timeout:    v.Timeout,
		MaxTokens:  v.MaxTokens,
		HTTPProxy:  h.HTTPProxy,
		HTTPSProxy: h.HTTPSProxy,
		NoProxy:    h.NoProxy,
		Logger:     logger,
	}
}
