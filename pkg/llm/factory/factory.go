// Package factory builds llm.Client instances from configuration.
package factory

import (
	"fmt"

	"phoenix/pkg/config"
	"phoenix/pkg/llm"
	"phoenix/pkg/llm/anthropic"
	"phoenix/pkg/llm/google"
	"phoenix/pkg/llm/openai"
	"phoenix/pkg/llm/openrouter"
)

// NewClient creates the LLM client for the configured provider, resolving the
// provider's API key from the secrets store.
func NewClient(cfg *config.Config) (llm.Client, error) {
	model := cfg.LLM.Model

	switch cfg.LLM.Provider {
	case config.ProviderOpenRouter:
		apiKey, err := config.GetSecret(config.SecretOpenRouterKey)
		if err != nil {
			return nil, fmt.Errorf("openrouter provider: %w", err)
		}
		if model == "" {
			model = config.DefaultOpenRouterModel
		}
		return openrouter.NewClient(apiKey, model), nil

	case config.ProviderAnthropic:
		apiKey, err := config.GetSecret(config.SecretAnthropicKey)
		if err != nil {
			return nil, fmt.Errorf("anthropic provider: %w", err)
		}
		if model == "" {
			model = config.DefaultAnthropicModel
		}
		return anthropic.NewClient(apiKey, model), nil

	case config.ProviderGoogle:
		apiKey, err := config.GetSecret(config.SecretGeminiKey)
		if err != nil {
			return nil, fmt.Errorf("google provider: %w", err)
		}
		if model == "" {
			model = config.DefaultGoogleModel
		}
		return google.NewClient(apiKey, model), nil

	case config.ProviderOpenAI:
		apiKey, err := config.GetSecret(config.SecretOpenAIKey)
		if err != nil {
			return nil, fmt.Errorf("openai provider: %w", err)
		}
		if model == "" {
			model = config.DefaultOpenAIModel
		}
		return openai.NewClient(apiKey, model), nil

	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
}
