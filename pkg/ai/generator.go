package ai

import (
	"context"
	"fmt"
	"strings"
)

// TextGenerator generates text from a system prompt and user prompt.
// Every provider is asked for a single JSON object in its reply.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Provider names accepted by NewGenerator.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// GeneratorConfig selects and configures a provider.
type GeneratorConfig struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
}

// NewGenerator builds the TextGenerator for cfg.Provider.
func NewGenerator(ctx context.Context, cfg GeneratorConfig) (TextGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderGemini:
		return NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
	case ProviderOllama:
		return NewOllamaGenerator(cfg.BaseURL, cfg.Model), nil
	case ProviderOpenAI:
		return NewOpenAICompatGenerator(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}
