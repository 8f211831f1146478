package llm

import (
	"context"
	"fmt"

	"github.com/siherrmann/finrag/helper"
	"github.com/siherrmann/finrag/model"
)

// Options are the sampling settings of one generation call.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Generator produces a completion for a prompt.
// Implementations must honor ctx cancellation and deadlines.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// NewGenerator builds the generator selected by config.Provider.
// geminiAPIKey is only required for the gemini provider.
func NewGenerator(ctx context.Context, config model.LLMConfig, geminiAPIKey string) (Generator, error) {
	switch config.Provider {
	case model.ProviderOllama:
		return NewOllama(config.Host, config.Model), nil
	case model.ProviderGemini:
		if geminiAPIKey == "" {
			return nil, helper.NewError("gemini configuration", fmt.Errorf("GEMINI_API_KEY is not set"))
		}
		return NewGemini(ctx, geminiAPIKey, config.Model)
	default:
		return nil, helper.NewError("llm configuration", fmt.Errorf("unknown provider %q", config.Provider))
	}
}
