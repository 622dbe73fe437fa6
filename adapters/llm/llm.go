// Package llm holds the chat-completion providers behind domain.Llm.
package llm

import (
	"context"

	"github.com/endo-ava/link-persona-bot/config"
	"github.com/endo-ava/link-persona-bot/domain"
)

// New returns the client for cfg.Provider. Every provider except gemini is
// reached through the OpenAI-compatible API.
func New(ctx context.Context, cfg config.LLMConfig) (domain.Llm, error) {
	if cfg.Provider == ProviderGemini {
		return NewGeminiClient(ctx, cfg)
	}
	return NewOpenAIClient(cfg)
}
