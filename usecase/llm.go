package usecase

import (
	"context"

	"github.com/endo-ava/link-persona-bot/domain"
)

// personaHistoryWindow caps how much history GeneratePersonaResponse sends.
const personaHistoryWindow = 10

// GeneratePersonaResponse asks llm for a reply to user in the voice set by
// system, with at most the last ten history messages as context.
func GeneratePersonaResponse(ctx context.Context, llm domain.Llm, system, user string, history []domain.ChatMessage) (string, error) {
	if len(history) > personaHistoryWindow {
		history = history[len(history)-personaHistoryWindow:]
	}

	messages := make([]domain.ChatMessage, 0, len(history)+2)
	messages = append(messages, domain.ChatMessage{Role: domain.SystemRole, Content: system})
	messages = append(messages, history...)
	messages = append(messages, domain.ChatMessage{Role: domain.UserRole, Content: user})

	return llm.Complete(ctx, messages, domain.DefaultCompletionOptions())
}
