package domain

import "context"

// Llm abstracts any chat-completion provider.
type Llm interface {
	// Complete sends the conversation and returns the model's reply text.
	Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (string, error)
}

type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	SystemRole    Role = "system"
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
)

// CompletionOptions are the sampling parameters passed to the provider.
type CompletionOptions struct {
	Temperature      float32
	MaxTokens        int
	TopP             float32
	FrequencyPenalty float32
	PresencePenalty  float32
}

func DefaultCompletionOptions() CompletionOptions {
	return CompletionOptions{
		Temperature:      1.0,
		MaxTokens:        500,
		TopP:             0.9,
		FrequencyPenalty: 0.3,
		PresencePenalty:  0.2,
	}
}
