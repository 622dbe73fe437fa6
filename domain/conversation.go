package domain

import "context"

// ConversationStore keeps the persona binding and the bounded message
// history of every chat channel.
type ConversationStore interface {
	SetPersona(ctx context.Context, channelID, personaID string) error
	// GetPersona reports false when no persona is bound to the channel.
	GetPersona(ctx context.Context, channelID string) (string, bool, error)
	// AppendMessage drops the oldest messages once the history cap is exceeded.
	AppendMessage(ctx context.Context, channelID string, role Role, content string) error
	// RecentHistory returns the newest n messages, oldest first. n <= 0 uses
	// the store's default context window; a window <= 0 returns everything.
	RecentHistory(ctx context.Context, channelID string, n int) ([]ChatMessage, error)
	ClearHistory(ctx context.Context, channelID string) error
	// ResetPersona unbinds the persona and clears the history.
	ResetPersona(ctx context.Context, channelID string) error
	Stats(ctx context.Context) (ConversationStats, error)
}

type ConversationStats struct {
	Channels            int `json:"channels"`
	ChannelsWithPersona int `json:"channelsWithPersona"`
	TotalMessages       int `json:"totalMessages"`
}
