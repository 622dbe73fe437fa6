package conversation

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

// Memory implements domain.ConversationStore in process memory. State is
// lost on restart.
type Memory struct {
	mu       sync.RWMutex
	personas map[string]string
	history  map[string][]domain.ChatMessage
	limit    int
	window   int
}

var _ domain.ConversationStore = (*Memory)(nil)

// NewMemory keeps at most limit messages per channel and serves window
// messages when RecentHistory is called without an explicit count. A window
// of zero or less serves the whole history.
func NewMemory(limit, window int) *Memory {
	return &Memory{
		personas: make(map[string]string),
		history:  make(map[string][]domain.ChatMessage),
		limit:    limit,
		window:   window,
	}
}

func (m *Memory) SetPersona(ctx context.Context, channelID, personaID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.personas[channelID] = personaID
	log.WithCtx(ctx).Info("Persona set for channel",
		zap.String("channel_id", channelID),
		zap.String("persona_id", personaID))
	return nil
}

func (m *Memory) GetPersona(_ context.Context, channelID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.personas[channelID]
	return id, ok, nil
}

func (m *Memory) AppendMessage(ctx context.Context, channelID string, role domain.Role, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := append(m.history[channelID], domain.ChatMessage{Role: role, Content: content})
	if removed := len(history) - m.limit; removed > 0 {
		trimmed := make([]domain.ChatMessage, m.limit)
		copy(trimmed, history[removed:])
		history = trimmed
		log.WithCtx(ctx).Debug("Trimmed conversation history",
			zap.String("channel_id", channelID),
			zap.Int("removed_count", removed))
	}
	m.history[channelID] = history
	return nil
}

func (m *Memory) RecentHistory(_ context.Context, channelID string, n int) ([]domain.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n <= 0 {
		n = m.window
	}
	history := m.history[channelID]
	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}
	return append([]domain.ChatMessage(nil), history...), nil
}

func (m *Memory) ClearHistory(ctx context.Context, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearHistoryLocked(ctx, channelID)
	return nil
}

func (m *Memory) clearHistoryLocked(ctx context.Context, channelID string) {
	if history, ok := m.history[channelID]; ok {
		delete(m.history, channelID)
		log.WithCtx(ctx).Info("Conversation history cleared",
			zap.String("channel_id", channelID),
			zap.Int("cleared_count", len(history)))
	}
}

func (m *Memory) ResetPersona(ctx context.Context, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.personas[channelID]; ok {
		delete(m.personas, channelID)
		log.WithCtx(ctx).Info("Persona reset",
			zap.String("channel_id", channelID),
			zap.String("old_persona_id", old))
	}
	m.clearHistoryLocked(ctx, channelID)
	return nil
}

func (m *Memory) Stats(_ context.Context) (domain.ConversationStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	channels := make(map[string]struct{}, len(m.personas)+len(m.history))
	var stats domain.ConversationStats
	for id := range m.personas {
		channels[id] = struct{}{}
	}
	for id, history := range m.history {
		channels[id] = struct{}{}
		stats.TotalMessages += len(history)
	}
	stats.Channels = len(channels)
	stats.ChannelsWithPersona = len(m.personas)
	return stats, nil
}
