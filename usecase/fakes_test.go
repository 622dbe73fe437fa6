package usecase_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/endo-ava/link-persona-bot/adapters/conversation"
	"github.com/endo-ava/link-persona-bot/adapters/persona"
	"github.com/endo-ava/link-persona-bot/domain"
)

type fakeLlm struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]domain.ChatMessage
}

func (f *fakeLlm) Complete(_ context.Context, messages []domain.ChatMessage, _ domain.CompletionOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]domain.ChatMessage(nil), messages...))
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "reply", nil
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return r, nil
}

type fakeFetcher struct {
	article domain.Article
	err     error
	urls    []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (domain.Article, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return domain.Article{}, f.err
	}
	a := f.article
	a.URL = url
	return a, nil
}

type recordingBroker struct {
	published [][]byte
	err       error
}

func (b *recordingBroker) Publish(_ context.Context, _ string, _ string, message []byte) error {
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, message)
	return nil
}

func (b *recordingBroker) Subscribe(context.Context, string, string) (<-chan domain.Message, error) {
	return nil, nil
}

func (b *recordingBroker) Close() error { return nil }

var (
	sarcastic = domain.Persona{
		ID:           "sarcastic",
		Name:         "Sarcastic",
		Icon:         "😏",
		Color:        0xFF6B6B,
		Description:  "Dry wit about everything",
		SystemPrompt: "You are sarcastic.",
	}
	scholar = domain.Persona{
		ID:           "scholar",
		Name:         "Scholar",
		Icon:         "🎓",
		Color:        0x3498DB,
		Description:  "Careful and precise",
		SystemPrompt: "You are a scholar.",
	}
)

func testCatalog(t *testing.T) domain.PersonaCatalog {
	t.Helper()
	c, err := persona.New(map[string]domain.Persona{
		sarcastic.ID: sarcastic,
		scholar.ID:   scholar,
	}, "")
	require.NoError(t, err)
	return c
}

func testStore() domain.ConversationStore {
	return conversation.NewMemory(20, 10)
}
