// Package conversationtest holds the behaviour every domain.ConversationStore
// implementation must share.
package conversationtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endo-ava/link-persona-bot/domain"
)

// Factory returns an empty store keeping limit messages per channel with a
// default context window of window.
type Factory func(t *testing.T, limit, window int) domain.ConversationStore

func RunStoreContract(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("Persona binding", func(t *testing.T) {
		store := newStore(t, 20, 10)

		_, ok, err := store.GetPersona(ctx, "c1")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, store.SetPersona(ctx, "c1", "sarcastic"))
		id, ok, err := store.GetPersona(ctx, "c1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "sarcastic", id)

		require.NoError(t, store.SetPersona(ctx, "c1", "friendly"))
		id, _, _ = store.GetPersona(ctx, "c1")
		assert.Equal(t, "friendly", id)

		_, ok, _ = store.GetPersona(ctx, "c2")
		assert.False(t, ok, "channels are isolated")
	})

	t.Run("Append trims oldest first", func(t *testing.T) {
		store := newStore(t, 3, 10)

		for i := 1; i <= 5; i++ {
			require.NoError(t, store.AppendMessage(ctx, "c1", domain.UserRole, fmt.Sprintf("m%d", i)))

			all, err := store.RecentHistory(ctx, "c1", 100)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(all), 3)
		}

		all, err := store.RecentHistory(ctx, "c1", 100)
		require.NoError(t, err)
		assert.Equal(t, []domain.ChatMessage{
			{Role: domain.UserRole, Content: "m3"},
			{Role: domain.UserRole, Content: "m4"},
			{Role: domain.UserRole, Content: "m5"},
		}, all)
	})

	t.Run("Recent history window", func(t *testing.T) {
		store := newStore(t, 20, 2)

		empty, err := store.RecentHistory(ctx, "c1", 0)
		require.NoError(t, err)
		assert.Empty(t, empty)

		require.NoError(t, store.AppendMessage(ctx, "c1", domain.UserRole, "q1"))
		require.NoError(t, store.AppendMessage(ctx, "c1", domain.AssistantRole, "a1"))
		require.NoError(t, store.AppendMessage(ctx, "c1", domain.UserRole, "q2"))

		def, err := store.RecentHistory(ctx, "c1", 0)
		require.NoError(t, err)
		assert.Equal(t, []domain.ChatMessage{
			{Role: domain.AssistantRole, Content: "a1"},
			{Role: domain.UserRole, Content: "q2"},
		}, def)

		one, err := store.RecentHistory(ctx, "c1", 1)
		require.NoError(t, err)
		assert.Equal(t, []domain.ChatMessage{{Role: domain.UserRole, Content: "q2"}}, one)
	})

	t.Run("Zero window returns whole history", func(t *testing.T) {
		store := newStore(t, 5, 0)

		for i := 1; i <= 7; i++ {
			require.NoError(t, store.AppendMessage(ctx, "c1", domain.UserRole, fmt.Sprintf("m%d", i)))
		}

		all, err := store.RecentHistory(ctx, "c1", 0)
		require.NoError(t, err)
		require.Len(t, all, 5)
		assert.Equal(t, "m3", all[0].Content)
		assert.Equal(t, "m7", all[4].Content)

		two, err := store.RecentHistory(ctx, "c1", 2)
		require.NoError(t, err)
		assert.Equal(t, []domain.ChatMessage{
			{Role: domain.UserRole, Content: "m6"},
			{Role: domain.UserRole, Content: "m7"},
		}, two)
	})

	t.Run("Negative window returns whole history", func(t *testing.T) {
		store := newStore(t, 20, -1)

		require.NoError(t, store.AppendMessage(ctx, "c1", domain.UserRole, "q1"))
		require.NoError(t, store.AppendMessage(ctx, "c1", domain.AssistantRole, "a1"))

		all, err := store.RecentHistory(ctx, "c1", 0)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("Clear history keeps persona", func(t *testing.T) {
		store := newStore(t, 20, 10)

		require.NoError(t, store.SetPersona(ctx, "c1", "scholar"))
		require.NoError(t, store.AppendMessage(ctx, "c1", domain.UserRole, "hello"))
		require.NoError(t, store.ClearHistory(ctx, "c1"))

		history, err := store.RecentHistory(ctx, "c1", 0)
		require.NoError(t, err)
		assert.Empty(t, history)

		id, ok, err := store.GetPersona(ctx, "c1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "scholar", id)

		assert.NoError(t, store.ClearHistory(ctx, "never-used"))
	})

	t.Run("Reset persona clears history", func(t *testing.T) {
		store := newStore(t, 20, 10)

		require.NoError(t, store.SetPersona(ctx, "c1", "scholar"))
		require.NoError(t, store.AppendMessage(ctx, "c1", domain.UserRole, "hello"))
		require.NoError(t, store.AppendMessage(ctx, "c1", domain.AssistantRole, "hi"))
		require.NoError(t, store.SetPersona(ctx, "c2", "friendly"))
		require.NoError(t, store.AppendMessage(ctx, "c2", domain.UserRole, "other"))

		require.NoError(t, store.ResetPersona(ctx, "c1"))

		_, ok, err := store.GetPersona(ctx, "c1")
		require.NoError(t, err)
		assert.False(t, ok)
		history, err := store.RecentHistory(ctx, "c1", 0)
		require.NoError(t, err)
		assert.Empty(t, history)

		other, err := store.RecentHistory(ctx, "c2", 0)
		require.NoError(t, err)
		assert.Len(t, other, 1, "other channels are untouched")

		assert.NoError(t, store.ResetPersona(ctx, "never-used"))
	})

	t.Run("Stats", func(t *testing.T) {
		store := newStore(t, 20, 10)

		require.NoError(t, store.SetPersona(ctx, "c1", "scholar"))
		require.NoError(t, store.AppendMessage(ctx, "c1", domain.UserRole, "a"))
		require.NoError(t, store.AppendMessage(ctx, "c2", domain.UserRole, "b"))
		require.NoError(t, store.AppendMessage(ctx, "c2", domain.AssistantRole, "c"))

		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.ConversationStats{
			Channels:            2,
			ChannelsWithPersona: 1,
			TotalMessages:       3,
		}, stats)
	})
}
