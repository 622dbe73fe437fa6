package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/adapters/conversation"
	"github.com/endo-ava/link-persona-bot/adapters/persona"
	"github.com/endo-ava/link-persona-bot/config"
	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/usecase"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

func loadPersonas(cfg config.Config) (*persona.Catalog, error) {
	catalog, err := persona.Load(cfg.Personas.Dir, cfg.Personas.DefaultID)
	if err != nil {
		return nil, fmt.Errorf("loading personas from %s: %w", cfg.Personas.Dir, err)
	}
	log.With(zap.Strings("personas", catalog.IDs())).Info("📚 Personas loaded")
	return catalog, nil
}

// conversationStore is Redis when REDIS_ADDR is set, in-memory otherwise.
func conversationStore(ctx context.Context, cfg config.Config) (domain.ConversationStore, func() error, error) {
	limit, window := cfg.Conversation.HistoryLimit, cfg.Conversation.ContextWindow
	if cfg.Redis.Addr == "" {
		log.With(zap.Int("history_limit", limit)).Info("💾 Using in-memory conversation store")
		return conversation.NewMemory(limit, window), func() error { return nil }, nil
	}

	store := conversation.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, limit, window,
		conversation.WithTTL(cfg.Redis.TTL))
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
	}
	log.With(zap.String("addr", cfg.Redis.Addr), zap.Int("history_limit", limit)).Info("💾 Using redis conversation store")
	return store, store.Close, nil
}

func promptOptions(cfg config.Config) usecase.PromptOptions {
	return usecase.PromptOptions{
		SummaryMinLength: cfg.Article.SummaryMinLength,
		SummaryMaxLength: cfg.Article.SummaryMaxLength,
		ArticleMaxLength: cfg.Article.MaxLength,
	}
}
