// Package discord connects the persona services to a Discord gateway session.
package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/adapters/apiclient"
	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/usecase"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

const genericErrorMessage = "An error occurred."

// ArticleAPI is the part of the HTTP API the bot calls.
type ArticleAPI interface {
	Ingest(ctx context.Context, req domain.IngestRequest) (domain.IngestResponse, error)
	ArticleDebate(ctx context.Context, req domain.ArticleDebateRequest) (domain.ArticleDebateResponse, error)
	Health(ctx context.Context) bool
	BaseURL() string
}

type Bot struct {
	session  *discordgo.Session
	guildID  string
	api      ArticleAPI
	chat     *usecase.ChatService
	personas *usecase.PersonaCommands
	store    domain.ConversationStore
	ctx      context.Context
}

func New(token, guildID string, api ArticleAPI, chat *usecase.ChatService, personas *usecase.PersonaCommands, store domain.ConversationStore) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	b := &Bot{
		session:  session,
		guildID:  guildID,
		api:      api,
		chat:     chat,
		personas: personas,
		store:    store,
		ctx:      context.Background(),
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onInteractionCreate)
	return b, nil
}

// Open connects to the gateway and registers the slash commands. ctx is
// the parent of every event handled afterwards.
func (b *Bot) Open(ctx context.Context) error {
	b.ctx = ctx
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening discord session: %w", err)
	}
	registered, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.guildID, commands())
	if err != nil {
		_ = b.session.Close()
		return fmt.Errorf("registering commands: %w", err)
	}
	log.WithCtx(ctx).Info("Command tree synced", zap.Int("commands", len(registered)))
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	ctx := b.ctx
	logger := log.WithCtx(ctx)
	logger.Info("🤖 Bot ready",
		zap.String("user", r.User.Username),
		zap.String("user_id", r.User.ID),
		zap.Strings("personas", personaIDs(b.personas.Choices())),
		zap.String("api_url", b.api.BaseURL()))

	if b.api.Health(ctx) {
		logger.Info("✅ API server is running")
	} else {
		logger.Warn("❌ Cannot reach API server; start it with `linkpersona api`")
	}
	if stats, err := b.store.Stats(ctx); err == nil {
		logger.Info("Conversation store",
			zap.Int("channels", stats.Channels),
			zap.Int("channels_with_persona", stats.ChannelsWithPersona),
			zap.Int("total_messages", stats.TotalMessages))
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}
	if strings.HasPrefix(m.Content, "/") {
		return
	}

	ctx := log.WithChannelID(b.ctx, m.ChannelID)
	if urls := usecase.DetectURLs(m.Content); len(urls) > 0 {
		// only the first URL of a message is summarized
		b.handleURL(ctx, s, m, urls[0])
		return
	}
	if mentions(m.Mentions, s.State.User.ID) {
		b.handleMention(ctx, s, m)
	}
}

func (b *Bot) handleURL(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, url string) {
	_ = s.ChannelTyping(m.ChannelID)

	personaID, _, err := b.store.GetPersona(ctx, m.ChannelID)
	if err != nil {
		log.WithCtx(ctx).Error("Failed to read channel persona", zap.Error(err))
	}

	resp, err := b.api.Ingest(ctx, domain.IngestRequest{
		URL:       url,
		PersonaID: personaID,
		UserID:    m.Author.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
	})
	if err != nil {
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) {
			log.WithCtx(ctx).Warn("URL ingestion failed", zap.String("url", url), zap.Error(err))
			b.send(ctx, s, m.ChannelID, "Failed to fetch the article: "+err.Error())
			return
		}
		log.WithCtx(ctx).Error("Error handling message", zap.String("url", url), zap.Error(err))
		b.send(ctx, s, m.ChannelID, genericErrorMessage)
		return
	}

	_, err = s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Embeds:          []*discordgo.MessageEmbed{ingestEmbed(resp)},
		Reference:       m.Reference(),
		AllowedMentions: &discordgo.MessageAllowedMentions{RepliedUser: false},
	})
	if err != nil {
		log.WithCtx(ctx).Error("Failed to send summary", zap.Error(err))
	}
}

func (b *Bot) handleMention(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	_ = s.ChannelTyping(m.ChannelID)

	content := stripMentions(m.Content, s.State.User.ID)
	reply, personaID, err := b.chat.Reply(ctx, m.ChannelID, content)
	if err != nil {
		log.WithCtx(ctx).Error("Mention handling failed", zap.Error(err))
		b.send(ctx, s, m.ChannelID, genericErrorMessage)
		return
	}

	_, err = s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content:         mentionReply(reply, personaID),
		Reference:       m.Reference(),
		AllowedMentions: &discordgo.MessageAllowedMentions{RepliedUser: false},
	})
	if err != nil {
		log.WithCtx(ctx).Error("Failed to send reply", zap.Error(err))
	}
}

func (b *Bot) send(ctx context.Context, s *discordgo.Session, channelID, content string) {
	if _, err := s.ChannelMessageSend(channelID, clipRunes(content, maxMessageRunes)); err != nil {
		log.WithCtx(ctx).Error("Failed to send message", zap.Error(err))
	}
}

func mentions(users []*discordgo.User, id string) bool {
	for _, u := range users {
		if u != nil && u.ID == id {
			return true
		}
	}
	return false
}

func personaIDs(choices []usecase.PersonaChoice) []string {
	ids := make([]string, 0, len(choices))
	for _, c := range choices {
		ids = append(ids, c.ID)
	}
	return ids
}
