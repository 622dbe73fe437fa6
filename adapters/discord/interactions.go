package discord

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/usecase"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := log.WithChannelID(b.ctx, i.ChannelID)

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		switch data.Name {
		case "persona":
			b.personaCommand(ctx, s, i, optionString(data.Options, "style"))
		case "debate":
			b.debateCommand(ctx, s, i, optionString(data.Options, "url"))
		}
	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		if data.CustomID == personaSelectID && len(data.Values) > 0 {
			b.setPersona(ctx, s, i, data.Values[0])
		}
	}
}

func (b *Bot) personaCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, style string) {
	style = strings.TrimSpace(style)
	switch {
	case strings.EqualFold(style, "reset"):
		msg, err := b.personas.Reset(ctx, i.ChannelID)
		if err != nil {
			b.respondError(ctx, s, i, err)
			return
		}
		b.respond(ctx, s, i, &discordgo.InteractionResponseData{Content: msg})

	case style != "":
		b.setPersona(ctx, s, i, style)

	default:
		current, ok, err := b.personas.Current(ctx, i.ChannelID)
		if err != nil {
			b.respondError(ctx, s, i, err)
			return
		}
		embed := personaSelectionEmbed()
		if ok {
			embed = currentPersonaEmbed(current)
		}
		b.respond(ctx, s, i, &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: personaSelectMenu(b.personas.Choices()),
		})
	}
}

func (b *Bot) setPersona(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, personaID string) {
	p, err := b.personas.Set(ctx, i.ChannelID, personaID)
	if err != nil {
		if errors.Is(err, domain.ErrPersonaNotFound) {
			b.respond(ctx, s, i, &discordgo.InteractionResponseData{Content: "❌ " + err.Error()})
			return
		}
		b.respondError(ctx, s, i, err)
		return
	}
	b.respond(ctx, s, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{personaSetEmbed(p)},
	})
}

// debateCommand acknowledges at once and edits the answer in later, since
// interactions must be answered within three seconds.
func (b *Bot) debateCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, url string) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		b.respond(ctx, s, i, &discordgo.InteractionResponseData{
			Content: "❌ Please give a valid URL (it must start with http:// or https://).",
			Flags:   discordgo.MessageFlagsEphemeral,
		})
		return
	}
	b.respond(ctx, s, i, &discordgo.InteractionResponseData{Content: "🤔 Analysing the article and generating a debate..."})

	var content string
	resp, err := b.api.ArticleDebate(ctx, domain.ArticleDebateRequest{URL: url})
	if err != nil {
		log.WithCtx(ctx).Warn("Debate command failed", zap.String("url", url), zap.Error(err))
		content = "❌ Failed to generate the debate: " + err.Error()
	} else {
		content = usecase.FormatArticleDebate(resp)
	}

	content = clipRunes(content, maxMessageRunes)
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
		log.WithCtx(ctx).Error("Failed to edit debate response", zap.Error(err))
	}
}

func (b *Bot) respond(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.WithCtx(ctx).Error("Failed to respond to interaction", zap.Error(err))
	}
}

func (b *Bot) respondError(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	log.WithCtx(ctx).Error("Command failed", zap.Error(err))
	b.respond(ctx, s, i, &discordgo.InteractionResponseData{
		Content: genericErrorMessage,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

func optionString(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range options {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionString {
			return o.StringValue()
		}
	}
	return ""
}
