package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/usecase"
)

const (
	personaSelectID = "persona_select"
	selectionColor  = 0x3498DB
	maxMessageRunes = 2000
	maxEmbedRunes   = 4096

	emptyMentionPrompt = "Say something to me."
)

func commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "persona",
			Description: "Set or reset the persona of this channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "style",
					Description: "Persona id to use (e.g. sarcastic), or 'reset' to clear it",
					Required:    false,
				},
			},
		},
		{
			Name:        "debate",
			Description: "Generate a counter-argument to an article's claim",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "url",
					Description: "Article URL",
					Required:    true,
				},
			},
		},
	}
}

func ingestEmbed(resp domain.IngestResponse) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s %s's article pick", resp.Persona.Icon, resp.Persona.Name),
		Description: clipRunes(resp.Summary, maxEmbedRunes),
		Color:       resp.Persona.Color,
		URL:         resp.ArticleURL,
	}
	if resp.ArticleTitle != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "📰 Article title",
			Value: resp.ArticleTitle,
		})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "🔗 Link",
		Value: resp.ArticleURL,
	})
	return embed
}

func personaSetEmbed(p domain.Persona) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Persona set",
		Description: fmt.Sprintf("Switched to %s mode.\n\n**Description**: %s\n\n"+
			"Say something in this channel to talk to it.\nRun `/persona reset` to clear it.",
			p.DisplayName(), p.Description),
		Color:  p.Color,
		Footer: &discordgo.MessageEmbedFooter{Text: "Persona ID: " + p.ID},
	}
}

func currentPersonaEmbed(p domain.Persona) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Current persona",
		Description: fmt.Sprintf("%s\n\n**Description**: %s\n\n"+
			"Pick another persona from the menu below to switch.\nRun `/persona reset` to clear it.",
			p.DisplayName(), p.Description),
		Color:  p.Color,
		Footer: &discordgo.MessageEmbedFooter{Text: "Persona ID: " + p.ID},
	}
}

func personaSelectionEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Choose a persona",
		Description: "Pick the persona to use from the menu below.\nEach persona has its own character and way of speaking.",
		Color:       selectionColor,
	}
}

func personaSelectMenu(choices []usecase.PersonaChoice) []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, len(choices))
	for _, c := range choices {
		options = append(options, discordgo.SelectMenuOption{
			Label:       clipRunes(c.Label, 100),
			Value:       c.ID,
			Description: c.Description,
		})
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    personaSelectID,
					Placeholder: "Choose a persona...",
					MaxValues:   1,
					Options:     options,
				},
			},
		},
	}
}

// mentionReply appends the persona footer when a persona answered.
func mentionReply(reply, personaID string) string {
	if personaID == "" {
		return clipRunes(reply, maxMessageRunes)
	}
	footer := "\n\n-# Persona mode: " + personaID
	return clipRunes(reply, maxMessageRunes-len([]rune(footer))) + footer
}

// stripMentions removes both mention forms of botID from content.
func stripMentions(content, botID string) string {
	content = strings.ReplaceAll(content, "<@"+botID+">", "")
	content = strings.ReplaceAll(content, "<@!"+botID+">", "")
	content = strings.TrimSpace(content)
	if content == "" {
		return emptyMentionPrompt
	}
	return content
}

func clipRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
