package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

const (
	noPersonaMessage      = "No persona is set."
	unknownPersonaDisplay = "unknown persona"
	defaultChoiceLength   = 100
)

// PersonaChoice is one entry of the persona select menu.
type PersonaChoice struct {
	ID          string
	Label       string
	Description string
}

// PersonaCommands implements the persona slash commands of the bot.
type PersonaCommands struct {
	personas          domain.PersonaCatalog
	store             domain.ConversationStore
	descriptionLength int
}

func NewPersonaCommands(personas domain.PersonaCatalog, store domain.ConversationStore, descriptionLength int) *PersonaCommands {
	if descriptionLength <= 0 {
		descriptionLength = defaultChoiceLength
	}
	return &PersonaCommands{personas: personas, store: store, descriptionLength: descriptionLength}
}

// Set binds personaID to the channel and starts a fresh history.
func (c *PersonaCommands) Set(ctx context.Context, channelID, personaID string) (domain.Persona, error) {
	ctx = log.WithPersonaID(log.WithChannelID(ctx, channelID), personaID)

	persona, err := c.personas.Get(personaID)
	if err != nil {
		return domain.Persona{}, fmt.Errorf("%w; available: %s", err, strings.Join(c.personas.IDs(), ", "))
	}
	if err := c.store.SetPersona(ctx, channelID, personaID); err != nil {
		return domain.Persona{}, err
	}
	if err := c.store.ClearHistory(ctx, channelID); err != nil {
		return domain.Persona{}, err
	}

	log.WithCtx(ctx).Info("Persona set")
	return persona, nil
}

// Reset unbinds the channel persona and returns the message to show.
func (c *PersonaCommands) Reset(ctx context.Context, channelID string) (string, error) {
	ctx = log.WithChannelID(ctx, channelID)

	personaID, ok, err := c.store.GetPersona(ctx, channelID)
	if err != nil {
		return "", err
	}
	if !ok {
		return noPersonaMessage, nil
	}

	display := unknownPersonaDisplay
	if p, err := c.personas.Get(personaID); err == nil {
		display = p.DisplayName()
	}
	if err := c.store.ResetPersona(ctx, channelID); err != nil {
		return "", err
	}

	log.WithCtx(ctx).Info("Persona reset", zap.String("persona_id", personaID))
	return fmt.Sprintf("Persona %s has been reset.", display), nil
}

// Current reports the persona bound to the channel. The bool is false when
// none is bound or the bound id is no longer in the catalog.
func (c *PersonaCommands) Current(ctx context.Context, channelID string) (domain.Persona, bool, error) {
	personaID, ok, err := c.store.GetPersona(ctx, channelID)
	if err != nil || !ok {
		return domain.Persona{}, false, err
	}
	p, err := c.personas.Get(personaID)
	if err != nil {
		return domain.Persona{}, false, nil
	}
	return p, true, nil
}

func (c *PersonaCommands) Choices() []PersonaChoice {
	all := c.personas.All()
	choices := make([]PersonaChoice, 0, len(all))
	for _, p := range all {
		choices = append(choices, PersonaChoice{
			ID:          p.ID,
			Label:       p.DisplayName(),
			Description: clip(p.Description, c.descriptionLength),
		})
	}
	return choices
}
