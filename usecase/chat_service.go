package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

const personaNotFoundReply = "Error: persona not found."

var urlPattern = regexp.MustCompile(`https?://[^\s<>"'` + "`" + `]+`)

// ChatService answers mentions in a channel, remembering the conversation
// while a persona is bound.
type ChatService struct {
	llm      domain.Llm
	personas domain.PersonaCatalog
	store    domain.ConversationStore
}

func NewChatService(llm domain.Llm, personas domain.PersonaCatalog, store domain.ConversationStore) *ChatService {
	return &ChatService{llm: llm, personas: personas, store: store}
}

// Reply generates the answer to content posted in channelID. It also
// returns the id of the persona that answered, empty when none is bound.
func (s *ChatService) Reply(ctx context.Context, channelID, content string) (string, string, error) {
	ctx = log.WithChannelID(ctx, channelID)

	personaID, ok, err := s.store.GetPersona(ctx, channelID)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrMessageHandling, err)
	}
	if !ok {
		reply, err := GeneratePersonaResponse(ctx, s.llm, defaultAssistantPrompt, content, nil)
		if err != nil {
			log.WithCtx(ctx).Error("Failed to handle mention", zap.Error(err))
			return "", "", fmt.Errorf("%w: %w", domain.ErrMessageHandling, err)
		}
		return strings.TrimSpace(reply), "", nil
	}

	ctx = log.WithPersonaID(ctx, personaID)
	persona, err := s.personas.Get(personaID)
	if err != nil {
		log.WithCtx(ctx).Error("Persona bound to channel no longer exists")
		return personaNotFoundReply, personaID, nil
	}

	history, err := s.store.RecentHistory(ctx, channelID, 0)
	if err != nil {
		return "", personaID, fmt.Errorf("%w: %v", domain.ErrMessageHandling, err)
	}

	reply, err := GeneratePersonaResponse(ctx, s.llm, persona.SystemMessage(), content, history)
	if err != nil {
		log.WithCtx(ctx).Error("Failed to handle mention", zap.Error(err))
		return "", personaID, fmt.Errorf("%w: %w", domain.ErrMessageHandling, err)
	}
	reply = strings.TrimSpace(reply)

	if err := s.store.AppendMessage(ctx, channelID, domain.UserRole, content); err != nil {
		return "", personaID, fmt.Errorf("%w: %v", domain.ErrMessageHandling, err)
	}
	if err := s.store.AppendMessage(ctx, channelID, domain.AssistantRole, reply); err != nil {
		return "", personaID, fmt.Errorf("%w: %v", domain.ErrMessageHandling, err)
	}

	log.WithCtx(ctx).Info("Mention answered", zap.Int("history", len(history)))
	return reply, personaID, nil
}

// DetectURLs returns the http and https URLs in content in order of
// appearance. Trailing sentence punctuation is not part of the URL, and a
// trailing bracket is only kept when it closes one opened inside the URL.
func DetectURLs(content string) []string {
	matches := urlPattern.FindAllString(content, -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		m = trimURLSuffix(m)
		if len(m) > len("https://") {
			urls = append(urls, m)
		}
	}
	return urls
}

var closingBrackets = map[byte]byte{')': '(', ']': '[', '}': '{'}

func trimURLSuffix(u string) string {
	for len(u) > 0 {
		last := u[len(u)-1]
		if strings.IndexByte(".,;:!?>", last) >= 0 {
			u = u[:len(u)-1]
			continue
		}
		open, ok := closingBrackets[last]
		if ok && strings.Count(u, string(last)) > strings.Count(u, string(open)) {
			u = u[:len(u)-1]
			continue
		}
		return u
	}
	return u
}
