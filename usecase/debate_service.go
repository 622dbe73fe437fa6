package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

// assistantPersona answers /debate requests that name no persona.
var assistantPersona = domain.Persona{
	ID:           "",
	Name:         "Assistant",
	Icon:         "💬",
	Color:        0x5865F2,
	Description:  "A kind assistant",
	SystemPrompt: defaultAssistantPrompt,
}

// DebateService holds persona conversations and article debates.
type DebateService struct {
	fetcher  domain.ArticleFetcher
	personas domain.PersonaCatalog
	llm      domain.Llm
	opts     PromptOptions
}

func NewDebateService(fetcher domain.ArticleFetcher, personas domain.PersonaCatalog, llm domain.Llm, opts PromptOptions) *DebateService {
	return &DebateService{
		fetcher:  fetcher,
		personas: personas,
		llm:      llm,
		opts:     opts,
	}
}

// Converse answers req.UserMessage in the persona's voice given the caller's
// conversation history. ContextUsed counts the history plus the new message.
func (s *DebateService) Converse(ctx context.Context, req domain.DebateRequest) (domain.DebateResponse, error) {
	persona := assistantPersona
	if req.PersonaID != "" {
		p, err := s.personas.Get(req.PersonaID)
		if err != nil {
			return domain.DebateResponse{}, err
		}
		persona = p
	}
	ctx = log.WithPersonaID(ctx, persona.ID)

	messages := make([]domain.ChatMessage, 0, len(req.ConversationHistory)+2)
	messages = append(messages, domain.ChatMessage{Role: domain.SystemRole, Content: persona.SystemMessage()})
	messages = append(messages, req.ConversationHistory...)
	messages = append(messages, domain.ChatMessage{Role: domain.UserRole, Content: req.UserMessage})

	text, err := s.llm.Complete(ctx, messages, domain.DefaultCompletionOptions())
	if err != nil {
		log.WithCtx(ctx).Error("Failed to generate conversation response", zap.Error(err))
		return domain.DebateResponse{}, wrapLLM("failed to generate response", err)
	}

	log.WithCtx(ctx).Info("Debate response generated",
		zap.Int("history", len(req.ConversationHistory)))
	return domain.DebateResponse{
		Response:    strings.TrimSpace(text),
		Persona:     persona.Info(),
		ContextUsed: len(req.ConversationHistory) + 1,
	}, nil
}

// ArticleDebate extracts the article's stance (or uses the given summary),
// argues against it and sums up both sides.
func (s *DebateService) ArticleDebate(ctx context.Context, req domain.ArticleDebateRequest) (domain.ArticleDebateResponse, error) {
	logger := log.WithCtx(ctx).With(zap.String("url", req.URL))

	stance := strings.TrimSpace(req.OriginalSummary)
	if stance == "" {
		article, err := s.fetcher.Fetch(ctx, req.URL)
		if err != nil {
			logger.Warn("Failed to fetch article for debate", zap.Error(err))
			return domain.ArticleDebateResponse{}, err
		}
		stance, err = s.ask(ctx, stanceSystemPrompt, stancePrompt(article, s.opts))
		if err != nil {
			return domain.ArticleDebateResponse{}, wrapLLM("failed to extract stance", err)
		}
	}

	counter, err := s.ask(ctx, counterSystemPrompt, counterPrompt(stance, s.opts))
	if err != nil {
		return domain.ArticleDebateResponse{}, wrapLLM("failed to generate counter argument", err)
	}

	summary, err := s.ask(ctx, moderatorSystemPrompt, debateSummaryPrompt(stance, counter, s.opts))
	if err != nil {
		return domain.ArticleDebateResponse{}, wrapLLM("failed to generate debate summary", err)
	}

	logger.Info("Article debate generated")
	return domain.ArticleDebateResponse{
		URL:             req.URL,
		OriginalStance:  stance,
		CounterArgument: counter,
		DebateSummary:   summary,
	}, nil
}

func (s *DebateService) ask(ctx context.Context, system, prompt string) (string, error) {
	text, err := s.llm.Complete(ctx, []domain.ChatMessage{
		{Role: domain.SystemRole, Content: system},
		{Role: domain.UserRole, Content: prompt},
	}, domain.DefaultCompletionOptions())
	if err != nil {
		log.WithCtx(ctx).Error("LLM call failed", zap.Error(err))
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// FormatArticleDebate renders a debate as the three labelled sections the
// bot posts.
func FormatArticleDebate(d domain.ArticleDebateResponse) string {
	return fmt.Sprintf("**[Original claim]**\n%s\n\n**[Counter-argument]**\n%s\n\n**[Summary]**\n%s",
		d.OriginalStance, d.CounterArgument, d.DebateSummary)
}
