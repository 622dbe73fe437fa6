package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

// SummaryObserver is notified after every generated summary.
type SummaryObserver interface {
	SummaryCreated(personaID string)
}

// ArticleService summarizes articles in a persona's voice.
type ArticleService struct {
	fetcher  domain.ArticleFetcher
	personas domain.PersonaCatalog
	llm      domain.Llm
	broker   domain.MessageBroker
	observer SummaryObserver
	opts     PromptOptions
	now      func() time.Time
}

// NewArticleService wires the collaborators. broker may be nil, in which
// case no SummaryEvent is published.
func NewArticleService(fetcher domain.ArticleFetcher, personas domain.PersonaCatalog, llm domain.Llm, broker domain.MessageBroker, opts PromptOptions) *ArticleService {
	return &ArticleService{
		fetcher:  fetcher,
		personas: personas,
		llm:      llm,
		broker:   broker,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *ArticleService) WithObserver(o SummaryObserver) *ArticleService {
	s.observer = o
	return s
}

// Summarize fetches req.URL and summarizes it with the requested persona, or
// the catalog default when req.PersonaID is empty.
func (s *ArticleService) Summarize(ctx context.Context, req domain.IngestRequest) (domain.IngestResponse, error) {
	logger := log.WithCtx(ctx).With(zap.String("url", req.URL))
	logger.Info("Starting article summary",
		zap.String("persona_id", req.PersonaID),
		zap.String("user_id", req.UserID),
		zap.String("guild_id", req.GuildID))

	article, err := s.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		logger.Warn("Failed to fetch article", zap.Error(err))
		return domain.IngestResponse{}, err
	}

	persona, err := s.selectPersona(req.PersonaID)
	if err != nil {
		logger.Warn("Persona not found", zap.String("persona_id", req.PersonaID))
		return domain.IngestResponse{}, err
	}

	summary, err := GeneratePersonaResponse(ctx, s.llm, persona.SystemMessage(), summaryPrompt(article, s.opts), nil)
	if err != nil {
		logger.Error("Failed to generate summary", zap.String("persona_id", persona.ID), zap.Error(err))
		return domain.IngestResponse{}, wrapLLM("failed to generate summary", err)
	}
	summary = strings.TrimSpace(summary)

	resp := domain.IngestResponse{
		Summary:      summary,
		Persona:      persona.Info(),
		ArticleTitle: titleOrUntitled(article.Title),
		ArticleURL:   article.URL,
	}
	logger.Info("✅ Summary generated",
		zap.String("persona_id", persona.ID),
		zap.Int("summary_length", len([]rune(summary))),
		zap.Bool("truncated", article.Truncated))

	s.publish(ctx, req, persona, resp)
	return resp, nil
}

func (s *ArticleService) selectPersona(id string) (domain.Persona, error) {
	if id != "" {
		return s.personas.Get(id)
	}
	return s.personas.Default()
}

// publish is best effort; a failed publish never fails the summary.
func (s *ArticleService) publish(ctx context.Context, req domain.IngestRequest, persona domain.Persona, resp domain.IngestResponse) {
	if s.observer != nil {
		s.observer.SummaryCreated(persona.ID)
	}
	if s.broker == nil {
		return
	}

	event := domain.SummaryEvent{
		ID:           uuid.NewString(),
		ChannelID:    req.ChannelID,
		PersonaID:    persona.ID,
		Persona:      resp.Persona,
		ArticleTitle: resp.ArticleTitle,
		ArticleURL:   resp.ArticleURL,
		Summary:      resp.Summary,
		CreatedAt:    s.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.WithCtx(ctx).Error("❌ Failed to encode summary event", zap.Error(err))
		return
	}
	if err := s.broker.Publish(ctx, domain.SummaryTopic, "", payload); err != nil {
		log.WithCtx(ctx).Warn("Failed to publish summary event", zap.Error(err))
	}
}

// wrapLLM keeps ErrLLM in the chain, adding it when the provider returned
// some other error.
func wrapLLM(msg string, err error) error {
	if errors.Is(err, domain.ErrLLM) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%s: %w: %v", msg, domain.ErrLLM, err)
}
