package llm

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/endo-ava/link-persona-bot/config"
	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

const defaultGeminiModel = "gemini-2.0-flash-001"

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key not found: set LLM_API_KEY")
	}

	client, err := genai.NewClient(
		ctx,
		&genai.ClientConfig{
			APIKey:      cfg.APIKey,
			Backend:     genai.BackendGeminiAPI,
			HTTPClient:  &http.Client{Timeout: cfg.Timeout},
			HTTPOptions: genai.HTTPOptions{BaseURL: cfg.APIURL},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  firstNonEmpty(cfg.Model, defaultGeminiModel),
	}, nil
}

func (g *GeminiClient) Model() string { return g.model }

// Complete implements domain.Llm. System messages become the system
// instruction; assistant turns are sent with the model role.
func (g *GeminiClient) Complete(ctx context.Context, messages []domain.ChatMessage, opts domain.CompletionOptions) (string, error) {
	genConfig := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(opts.Temperature),
		TopP:             genai.Ptr(opts.TopP),
		MaxOutputTokens:  int32(opts.MaxTokens),
		FrequencyPenalty: genai.Ptr(opts.FrequencyPenalty),
		PresencePenalty:  genai.Ptr(opts.PresencePenalty),
	}

	var system string
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == domain.SystemRole {
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
			continue
		}
		role := genai.RoleModel
		if msg.Role == domain.UserRole {
			role = genai.RoleUser
		}
		contents = append(contents, &genai.Content{
			Role: role,
			Parts: []*genai.Part{
				{Text: msg.Content},
			},
		})
	}
	if system != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, genConfig)
	if err != nil {
		log.WithCtx(ctx).Warn("Gemini request failed", zap.String("model", g.model), zap.Error(err))
		if isTimeout(err) {
			return "", fmt.Errorf("%w: LLM service request timed out", domain.ErrLLM)
		}
		return "", fmt.Errorf("%w: LLM service error: %v", domain.ErrLLM, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: invalid response structure from LLM service", domain.ErrLLM)
	}
	return text, nil
}
