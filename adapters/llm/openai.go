package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/config"
	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

const (
	ProviderOpenAI     = "openai"
	ProviderQwen       = "qwen"
	ProviderOpenRouter = "openrouter"
	ProviderAzure      = "azure"
	ProviderCustom     = "custom"
	ProviderGemini     = "gemini"

	fallbackAPIURL = "https://api.openai.com/v1"
	fallbackModel  = "gpt-3.5-turbo"
)

type providerDefault struct {
	apiURL string
	model  string
}

var providerDefaults = map[string]providerDefault{
	ProviderOpenAI:     {apiURL: "https://api.openai.com/v1", model: "gpt-3.5-turbo"},
	ProviderQwen:       {apiURL: "https://dashscope.aliyuncs.com/compatible-mode/v1", model: "qwen-plus"},
	ProviderOpenRouter: {apiURL: "https://openrouter.ai/api/v1", model: "openai/gpt-3.5-turbo"},
}

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	client   *openai.Client
	provider string
	apiURL   string
	model    string
}

func NewOpenAIClient(cfg config.LLMConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key not found: set LLM_API_KEY")
	}

	defaults := providerDefaults[cfg.Provider]
	apiURL := firstNonEmpty(cfg.APIURL, defaults.apiURL, fallbackAPIURL)
	model := firstNonEmpty(cfg.Model, defaults.model, fallbackModel)

	var clientConfig openai.ClientConfig
	if cfg.Provider == ProviderAzure {
		// Azure routes by deployment name, derived from the model, and
		// authenticates with an api-key header.
		if cfg.APIURL == "" {
			return nil, fmt.Errorf("LLM_API_URL is required for the azure provider")
		}
		clientConfig = openai.DefaultAzureConfig(cfg.APIKey, strings.TrimRight(cfg.APIURL, "/"))
		if cfg.APIVersion != "" {
			clientConfig.APIVersion = cfg.APIVersion
		}
	} else {
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		clientConfig.BaseURL = strings.TrimRight(apiURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &headerTransport{
			headers: extraHeaders(cfg),
			base:    http.DefaultTransport,
		},
	}

	return &OpenAIClient{
		client:   openai.NewClientWithConfig(clientConfig),
		provider: cfg.Provider,
		apiURL:   clientConfig.BaseURL,
		model:    model,
	}, nil
}

func (c *OpenAIClient) Model() string { return c.model }

func (c *OpenAIClient) APIURL() string { return c.apiURL }

// Complete implements domain.Llm.
func (c *OpenAIClient) Complete(ctx context.Context, messages []domain.ChatMessage, opts domain.CompletionOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:            c.model,
		Messages:         make([]openai.ChatCompletionMessage, len(messages)),
		Temperature:      opts.Temperature,
		MaxTokens:        opts.MaxTokens,
		TopP:             opts.TopP,
		FrequencyPenalty: opts.FrequencyPenalty,
		PresencePenalty:  opts.PresencePenalty,
	}
	for i, msg := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		log.WithCtx(ctx).Warn("LLM request failed",
			zap.String("provider", c.provider),
			zap.String("model", c.model),
			zap.Error(err))
		return "", classifyError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: invalid response structure from LLM service", domain.ErrLLM)
	}

	return resp.Choices[0].Message.Content, nil
}

// classifyError turns transport and API failures into ErrLLM without
// leaking request details such as the API key.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: LLM service error: %d", domain.ErrLLM, apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: LLM service error: %d", domain.ErrLLM, reqErr.HTTPStatusCode)
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: invalid response structure from LLM service", domain.ErrLLM)
	}
	if isTimeout(err) {
		return fmt.Errorf("%w: LLM service request timed out", domain.ErrLLM)
	}
	return fmt.Errorf("%w: failed to connect to LLM service", domain.ErrLLM)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// extraHeaders returns the provider specific headers. OpenRouter wants
// HTTP-Referer and X-Title; LLM_EXTRA_HEADER_* adds anything else.
func extraHeaders(cfg config.LLMConfig) map[string]string {
	headers := make(map[string]string, len(cfg.ExtraHeaders)+2)
	if cfg.Provider == ProviderOpenRouter {
		headers["HTTP-Referer"] = cfg.Referer
		if cfg.Title != "" {
			headers["X-Title"] = cfg.Title
		}
	}
	for k, v := range cfg.ExtraHeaders {
		headers[k] = v
	}
	return headers
}

type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
