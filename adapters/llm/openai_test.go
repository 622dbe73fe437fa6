package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endo-ava/link-persona-bot/adapters/llm"
	"github.com/endo-ava/link-persona-bot/config"
	"github.com/endo-ava/link-persona-bot/domain"
)

type capturedRequest struct {
	path    string
	query   string
	headers http.Header
	body    map[string]any
}

func completionServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			captured.path = r.URL.Path
			captured.query = r.URL.RawQuery
			captured.headers = r.Header.Clone()
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured.body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okCompletion = `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hello from the model"},"finish_reason":"stop"}]}`

func TestOpenAIClient_Complete(t *testing.T) {
	captured := &capturedRequest{}
	srv := completionServer(t, http.StatusOK, okCompletion, captured)

	client, err := llm.NewOpenAIClient(config.LLMConfig{
		Provider:     llm.ProviderQwen,
		APIKey:       "sk-secret",
		APIURL:       srv.URL + "/v1",
		Timeout:      5 * time.Second,
		ExtraHeaders: map[string]string{"X-Trace": "abc"},
	})
	require.NoError(t, err)
	assert.Equal(t, "qwen-plus", client.Model())

	text, err := client.Complete(context.Background(), []domain.ChatMessage{
		{Role: domain.SystemRole, Content: "be terse"},
		{Role: domain.UserRole, Content: "hi"},
	}, domain.DefaultCompletionOptions())
	require.NoError(t, err)
	assert.Equal(t, "Hello from the model", text)

	assert.Equal(t, "/v1/chat/completions", captured.path)
	assert.Equal(t, "Bearer sk-secret", captured.headers.Get("Authorization"))
	assert.Equal(t, "abc", captured.headers.Get("X-Trace"))
	assert.Empty(t, captured.headers.Get("HTTP-Referer"))

	assert.Equal(t, "qwen-plus", captured.body["model"])
	assert.EqualValues(t, 500, captured.body["max_tokens"])
	assert.InDelta(t, 1.0, captured.body["temperature"], 1e-6)
	assert.InDelta(t, 0.9, captured.body["top_p"], 1e-6)
	assert.InDelta(t, 0.3, captured.body["frequency_penalty"], 1e-6)
	assert.InDelta(t, 0.2, captured.body["presence_penalty"], 1e-6)

	messages := captured.body["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "hi", messages[1].(map[string]any)["content"])
}

func TestOpenAIClient_OpenRouterHeaders(t *testing.T) {
	captured := &capturedRequest{}
	srv := completionServer(t, http.StatusOK, okCompletion, captured)

	client, err := llm.NewOpenAIClient(config.LLMConfig{
		Provider: llm.ProviderOpenRouter,
		APIKey:   "k",
		APIURL:   srv.URL,
		Referer:  "https://example.com",
		Title:    "Link Persona Bot",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-3.5-turbo", client.Model())

	_, err = client.Complete(context.Background(), []domain.ChatMessage{{Role: domain.UserRole, Content: "hi"}}, domain.DefaultCompletionOptions())
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", captured.headers.Get("HTTP-Referer"))
	assert.Equal(t, "Link Persona Bot", captured.headers.Get("X-Title"))
}

func TestOpenAIClient_ProviderDefaults(t *testing.T) {
	cases := map[string]struct{ url, model string }{
		llm.ProviderOpenAI:     {"https://api.openai.com/v1", "gpt-3.5-turbo"},
		llm.ProviderQwen:       {"https://dashscope.aliyuncs.com/compatible-mode/v1", "qwen-plus"},
		llm.ProviderOpenRouter: {"https://openrouter.ai/api/v1", "openai/gpt-3.5-turbo"},
		llm.ProviderCustom:     {"https://api.openai.com/v1", "gpt-3.5-turbo"},
	}
	for provider, want := range cases {
		t.Run(provider, func(t *testing.T) {
			client, err := llm.NewOpenAIClient(config.LLMConfig{Provider: provider, APIKey: "k"})
			require.NoError(t, err)
			assert.Equal(t, want.url, client.APIURL())
			assert.Equal(t, want.model, client.Model())
		})
	}

	client, err := llm.NewOpenAIClient(config.LLMConfig{Provider: llm.ProviderQwen, APIKey: "k", Model: "qwen-max", APIURL: "http://local/v1/"})
	require.NoError(t, err)
	assert.Equal(t, "qwen-max", client.Model())
	assert.Equal(t, "http://local/v1", client.APIURL())
}

func TestOpenAIClient_Azure(t *testing.T) {
	captured := &capturedRequest{}
	srv := completionServer(t, http.StatusOK, okCompletion, captured)

	client, err := llm.NewOpenAIClient(config.LLMConfig{
		Provider: llm.ProviderAzure,
		APIKey:   "azure-key",
		APIURL:   srv.URL + "/",
		Model:    "gpt-3.5-turbo",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), []domain.ChatMessage{{Role: domain.UserRole, Content: "hi"}}, domain.DefaultCompletionOptions())
	require.NoError(t, err)
	assert.Equal(t, "Hello from the model", text)

	assert.Equal(t, "/openai/deployments/gpt-35-turbo/chat/completions", captured.path)
	assert.Equal(t, "api-version=2023-05-15", captured.query)
	assert.Equal(t, "azure-key", captured.headers.Get("api-key"))
	assert.Empty(t, captured.headers.Get("Authorization"))

	versioned, err := llm.NewOpenAIClient(config.LLMConfig{
		Provider:   llm.ProviderAzure,
		APIKey:     "azure-key",
		APIURL:     srv.URL,
		Model:      "gpt-4o",
		APIVersion: "2024-06-01",
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)
	_, err = versioned.Complete(context.Background(), []domain.ChatMessage{{Role: domain.UserRole, Content: "hi"}}, domain.DefaultCompletionOptions())
	require.NoError(t, err)
	assert.Equal(t, "/openai/deployments/gpt-4o/chat/completions", captured.path)
	assert.Equal(t, "api-version=2024-06-01", captured.query)

	_, err = llm.NewOpenAIClient(config.LLMConfig{Provider: llm.ProviderAzure, APIKey: "k"})
	assert.ErrorContains(t, err, "LLM_API_URL")
}

func TestOpenAIClient_RequiresAPIKey(t *testing.T) {
	_, err := llm.NewOpenAIClient(config.LLMConfig{Provider: llm.ProviderOpenAI})
	assert.Error(t, err)
}

func TestOpenAIClient_Errors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom sk-secret","type":"server_error"}}`, "LLM service error: 500"},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit"}}`, "LLM service error: 429"},
		{"no choices", http.StatusOK, `{"id":"x","choices":[]}`, "invalid response structure"},
		{"empty content", http.StatusOK, `{"id":"x","choices":[{"message":{"role":"assistant","content":""}}]}`, "invalid response structure"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := completionServer(t, tc.status, tc.body, nil)
			client, err := llm.NewOpenAIClient(config.LLMConfig{Provider: llm.ProviderOpenAI, APIKey: "sk-secret", APIURL: srv.URL, Timeout: 5 * time.Second})
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), []domain.ChatMessage{{Role: domain.UserRole, Content: "hi"}}, domain.DefaultCompletionOptions())
			require.ErrorIs(t, err, domain.ErrLLM)
			assert.Contains(t, err.Error(), tc.message)
			assert.NotContains(t, err.Error(), "sk-secret")
		})
	}
}

func TestOpenAIClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	client, err := llm.NewOpenAIClient(config.LLMConfig{Provider: llm.ProviderOpenAI, APIKey: "k", APIURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), []domain.ChatMessage{{Role: domain.UserRole, Content: "hi"}}, domain.DefaultCompletionOptions())
	require.ErrorIs(t, err, domain.ErrLLM)
	assert.Contains(t, err.Error(), "timed out")
}

func TestNew_SelectsProvider(t *testing.T) {
	client, err := llm.New(context.Background(), config.LLMConfig{Provider: llm.ProviderOpenAI, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &llm.OpenAIClient{}, client)

	client, err = llm.New(context.Background(), config.LLMConfig{Provider: llm.ProviderGemini, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &llm.GeminiClient{}, client)
}
