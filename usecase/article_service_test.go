package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/usecase"
)

type countingObserver map[string]int

func (o countingObserver) SummaryCreated(id string) { o[id]++ }

func TestArticleService_Summarize_ReturnsPersonaMetadataUnchanged(t *testing.T) {
	fetcher := &fakeFetcher{article: domain.Article{Title: "Fixed", Content: "Fixed article body."}}
	llm := &fakeLlm{replies: []string{"  A witty summary.  "}}
	broker := &recordingBroker{}
	observer := countingObserver{}
	svc := usecase.NewArticleService(fetcher, testCatalog(t), llm, broker, usecase.DefaultPromptOptions()).
		WithObserver(observer)

	resp, err := svc.Summarize(context.Background(), domain.IngestRequest{
		URL:       "https://example.com/a",
		PersonaID: "sarcastic",
		ChannelID: "c1",
	})
	require.NoError(t, err)

	assert.Equal(t, sarcastic.Info(), resp.Persona)
	assert.Equal(t, "A witty summary.", resp.Summary)
	assert.Equal(t, "Fixed", resp.ArticleTitle)
	assert.Equal(t, "https://example.com/a", resp.ArticleURL)

	require.Len(t, llm.calls, 1)
	call := llm.calls[0]
	require.Len(t, call, 2)
	assert.Equal(t, domain.SystemRole, call[0].Role)
	assert.Equal(t, sarcastic.SystemPrompt, call[0].Content)
	assert.Contains(t, call[1].Content, "100 to 150 characters")
	assert.Contains(t, call[1].Content, "Fixed article body.")

	require.Len(t, broker.published, 1)
	var event domain.SummaryEvent
	require.NoError(t, json.Unmarshal(broker.published[0], &event))
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "c1", event.ChannelID)
	assert.Equal(t, "sarcastic", event.PersonaID)
	assert.Equal(t, resp.Summary, event.Summary)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, time.Minute)
	assert.Equal(t, 1, observer["sarcastic"])
}

func TestArticleService_Summarize_DefaultPersonaAndUntitled(t *testing.T) {
	fetcher := &fakeFetcher{article: domain.Article{Content: "Body"}}
	llm := &fakeLlm{}
	svc := usecase.NewArticleService(fetcher, testCatalog(t), llm, nil, usecase.DefaultPromptOptions())

	resp, err := svc.Summarize(context.Background(), domain.IngestRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Sarcastic", resp.Persona.Name, "first id in sorted order")
	assert.Equal(t, "(untitled)", resp.ArticleTitle)
	assert.Contains(t, llm.calls[0][1].Content, "Article title: (untitled)")
}

func TestArticleService_Summarize_ClipsArticleContent(t *testing.T) {
	fetcher := &fakeFetcher{article: domain.Article{Title: "T", Content: "abcdefghij"}}
	llm := &fakeLlm{}
	opts := usecase.DefaultPromptOptions()
	opts.ArticleMaxLength = 4
	svc := usecase.NewArticleService(fetcher, testCatalog(t), llm, nil, opts)

	_, err := svc.Summarize(context.Background(), domain.IngestRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Contains(t, llm.calls[0][1].Content, "abcd\n")
	assert.NotContains(t, llm.calls[0][1].Content, "abcde")
}

func TestArticleService_Summarize_Errors(t *testing.T) {
	t.Run("unknown persona", func(t *testing.T) {
		llm := &fakeLlm{}
		svc := usecase.NewArticleService(&fakeFetcher{article: domain.Article{Content: "x"}}, testCatalog(t), llm, nil, usecase.DefaultPromptOptions())
		_, err := svc.Summarize(context.Background(), domain.IngestRequest{URL: "https://e.com", PersonaID: "pirate"})
		assert.ErrorIs(t, err, domain.ErrPersonaNotFound)
		assert.Empty(t, llm.calls)
	})

	t.Run("fetch failure", func(t *testing.T) {
		fetcher := &fakeFetcher{err: errors.Join(domain.ErrArticleFetch, errors.New("status 404"))}
		svc := usecase.NewArticleService(fetcher, testCatalog(t), &fakeLlm{}, nil, usecase.DefaultPromptOptions())
		_, err := svc.Summarize(context.Background(), domain.IngestRequest{URL: "https://e.com"})
		assert.ErrorIs(t, err, domain.ErrArticleFetch)
	})

	t.Run("llm failure without sentinel", func(t *testing.T) {
		broker := &recordingBroker{}
		svc := usecase.NewArticleService(&fakeFetcher{article: domain.Article{Content: "x"}}, testCatalog(t),
			&fakeLlm{err: errors.New("connection reset")}, broker, usecase.DefaultPromptOptions())
		_, err := svc.Summarize(context.Background(), domain.IngestRequest{URL: "https://e.com"})
		assert.ErrorIs(t, err, domain.ErrLLM)
		assert.Empty(t, broker.published)
	})

	t.Run("publish failure is not fatal", func(t *testing.T) {
		svc := usecase.NewArticleService(&fakeFetcher{article: domain.Article{Content: "x"}}, testCatalog(t),
			&fakeLlm{}, &recordingBroker{err: errors.New("full")}, usecase.DefaultPromptOptions())
		_, err := svc.Summarize(context.Background(), domain.IngestRequest{URL: "https://e.com"})
		assert.NoError(t, err)
	})
}
