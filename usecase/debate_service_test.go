package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/usecase"
)

func TestDebateService_Converse(t *testing.T) {
	llm := &fakeLlm{replies: []string{" Sure, because that always works. "}}
	svc := usecase.NewDebateService(&fakeFetcher{}, testCatalog(t), llm, usecase.DefaultPromptOptions())

	history := []domain.ChatMessage{
		{Role: domain.UserRole, Content: "I will rewrite it in a weekend"},
		{Role: domain.AssistantRole, Content: "Bold."},
	}
	resp, err := svc.Converse(context.Background(), domain.DebateRequest{
		PersonaID:           "sarcastic",
		UserMessage:         "It will be fine",
		ConversationHistory: history,
	})
	require.NoError(t, err)

	assert.Equal(t, "Sure, because that always works.", resp.Response)
	assert.Equal(t, sarcastic.Info(), resp.Persona)
	assert.Equal(t, 3, resp.ContextUsed)

	require.Len(t, llm.calls, 1)
	call := llm.calls[0]
	require.Len(t, call, 4)
	assert.Equal(t, domain.SystemRole, call[0].Role)
	assert.Equal(t, history, call[1:3])
	assert.Equal(t, domain.ChatMessage{Role: domain.UserRole, Content: "It will be fine"}, call[3])
}

func TestDebateService_Converse_EmptyHistory(t *testing.T) {
	svc := usecase.NewDebateService(&fakeFetcher{}, testCatalog(t), &fakeLlm{}, usecase.DefaultPromptOptions())
	resp, err := svc.Converse(context.Background(), domain.DebateRequest{PersonaID: "scholar", UserMessage: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ContextUsed)
}

func TestDebateService_Converse_NoPersonaUsesAssistant(t *testing.T) {
	llm := &fakeLlm{}
	svc := usecase.NewDebateService(&fakeFetcher{}, testCatalog(t), llm, usecase.DefaultPromptOptions())

	resp, err := svc.Converse(context.Background(), domain.DebateRequest{UserMessage: "hi"})
	require.NoError(t, err)
	assert.Equal(t, domain.PersonaInfo{Name: "Assistant", Icon: "💬", Color: 0x5865F2, Description: "A kind assistant"}, resp.Persona)
	assert.Equal(t, "You are a kind and helpful assistant.", llm.calls[0][0].Content)
}

func TestDebateService_Converse_UnknownPersona(t *testing.T) {
	llm := &fakeLlm{}
	svc := usecase.NewDebateService(&fakeFetcher{}, testCatalog(t), llm, usecase.DefaultPromptOptions())

	_, err := svc.Converse(context.Background(), domain.DebateRequest{PersonaID: "pirate", UserMessage: "hi"})
	assert.ErrorIs(t, err, domain.ErrPersonaNotFound)
	assert.Empty(t, llm.calls)
}

func TestDebateService_ArticleDebate(t *testing.T) {
	fetcher := &fakeFetcher{article: domain.Article{Title: "Tabs win", Content: "Tabs are better than spaces."}}
	llm := &fakeLlm{replies: []string{"Tabs are better.", "Spaces render the same everywhere.", "Both sides value consistency."}}
	svc := usecase.NewDebateService(fetcher, testCatalog(t), llm, usecase.DefaultPromptOptions())

	resp, err := svc.ArticleDebate(context.Background(), domain.ArticleDebateRequest{URL: "https://example.com/tabs"})
	require.NoError(t, err)

	assert.Equal(t, domain.ArticleDebateResponse{
		URL:             "https://example.com/tabs",
		OriginalStance:  "Tabs are better.",
		CounterArgument: "Spaces render the same everywhere.",
		DebateSummary:   "Both sides value consistency.",
	}, resp)
	require.Len(t, llm.calls, 3)
	assert.Contains(t, llm.calls[0][1].Content, "Tabs are better than spaces.")
	assert.Contains(t, llm.calls[1][1].Content, "Tabs are better.")
	assert.Contains(t, llm.calls[2][1].Content, "Spaces render the same everywhere.")

	formatted := usecase.FormatArticleDebate(resp)
	assert.Contains(t, formatted, "**[Original claim]**\nTabs are better.")
	assert.Contains(t, formatted, "**[Summary]**\nBoth sides value consistency.")
}

func TestDebateService_ArticleDebate_WithSummarySkipsFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	llm := &fakeLlm{}
	svc := usecase.NewDebateService(fetcher, testCatalog(t), llm, usecase.DefaultPromptOptions())

	resp, err := svc.ArticleDebate(context.Background(), domain.ArticleDebateRequest{URL: "https://e.com", OriginalSummary: "Given stance"})
	require.NoError(t, err)
	assert.Equal(t, "Given stance", resp.OriginalStance)
	assert.Empty(t, fetcher.urls)
	assert.Len(t, llm.calls, 2)
}

func TestDebateService_ArticleDebate_LLMError(t *testing.T) {
	svc := usecase.NewDebateService(&fakeFetcher{}, testCatalog(t), &fakeLlm{err: domain.ErrLLM}, usecase.DefaultPromptOptions())
	_, err := svc.ArticleDebate(context.Background(), domain.ArticleDebateRequest{URL: "https://e.com", OriginalSummary: "s"})
	assert.ErrorIs(t, err, domain.ErrLLM)
}
