package usecase

import (
	"fmt"

	"github.com/endo-ava/link-persona-bot/domain"
)

const (
	defaultAssistantPrompt = "You are a kind and helpful assistant."
	stanceSystemPrompt     = "You are an expert who analyses the claims of articles objectively."
	counterSystemPrompt    = "You are a debater with a critical mind. Produce constructive counter-arguments."
	moderatorSystemPrompt  = "You are a neutral moderator who sums up debates."

	untitled = "(untitled)"
)

// PromptOptions bound the length of the generated texts.
type PromptOptions struct {
	SummaryMinLength int
	SummaryMaxLength int
	ArticleMaxLength int
}

func DefaultPromptOptions() PromptOptions {
	return PromptOptions{
		SummaryMinLength: 100,
		SummaryMaxLength: 150,
		ArticleMaxLength: 2000,
	}
}

func titleOrUntitled(title string) string {
	if title == "" {
		return untitled
	}
	return title
}

func clip(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max])
}

func summaryPrompt(a domain.Article, opts PromptOptions) string {
	return fmt.Sprintf(`Summarize the following article in your own persona's voice in %d to %d characters.

Article title: %s

Article body:
%s

Write the summary:`,
		opts.SummaryMinLength, opts.SummaryMaxLength,
		titleOrUntitled(a.Title),
		clip(a.Content, opts.ArticleMaxLength))
}

func stancePrompt(a domain.Article, opts PromptOptions) string {
	return fmt.Sprintf(`Summarize the main claim or message of the following article in about %d characters.

Article title: %s
Article body:
%s

Claim:`,
		opts.SummaryMinLength,
		titleOrUntitled(a.Title),
		clip(a.Content, opts.ArticleMaxLength))
}

func counterPrompt(stance string, opts PromptOptions) string {
	return fmt.Sprintf(`Write a persuasive counter-argument to the following claim, from the opposing side, in about %d characters.

Original claim:
%s

Counter-argument:`, opts.SummaryMaxLength, stance)
}

func debateSummaryPrompt(stance, counter string, opts PromptOptions) string {
	return fmt.Sprintf(`Write a concise summary of the debate between the following two positions in about %d characters.

[Original claim]
%s

[Counter-argument]
%s

Summary:`, opts.SummaryMinLength, stance, counter)
}
