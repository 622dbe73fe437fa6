package domain

import "context"

type Article struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
}

// ArticleFetcher downloads a page and extracts its readable text.
type ArticleFetcher interface {
	Fetch(ctx context.Context, url string) (Article, error)
}
