// Package article downloads web pages and extracts their readable text.
package article

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

const (
	userAgent       = "Mozilla/5.0 (compatible; LinkPersonaBot/1.0)"
	truncatedSuffix = "..."

	DefaultTimeout   = 10 * time.Second
	DefaultMaxLength = 2000
)

// Fetcher implements domain.ArticleFetcher on top of go-readability.
type Fetcher struct {
	client    *http.Client
	maxLength int
}

type Option func(*Fetcher)

// WithHTTPClient replaces the client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

func NewFetcher(timeout time.Duration, maxLength int, opts ...Option) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	f := &Fetcher{
		client:    &http.Client{Timeout: timeout},
		maxLength: maxLength,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements domain.ArticleFetcher.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (domain.Article, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return domain.Article{}, fmt.Errorf("%w: invalid URL %q", domain.ErrArticleFetch, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return domain.Article{}, fmt.Errorf("%w: %v", domain.ErrArticleFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		log.WithCtx(ctx).Warn("article download failed", zap.String("url", rawURL), zap.Error(err))
		return domain.Article{}, fmt.Errorf("%w: %v", domain.ErrArticleFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Article{}, fmt.Errorf("%w: unexpected status %d", domain.ErrArticleFetch, resp.StatusCode)
	}

	// resp.Request.URL is the final URL after redirects; relative links resolve against it.
	parsedDoc, err := readability.FromReader(resp.Body, resp.Request.URL)
	if err != nil {
		return domain.Article{}, fmt.Errorf("%w: extracting content: %v", domain.ErrArticleFetch, err)
	}

	content := strings.TrimSpace(parsedDoc.TextContent)
	if content == "" {
		return domain.Article{}, fmt.Errorf("%w: could not extract content", domain.ErrArticleFetch)
	}

	content, truncated := Truncate(content, f.maxLength)
	log.WithCtx(ctx).Debug("article fetched",
		zap.String("url", rawURL),
		zap.String("title", parsedDoc.Title),
		zap.Int("length", utf8.RuneCountInString(content)),
		zap.Bool("truncated", truncated))

	return domain.Article{
		URL:       rawURL,
		Title:     strings.TrimSpace(parsedDoc.Title),
		Content:   content,
		Truncated: truncated,
	}, nil
}

// Truncate cuts s to max runes and appends "..." when it was longer.
func Truncate(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:max]) + truncatedSuffix, true
}
