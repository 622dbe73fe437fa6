package article_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endo-ava/link-persona-bot/adapters/article"
	"github.com/endo-ava/link-persona-bot/domain"
)

func page(title, body string) string {
	return `<!DOCTYPE html><html><head><title>` + title + `</title></head><body>
<nav>menu home about</nav>
<article><h1>` + title + `</h1>` + body + `</article>
<footer>copyright</footer></body></html>`
}

func paragraphs(n int, text string) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("<p>")
		b.WriteString(text)
		b.WriteString("</p>")
	}
	return b.String()
}

func TestFetcher_Fetch(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page("Go Concurrency", paragraphs(5,
			"Goroutines are lightweight threads managed by the Go runtime, and channels connect them safely."))))
	}))
	defer srv.Close()

	f := article.NewFetcher(time.Second, 5000)
	got, err := f.Fetch(context.Background(), srv.URL+"/post")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/post", got.URL)
	assert.Equal(t, "Go Concurrency", got.Title)
	assert.Contains(t, got.Content, "Goroutines are lightweight threads")
	assert.False(t, got.Truncated)
	assert.Contains(t, ua, "LinkPersonaBot")
}

func TestFetcher_TruncatesLongContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page("Long read", paragraphs(20,
			"This sentence repeats so that the extracted article is comfortably longer than the limit."))))
	}))
	defer srv.Close()

	f := article.NewFetcher(time.Second, 100)
	got, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.True(t, got.Truncated)
	assert.True(t, strings.HasSuffix(got.Content, "..."))
	assert.Equal(t, 103, len([]rune(got.Content)))
}

func TestFetcher_Errors(t *testing.T) {
	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head></head><body></body></html>`))
	}))
	defer empty.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()

	cases := map[string]string{
		"not a url":      "not a url",
		"ftp scheme":     "ftp://example.com/file",
		"missing host":   "http://",
		"non 2xx status": notFound.URL,
		"empty content":  empty.URL,
		"timeout":        slow.URL,
	}

	f := article.NewFetcher(100*time.Millisecond, 2000)
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.Fetch(context.Background(), target)
			assert.ErrorIs(t, err, domain.ErrArticleFetch)
		})
	}
}

func TestTruncate(t *testing.T) {
	s, cut := article.Truncate("short", 10)
	assert.Equal(t, "short", s)
	assert.False(t, cut)

	s, cut = article.Truncate("こんにちは世界", 5)
	assert.Equal(t, "こんにちは...", s)
	assert.True(t, cut)

	s, cut = article.Truncate("exact", 5)
	assert.Equal(t, "exact", s)
	assert.False(t, cut)
}
