// Package apiclient is the bot's client for the Link Persona HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

const (
	DefaultTimeout = 30 * time.Second
	healthTimeout  = 5 * time.Second
)

// Error is returned for failed API calls. StatusCode is zero when the API
// could not be reached.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Ingest asks the API to summarize req.URL.
func (c *Client) Ingest(ctx context.Context, req domain.IngestRequest) (domain.IngestResponse, error) {
	var resp domain.IngestResponse
	err := c.post(ctx, "/ingest", req, &resp)
	return resp, err
}

func (c *Client) Debate(ctx context.Context, req domain.DebateRequest) (domain.DebateResponse, error) {
	var resp domain.DebateResponse
	err := c.post(ctx, "/debate", req, &resp)
	return resp, err
}

func (c *Client) ArticleDebate(ctx context.Context, req domain.ArticleDebateRequest) (domain.ArticleDebateResponse, error) {
	var resp domain.ArticleDebateResponse
	err := c.post(ctx, "/debate/article", req, &resp)
	return resp, err
}

// Token exchanges API credentials for a bearer token accepted by /ws.
func (c *Client) Token(ctx context.Context, key, secret string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("X-API-Key", key)
	req.Header.Set("X-API-Secret", secret)

	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, "/auth/token", req, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Health reports whether the API answers /health within five seconds.
func (c *Client) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithCtx(ctx).Warn("API health check failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(ctx, path, req, out)
}

func (c *Client) do(ctx context.Context, path string, req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.WithCtx(ctx).Warn("API request failed", zap.String("path", path), zap.Error(err))
		if isTimeout(err) {
			return &Error{Message: "API request timed out"}
		}
		return &Error{Message: "Failed to connect to API"}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{StatusCode: resp.StatusCode, Message: "failed to read response"}
	}

	if resp.StatusCode != http.StatusOK {
		return &Error{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{StatusCode: resp.StatusCode, Message: "invalid response from API"}
	}
	return nil
}

// errorMessage extracts echo's {"message": ...} body, falling back to the raw text.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return "unknown error"
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
