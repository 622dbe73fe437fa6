package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/config"
	"github.com/endo-ava/link-persona-bot/domain"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

type Summarizer interface {
	Summarize(ctx context.Context, req domain.IngestRequest) (domain.IngestResponse, error)
}

type Debater interface {
	Converse(ctx context.Context, req domain.DebateRequest) (domain.DebateResponse, error)
	ArticleDebate(ctx context.Context, req domain.ArticleDebateRequest) (domain.ArticleDebateResponse, error)
}

type Handler struct {
	articles Summarizer
	debates  Debater
}

func NewHandler(articles Summarizer, debates Debater) *Handler {
	return &Handler{articles: articles, debates: debates}
}

func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Link Persona Bot API",
		"version": config.Version,
		"docs":    "GET /health, POST /ingest, POST /debate, POST /debate/article",
	})
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, domain.HealthResponse{Status: "ok", Version: config.Version})
}

// Ingest summarizes the article at the requested URL.
func (h *Handler) Ingest(c echo.Context) error {
	var req domain.IngestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.URL = strings.TrimSpace(req.URL)
	if err := validateURL(req.URL); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := requestContext(c)
	if req.ChannelID != "" {
		ctx = log.WithChannelID(ctx, req.ChannelID)
	}
	resp, err := h.articles.Summarize(ctx, req)
	if err != nil {
		return toHTTPError(ctx, err, "failed to generate summary")
	}
	return c.JSON(http.StatusOK, resp)
}

// Debate answers a user message in the persona's voice.
func (h *Handler) Debate(c echo.Context) error {
	var req domain.DebateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userMessage is required")
	}
	for _, m := range req.ConversationHistory {
		if m.Role != domain.UserRole && m.Role != domain.AssistantRole {
			return echo.NewHTTPError(http.StatusBadRequest, "conversationHistory roles must be user or assistant")
		}
	}

	ctx := requestContext(c)
	resp, err := h.debates.Converse(ctx, req)
	if err != nil {
		return toHTTPError(ctx, err, "failed to generate response")
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) ArticleDebate(c echo.Context) error {
	var req domain.ArticleDebateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.URL = strings.TrimSpace(req.URL)
	if err := validateURL(req.URL); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := requestContext(c)
	resp, err := h.debates.ArticleDebate(ctx, req)
	if err != nil {
		return toHTTPError(ctx, err, "failed to generate debate")
	}
	return c.JSON(http.StatusOK, resp)
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("url must be an absolute http or https URL")
	}
	return nil
}

// requestContext carries the echo request id into the logger context.
func requestContext(c echo.Context) context.Context {
	ctx := c.Request().Context()
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		ctx = log.WithRequestID(ctx, id)
	}
	return ctx
}

// toHTTPError maps domain errors to status codes. Unexpected errors are
// logged and hidden behind a generic message.
func toHTTPError(ctx context.Context, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrArticleFetch):
		return echo.NewHTTPError(http.StatusBadRequest, "failed to fetch article: "+err.Error())
	case errors.Is(err, domain.ErrPersonaNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrLLM):
		return echo.NewHTTPError(http.StatusInternalServerError, action+": "+err.Error())
	default:
		log.WithCtx(ctx).Error("❌ Unexpected error", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
