package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/endo-ava/link-persona-bot/adapters/metrics"
	"github.com/endo-ava/link-persona-bot/adapters/websocket"
)

const (
	maxBodySize    = "1MB"
	requestsPerSec = 20
)

type RouterConfig struct {
	Handler     *Handler
	Auth        *Auth
	CORSOrigins []string
	// Metrics and Feed are optional.
	Metrics *metrics.Metrics
	Feed    *websocket.Server
}

// NewRouter builds the echo instance serving the public API.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	if cfg.Metrics != nil {
		e.Use(cfg.Metrics.Middleware())
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"X-API-Key",
			"X-API-Secret",
		},
		MaxAge: 86400,
	}))
	e.Use(middleware.BodyLimit(maxBodySize))

	h := cfg.Handler
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	if cfg.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(cfg.Metrics.Handler()))
	}

	limited := e.Group("", middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(requestsPerSec)))
	limited.POST("/ingest", h.Ingest)
	limited.POST("/debate", h.Debate)
	limited.POST("/debate/article", h.ArticleDebate)

	if cfg.Auth != nil && cfg.Auth.Enabled() {
		limited.POST("/auth/token", cfg.Auth.GenerateJWT)
		if cfg.Feed != nil {
			e.GET("/ws", cfg.Feed.Handler, cfg.Auth.JWTMiddleware)
		}
	}

	return e
}
