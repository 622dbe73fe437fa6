package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/adapters/article"
	apihttp "github.com/endo-ava/link-persona-bot/adapters/http"
	"github.com/endo-ava/link-persona-bot/adapters/llm"
	"github.com/endo-ava/link-persona-bot/adapters/message_broker"
	"github.com/endo-ava/link-persona-bot/adapters/metrics"
	"github.com/endo-ava/link-persona-bot/adapters/websocket"
	"github.com/endo-ava/link-persona-bot/config"
	"github.com/endo-ava/link-persona-bot/usecase"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

const shutdownTimeout = 5 * time.Second

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API",
	Long:  `Starts the HTTP API serving /ingest, /debate, /debate/article and /health.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.ValidateAPI(); err != nil {
			return err
		}
		return runAPI(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(parent context.Context, cfg config.Config) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	personas, err := loadPersonas(cfg)
	if err != nil {
		return err
	}

	m := metrics.New()
	client, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	completer := m.InstrumentLlm(client)
	fetcher := m.InstrumentFetcher(article.NewFetcher(cfg.Article.FetchTimeout, cfg.Article.MaxLength))

	broker := message_broker.NewChannelMessageBroker()
	defer broker.Close()

	feed := websocket.NewServer(broker, websocket.NewHub(m))
	go func() {
		if err := feed.Run(ctx); err != nil {
			log.WithCtx(ctx).Error("❌ Summary feed stopped", zap.Error(err))
		}
	}()

	opts := promptOptions(cfg)
	articles := usecase.NewArticleService(fetcher, personas, completer, broker, opts).WithObserver(m)
	debates := usecase.NewDebateService(fetcher, personas, completer, opts)

	auth := apihttp.NewAuth(cfg.Auth)
	if !auth.Enabled() {
		log.WithCtx(ctx).Info("🔓 API_KEY, API_SECRET or JWT_SECRET not set; token endpoint and summary feed disabled")
	}

	e := apihttp.NewRouter(apihttp.RouterConfig{
		Handler:     apihttp.NewHandler(articles, debates),
		Auth:        auth,
		CORSOrigins: cfg.API.CORSOrigins,
		Metrics:     m,
		Feed:        feed,
	})

	serverErrors := make(chan error, 1)
	go func() {
		log.With(
			zap.String("addr", cfg.ListenAddr()),
			zap.String("llm_provider", cfg.LLM.Provider),
		).Info("🚀 Starting Link Persona API")
		serverErrors <- e.Start(cfg.ListenAddr())
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.With(zap.String("signal", sig.String())).Info("🛑 Shutting down API")
		cancel()

		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.With(zap.Error(err)).Warn("Graceful shutdown did not complete", zap.Duration("timeout", shutdownTimeout))
			return e.Close()
		}
		log.With().Info("✅ API stopped gracefully")
		return nil
	}
}
