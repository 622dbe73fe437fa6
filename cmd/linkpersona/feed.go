package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/endo-ava/link-persona-bot/adapters/apiclient"
	"github.com/endo-ava/link-persona-bot/adapters/websocket"
	"github.com/endo-ava/link-persona-bot/config"
	"github.com/endo-ava/link-persona-bot/domain"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Print summaries as the API produces them",
	Long: `Requests a token from /auth/token with API_KEY and API_SECRET, then follows the
/ws summary feed and prints every summary until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		key, _ := cmd.Flags().GetString("key")
		secret, _ := cmd.Flags().GetString("secret")
		if key == "" {
			key = cfg.Auth.APIKey
		}
		if secret == "" {
			secret = cfg.Auth.APISecret
		}
		if key == "" || secret == "" {
			return fmt.Errorf("API key and secret are required: set API_KEY and API_SECRET or pass --key and --secret")
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		base := cfg.APIBaseURL()
		tokenCtx, stop := context.WithTimeout(ctx, 10*time.Second)
		token, err := apiclient.New(base, cfg.API.Timeout).Token(tokenCtx, key, secret)
		stop()
		if err != nil {
			return err
		}

		url := feedURL(base)
		fmt.Printf("Following %s (Ctrl+C to stop)\n", url)
		return websocket.Subscribe(ctx, url, token, func(e domain.SummaryEvent) {
			fmt.Printf("\n%s %s | %s\n%s\n%s\n", e.Persona.Icon, e.Persona.Name, e.ArticleTitle, e.ArticleURL, e.Summary)
		})
	},
}

func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.Flags().String("key", "", "API key (defaults to API_KEY)")
	feedCmd.Flags().String("secret", "", "API secret (defaults to API_SECRET)")
}

func feedURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://") + "/ws"
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://") + "/ws"
	}
	return base + "/ws"
}
