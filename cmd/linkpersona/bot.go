package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/adapters/apiclient"
	"github.com/endo-ava/link-persona-bot/adapters/discord"
	"github.com/endo-ava/link-persona-bot/adapters/llm"
	"github.com/endo-ava/link-persona-bot/config"
	"github.com/endo-ava/link-persona-bot/usecase"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Start the chat bot",
	Long: `Connects to the chat gateway, registers the /persona and /debate commands and
summarizes every shared link through the HTTP API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.ValidateBot(); err != nil {
			return err
		}
		return runBot(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(botCmd)
}

func runBot(parent context.Context, cfg config.Config) error {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	personas, err := loadPersonas(cfg)
	if err != nil {
		return err
	}

	store, closeStore, err := conversationStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.With(zap.Error(err)).Warn("Closing conversation store")
		}
	}()

	completer, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return err
	}

	bot, err := discord.New(
		cfg.Discord.Token,
		cfg.Discord.GuildID,
		apiclient.New(cfg.APIBaseURL(), cfg.API.Timeout),
		usecase.NewChatService(completer, personas, store),
		usecase.NewPersonaCommands(personas, store, cfg.Personas.DescriptionMaxLength),
		store,
	)
	if err != nil {
		return err
	}
	if err := bot.Open(ctx); err != nil {
		return err
	}
	log.With(zap.String("api", cfg.APIBaseURL())).Info("🤖 Bot is running, press Ctrl+C to exit")

	<-ctx.Done()
	log.With().Info("🛑 Shutting down bot")
	return bot.Close()
}
