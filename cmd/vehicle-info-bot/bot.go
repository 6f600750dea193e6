package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vehicle-info-bot/internal/bot"
	"vehicle-info-bot/internal/config"
)

func runBot(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.cfg.ValidateTelegram(); err != nil {
		return err
	}
	if a.cfg.Telegram.Mode != config.TelegramModePolling {
		return fmt.Errorf("bot command only supports polling, use serve for %s mode", a.cfg.Telegram.Mode)
	}

	telegram, err := newTelegram(a)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.log.Info().Msg("starting vehicle info bot")
	if err := telegram.Run(ctx); err != nil {
		return err
	}
	a.log.Info().Msg("bot exited")
	return nil
}

func newTelegram(a *app) (*bot.Telegram, error) {
	api, err := bot.NewBotAPI(a.cfg.Telegram)
	if err != nil {
		return nil, err
	}
	a.log.Info().Str("username", api.Self.UserName).Msg("authorized on telegram")

	handler := bot.NewHandler(a.lookup, a.log)
	return bot.NewTelegram(api, handler, a.cfg.Telegram, a.log), nil
}
