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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"vehicle-info-bot/internal/bot"
	"vehicle-info-bot/internal/config"
	httphandler "vehicle-info-bot/internal/http"
	"vehicle-info-bot/internal/http/middleware"
)

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	var (
		telegram *bot.Telegram
		updates  httphandler.UpdateHandler
	)
	if a.cfg.Telegram.Token != "" {
		if err := a.cfg.ValidateTelegram(); err != nil {
			return err
		}
		telegram, err = newTelegram(a)
		if err != nil {
			return err
		}
		if a.cfg.Telegram.Mode == config.TelegramModeWebhook {
			if err := telegram.SetWebhook(a.cfg.Telegram.WebhookURL, a.cfg.Telegram.WebhookSecret); err != nil {
				return err
			}
			updates = telegram
		}
	} else {
		a.log.Warn().Msg("BOT_TOKEN not set, serving the HTTP API only")
	}

	handler := httphandler.NewHandler(a.lookup, updates, a.cfg, a.log)
	authMiddleware := middleware.StaticToken(a.cfg.HTTP.APIToken)
	router := httphandler.NewRouter(handler, authMiddleware, a.cfg.Environment, a.registry, prometheus.DefaultGatherer, a.log)

	addr := fmt.Sprintf("%s:%d", a.cfg.HTTP.Host, a.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info().Str("addr", addr).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if telegram != nil && a.cfg.Telegram.Mode == config.TelegramModePolling {
		g.Go(func() error {
			return telegram.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error().Err(err).Msg("server forced to shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	a.log.Info().Msg("server exited")
	return nil
}
