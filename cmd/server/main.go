package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fixitnow/internal/app"
	"fixitnow/internal/config"
	"fixitnow/internal/pkg/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	l := logger.New(cfg.App.AppName, cfg.App.Environment)

	bootstrap, cleanup, err := app.Bootstrap(cfg, l)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to bootstrap app")
	}

	addr, err := app.ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		l.Fatal().Err(err).Msg("invalid HTTP port")
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info().Str("addr", addr).Msg("http server listening")
		errCh <- bootstrap.Fiber.Listen(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error().Err(err).Msg("server error")
		}
	case sig := <-sigCh:
		l.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := cleanup(ctx); err != nil {
		l.Error().Err(err).Msg("cleanup error")
	}
}
