package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"WorksForMeBot/config"
	"WorksForMeBot/handler"
	"WorksForMeBot/repo"

	"github.com/go-telegram/bot"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("usage: worksforme <token> [database] [bot name]")
	}
	logger := newLogger(cfg.Logging)

	store, err := repo.NewSQLiteStore(cfg.Database, logger.With().Str("component", "store").Logger())
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Database).Msg("error opening database")
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	h := handler.NewPlanBotHandler(store, repo.NewMemorySessions(), cfg.BotName,
		logger.With().Str("component", "handler").Logger())

	opts := []bot.Option{
		bot.WithDefaultHandler(h.Handle),
		// updates are handled one at a time so a user's pending operation
		// is never read and written by two handlers at once
		bot.WithNotAsyncHandlers(),
		bot.WithErrorsHandler(func(err error) {
			logger.Error().Err(err).Msg("telegram error")
		}),
	}

	b, err := bot.New(cfg.Token, opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("error creating bot")
	}

	if cfg.BotName == "" {
		me, err := b.GetMe(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("error resolving bot name")
		}
		h.SetBotName(me.Username)
	}

	logger.Info().Str("bot", h.BotName()).Str("database", cfg.Database).Msg("bot started")
	b.Start(ctx)
	<-ctx.Done()
	logger.Info().Msg("bot stopped")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var w io.Writer = os.Stderr
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
