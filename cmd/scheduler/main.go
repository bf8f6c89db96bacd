package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"content-publisher/internal/config"
	"content-publisher/internal/logger"
	"content-publisher/internal/trigger"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadSchedulerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}
	baseLog := logger.Init(cfg.AppEnv, cfg.Debug)

	tr, err := trigger.New(cfg.TriggerURL, cfg.CronSecret, cfg.Timeout, logger.Component(baseLog, "scheduler"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create trigger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("url", cfg.TriggerURL).Dur("interval", cfg.Interval).Msg("scheduler started")
	tr.Run(ctx, cfg.Interval)
	log.Info().Msg("scheduler stopped")
}
