package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"content-publisher/internal/auth"
	"content-publisher/internal/config"
	"content-publisher/internal/database"
	"content-publisher/internal/handlers"
	"content-publisher/internal/locales"
	"content-publisher/internal/lock"
	"content-publisher/internal/logger"
	"content-publisher/internal/metrics"
	"content-publisher/internal/notify"
	"content-publisher/internal/publishing"
	"content-publisher/internal/webhook"

	sentry "github.com/getsentry/sentry-go"
	"github.com/mymmrac/telego"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	baseLog := logger.Init(cfg.AppEnv, cfg.Debug)

	if err := locales.Init(cfg.DefaultLanguage); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize locales")
	}

	// Initialize Sentry (no-op without a DSN)
	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		Release:          cfg.Version,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("sentry.Init failed")
	}
	defer sentry.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	client, db, err := database.ConnectDB(ctx, cfg)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("error disconnecting from MongoDB")
			sentry.CaptureException(err)
			return
		}
		log.Info().Msg("disconnected from MongoDB")
	}()

	repo := database.NewMongoScheduleRepository(db, cfg.ScheduleCollection)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(registry)

	runnerDeps := publishing.RunnerDeps{
		Scanner: publishing.NewScanner(repo, repo, logger.Component(baseLog, "scanner")),
		Dispatcher: publishing.NewDispatcher(
			webhook.NewClient(cfg.WebhookURL, cfg.WebhookTimeout, logger.Component(baseLog, "webhook")),
			publishing.DispatcherOptions{
				MaxConcurrency: cfg.DispatchMaxConcurrency,
				RatePerSecond:  cfg.DispatchRatePerSecond,
			},
			logger.Component(baseLog, "dispatcher"),
		),
		Updater:  publishing.NewStatusUpdater(repo, logger.Component(baseLog, "status")),
		Notifier: notify.NopNotifier{},
		Logger:   logger.Component(baseLog, "runner"),
	}

	if cfg.DispatchLogEnabled() {
		runnerDeps.History = database.NewMongoDispatchLog(db, cfg.DispatchLogCollection)
	}

	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing redis client")
			}
		}()
		runLock, err := lock.NewRedisLock(rdb, cfg.RunLockKey, cfg.RunLockTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create run lock")
		}
		runnerDeps.Locker = runLock
		log.Info().Str("addr", cfg.RedisAddr).Str("key", cfg.RunLockKey).Msg("run lock enabled")
	}

	if cfg.TelegramAlertsEnabled() {
		var bot *telego.Bot
		if cfg.Debug {
			bot, err = telego.NewBot(cfg.TelegramBotToken, telego.WithDefaultDebugLogger())
		} else {
			bot, err = telego.NewBot(cfg.TelegramBotToken, telego.WithDefaultLogger(false, false))
		}
		if err != nil {
			sentry.CaptureException(err)
			log.Fatal().Err(err).Msg("failed to create telego bot")
		}
		notifier, err := notify.NewTelegramNotifier(bot, cfg.TelegramAlertChatID)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create alert notifier")
		}
		runnerDeps.Notifier = notifier
		log.Info().Int64("chat_id", cfg.TelegramAlertChatID).Msg("telegram alerts enabled")
	}

	runner, err := publishing.NewRunner(runnerDeps)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create runner")
	}

	handler, err := handlers.NewHandler(handlers.HandlerDeps{
		Runner:     runner,
		Store:      repo,
		Secret:     auth.NewSecretChecker(cfg.CronSecret),
		Gatherer:   registry,
		RunTimeout: cfg.RunTimeout,
		Logger:     logger.Component(baseLog, "http"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create HTTP handler")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// A triggered run may take up to RUN_TIMEOUT before the response is written.
		WriteTimeout: cfg.RunTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("version", cfg.Version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.CaptureException(err)
			log.Error().Err(err).Msg("HTTP server stopped")
			stop()
		}
	}()

	// Wait for context cancellation (e.g., SIGINT, SIGTERM)
	<-ctx.Done()

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("shutdown complete")
}
