package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds the configuration of the publishing service.
type Config struct {
	AppEnv  string `envconfig:"APP_ENV" default:"development"`
	Debug   bool   `envconfig:"DEBUG" default:"false"`
	Version string `envconfig:"VERSION" default:"dev"`

	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080" validate:"required"`

	MongoDBURI            string `envconfig:"MONGODB_URI" validate:"required"`
	MongoDBDatabase       string `envconfig:"MONGODB_DATABASE" validate:"required"`
	ScheduleCollection    string `envconfig:"SCHEDULE_COLLECTION" default:"scheduledContent" validate:"required"`
	DispatchLogCollection string `envconfig:"DISPATCH_LOG_COLLECTION" default:"dispatchLog"`

	WebhookURL             string        `envconfig:"WEBHOOK_URL" validate:"required,url"`
	WebhookTimeout         time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"30s" validate:"gt=0"`
	DispatchMaxConcurrency int           `envconfig:"DISPATCH_MAX_CONCURRENCY" default:"0" validate:"gte=0"`
	DispatchRatePerSecond  int           `envconfig:"DISPATCH_RATE_PER_SECOND" default:"0" validate:"gte=0"`

	CronSecret string        `envconfig:"CRON_SECRET"`
	RunTimeout time.Duration `envconfig:"RUN_TIMEOUT" default:"55s" validate:"gt=0"`

	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`
	RunLockKey    string        `envconfig:"RUN_LOCK_KEY" default:"content-publisher:run-lock"`
	RunLockTTL    time.Duration `envconfig:"RUN_LOCK_TTL" default:"55s" validate:"gt=0"`

	SentryDSN       string `envconfig:"SENTRY_DSN"`
	DefaultLanguage string `envconfig:"DEFAULT_LANGUAGE" default:"en"`

	TelegramBotToken    string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramAlertChatID int64  `envconfig:"TELEGRAM_ALERT_CHAT_ID" validate:"required_with=TelegramBotToken"`
}

// SchedulerConfig holds the configuration of the standalone scheduler that
// triggers the cron endpoint.
type SchedulerConfig struct {
	AppEnv     string        `envconfig:"APP_ENV" default:"development"`
	Debug      bool          `envconfig:"DEBUG" default:"false"`
	TriggerURL string        `envconfig:"SCHEDULER_TRIGGER_URL" default:"http://localhost:8080/api/cron/publish-scheduled" validate:"required,url"`
	Interval   time.Duration `envconfig:"SCHEDULER_INTERVAL" default:"1m" validate:"gt=0"`
	Timeout    time.Duration `envconfig:"SCHEDULER_TIMEOUT" default:"60s" validate:"gt=0"`
	CronSecret string        `envconfig:"CRON_SECRET"`
}

// RedisEnabled reports whether a run lock backend is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// DispatchLogEnabled reports whether webhook attempts are recorded.
func (c *Config) DispatchLogEnabled() bool {
	return c.DispatchLogCollection != "" && c.DispatchLogCollection != "-"
}

// TelegramAlertsEnabled reports whether operator alerts should be sent.
func (c *Config) TelegramAlertsEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramAlertChatID != 0
}

// LoadConfig loads configuration from environment variables.
// It attempts to load a .env file if present but prioritizes
// actual environment variables set in the system (e.g., by Docker).
func LoadConfig() (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	if err := process(cfg); err != nil {
		return nil, err
	}

	if cfg.SentryDSN == "" {
		log.Warn().Msg("SENTRY_DSN is not set. Error tracking disabled.")
	}
	if cfg.CronSecret == "" {
		log.Warn().Msg("CRON_SECRET is not set. The cron endpoint is unauthenticated.")
	}
	if cfg.RedisAddr == "" {
		log.Warn().Msg("REDIS_ADDR is not set. Overlapping runs are not guarded.")
	}

	return cfg, nil
}

// LoadSchedulerConfig loads the scheduler configuration from environment variables.
func LoadSchedulerConfig() (*SchedulerConfig, error) {
	loadDotEnv()

	cfg := &SchedulerConfig{}
	if err := process(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv() {
	// Load .env file if it exists (useful for development)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Error loading .env file")
	}
}

func process(cfg any) error {
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
