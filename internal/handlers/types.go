// Package handlers exposes the publication trigger and read-only schedule
// views over HTTP.
package handlers

import (
	"context"
	"errors"
	"time"

	"content-publisher/internal/auth"
	"content-publisher/internal/database/models"
	"content-publisher/internal/publishing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// DefaultRunTimeout bounds a triggered run when no timeout is configured.
const DefaultRunTimeout = 55 * time.Second

// defaultListLimit caps the schedule listing.
const defaultListLimit = 200

// RunTrigger runs one publication pass.
type RunTrigger interface {
	Run(ctx context.Context) (publishing.Summary, error)
}

// ScheduleReader is the read side of the schedule store used by the listing
// and health endpoints.
type ScheduleReader interface {
	ListByPublication(ctx context.Context, published bool, limit int64) ([]models.ScheduledContent, error)
	Ping(ctx context.Context) error
}

// HandlerDeps holds the dependencies required by the Handler.
type HandlerDeps struct {
	Runner     RunTrigger
	Store      ScheduleReader
	Secret     *auth.SecretChecker // optional, nil allows all
	Gatherer   prometheus.Gatherer // optional, nil disables /metrics
	RunTimeout time.Duration
	Logger     zerolog.Logger
}

// Handler serves the HTTP endpoints.
type Handler struct {
	runner     RunTrigger
	store      ScheduleReader
	secret     *auth.SecretChecker
	gatherer   prometheus.Gatherer
	runTimeout time.Duration
	log        zerolog.Logger
}

// NewHandler creates a Handler.
// Returns an error if a required dependency is missing.
func NewHandler(deps HandlerDeps) (*Handler, error) {
	if deps.Runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	if deps.Store == nil {
		return nil, errors.New("schedule store cannot be nil")
	}
	secret := deps.Secret
	if secret == nil {
		secret = auth.NewSecretChecker("")
	}
	timeout := deps.RunTimeout
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	return &Handler{
		runner:     deps.Runner,
		store:      deps.Store,
		secret:     secret,
		gatherer:   deps.Gatherer,
		runTimeout: timeout,
		log:        deps.Logger,
	}, nil
}

// publishResponse is the body of the trigger endpoint.
type publishResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Results []publishing.Result `json:"results,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// scheduledView is one row of the schedule listing.
type scheduledView struct {
	ID               string `json:"id"`
	Platform         string `json:"platform"`
	Title            string `json:"title"`
	Status           string `json:"status"`
	Owner            string `json:"owner"`
	ScheduledAt      string `json:"scheduledAt"`
	ScheduledAtLocal string `json:"scheduledAtLocal"`
	PublishedAt      string `json:"publishedAt,omitempty"`
	PublishedAtLocal string `json:"publishedAtLocal"`
}

type listResponse struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Items   []scheduledView `json:"items"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
