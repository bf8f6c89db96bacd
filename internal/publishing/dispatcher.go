package publishing

import (
	"context"
	"errors"
	"time"

	"content-publisher/internal/database/models"
	"content-publisher/internal/metrics"
	"content-publisher/internal/webhook"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"
)

// Sender delivers one payload to the publishing webhook. It returns the HTTP
// status (zero if no response arrived) and an error unless the status is 2xx.
type Sender interface {
	Send(ctx context.Context, p webhook.Payload) (int, error)
}

// Outcome is the result of one dispatch attempt.
type Outcome struct {
	Item         models.ScheduledContent
	DispatchID   string
	StatusCode   int
	Err          error
	DispatchedAt time.Time
}

// Succeeded reports whether the webhook acknowledged the item.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// AfterDispatch runs in the dispatching goroutine right after an item's webhook
// call returns and produces that item's result.
type AfterDispatch func(ctx context.Context, o Outcome) Result

// DispatcherOptions tunes the fan-out.
type DispatcherOptions struct {
	// MaxConcurrency caps in-flight webhook calls. Zero means no cap.
	MaxConcurrency int
	// RatePerSecond paces webhook calls. Zero means unpaced.
	RatePerSecond int
	// Clock overrides time.Now for DispatchedAt.
	Clock func() time.Time
	// NewDispatchID overrides the uuid generator.
	NewDispatchID func() string
}

// Dispatcher fans out webhook calls for due items.
type Dispatcher struct {
	sender         Sender
	limiter        ratelimit.Limiter
	maxConcurrency int
	clock          func() time.Time
	newID          func() string
	log            zerolog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(sender Sender, opts DispatcherOptions, logger zerolog.Logger) *Dispatcher {
	limiter := ratelimit.NewUnlimited()
	if opts.RatePerSecond > 0 {
		limiter = ratelimit.New(opts.RatePerSecond)
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := opts.NewDispatchID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Dispatcher{
		sender:         sender,
		limiter:        limiter,
		maxConcurrency: opts.MaxConcurrency,
		clock:          clock,
		newID:          newID,
		log:            logger,
	}
}

// withClock returns a copy of d that stamps outcomes with clock.
func (d *Dispatcher) withClock(clock func() time.Time) *Dispatcher {
	c := *d
	c.clock = clock
	return &c
}

// Dispatch performs the webhook call for a single item.
func (d *Dispatcher) Dispatch(ctx context.Context, item models.ScheduledContent) Outcome {
	d.limiter.Take()

	payload := webhook.Payload{
		ContentID:     item.ID.Hex(),
		Platform:      item.Platform,
		Title:         item.Title,
		Content:       item.DraftBody,
		ScheduledDate: item.ScheduledAt,
		User:          item.Owner,
		DispatchID:    d.newID(),
	}

	code, err := d.sender.Send(ctx, payload)
	outcome := Outcome{
		Item:         item,
		DispatchID:   payload.DispatchID,
		StatusCode:   code,
		Err:          err,
		DispatchedAt: d.clock(),
	}
	metrics.ObserveDispatch(item.Platform, outcome.Succeeded())

	logEvent := d.log.Info()
	if err != nil {
		logEvent = d.log.Warn().Err(err)
	}
	logEvent.
		Str("content_id", payload.ContentID).
		Str("dispatch_id", payload.DispatchID).
		Str("platform", item.Platform).
		Int("status", code).
		Msg("dispatched")
	return outcome
}

// DispatchAll dispatches every item concurrently and waits for all of them.
// Each item is independent: a failure never cancels or delays the others.
// Results are returned in the order of items.
func (d *Dispatcher) DispatchAll(ctx context.Context, items []models.ScheduledContent, after AfterDispatch) []Result {
	results := make([]Result, len(items))

	var g errgroup.Group
	if d.maxConcurrency > 0 {
		g.SetLimit(d.maxConcurrency)
	}
	for i, item := range items {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					d.log.Error().Interface("panic", r).Str("content_id", item.ID.Hex()).Msg("dispatch panicked")
					results[i] = Result{ContentID: item.ID.Hex(), Error: errDispatchPanic.Error()}
				}
			}()
			outcome := d.Dispatch(ctx, item)
			results[i] = after(ctx, outcome)
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors

	return results
}

var errDispatchPanic = errors.New("dispatch panicked")
