// Package publishing implements the scheduled publication run: scan the
// schedule for due items, notify the webhook for each one and mark the
// acknowledged ones as published.
package publishing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"content-publisher/internal/database/models"
	"content-publisher/internal/locales"
	"content-publisher/internal/lock"
	"content-publisher/internal/metrics"
	"content-publisher/internal/notify"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
)

// RunOutcome classifies a completed run.
type RunOutcome string

const (
	// RunIdle means the scan found nothing due.
	RunIdle RunOutcome = "idle"
	// RunProcessed means at least one item was dispatched.
	RunProcessed RunOutcome = "processed"
	// RunSkipped means another run held the lock.
	RunSkipped RunOutcome = "skipped"
)

// Result is the per-item entry of a run summary.
type Result struct {
	ContentID     string `json:"contentId"`
	Success       bool   `json:"success"`
	PublishedDate string `json:"publishedDate,omitempty"`
	Status        int    `json:"status,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Summary describes one run.
type Summary struct {
	Outcome   RunOutcome
	StartedAt time.Time
	Results   []Result
}

// Failed returns the results that did not end with the item published.
func (s Summary) Failed() []Result {
	var failed []Result
	for _, r := range s.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

// Locker prevents overlapping runs. TryAcquire must not block.
type Locker interface {
	TryAcquire(ctx context.Context) (lock.ReleaseFunc, bool, error)
}

// DispatchRecorder keeps a history of webhook attempts.
type DispatchRecorder interface {
	LogDispatch(ctx context.Context, entry models.DispatchLog) error
}

// RunnerDeps holds the dependencies required by the Runner.
type RunnerDeps struct {
	Scanner    *Scanner
	Dispatcher *Dispatcher
	Updater    *StatusUpdater
	Locker     Locker           // optional
	Notifier   notify.Notifier  // optional
	History    DispatchRecorder // optional
	Clock      func() time.Time // also stamps dispatches; defaults to the dispatcher's
	Logger     zerolog.Logger
}

// Runner executes publication runs. It keeps no state between runs; the
// caller decides when to run.
type Runner struct {
	scanner    *Scanner
	dispatcher *Dispatcher
	updater    *StatusUpdater
	locker     Locker
	notifier   notify.Notifier
	history    DispatchRecorder
	clock      func() time.Time
	log        zerolog.Logger
}

// NewRunner creates a Runner from its dependencies.
// Returns an error if a required dependency is missing.
func NewRunner(deps RunnerDeps) (*Runner, error) {
	if deps.Scanner == nil {
		return nil, errors.New("scanner cannot be nil")
	}
	if deps.Dispatcher == nil {
		return nil, errors.New("dispatcher cannot be nil")
	}
	if deps.Updater == nil {
		return nil, errors.New("status updater cannot be nil")
	}
	// One clock stamps both the scan cutoff and the dispatch times.
	clock := deps.Clock
	if clock == nil {
		clock = deps.Dispatcher.clock
	}
	return &Runner{
		scanner:    deps.Scanner,
		dispatcher: deps.Dispatcher.withClock(clock),
		updater:    deps.Updater,
		locker:     deps.Locker,
		notifier:   deps.Notifier,
		history:    deps.History,
		clock:      clock,
		log:        deps.Logger,
	}, nil
}

// Run performs one publication run. The returned error is only set when the
// scan itself failed; item failures are reported in the summary.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	summary := Summary{StartedAt: r.clock().UTC()}

	if r.locker != nil {
		release, acquired, err := r.locker.TryAcquire(ctx)
		switch {
		case err != nil:
			// Without the lock the run is still correct, only unguarded.
			r.log.Warn().Err(err).Msg("run lock unavailable, continuing without it")
		case !acquired:
			r.log.Info().Msg("another run holds the lock, skipping")
			summary.Outcome = RunSkipped
			metrics.ObserveRun(metrics.OutcomeSkipped, started)
			return summary, nil
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					r.log.Warn().Err(err).Msg("failed to release run lock")
				}
			}()
		}
	}

	items, err := r.scanner.Scan(ctx, summary.StartedAt)
	if err != nil {
		metrics.ObserveRun(metrics.OutcomeFailed, started)
		r.log.Error().Err(err).Msg("scan failed")
		sentry.CaptureException(err)
		return Summary{}, err
	}

	if len(items) == 0 {
		summary.Outcome = RunIdle
		metrics.ObserveRun(metrics.OutcomeIdle, started)
		return summary, nil
	}

	summary.Outcome = RunProcessed
	summary.Results = r.dispatcher.DispatchAll(ctx, items, r.afterDispatch)
	metrics.ObserveRun(metrics.OutcomeProcessed, started)

	failed := summary.Failed()
	r.log.Info().
		Int("due", len(items)).
		Int("published", len(items)-len(failed)).
		Int("failed", len(failed)).
		Dur("elapsed", time.Since(started)).
		Msg("run complete")

	if len(failed) > 0 && r.notifier != nil {
		if err := r.notifier.Notify(ctx, failureAlert(failed)); err != nil {
			r.log.Warn().Err(err).Msg("failed to send operator alert")
		}
	}
	return summary, nil
}

// afterDispatch turns a dispatch outcome into a result, updating the status
// only when the webhook acknowledged the item.
func (r *Runner) afterDispatch(ctx context.Context, o Outcome) Result {
	res := r.resolve(ctx, o)
	r.record(ctx, o, res)
	return res
}

func (r *Runner) resolve(ctx context.Context, o Outcome) Result {
	res := Result{ContentID: o.Item.ID.Hex()}

	if !o.Succeeded() {
		res.Status = o.StatusCode
		res.Error = o.Err.Error()
		sentry.CaptureException(fmt.Errorf("dispatch of content %s failed: %w", res.ContentID, o.Err))
		return res
	}

	publishedAt, err := r.updater.MarkPublished(ctx, o.Item, o.DispatchedAt)
	if err != nil {
		// The webhook accepted the item but it stays due: the next run will dispatch it again.
		res.Status = o.StatusCode
		res.Error = err.Error()
		return res
	}

	res.Success = true
	res.PublishedDate = publishedAt
	return res
}

func (r *Runner) record(ctx context.Context, o Outcome, res Result) {
	if r.history == nil {
		return
	}
	entry := models.DispatchLog{
		ContentID:    res.ContentID,
		DispatchID:   o.DispatchID,
		Platform:     o.Item.Platform,
		ScheduledAt:  o.Item.ScheduledAt,
		StatusCode:   o.StatusCode,
		Success:      o.Succeeded(),
		Published:    res.Success,
		Error:        res.Error,
		DispatchedAt: o.DispatchedAt.UTC(),
	}
	if err := r.history.LogDispatch(context.WithoutCancel(ctx), entry); err != nil {
		r.log.Warn().Err(err).Str("content_id", res.ContentID).Msg("failed to record dispatch")
	}
}

func failureAlert(failed []Result) string {
	var b strings.Builder
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())
	b.WriteString(locales.Count(localizer, locales.MsgPublicationFailures, len(failed)))
	for _, f := range failed {
		b.WriteString("\n- ")
		b.WriteString(f.ContentID)
		if f.Status != 0 {
			fmt.Fprintf(&b, " [%d]", f.Status)
		}
		if f.Error != "" {
			b.WriteString(": ")
			b.WriteString(f.Error)
		}
	}
	return b.String()
}
