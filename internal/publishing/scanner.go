package publishing

import (
	"context"
	"fmt"
	"time"

	"content-publisher/internal/database/models"
	"content-publisher/internal/metrics"
	"content-publisher/internal/timeutil"

	"github.com/rs/zerolog"
)

// recentWindow is how far back the diagnostics hook counts published items.
const recentWindow = time.Hour

// DueFinder is the store query used by the Scanner.
type DueFinder interface {
	FindDue(ctx context.Context, cutoff string) ([]models.ScheduledContent, error)
}

// Diagnostics is an optional store hook whose counts are logged and exported
// as metrics. It never affects which items are selected.
type Diagnostics interface {
	CountUnpublished(ctx context.Context) (int64, error)
	CountPublishedSince(ctx context.Context, since string) (int64, error)
	CountScheduledAfter(ctx context.Context, after string) (int64, error)
}

// Scanner selects the items due for publication.
type Scanner struct {
	store DueFinder
	diag  Diagnostics
	log   zerolog.Logger
}

// NewScanner creates a Scanner. diag may be nil.
func NewScanner(store DueFinder, diag Diagnostics, logger zerolog.Logger) *Scanner {
	return &Scanner{store: store, diag: diag, log: logger}
}

// Scan returns every item that is not published and scheduled at or before now.
// The store is queried with a second-granularity upper bound and the exact
// predicate is applied here, so an item scheduled exactly at now is included
// whatever precision its timestamp was stored with.
// A store error fails the whole scan.
func (s *Scanner) Scan(ctx context.Context, now time.Time) ([]models.ScheduledContent, error) {
	now = now.UTC()
	s.reportDiagnostics(ctx, now)

	candidates, err := s.store.FindDue(ctx, timeutil.CeilSecond(now))
	if err != nil {
		return nil, fmt.Errorf("scan due content: %w", err)
	}

	due := make([]models.ScheduledContent, 0, len(candidates))
	for _, item := range candidates {
		if item.IsDue(now) {
			due = append(due, item)
			continue
		}
		s.log.Debug().
			Str("content_id", item.ID.Hex()).
			Str("scheduled_at", item.ScheduledAt).
			Msg("candidate is not due")
	}

	metrics.DueItems.Set(float64(len(due)))
	s.log.Info().
		Str("now", timeutil.FormatUTC(now)).
		Str("now_local", timeutil.FormatLocal(now)).
		Int("due", len(due)).
		Msg("scan complete")
	return due, nil
}

func (s *Scanner) reportDiagnostics(ctx context.Context, now time.Time) {
	if s.diag == nil {
		return
	}

	event := s.log.Debug()

	if n, err := s.diag.CountUnpublished(ctx); err != nil {
		s.log.Warn().Err(err).Msg("diagnostics: count unpublished")
	} else {
		metrics.UnpublishedItems.Set(float64(n))
		event = event.Int64("unpublished", n)
	}

	if n, err := s.diag.CountPublishedSince(ctx, timeutil.FormatLocal(now.Add(-recentWindow))); err != nil {
		s.log.Warn().Err(err).Msg("diagnostics: count recently published")
	} else {
		metrics.RecentlyPublishedItems.Set(float64(n))
		event = event.Int64("recently_published", n)
	}

	if n, err := s.diag.CountScheduledAfter(ctx, timeutil.FormatUTC(now)); err != nil {
		s.log.Warn().Err(err).Msg("diagnostics: count future")
	} else {
		metrics.FutureItems.Set(float64(n))
		event = event.Int64("future", n)
	}

	event.Msg("schedule diagnostics")
}
