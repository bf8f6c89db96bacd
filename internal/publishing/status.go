package publishing

import (
	"context"
	"fmt"
	"time"

	"content-publisher/internal/database/models"
	"content-publisher/internal/metrics"
	"content-publisher/internal/timeutil"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatusWriter persists the Published transition.
type StatusWriter interface {
	MarkPublished(ctx context.Context, id primitive.ObjectID, publishedAt string) error
}

// StatusUpdater marks dispatched items as published.
type StatusUpdater struct {
	store StatusWriter
	log   zerolog.Logger
}

// NewStatusUpdater creates a StatusUpdater.
func NewStatusUpdater(store StatusWriter, logger zerolog.Logger) *StatusUpdater {
	return &StatusUpdater{store: store, log: logger}
}

// MarkPublished stamps the item as published at dispatchedAt, rendered at the
// local offset, and returns the stamp written. Only call it after the webhook
// acknowledged the item.
func (u *StatusUpdater) MarkPublished(ctx context.Context, item models.ScheduledContent, dispatchedAt time.Time) (string, error) {
	publishedAt := timeutil.FormatLocal(dispatchedAt)
	if err := u.store.MarkPublished(ctx, item.ID, publishedAt); err != nil {
		metrics.StatusUpdateErrors.Inc()
		wrapped := fmt.Errorf("dispatched content %s was not marked published: %w", item.ID.Hex(), err)
		u.log.Error().Err(err).Str("content_id", item.ID.Hex()).Msg("status update failed after successful dispatch")
		sentry.CaptureException(wrapped)
		return "", wrapped
	}
	u.log.Info().Str("content_id", item.ID.Hex()).Str("published_at", publishedAt).Msg("marked published")
	return publishedAt, nil
}
