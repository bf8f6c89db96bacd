package database

import (
	"context"

	"content-publisher/internal/database/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleRepository defines the data operations on the schedule collection.
type ScheduleRepository interface {
	// FindDue returns unpublished items whose scheduledAt sorts at or before cutoff.
	FindDue(ctx context.Context, cutoff string) ([]models.ScheduledContent, error)
	// MarkPublished transitions an item to Published and stamps publishedAt once.
	MarkPublished(ctx context.Context, id primitive.ObjectID, publishedAt string) error
	// ListByPublication lists published or unpublished items, newest schedule first.
	ListByPublication(ctx context.Context, published bool, limit int64) ([]models.ScheduledContent, error)

	// Diagnostic counts, used for logging and metrics only.
	CountUnpublished(ctx context.Context) (int64, error)
	CountPublishedSince(ctx context.Context, since string) (int64, error)
	CountScheduledAfter(ctx context.Context, after string) (int64, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}

// DispatchLogger records webhook attempts.
type DispatchLogger interface {
	LogDispatch(ctx context.Context, entry models.DispatchLog) error
}
