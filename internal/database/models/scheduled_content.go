package models

import (
	"time"

	"content-publisher/internal/timeutil"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status values stored in the status field. An empty or missing status is
// treated the same as Draft: not yet published.
const (
	StatusDraft     = "Draft"
	StatusPublished = "Published"
)

// ScheduledContent is one scheduled post in the schedule collection.
// Field names follow the documents written by the authoring dashboard.
type ScheduledContent struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Platform    string             `bson:"platform" json:"platform"`
	Title       string             `bson:"title" json:"title"`
	DraftBody   string             `bson:"draftBody" json:"draftBody"`
	Status      string             `bson:"status,omitempty" json:"status,omitempty"`
	// ScheduledAt is stored in UTC, ISO-8601.
	ScheduledAt string `bson:"scheduledAt" json:"scheduledAt"`
	// PublishedAt is stored at the +05:30 offset and written once.
	PublishedAt string `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	Owner       string `bson:"owner" json:"owner"`
}

// IsPublished reports whether the item has reached the terminal Published state.
func (c ScheduledContent) IsPublished() bool {
	return c.Status == StatusPublished
}

// ScheduledTime parses ScheduledAt into a UTC instant.
func (c ScheduledContent) ScheduledTime() (time.Time, error) {
	return timeutil.ParseTimestamp(c.ScheduledAt)
}

// IsDue reports whether the item should be dispatched at now: it is not
// published and its scheduled time is at or before now. Items with an
// unparsable scheduled time are never due.
func (c ScheduledContent) IsDue(now time.Time) bool {
	if c.IsPublished() {
		return false
	}
	scheduled, err := c.ScheduledTime()
	if err != nil {
		return false
	}
	return !scheduled.After(now)
}
