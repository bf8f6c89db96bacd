package models

import "time"

// DispatchLog records one webhook attempt for a scheduled item.
type DispatchLog struct {
	ContentID    string    `bson:"content_id"`
	DispatchID   string    `bson:"dispatch_id"`
	Platform     string    `bson:"platform"`
	ScheduledAt  string    `bson:"scheduled_at"`
	StatusCode   int       `bson:"status_code,omitempty"` // zero when no response arrived
	Success      bool      `bson:"success"`
	Published    bool      `bson:"published"` // status update persisted
	Error        string    `bson:"error,omitempty"`
	DispatchedAt time.Time `bson:"dispatched_at"`
}
