package database

import (
	"context"
	"fmt"
	"time"

	"content-publisher/internal/database/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultDispatchLogCollection holds the webhook attempt history.
const DefaultDispatchLogCollection = "dispatchLog"

const logWriteTimeout = 5 * time.Second

// MongoDispatchLog writes webhook attempts to MongoDB.
type MongoDispatchLog struct {
	collection *mongo.Collection
}

var _ DispatchLogger = (*MongoDispatchLog)(nil)

// NewMongoDispatchLog creates a dispatch log on collectionName, falling back
// to DefaultDispatchLogCollection.
func NewMongoDispatchLog(db *mongo.Database, collectionName string) *MongoDispatchLog {
	if collectionName == "" {
		collectionName = DefaultDispatchLogCollection
	}
	return &MongoDispatchLog{collection: db.Collection(collectionName)}
}

// LogDispatch inserts one attempt. The write gets its own short timeout so a
// slow log never holds up the run.
func (m *MongoDispatchLog) LogDispatch(ctx context.Context, entry models.DispatchLog) error {
	ctx, cancel := context.WithTimeout(ctx, logWriteTimeout)
	defer cancel()

	if _, err := m.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert dispatch log for content %s: %w", entry.ContentID, err)
	}
	return nil
}
