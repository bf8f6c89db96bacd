package database

import (
	"context"
	"errors"
	"fmt"

	"content-publisher/internal/database/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultScheduleCollection is the collection written by the authoring dashboard.
const DefaultScheduleCollection = "scheduledContent"

// MongoScheduleRepository implements ScheduleRepository for MongoDB.
type MongoScheduleRepository struct {
	collection *mongo.Collection
}

var _ ScheduleRepository = (*MongoScheduleRepository)(nil)

// NewMongoScheduleRepository creates a new MongoDB schedule repository.
// An empty collection name falls back to DefaultScheduleCollection.
func NewMongoScheduleRepository(db *mongo.Database, collectionName string) *MongoScheduleRepository {
	if collectionName == "" {
		collectionName = DefaultScheduleCollection
	}
	return &MongoScheduleRepository{
		collection: db.Collection(collectionName),
	}
}

// notPublished matches documents whose status is missing, empty or anything other than Published.
func notPublished() bson.M {
	return bson.M{"$ne": models.StatusPublished}
}

// FindDue retrieves unpublished items with scheduledAt <= cutoff, oldest schedule first.
// The comparison is on the stored ISO-8601 strings.
func (r *MongoScheduleRepository) FindDue(ctx context.Context, cutoff string) ([]models.ScheduledContent, error) {
	filter := bson.M{
		"status":      notPublished(),
		"scheduledAt": bson.M{"$lte": cutoff},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "scheduledAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find due content: %w", err)
	}
	defer cursor.Close(ctx)

	var items []models.ScheduledContent
	if err = cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode due content: %w", err)
	}
	return items, nil
}

// MarkPublished sets status to Published and stamps publishedAt.
// The filter excludes already published documents so publishedAt is never overwritten;
// marking an item that another run already published is not an error.
// It returns ErrContentNotFound if no document has the given ID.
func (r *MongoScheduleRepository) MarkPublished(ctx context.Context, id primitive.ObjectID, publishedAt string) error {
	filter := bson.M{"_id": id, "status": notPublished()}
	update := bson.M{
		"$set": bson.M{
			"status":      models.StatusPublished,
			"publishedAt": publishedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark content %s as published: %w", id.Hex(), err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	// Nothing matched: either the document is gone or it is already published.
	var current models.ScheduledContent
	err = r.collection.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"status": 1})).Decode(&current)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrContentNotFound
		}
		return fmt.Errorf("failed to find content %s after update: %w", id.Hex(), err)
	}
	if current.IsPublished() {
		return nil
	}
	return fmt.Errorf("content %s was not updated", id.Hex())
}

// ListByPublication lists published or unpublished items, latest schedule first.
// A non-positive limit returns all matching items.
func (r *MongoScheduleRepository) ListByPublication(ctx context.Context, published bool, limit int64) ([]models.ScheduledContent, error) {
	filter := bson.M{"status": notPublished()}
	if published {
		filter = bson.M{"status": models.StatusPublished}
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "scheduledAt", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled content: %w", err)
	}
	defer cursor.Close(ctx)

	items := []models.ScheduledContent{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode scheduled content: %w", err)
	}
	return items, nil
}

// CountUnpublished counts all items that are not published, whatever their schedule.
func (r *MongoScheduleRepository) CountUnpublished(ctx context.Context) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"status": notPublished()})
	if err != nil {
		return 0, fmt.Errorf("failed to count unpublished content: %w", err)
	}
	return n, nil
}

// CountPublishedSince counts items whose publishedAt sorts at or after since.
func (r *MongoScheduleRepository) CountPublishedSince(ctx context.Context, since string) (int64, error) {
	filter := bson.M{
		"status":      models.StatusPublished,
		"publishedAt": bson.M{"$gte": since},
	}
	n, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count recently published content: %w", err)
	}
	return n, nil
}

// CountScheduledAfter counts unpublished items scheduled strictly after the given time.
func (r *MongoScheduleRepository) CountScheduledAfter(ctx context.Context, after string) (int64, error) {
	filter := bson.M{
		"status":      notPublished(),
		"scheduledAt": bson.M{"$gt": after},
	}
	n, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count future content: %w", err)
	}
	return n, nil
}

// Ping checks the connection to the primary.
func (r *MongoScheduleRepository) Ping(ctx context.Context) error {
	if err := r.collection.Database().Client().Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return nil
}
