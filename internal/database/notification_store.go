package database

import (
	"context"
	"time"

	"sayit/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationStore struct {
	collection *mongo.Collection
}

func NewNotificationStore(db *MongoDB) *NotificationStore {
	return &NotificationStore{collection: db.Collection(NotificationsCollection)}
}

func (s *NotificationStore) Create(ctx context.Context, n *models.Notification) error {
	result, err := s.collection.InsertOne(ctx, n)
	if err != nil {
		return mapError(err)
	}
	n.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// unreadFilter excludes documents past expires_at that the TTL monitor has
// not removed yet.
func unreadFilter(recipient models.SubjectRef, now time.Time) bson.M {
	filter := subjectFilter("recipient", recipient)
	filter["is_read"] = false
	filter["expires_at"] = bson.M{"$gt": now}
	return filter
}

func (s *NotificationStore) ListUnread(ctx context.Context, recipient models.SubjectRef, now time.Time, limit int64) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, unreadFilter(recipient, now), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *NotificationStore) CountUnread(ctx context.Context, recipient models.SubjectRef, now time.Time) (int64, error) {
	return s.collection.CountDocuments(ctx, unreadFilter(recipient, now))
}

// MarkRead only matches the recipient's own notification.
func (s *NotificationStore) MarkRead(ctx context.Context, recipient models.SubjectRef, id primitive.ObjectID, at time.Time) error {
	filter := subjectFilter("recipient", recipient)
	filter["_id"] = id

	result, err := s.collection.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"is_read": true, "read_at": at},
	})
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, recipient models.SubjectRef, at time.Time) (int64, error) {
	filter := subjectFilter("recipient", recipient)
	filter["is_read"] = false

	result, err := s.collection.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{"is_read": true, "read_at": at},
	})
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (s *NotificationStore) DeleteReadBefore(ctx context.Context, recipient models.SubjectRef, cutoff time.Time) (int64, error) {
	filter := subjectFilter("recipient", recipient)
	filter["is_read"] = true
	filter["created_at"] = bson.M{"$lt": cutoff}

	result, err := s.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
