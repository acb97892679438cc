package database

import (
	"context"

	"sayit/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FeedbackStore struct {
	contacts *mongo.Collection
	feedback *mongo.Collection
}

func NewFeedbackStore(db *MongoDB) *FeedbackStore {
	return &FeedbackStore{
		contacts: db.Collection(ContactsCollection),
		feedback: db.Collection(FeedbackCollection),
	}
}

func (s *FeedbackStore) CreateContact(ctx context.Context, msg *models.ContactMessage) error {
	result, err := s.contacts.InsertOne(ctx, msg)
	if err != nil {
		return mapError(err)
	}
	msg.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *FeedbackStore) ListContacts(ctx context.Context, skip, limit int64) ([]models.ContactMessage, int64, error) {
	items := []models.ContactMessage{}
	total, err := newestPage(ctx, s.contacts, skip, limit, &items)
	return items, total, err
}

func (s *FeedbackStore) CreateFeedback(ctx context.Context, fb *models.Feedback) error {
	result, err := s.feedback.InsertOne(ctx, fb)
	if err != nil {
		return mapError(err)
	}
	fb.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *FeedbackStore) ListFeedback(ctx context.Context, skip, limit int64) ([]models.Feedback, int64, error) {
	items := []models.Feedback{}
	total, err := newestPage(ctx, s.feedback, skip, limit, &items)
	return items, total, err
}

// newestPage decodes one page of a collection, newest first, into out.
func newestPage(ctx context.Context, collection *mongo.Collection, skip, limit int64, out interface{}) (int64, error) {
	total, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, out); err != nil {
		return 0, err
	}
	return total, nil
}
