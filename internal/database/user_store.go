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

type UserStore struct {
	collection *mongo.Collection
}

func NewUserStore(db *MongoDB) *UserStore {
	return &UserStore{collection: db.Collection(UsersCollection)}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	result, err := s.collection.InsertOne(ctx, user)
	if err != nil {
		return mapError(err)
	}
	user.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

func (s *UserStore) List(ctx context.Context, role models.UserRole, skip, limit int64) ([]models.User, int64, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}

	total, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *UserStore) ListAgencyMembers(ctx context.Context, agencyID primitive.ObjectID) ([]models.User, error) {
	cursor, err := s.collection.Find(ctx, bson.M{
		"agency_id": agencyID,
		"is_active": true,
		"role":      bson.M{"$in": []models.UserRole{models.RoleAgent, models.RoleStaff}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *UserStore) SetActive(ctx context.Context, id primitive.ObjectID, active bool, at time.Time) error {
	return s.set(ctx, id, bson.M{"is_active": active, "updated_at": at})
}

func (s *UserStore) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return s.set(ctx, id, bson.M{"last_login_at": at})
}

func (s *UserStore) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

type AnonymousUserStore struct {
	collection *mongo.Collection
}

func NewAnonymousUserStore(db *MongoDB) *AnonymousUserStore {
	return &AnonymousUserStore{collection: db.Collection(AnonymousUsersCollection)}
}

func (s *AnonymousUserStore) Create(ctx context.Context, anon *models.AnonymousUser) error {
	result, err := s.collection.InsertOne(ctx, anon)
	if err != nil {
		return mapError(err)
	}
	anon.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *AnonymousUserStore) GetByAccessCode(ctx context.Context, code string) (*models.AnonymousUser, error) {
	var anon models.AnonymousUser
	if err := s.collection.FindOne(ctx, bson.M{"access_code": code}).Decode(&anon); err != nil {
		return nil, mapError(err)
	}
	return &anon, nil
}

func (s *AnonymousUserStore) Touch(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_seen_at": at}})
	return mapError(err)
}
