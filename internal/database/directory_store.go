package database

import (
	"context"

	"sayit/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CategoryStore struct {
	collection *mongo.Collection
}

func NewCategoryStore(db *MongoDB) *CategoryStore {
	return &CategoryStore{collection: db.Collection(CategoriesCollection)}
}

func (s *CategoryStore) Create(ctx context.Context, category *models.Category) error {
	result, err := s.collection.InsertOne(ctx, category)
	if err != nil {
		return mapError(err)
	}
	category.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *CategoryStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var category models.Category
	if err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&category); err != nil {
		return nil, mapError(err)
	}
	return &category, nil
}

func (s *CategoryStore) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}
	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *CategoryStore) Update(ctx context.Context, category *models.Category) error {
	result, err := s.collection.ReplaceOne(ctx, bson.M{"_id": category.ID}, category)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

type AgencyStore struct {
	collection *mongo.Collection
}

func NewAgencyStore(db *MongoDB) *AgencyStore {
	return &AgencyStore{collection: db.Collection(AgenciesCollection)}
}

func (s *AgencyStore) Create(ctx context.Context, agency *models.Agency) error {
	result, err := s.collection.InsertOne(ctx, agency)
	if err != nil {
		return mapError(err)
	}
	agency.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *AgencyStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Agency, error) {
	var agency models.Agency
	if err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&agency); err != nil {
		return nil, mapError(err)
	}
	return &agency, nil
}

func (s *AgencyStore) List(ctx context.Context) ([]models.Agency, error) {
	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	agencies := []models.Agency{}
	if err := cursor.All(ctx, &agencies); err != nil {
		return nil, err
	}
	return agencies, nil
}

func (s *AgencyStore) Update(ctx context.Context, agency *models.Agency) error {
	result, err := s.collection.ReplaceOne(ctx, bson.M{"_id": agency.ID}, agency)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
