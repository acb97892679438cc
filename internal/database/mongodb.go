// internal/database/mongodb.go
package database

import (
	"context"
	"fmt"
	"time"

	"sayit/internal/config"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	ComplaintsCollection     = "complaints"
	NotificationsCollection  = "notifications"
	CategoriesCollection     = "categories"
	AgenciesCollection       = "agencies"
	UsersCollection          = "users"
	AnonymousUsersCollection = "anonymous_users"
	ContactsCollection       = "contacts"
	FeedbackCollection       = "feedback"
	CountersCollection       = "counters"
)

// MongoDB is the connection handle. It is created once in main and passed to
// every store and to the health handler; nothing reads connection state from
// package globals.
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
	timeout  time.Duration
	log      logrus.FieldLogger
}

func NewMongoDB(cfg *config.Config, log logrus.FieldLogger) (*MongoDB, error) {
	timeout := time.Duration(cfg.MongoTimeout) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(100).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.WithField("database", cfg.DatabaseName).Info("connected to MongoDB")

	return &MongoDB{
		Client:   client,
		Database: client.Database(cfg.DatabaseName),
		timeout:  timeout,
		log:      log,
	}, nil
}

func (m *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	m.log.Info("disconnected from MongoDB")
	return nil
}

func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.Database.Collection(name)
}

func (m *MongoDB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.Client.Ping(ctx, readpref.Primary())
}

// Health is the database section of the detailed health report.
type Health struct {
	Connected bool   `json:"connected"`
	Database  string `json:"database"`
	LatencyMS int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

func (m *MongoDB) Health(ctx context.Context) Health {
	start := time.Now()
	err := m.Ping(ctx)
	h := Health{
		Connected: err == nil,
		Database:  m.Database.Name(),
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		h.Error = err.Error()
	}
	return h
}

// CreateIndexes creates the indexes for every collection.
// Keys use bson.D so compound index order is preserved.
func (m *MongoDB) CreateIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		ComplaintsCollection: {
			{
				Keys:    bson.D{{Key: "tracking_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				// agency queue, newest first
				Keys: bson.D{
					{Key: "agency_id", Value: 1},
					{Key: "status", Value: 1},
					{Key: "created_at", Value: -1},
				},
			},
			{
				Keys: bson.D{
					{Key: "submitter.kind", Value: 1},
					{Key: "submitter.id", Value: 1},
					{Key: "created_at", Value: -1},
				},
			},
			{
				Keys: bson.D{{Key: "priority_rank", Value: -1}, {Key: "created_at", Value: -1}},
			},
			{
				Keys: bson.D{{Key: "category_id", Value: 1}},
			},
		},
		NotificationsCollection: {
			{
				Keys: bson.D{
					{Key: "recipient.kind", Value: 1},
					{Key: "recipient.id", Value: 1},
					{Key: "is_read", Value: 1},
					{Key: "created_at", Value: -1},
				},
			},
			{
				// storage-level expiry; documents go once expires_at passes
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0),
			},
		},
		CategoriesCollection: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
			},
		},
		AgenciesCollection: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
			},
		},
		UsersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "agency_id", Value: 1}, {Key: "role", Value: 1}},
			},
		},
		AnonymousUsersCollection: {
			{
				Keys:    bson.D{{Key: "access_code", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		ContactsCollection: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		FeedbackCollection: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}

	for name, models := range indexes {
		if _, err := m.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", name, err)
		}
	}

	m.log.Info("indexes created for all collections")
	return nil
}

var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}
