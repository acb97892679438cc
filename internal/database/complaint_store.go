package database

import (
	"context"
	"fmt"
	"time"

	"sayit/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ComplaintStore struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

func NewComplaintStore(db *MongoDB) *ComplaintStore {
	return &ComplaintStore{
		collection: db.Collection(ComplaintsCollection),
		counters:   db.Collection(CountersCollection),
	}
}

func (s *ComplaintStore) Create(ctx context.Context, complaint *models.Complaint) error {
	result, err := s.collection.InsertOne(ctx, complaint)
	if err != nil {
		return mapError(err)
	}
	complaint.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *ComplaintStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Complaint, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *ComplaintStore) GetByTrackingID(ctx context.Context, trackingID string) (*models.Complaint, error) {
	return s.findOne(ctx, bson.M{"tracking_id": trackingID})
}

func (s *ComplaintStore) findOne(ctx context.Context, filter bson.M) (*models.Complaint, error) {
	var complaint models.Complaint
	if err := s.collection.FindOne(ctx, filter).Decode(&complaint); err != nil {
		return nil, mapError(err)
	}
	return &complaint, nil
}

// buildChangeSet splits a partial update into $set and $unset documents.
func buildChangeSet(ch models.ComplaintChanges) (bson.M, bson.M) {
	set := bson.M{"updated_at": ch.UpdatedAt}
	unset := bson.M{}

	if ch.Status != nil {
		set["status"] = *ch.Status
	}
	if ch.Priority != nil {
		set["priority"] = *ch.Priority
		set["priority_rank"] = ch.Priority.Rank()
	}
	if ch.InternalNotes != nil {
		set["internal_notes"] = *ch.InternalNotes
	}
	if ch.AgencyID != nil {
		set["agency_id"] = *ch.AgencyID
	}
	if ch.Tags != nil {
		set["tags"] = ch.Tags
	}
	if ch.DueDate != nil {
		set["due_date"] = *ch.DueDate
	}
	if ch.ResolvedAt != nil {
		set["resolved_at"] = *ch.ResolvedAt
	} else if ch.ClearResolvedAt {
		unset["resolved_at"] = ""
	}
	return set, unset
}

func (s *ComplaintStore) ApplyChanges(ctx context.Context, id primitive.ObjectID, changes models.ComplaintChanges) error {
	set, unset := buildChangeSet(changes)
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return s.updateOne(ctx, id, update)
}

func (s *ComplaintStore) AppendResponse(ctx context.Context, id primitive.ObjectID, response models.Response, at time.Time) error {
	return s.updateOne(ctx, id, bson.M{
		"$push": bson.M{"responses": response},
		"$set":  bson.M{"updated_at": at},
	})
}

func (s *ComplaintStore) AppendAttachments(ctx context.Context, id primitive.ObjectID, attachments []models.Attachment, at time.Time) error {
	return s.updateOne(ctx, id, bson.M{
		"$push": bson.M{"attachments": bson.M{"$each": attachments}},
		"$set":  bson.M{"updated_at": at},
	})
}

func (s *ComplaintStore) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *ComplaintStore) List(ctx context.Context, f models.ComplaintFilter) ([]models.Complaint, int64, error) {
	filter := buildComplaintFilter(f)

	total, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count complaints: %w", err)
	}

	opts := options.Find().
		SetSort(complaintSort(f.Sort)).
		SetSkip(f.Skip).
		SetLimit(f.Limit)

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find complaints: %w", err)
	}
	defer cursor.Close(ctx)

	complaints := []models.Complaint{}
	if err := cursor.All(ctx, &complaints); err != nil {
		return nil, 0, fmt.Errorf("decode complaints: %w", err)
	}
	return complaints, total, nil
}

// CountBy groups complaints by a top-level field, optionally within one
// agency.
func (s *ComplaintStore) CountBy(ctx context.Context, field string, agencyID *primitive.ObjectID) (map[string]int64, error) {
	match := bson.M{}
	if agencyID != nil {
		match["agency_id"] = *agencyID
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate by %s: %w", field, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Value string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode %s counts: %w", field, err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Value] = row.Count
	}
	return out, nil
}

// NextSequence atomically increments a named counter and returns the new
// value, starting at 1.
func (s *ComplaintStore) NextSequence(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, mapError(err)
	}
	return counter.Seq, nil
}

// MigrationResult counts documents touched by MigrateLegacy.
type MigrationResult struct {
	Statuses int64
	Ranks    int64
}

// MigrateLegacy rewrites legacy status values to their canonical form and
// backfills priority_rank on documents written before it existed.
func (s *ComplaintStore) MigrateLegacy(ctx context.Context) (MigrationResult, error) {
	var res MigrationResult
	for canonical, legacy := range legacyStatuses {
		r, err := s.collection.UpdateMany(ctx,
			bson.M{"status": bson.M{"$in": legacy}},
			bson.M{"$set": bson.M{"status": canonical}},
		)
		if err != nil {
			return res, fmt.Errorf("migrate %v to %s: %w", legacy, canonical, err)
		}
		res.Statuses += r.ModifiedCount
	}

	r, err := s.collection.UpdateMany(ctx,
		bson.M{"priority_rank": bson.M{"$exists": false}},
		mongo.Pipeline{{{Key: "$set", Value: bson.D{{Key: "priority_rank", Value: priorityRankExpr()}}}}},
	)
	if err != nil {
		return res, fmt.Errorf("backfill priority_rank: %w", err)
	}
	res.Ranks = r.ModifiedCount
	return res, nil
}

// priorityRankExpr computes ComplaintPriority.Rank inside an update pipeline.
func priorityRankExpr() bson.D {
	priorities := []models.ComplaintPriority{
		models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent,
	}
	branches := make(bson.A, 0, len(priorities))
	for _, p := range priorities {
		branches = append(branches, bson.D{
			{Key: "case", Value: bson.D{{Key: "$eq", Value: bson.A{"$priority", string(p)}}}},
			{Key: "then", Value: p.Rank()},
		})
	}
	return bson.D{{Key: "$switch", Value: bson.D{
		{Key: "branches", Value: branches},
		{Key: "default", Value: 0},
	}}}
}
