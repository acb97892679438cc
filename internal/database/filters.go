package database

import (
	"regexp"

	"sayit/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

// legacyStatuses lists the stored values that predate the canonical set.
var legacyStatuses = map[models.ComplaintStatus][]string{
	models.StatusNew:        {"pending"},
	models.StatusInProgress: {"under_review"},
}

func statusCondition(s models.ComplaintStatus) interface{} {
	legacy, ok := legacyStatuses[s]
	if !ok {
		return string(s)
	}
	return bson.M{"$in": append([]string{string(s)}, legacy...)}
}

func subjectFilter(prefix string, ref models.SubjectRef) bson.M {
	return bson.M{
		prefix + ".kind": ref.Kind,
		prefix + ".id":   ref.ID,
	}
}

// buildComplaintFilter turns an already scoped ComplaintFilter into a query.
func buildComplaintFilter(f models.ComplaintFilter) bson.M {
	filter := bson.M{}

	switch {
	case f.AgencyID != nil:
		filter["agency_id"] = *f.AgencyID
	case f.Unassigned:
		// matches both null and missing
		filter["agency_id"] = nil
	}
	if f.Submitter != nil {
		for k, v := range subjectFilter("submitter", *f.Submitter) {
			filter[k] = v
		}
	}
	if f.Status != "" {
		filter["status"] = statusCondition(f.Status)
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}
	if f.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
		filter["$or"] = []bson.M{
			{"title": pattern},
			{"description": pattern},
		}
	}
	if f.StartDate != nil || f.EndDate != nil {
		created := bson.M{}
		if f.StartDate != nil {
			created["$gte"] = *f.StartDate
		}
		if f.EndDate != nil {
			created["$lte"] = *f.EndDate
		}
		filter["created_at"] = created
	}

	return filter
}

func complaintSort(s models.ComplaintSort) bson.D {
	switch s {
	case models.SortOldest:
		return bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	case models.SortPriorityDesc:
		return bson.D{{Key: "priority_rank", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	}
}
