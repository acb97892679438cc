package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ComplaintSort string

const (
	SortNewest       ComplaintSort = "newest"
	SortOldest       ComplaintSort = "oldest"
	SortPriorityDesc ComplaintSort = "priority-desc"
)

func (s ComplaintSort) IsValid() bool {
	return s == SortNewest || s == SortOldest || s == SortPriorityDesc
}

// ComplaintFilter is a fully scoped store query. Authorization has already
// been applied by the time one of these is built.
type ComplaintFilter struct {
	AgencyID   *primitive.ObjectID
	Unassigned bool
	Submitter  *SubjectRef
	Status     ComplaintStatus
	Priority   ComplaintPriority
	Search     string
	StartDate  *time.Time
	EndDate    *time.Time
	Sort       ComplaintSort
	Skip       int64
	Limit      int64
}

// ComplaintChanges is a partial update; nil fields are left alone.
type ComplaintChanges struct {
	Status          *ComplaintStatus
	Priority        *ComplaintPriority
	InternalNotes   *string
	AgencyID        *primitive.ObjectID
	Tags            []string
	DueDate         *time.Time
	ResolvedAt      *time.Time
	ClearResolvedAt bool
	UpdatedAt       time.Time
}
