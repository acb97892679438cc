// internal/models/complaint.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ComplaintStatus string

const (
	StatusNew         ComplaintStatus = "new"
	StatusAssigned    ComplaintStatus = "assigned"
	StatusInProgress  ComplaintStatus = "in_progress"
	StatusPendingInfo ComplaintStatus = "pending_info"
	StatusResolved    ComplaintStatus = "resolved"
	StatusClosed      ComplaintStatus = "closed"
	StatusReopened    ComplaintStatus = "reopened"
	StatusRejected    ComplaintStatus = "rejected"
)

// Legacy values written by the older dashboard modules.
const (
	legacyStatusPending     = "pending"
	legacyStatusUnderReview = "under_review"
)

// ParseStatus normalises a status string to the canonical enumeration.
// Legacy values are mapped; anything else is rejected.
func ParseStatus(s string) (ComplaintStatus, bool) {
	switch s {
	case legacyStatusPending:
		return StatusNew, true
	case legacyStatusUnderReview:
		return StatusInProgress, true
	}
	st := ComplaintStatus(s)
	if st.IsValid() {
		return st, true
	}
	return "", false
}

func (s ComplaintStatus) IsValid() bool {
	switch s {
	case StatusNew, StatusAssigned, StatusInProgress, StatusPendingInfo,
		StatusResolved, StatusClosed, StatusReopened, StatusRejected:
		return true
	}
	return false
}

// IsOpen is false for statuses where no more work is expected.
func (s ComplaintStatus) IsOpen() bool {
	return s != StatusResolved && s != StatusClosed && s != StatusRejected
}

func AllStatuses() []ComplaintStatus {
	return []ComplaintStatus{
		StatusNew, StatusAssigned, StatusInProgress, StatusPendingInfo,
		StatusResolved, StatusClosed, StatusReopened, StatusRejected,
	}
}

type ComplaintPriority string

const (
	PriorityLow    ComplaintPriority = "low"
	PriorityMedium ComplaintPriority = "medium"
	PriorityHigh   ComplaintPriority = "high"
	PriorityUrgent ComplaintPriority = "urgent"
)

func (p ComplaintPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank is stored alongside the priority so the database can sort by it.
func (p ComplaintPriority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	default:
		return 0
	}
}

type SubmissionType string

const (
	SubmissionWeb      SubmissionType = "web"
	SubmissionMobile   SubmissionType = "mobile"
	SubmissionPhone    SubmissionType = "phone"
	SubmissionEmail    SubmissionType = "email"
	SubmissionInPerson SubmissionType = "in_person"
	SubmissionExternal SubmissionType = "external"
)

func (t SubmissionType) IsValid() bool {
	switch t {
	case SubmissionWeb, SubmissionMobile, SubmissionPhone, SubmissionEmail, SubmissionInPerson, SubmissionExternal:
		return true
	}
	return false
}

// ContactInfo is kept for external submissions that have no account.
type ContactInfo struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email,omitempty" json:"email,omitempty"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
}

type Attachment struct {
	Key         string    `bson:"key" json:"key"`
	URL         string    `bson:"url" json:"url"`
	Name        string    `bson:"name" json:"name"`
	ContentType string    `bson:"content_type" json:"content_type"`
	Size        int64     `bson:"size" json:"size"`
	UploadedAt  time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

type ResponderRole string

const (
	ResponderStaff  ResponderRole = "staff"
	ResponderAgent  ResponderRole = "agent"
	ResponderUser   ResponderRole = "user"
	ResponderSystem ResponderRole = "system"
)

type Response struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	Content       string             `bson:"content" json:"content"`
	Attachments   []Attachment       `bson:"attachments,omitempty" json:"attachments,omitempty"`
	ResponderID   primitive.ObjectID `bson:"responder_id" json:"responder_id"`
	ResponderRole ResponderRole      `bson:"responder_role" json:"responder_role"`
	IsPublic      bool               `bson:"is_public" json:"is_public"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

type Complaint struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	TrackingID  string             `bson:"tracking_id" json:"tracking_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`

	CategoryID primitive.ObjectID  `bson:"category_id" json:"category_id"`
	AgencyID   *primitive.ObjectID `bson:"agency_id,omitempty" json:"agency_id,omitempty"`

	Status         ComplaintStatus   `bson:"status" json:"status"`
	Priority       ComplaintPriority `bson:"priority" json:"priority"`
	PriorityRank   int               `bson:"priority_rank" json:"-"`
	SubmissionType SubmissionType    `bson:"submission_type" json:"submission_type"`

	// Exactly one of Submitter / Contact describes who filed it, or neither.
	Submitter   *SubjectRef  `bson:"submitter,omitempty" json:"submitter,omitempty"`
	IsAnonymous bool         `bson:"is_anonymous" json:"is_anonymous"`
	Contact     *ContactInfo `bson:"contact,omitempty" json:"contact,omitempty"`

	Attachments   []Attachment `bson:"attachments" json:"attachments"`
	Responses     []Response   `bson:"responses" json:"responses"`
	InternalNotes string       `bson:"internal_notes,omitempty" json:"internal_notes,omitempty"`
	Tags          []string     `bson:"tags" json:"tags"`

	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updated_at"`
	DueDate    *time.Time `bson:"due_date,omitempty" json:"due_date,omitempty"`
	ResolvedAt *time.Time `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`

	// DaysOpen is computed when the complaint is served, never stored.
	DaysOpen int `bson:"-" json:"days_open"`
}

func (c *Complaint) IsAssigned() bool {
	return c.AgencyID != nil && !c.AgencyID.IsZero()
}

// IsSubmittedBy reports whether the subject filed this complaint.
func (c *Complaint) IsSubmittedBy(ref SubjectRef) bool {
	return c.Submitter != nil && c.Submitter.Equal(ref)
}

func (c *Complaint) BelongsToAgency(agencyID primitive.ObjectID) bool {
	return c.IsAssigned() && *c.AgencyID == agencyID
}

// PublicView strips everything the submitter must not see.
func (c Complaint) PublicView() Complaint {
	c.InternalNotes = ""
	public := make([]Response, 0, len(c.Responses))
	for _, r := range c.Responses {
		if r.IsPublic {
			public = append(public, r)
		}
	}
	c.Responses = public
	return c
}

// AgeInDays counts whole days from creation to resolution, or to now while
// the complaint is unresolved.
func (c *Complaint) AgeInDays(now time.Time) int {
	end := now
	if c.ResolvedAt != nil {
		end = *c.ResolvedAt
	}
	if end.Before(c.CreatedAt) {
		return 0
	}
	return int(end.Sub(c.CreatedAt).Hours() / 24)
}
