package services

import (
	"context"
	"time"

	"sayit/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store contracts consumed by the services. The Mongo implementations live in
// internal/database; lookups of missing documents return models.ErrNotFound.

type ComplaintStore interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Complaint, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*models.Complaint, error)
	ApplyChanges(ctx context.Context, id primitive.ObjectID, changes models.ComplaintChanges) error
	AppendResponse(ctx context.Context, id primitive.ObjectID, response models.Response, at time.Time) error
	AppendAttachments(ctx context.Context, id primitive.ObjectID, attachments []models.Attachment, at time.Time) error
	List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, int64, error)
	CountBy(ctx context.Context, field string, agencyID *primitive.ObjectID) (map[string]int64, error)
	NextSequence(ctx context.Context, name string) (int64, error)
}

type NotificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListUnread(ctx context.Context, recipient models.SubjectRef, now time.Time, limit int64) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipient models.SubjectRef, now time.Time) (int64, error)
	MarkRead(ctx context.Context, recipient models.SubjectRef, id primitive.ObjectID, at time.Time) error
	MarkAllRead(ctx context.Context, recipient models.SubjectRef, at time.Time) (int64, error)
	DeleteReadBefore(ctx context.Context, recipient models.SubjectRef, cutoff time.Time) (int64, error)
}

type CategoryStore interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	List(ctx context.Context, activeOnly bool) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
}

type AgencyStore interface {
	Create(ctx context.Context, agency *models.Agency) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Agency, error)
	List(ctx context.Context) ([]models.Agency, error)
	Update(ctx context.Context, agency *models.Agency) error
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, role models.UserRole, skip, limit int64) ([]models.User, int64, error)
	ListAgencyMembers(ctx context.Context, agencyID primitive.ObjectID) ([]models.User, error)
	SetActive(ctx context.Context, id primitive.ObjectID, active bool, at time.Time) error
	TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

type AnonymousUserStore interface {
	Create(ctx context.Context, anon *models.AnonymousUser) error
	GetByAccessCode(ctx context.Context, code string) (*models.AnonymousUser, error)
	Touch(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

type FeedbackStore interface {
	CreateContact(ctx context.Context, msg *models.ContactMessage) error
	ListContacts(ctx context.Context, skip, limit int64) ([]models.ContactMessage, int64, error)
	CreateFeedback(ctx context.Context, fb *models.Feedback) error
	ListFeedback(ctx context.Context, skip, limit int64) ([]models.Feedback, int64, error)
}

// NotificationPublisher pushes a stored notification to live connections.
type NotificationPublisher interface {
	Publish(ctx context.Context, notification *models.Notification) error
}
