package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubjectKind discriminates registered accounts from anonymous access codes.
type SubjectKind string

const (
	SubjectUser      SubjectKind = "User"
	SubjectAnonymous SubjectKind = "AnonymousUser"
)

// SubjectRef points at either a User or an AnonymousUser document.
type SubjectRef struct {
	Kind SubjectKind        `bson:"kind" json:"kind"`
	ID   primitive.ObjectID `bson:"id" json:"id"`
}

func UserRef(id primitive.ObjectID) SubjectRef {
	return SubjectRef{Kind: SubjectUser, ID: id}
}

func AnonymousRef(id primitive.ObjectID) SubjectRef {
	return SubjectRef{Kind: SubjectAnonymous, ID: id}
}

func (r SubjectRef) Equal(other SubjectRef) bool {
	return r.Kind == other.Kind && r.ID == other.ID
}

// Key is the stable string form used to address live connections.
func (r SubjectRef) Key() string {
	return string(r.Kind) + ":" + r.ID.Hex()
}

// EntityKind discriminates what a notification refers to.
type EntityKind string

const (
	EntityComplaint EntityKind = "Complaint"
	EntityResponse  EntityKind = "Response"
)

// EntityRef is resolved by the caller; the store never dereferences it.
type EntityRef struct {
	Kind EntityKind         `bson:"kind" json:"kind"`
	ID   primitive.ObjectID `bson:"id" json:"id"`
}

type NotificationType string

const (
	NotificationSystem           NotificationType = "system"
	NotificationComplaintUpdate  NotificationType = "complaint_update"
	NotificationResponseReceived NotificationType = "response_received"
	NotificationStatusChange     NotificationType = "status_change"
)

type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
)

func (p NotificationPriority) IsValid() bool {
	return p == NotificationPriorityLow || p == NotificationPriorityNormal || p == NotificationPriorityHigh
}

type NotificationAction struct {
	Label string `bson:"label" json:"label"`
	URL   string `bson:"url" json:"url"`
}

// MaxNotificationDays bounds ExpiresAt relative to CreatedAt.
const (
	MaxNotificationDays     = 90
	MaxNotificationLifetime = MaxNotificationDays * 24 * time.Hour
)

type Notification struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	Recipient SubjectRef           `bson:"recipient" json:"recipient"`
	Type      NotificationType     `bson:"type" json:"type"`
	Title     string               `bson:"title" json:"title"`
	Message   string               `bson:"message" json:"message"`
	Related   *EntityRef           `bson:"related,omitempty" json:"related,omitempty"`
	Priority  NotificationPriority `bson:"priority" json:"priority"`
	Actions   []NotificationAction `bson:"actions" json:"actions"`
	IsRead    bool                 `bson:"is_read" json:"is_read"`
	ReadAt    *time.Time           `bson:"read_at,omitempty" json:"read_at,omitempty"`
	CreatedAt time.Time            `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time            `bson:"expires_at" json:"expires_at"`
}

// ClampExpiry pulls ExpiresAt into (CreatedAt, CreatedAt+MaxNotificationLifetime].
// A zero or non-future ExpiresAt gets the maximum lifetime.
func (n *Notification) ClampExpiry() {
	limit := n.CreatedAt.Add(MaxNotificationLifetime)
	if !n.ExpiresAt.After(n.CreatedAt) || n.ExpiresAt.After(limit) {
		n.ExpiresAt = limit
	}
}

// ExpiryDays caps a requested lifetime in days to MaxNotificationDays.
func ExpiryDays(days int) int {
	return min(days, MaxNotificationDays)
}

func (n *Notification) IsExpired(now time.Time) bool {
	return !n.ExpiresAt.After(now)
}
