package services

import (
	"context"
	"fmt"
	"time"

	"sayit/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventKind string

const (
	EventSubmissionConfirmed   EventKind = "submission_confirmed"
	EventStatusChanged         EventKind = "status_changed"
	EventResponseReceived      EventKind = "response_received"
	EventUserResponseRecorded  EventKind = "user_response_recorded"
	EventAgencyNewComplaint    EventKind = "agency_new_complaint"
	EventAgencyCitizenResponse EventKind = "agency_citizen_response"
	EventSystemMessage         EventKind = "system_message"
)

// Event is a lifecycle event addressed to one recipient.
type Event struct {
	Kind      EventKind
	Recipient models.SubjectRef

	ComplaintID    primitive.ObjectID
	TrackingID     string
	ComplaintTitle string
	OldStatus      models.ComplaintStatus
	NewStatus      models.ComplaintStatus
	ResponderRole  models.ResponderRole
	ResponseID     primitive.ObjectID

	// SystemMessage only
	Title      string
	Message    string
	Priority   models.NotificationPriority
	Actions    []models.NotificationAction
	ExpiryDays int
}

// Dispatcher is what the lifecycle engine needs from notifications.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) (*models.Notification, error)
}

const defaultSystemExpiryDays = 30

type NotificationService struct {
	store     NotificationStore
	publisher NotificationPublisher
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewNotificationService(store NotificationStore, publisher NotificationPublisher, log logrus.FieldLogger) *NotificationService {
	return &NotificationService{
		store:     store,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Dispatch renders the event through its template, stores exactly one
// notification and pushes it to live connections.
func (ns *NotificationService) Dispatch(ctx context.Context, event Event) (*models.Notification, error) {
	if event.Recipient.ID.IsZero() {
		return nil, models.FieldError("recipient", "is required")
	}

	var rendered renderedNotification
	if event.Kind == EventSystemMessage {
		if fields := missingSystemFields(event); len(fields) > 0 {
			return nil, models.NewValidationError("Invalid system message", fields)
		}
		rendered = renderSystemMessage(event)
	} else {
		tpl, ok := eventTemplates[event.Kind]
		if !ok {
			return nil, fmt.Errorf("no notification template for event %q", event.Kind)
		}
		rendered = tpl(event)
	}

	now := ns.now()
	notification := &models.Notification{
		Recipient: event.Recipient,
		Type:      rendered.Type,
		Title:     rendered.Title,
		Message:   rendered.Message,
		Related:   relatedEntity(event),
		Priority:  rendered.Priority,
		Actions:   rendered.Actions,
		CreatedAt: now,
		ExpiresAt: now.AddDate(0, 0, models.ExpiryDays(rendered.ExpiryDays)),
	}
	if notification.Actions == nil {
		notification.Actions = []models.NotificationAction{}
	}

	if err := ns.persist(ctx, notification); err != nil {
		return nil, err
	}

	if ns.publisher != nil {
		if err := ns.publisher.Publish(ctx, notification); err != nil {
			ns.log.WithError(err).WithField("notification_id", notification.ID.Hex()).
				Warn("live notification push failed")
		}
	}

	return notification, nil
}

// persist is the single write path; the expiry clamp lives here so no
// template or caller can exceed the maximum lifetime.
func (ns *NotificationService) persist(ctx context.Context, n *models.Notification) error {
	n.ClampExpiry()
	if err := ns.store.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

const unreadListLimit = 100

func (ns *NotificationService) FindUnread(ctx context.Context, recipient models.SubjectRef) ([]models.Notification, error) {
	items, err := ns.store.ListUnread(ctx, recipient, ns.now(), unreadListLimit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, nil
}

func (ns *NotificationService) CountUnread(ctx context.Context, recipient models.SubjectRef) (int64, error) {
	return ns.store.CountUnread(ctx, recipient, ns.now())
}

func (ns *NotificationService) MarkRead(ctx context.Context, recipient models.SubjectRef, id primitive.ObjectID) error {
	return ns.store.MarkRead(ctx, recipient, id, ns.now())
}

func (ns *NotificationService) MarkAllRead(ctx context.Context, recipient models.SubjectRef) (int64, error) {
	return ns.store.MarkAllRead(ctx, recipient, ns.now())
}

// PurgeOldRead deletes the recipient's read notifications older than daysOld.
func (ns *NotificationService) PurgeOldRead(ctx context.Context, recipient models.SubjectRef, daysOld int) (int64, error) {
	if daysOld < 1 {
		return 0, models.FieldError("daysOld", "must be at least 1")
	}
	cutoff := ns.now().AddDate(0, 0, -daysOld)
	return ns.store.DeleteReadBefore(ctx, recipient, cutoff)
}

func relatedEntity(e Event) *models.EntityRef {
	switch {
	case !e.ResponseID.IsZero():
		return &models.EntityRef{Kind: models.EntityResponse, ID: e.ResponseID}
	case !e.ComplaintID.IsZero():
		return &models.EntityRef{Kind: models.EntityComplaint, ID: e.ComplaintID}
	}
	return nil
}

func missingSystemFields(e Event) map[string]string {
	fields := map[string]string{}
	if e.Title == "" {
		fields["title"] = "is required"
	}
	if e.Message == "" {
		fields["message"] = "is required"
	}
	return fields
}

func renderSystemMessage(e Event) renderedNotification {
	priority := e.Priority
	if !priority.IsValid() {
		priority = models.NotificationPriorityNormal
	}
	days := e.ExpiryDays
	if days <= 0 {
		days = defaultSystemExpiryDays
	}
	return renderedNotification{
		Type:       models.NotificationSystem,
		Title:      e.Title,
		Message:    e.Message,
		Priority:   priority,
		Actions:    e.Actions,
		ExpiryDays: days,
	}
}
