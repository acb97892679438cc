package handlers

import (
	"context"
	"net/http"
	"strconv"

	"sayit/internal/middleware"
	"sayit/internal/models"
	"sayit/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationAPI interface {
	Dispatch(ctx context.Context, event services.Event) (*models.Notification, error)
	FindUnread(ctx context.Context, recipient models.SubjectRef) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipient models.SubjectRef) (int64, error)
	MarkRead(ctx context.Context, recipient models.SubjectRef, id primitive.ObjectID) error
	MarkAllRead(ctx context.Context, recipient models.SubjectRef) (int64, error)
	PurgeOldRead(ctx context.Context, recipient models.SubjectRef, daysOld int) (int64, error)
}

type NotificationHandler struct {
	notifications NotificationAPI
	retentionDays int
	log           logrus.FieldLogger
}

type SystemMessageRequest struct {
	RecipientID   string                      `json:"recipient_id" binding:"required"`
	RecipientKind string                      `json:"recipient_kind,omitempty"`
	Title         string                      `json:"title" binding:"required,max=200"`
	Message       string                      `json:"message" binding:"required,max=2000"`
	Priority      string                      `json:"priority,omitempty"`
	Actions       []models.NotificationAction `json:"actions,omitempty"`
	ExpiryDays    int                         `json:"expiry_days,omitempty" binding:"omitempty,min=1,max=90"`
}

// NewNotificationHandler: retentionDays is the purge age used when the
// caller gives none.
func NewNotificationHandler(notifications NotificationAPI, retentionDays int, log logrus.FieldLogger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, retentionDays: retentionDays, log: log}
}

func (h *NotificationHandler) Unread(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	items, err := h.notifications.FindUnread(ctx, middleware.GetActor(c).Subject)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, items)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	count, err := h.notifications.CountUnread(ctx, middleware.GetActor(c).Subject)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"count": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.notifications.MarkRead(ctx, middleware.GetActor(c).Subject, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusOK, "Notification marked as read", nil)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	n, err := h.notifications.MarkAllRead(ctx, middleware.GetActor(c).Subject)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": n})
}

func (h *NotificationHandler) Purge(c *gin.Context) {
	days := h.retentionDays
	if raw := c.Query("daysOld"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "daysOld", "must be a whole number of days")
			return
		}
		days = parsed
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	n, err := h.notifications.PurgeOldRead(ctx, middleware.GetActor(c).Subject, days)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusOK, "Old notifications removed", gin.H{"deleted": n})
}

// SendSystemMessage lets an administrator address one recipient directly.
func (h *NotificationHandler) SendSystemMessage(c *gin.Context) {
	var req SystemMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	id, err := primitive.ObjectIDFromHex(req.RecipientID)
	if err != nil {
		badRequest(c, "recipient_id", "is not a valid id")
		return
	}
	recipient := models.UserRef(id)
	switch models.SubjectKind(req.RecipientKind) {
	case "", models.SubjectUser:
	case models.SubjectAnonymous:
		recipient = models.AnonymousRef(id)
	default:
		badRequest(c, "recipient_kind", "must be User or AnonymousUser")
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	n, err := h.notifications.Dispatch(ctx, services.Event{
		Kind:       services.EventSystemMessage,
		Recipient:  recipient,
		Title:      req.Title,
		Message:    req.Message,
		Priority:   models.NotificationPriority(req.Priority),
		Actions:    req.Actions,
		ExpiryDays: req.ExpiryDays,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusCreated, "Notification sent", n)
}
