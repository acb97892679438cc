package handlers

import (
	"context"
	"net/http"

	"sayit/internal/middleware"
	"sayit/internal/models"
	"sayit/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type FeedbackAPI interface {
	SubmitContact(ctx context.Context, in services.ContactInput) (*models.ContactMessage, error)
	SubmitFeedback(ctx context.Context, actor *services.Actor, in services.FeedbackInput) (*models.Feedback, error)
	ListContacts(ctx context.Context, actor *services.Actor, page, limit int64) (*services.ContactPage, error)
	ListFeedback(ctx context.Context, actor *services.Actor, page, limit int64) (*services.FeedbackPage, error)
}

type FeedbackHandler struct {
	feedback FeedbackAPI
	log      logrus.FieldLogger
}

func NewFeedbackHandler(feedback FeedbackAPI, log logrus.FieldLogger) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback, log: log}
}

// SubmitContact binds without tag checks; the service validates so the
// field messages match every other entry point.
func (h *FeedbackHandler) SubmitContact(c *gin.Context) {
	var in services.ContactInput
	if !bindJSON(c, &in) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	msg, err := h.feedback.SubmitContact(ctx, in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusCreated, "Thank you for contacting us", msg)
}

func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	var in services.FeedbackInput
	if !bindJSON(c, &in) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	fb, err := h.feedback.SubmitFeedback(ctx, middleware.GetActor(c), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusCreated, "Thank you for your feedback", fb)
}

func (h *FeedbackHandler) ListContacts(c *gin.Context) {
	page, limit := pageParams(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.feedback.ListContacts(ctx, middleware.GetActor(c), page, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, out.Items, out.Pagination)
}

func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	page, limit := pageParams(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.feedback.ListFeedback(ctx, middleware.GetActor(c), page, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, out.Items, out.Pagination)
}
