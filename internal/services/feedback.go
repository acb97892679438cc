package services

import (
	"context"
	"strings"
	"time"

	"sayit/internal/models"
	"sayit/internal/utils"
	"sayit/pkg/validator"
)

// FeedbackService stores contact-form messages and satisfaction ratings.
type FeedbackService struct {
	store FeedbackStore
	now   func() time.Time
}

func NewFeedbackService(store FeedbackStore) *FeedbackService {
	return &FeedbackService{store: store, now: time.Now}
}

type ContactInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

func (s *FeedbackService) SubmitContact(ctx context.Context, in ContactInput) (*models.ContactMessage, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	if err := validator.Struct(in); err != nil {
		return nil, models.NewValidationError("Invalid contact message", validator.FieldErrors(err))
	}
	msg := &models.ContactMessage{
		Name:      in.Name,
		Email:     in.Email,
		Subject:   in.Subject,
		Message:   in.Message,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateContact(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

type FeedbackInput struct {
	Rating     int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment    string `json:"comment" validate:"max=2000"`
	TrackingID string `json:"trackingId" validate:"max=32"`
}

// SubmitFeedback records a rating. actor may be nil for unauthenticated
// visitors.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, actor *Actor, in FeedbackInput) (*models.Feedback, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validator.Struct(in); err != nil {
		return nil, models.NewValidationError("Invalid feedback", validator.FieldErrors(err))
	}
	fb := &models.Feedback{
		Rating:     in.Rating,
		Comment:    in.Comment,
		TrackingID: utils.NormalizeCode(in.TrackingID),
		CreatedAt:  s.now(),
	}
	if actor != nil {
		subject := actor.Subject
		fb.Submitter = &subject
	}
	if err := s.store.CreateFeedback(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

type ContactPage struct {
	Items      []models.ContactMessage
	Pagination Pagination
}

func (s *FeedbackService) ListContacts(ctx context.Context, actor *Actor, page, limit int64) (*ContactPage, error) {
	if !actor.handlesInbox() {
		return nil, models.ErrForbidden
	}
	page, limit = normalizePage(page, limit)
	items, total, err := s.store.ListContacts(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.ContactMessage{}
	}
	return &ContactPage{
		Items:      items,
		Pagination: Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages(total, limit)},
	}, nil
}

type FeedbackPage struct {
	Items      []models.Feedback
	Pagination Pagination
}

func (s *FeedbackService) ListFeedback(ctx context.Context, actor *Actor, page, limit int64) (*FeedbackPage, error) {
	if !actor.handlesInbox() {
		return nil, models.ErrForbidden
	}
	page, limit = normalizePage(page, limit)
	items, total, err := s.store.ListFeedback(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Feedback{}
	}
	return &FeedbackPage{
		Items:      items,
		Pagination: Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages(total, limit)},
	}, nil
}
