package handlers

import (
	"context"
	"net/http"
	"time"

	"sayit/internal/middleware"
	"sayit/internal/models"
	"sayit/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ComplaintAPI is the lifecycle engine and query layer as the HTTP layer
// sees them.
type ComplaintAPI interface {
	Submit(ctx context.Context, actor *services.Actor, in services.SubmitInput) (*services.Outcome, error)
	Get(ctx context.Context, actor *services.Actor, id primitive.ObjectID) (*models.Complaint, error)
	Track(ctx context.Context, trackingID string) (*models.Complaint, error)
	Update(ctx context.Context, actor *services.Actor, id primitive.ObjectID, in services.UpdateInput) (*services.Outcome, error)
	AddResponse(ctx context.Context, actor *services.Actor, id primitive.ObjectID, in services.ResponseInput) (*services.Outcome, error)
	AddAttachments(ctx context.Context, actor *services.Actor, id primitive.ObjectID, attachments []models.Attachment) (*models.Complaint, error)
	List(ctx context.Context, actor *services.Actor, q services.ListQuery) (*services.ComplaintPage, error)
	DashboardStats(ctx context.Context, actor *services.Actor, forAgency string) (*services.DashboardStats, error)
}

type ComplaintHandler struct {
	complaints ComplaintAPI
	files      FileAPI
	log        logrus.FieldLogger
}

type CreateComplaintRequest struct {
	Title          string              `json:"title" binding:"required"`
	Description    string              `json:"description" binding:"required"`
	CategoryID     string              `json:"category_id" binding:"required"`
	AgencyID       string              `json:"agency_id,omitempty"`
	Priority       string              `json:"priority,omitempty"`
	SubmissionType string              `json:"submission_type,omitempty"`
	Attachments    []models.Attachment `json:"attachments,omitempty"`
	Tags           []string            `json:"tags,omitempty"`
	DueDate        *time.Time          `json:"due_date,omitempty"`
}

// ExternalComplaintRequest comes from partner forms without an account.
type ExternalComplaintRequest struct {
	CreateComplaintRequest
	Contact models.ContactInfo `json:"contact"`
}

type UpdateComplaintRequest struct {
	Status        string     `json:"status,omitempty"`
	Priority      string     `json:"priority,omitempty"`
	InternalNotes *string    `json:"internal_notes,omitempty"`
	AgencyID      string     `json:"agency_id,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
}

type AddResponseRequest struct {
	Content     string              `json:"content" binding:"required"`
	IsPublic    *bool               `json:"is_public,omitempty"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
}

func NewComplaintHandler(complaints ComplaintAPI, files FileAPI, log logrus.FieldLogger) *ComplaintHandler {
	return &ComplaintHandler{complaints: complaints, files: files, log: log}
}

func (r CreateComplaintRequest) input() services.SubmitInput {
	return services.SubmitInput{
		Title:          r.Title,
		Description:    r.Description,
		CategoryID:     r.CategoryID,
		AgencyID:       r.AgencyID,
		Priority:       r.Priority,
		SubmissionType: r.SubmissionType,
		Tags:           r.Tags,
		DueDate:        r.DueDate,
	}
}

func (h *ComplaintHandler) Create(c *gin.Context) {
	var req CreateComplaintRequest
	if !bindJSON(c, &req) {
		return
	}
	in := req.input()
	var ok bool
	if in.Attachments, ok = h.adopt(c, req.Attachments); !ok {
		return
	}
	h.submit(c, middleware.GetActor(c), in)
}

func (h *ComplaintHandler) CreateExternal(c *gin.Context) {
	var req ExternalComplaintRequest
	if !bindJSON(c, &req) {
		return
	}
	in := req.input()
	var ok bool
	if in.Attachments, ok = h.adopt(c, req.Attachments); !ok {
		return
	}
	in.Contact = &req.Contact
	h.submit(c, nil, in)
}

// adopt swaps client-sent attachment metadata for what storage issued.
func (h *ComplaintHandler) adopt(c *gin.Context, attachments []models.Attachment) ([]models.Attachment, bool) {
	if len(attachments) == 0 {
		return nil, true
	}
	out, err := h.files.Adopt(attachments)
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	return out, true
}

func (h *ComplaintHandler) submit(c *gin.Context, actor *services.Actor, in services.SubmitInput) {
	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.complaints.Submit(ctx, actor, in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOutcome(c, http.StatusCreated, "Complaint submitted with tracking ID "+out.Complaint.TrackingID, out)
}

func (h *ComplaintHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	complaint, err := h.complaints.Get(ctx, middleware.GetActor(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, complaint)
}

// Track is public and always returns the citizen-safe view.
func (h *ComplaintHandler) Track(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	complaint, err := h.complaints.Track(ctx, c.Param("trackingId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, complaint)
}

func (h *ComplaintHandler) List(c *gin.Context) {
	q, ok := listQuery(c)
	if !ok {
		return
	}
	h.list(c, q)
}

// Unassigned is the admin routing queue.
func (h *ComplaintHandler) Unassigned(c *gin.Context) {
	q, ok := listQuery(c)
	if !ok {
		return
	}
	q.Unassigned = true
	q.AgencyID = ""
	h.list(c, q)
}

func (h *ComplaintHandler) list(c *gin.Context, q services.ListQuery) {
	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.complaints.List(ctx, middleware.GetActor(c), q)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, page.Items, page.Pagination)
}

func listQuery(c *gin.Context) (services.ListQuery, bool) {
	page, limit := pageParams(c)
	q := services.ListQuery{
		AgencyID:   c.Query("agency"),
		Unassigned: c.Query("unassigned") == "true",
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		Search:     c.Query("search"),
		Sort:       c.Query("sort"),
		Page:       page,
		Limit:      limit,
	}

	var ok bool
	if q.StartDate, ok = queryDate(c, "startDate"); !ok {
		return q, false
	}
	if q.EndDate, ok = queryDate(c, "endDate"); !ok {
		return q, false
	}
	return q, true
}

// queryDate accepts RFC 3339 or a bare date.
func queryDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	badRequest(c, name, "must be a date (YYYY-MM-DD or RFC 3339)")
	return nil, false
}

func (h *ComplaintHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateComplaintRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.complaints.Update(ctx, middleware.GetActor(c), id, services.UpdateInput{
		Status:        req.Status,
		Priority:      req.Priority,
		InternalNotes: req.InternalNotes,
		AgencyID:      req.AgencyID,
		Tags:          req.Tags,
		DueDate:       req.DueDate,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOutcome(c, http.StatusOK, "Complaint updated", out)
}

func (h *ComplaintHandler) AddResponse(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AddResponseRequest
	if !bindJSON(c, &req) {
		return
	}
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	attachments, ok := h.adopt(c, req.Attachments)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.complaints.AddResponse(ctx, middleware.GetActor(c), id, services.ResponseInput{
		Content:     req.Content,
		IsPublic:    isPublic,
		Attachments: attachments,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOutcome(c, http.StatusCreated, "Response added", out)
}

// AddAttachments uploads multipart files and appends them to the complaint.
func (h *ComplaintHandler) AddAttachments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	actor := middleware.GetActor(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	// permission check before spending an upload
	if _, err := h.complaints.Get(ctx, actor, id); err != nil {
		respondError(c, h.log, err)
		return
	}

	attachments, ok := uploadFromForm(ctx, c, h.files, h.log)
	if !ok {
		return
	}

	complaint, err := h.complaints.AddAttachments(ctx, actor, id, attachments)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusCreated, "Attachments added", complaint)
}

func (h *ComplaintHandler) DashboardStats(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	stats, err := h.complaints.DashboardStats(ctx, middleware.GetActor(c), c.Query("agencyId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, stats)
}
