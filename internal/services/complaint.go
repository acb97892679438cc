package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sayit/internal/models"
	"sayit/internal/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ComplaintService is the complaint lifecycle engine: submission with
// category routing, status/priority/notes updates, responses and the
// per-actor query layer. Notifications are best effort; a failed dispatch is
// reported back as a warning and never undoes the complaint write.
type ComplaintService struct {
	complaints ComplaintStore
	categories CategoryStore
	agencies   AgencyStore
	users      UserStore
	notifier   Dispatcher
	log        logrus.FieldLogger
	now        func() time.Time
}

func NewComplaintService(
	complaints ComplaintStore,
	categories CategoryStore,
	agencies AgencyStore,
	users UserStore,
	notifier Dispatcher,
	log logrus.FieldLogger,
) *ComplaintService {
	return &ComplaintService{
		complaints: complaints,
		categories: categories,
		agencies:   agencies,
		users:      users,
		notifier:   notifier,
		log:        log,
		now:        time.Now,
	}
}

// Outcome is the result of a mutating operation.
type Outcome struct {
	Complaint *models.Complaint
	Warnings  []string
}

type SubmitInput struct {
	Title          string
	Description    string
	CategoryID     string
	AgencyID       string
	Priority       string
	SubmissionType string
	Attachments    []models.Attachment
	Tags           []string
	Contact        *models.ContactInfo
	DueDate        *time.Time
}

// Submit creates a complaint. actor is nil for external unauthenticated
// submissions, which must carry contact info instead.
func (s *ComplaintService) Submit(ctx context.Context, actor *Actor, in SubmitInput) (*Outcome, error) {
	fields := map[string]string{}
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if len(title) < 5 || len(title) > 200 {
		fields["title"] = "must be between 5 and 200 characters"
	}
	if len(description) < 10 || len(description) > 5000 {
		fields["description"] = "must be between 10 and 5000 characters"
	}

	priority := models.PriorityMedium
	if in.Priority != "" {
		priority = models.ComplaintPriority(in.Priority)
		if !priority.IsValid() {
			fields["priority"] = "must be one of: low medium high urgent"
		}
	}

	submissionType := models.SubmissionWeb
	if actor == nil {
		submissionType = models.SubmissionExternal
	} else if in.SubmissionType != "" {
		submissionType = models.SubmissionType(in.SubmissionType)
		if !submissionType.IsValid() {
			fields["submission_type"] = "is not a known submission type"
		}
	}

	if actor == nil {
		if in.Contact == nil || strings.TrimSpace(in.Contact.Name) == "" {
			fields["contact.name"] = "is required"
		} else if in.Contact.Email == "" && in.Contact.Phone == "" {
			fields["contact"] = "needs an email or phone number"
		}
	} else if !actor.Role.IsValid() {
		return nil, models.ErrForbidden
	}

	categoryID, err := primitive.ObjectIDFromHex(in.CategoryID)
	if err != nil {
		fields["category"] = "is required"
	}
	if len(fields) > 0 {
		return nil, models.NewValidationError("Invalid complaint data", fields)
	}

	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.FieldError("category", "does not exist")
		}
		return nil, err
	}
	if !category.IsActive {
		return nil, models.FieldError("category", "is not accepting complaints")
	}

	agencyID, err := s.resolveAgency(ctx, category, in.AgencyID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	trackingID, err := s.nextTrackingID(ctx, now)
	if err != nil {
		return nil, err
	}

	complaint := &models.Complaint{
		TrackingID:     trackingID,
		Title:          title,
		Description:    description,
		CategoryID:     category.ID,
		AgencyID:       agencyID,
		Status:         models.StatusNew,
		Priority:       priority,
		PriorityRank:   priority.Rank(),
		SubmissionType: submissionType,
		Attachments:    nonNilAttachments(in.Attachments),
		Responses:      []models.Response{},
		Tags:           normalizeTags(in.Tags),
		DueDate:        in.DueDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if agencyID != nil {
		complaint.Status = models.StatusAssigned
	}
	if actor != nil && actor.Role.IsCitizen() {
		subject := actor.Subject
		complaint.Submitter = &subject
		complaint.IsAnonymous = subject.Kind == models.SubjectAnonymous
	} else if in.Contact != nil {
		contact := *in.Contact
		complaint.Contact = &contact
	}

	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, fmt.Errorf("failed to create complaint: %w", err)
	}

	out := &Outcome{Complaint: complaint}
	if complaint.Submitter != nil {
		s.notify(ctx, out, Event{
			Kind:           EventSubmissionConfirmed,
			Recipient:      *complaint.Submitter,
			ComplaintID:    complaint.ID,
			TrackingID:     complaint.TrackingID,
			ComplaintTitle: complaint.Title,
		})
	}
	s.notifyAgency(ctx, out, complaint, EventAgencyNewComplaint, primitive.NilObjectID)

	return out, nil
}

// resolveAgency picks the explicit agency when given, else the category's
// default. A nil result leaves the complaint unassigned.
func (s *ComplaintService) resolveAgency(ctx context.Context, category *models.Category, explicit string) (*primitive.ObjectID, error) {
	if explicit != "" {
		id, err := primitive.ObjectIDFromHex(explicit)
		if err != nil {
			return nil, models.FieldError("agency", "is not a valid id")
		}
		if _, err := s.agencies.GetByID(ctx, id); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.FieldError("agency", "does not exist")
			}
			return nil, err
		}
		return &id, nil
	}
	if category.HasDefaultAgency() {
		id := *category.DefaultAgency
		return &id, nil
	}
	return nil, nil
}

func (s *ComplaintService) nextTrackingID(ctx context.Context, now time.Time) (string, error) {
	year := now.Year()
	seq, err := s.complaints.NextSequence(ctx, fmt.Sprintf("tracking-%d", year))
	if err != nil {
		return "", fmt.Errorf("failed to allocate tracking id: %w", err)
	}
	return FormatTrackingID(year, seq), nil
}

// FormatTrackingID renders SAY-<year>-<5 digit sequence>.
func FormatTrackingID(year int, seq int64) string {
	return fmt.Sprintf("SAY-%d-%05d", year, seq)
}

func (s *ComplaintService) Get(ctx context.Context, actor *Actor, id primitive.ObjectID) (*models.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanView(complaint) {
		return nil, models.ErrForbidden
	}
	return s.view(actor, complaint), nil
}

// view presents the complaint for actor and stamps its current age.
func (s *ComplaintService) view(actor *Actor, c *models.Complaint) *models.Complaint {
	v := actor.present(c)
	v.DaysOpen = v.AgeInDays(s.now())
	return v
}

// Track is the unauthenticated lookup by tracking id. Internal data is
// always stripped.
func (s *ComplaintService) Track(ctx context.Context, trackingID string) (*models.Complaint, error) {
	trackingID = utils.NormalizeCode(trackingID)
	if trackingID == "" {
		return nil, models.FieldError("trackingId", "is required")
	}
	complaint, err := s.complaints.GetByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	view := complaint.PublicView()
	view.Submitter = nil
	view.Contact = nil
	view.DaysOpen = view.AgeInDays(s.now())
	return &view, nil
}

type UpdateInput struct {
	Status        string
	Priority      string
	InternalNotes *string
	AgencyID      string
	Tags          []string
	DueDate       *time.Time
}

// Update applies a transition request. Any status may move to any other
// status; the only rule is who may do it. All checks run before the write.
func (s *ComplaintService) Update(ctx context.Context, actor *Actor, id primitive.ObjectID, in UpdateInput) (*Outcome, error) {
	changes := models.ComplaintChanges{}
	fields := map[string]string{}

	if in.Status != "" {
		status, ok := models.ParseStatus(in.Status)
		if !ok {
			fields["status"] = "is not a known status"
		} else {
			changes.Status = &status
		}
	}
	if in.Priority != "" {
		priority := models.ComplaintPriority(in.Priority)
		if !priority.IsValid() {
			fields["priority"] = "must be one of: low medium high urgent"
		} else {
			changes.Priority = &priority
		}
	}
	var newAgency *primitive.ObjectID
	if in.AgencyID != "" {
		agencyID, err := primitive.ObjectIDFromHex(in.AgencyID)
		if err != nil {
			fields["agency"] = "is not a valid id"
		} else {
			newAgency = &agencyID
		}
	}
	if len(fields) > 0 {
		return nil, models.NewValidationError("Invalid update", fields)
	}

	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(complaint) {
		return nil, models.ErrForbidden
	}

	if newAgency != nil {
		// Reassignment across agencies is an administrator capability.
		if !actor.IsAdmin() {
			return nil, models.ErrForbidden
		}
		if _, err := s.agencies.GetByID(ctx, *newAgency); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.FieldError("agency", "does not exist")
			}
			return nil, err
		}
		changes.AgencyID = newAgency
	}
	changes.InternalNotes = in.InternalNotes
	if in.Tags != nil {
		changes.Tags = normalizeTags(in.Tags)
	}
	changes.DueDate = in.DueDate

	oldStatus := complaint.Status
	if canonical, ok := models.ParseStatus(string(oldStatus)); ok {
		oldStatus = canonical
	}
	statusChanged := changes.Status != nil && *changes.Status != oldStatus
	now := s.now()
	if statusChanged {
		switch *changes.Status {
		case models.StatusResolved:
			changes.ResolvedAt = &now
		case models.StatusReopened, models.StatusNew, models.StatusAssigned, models.StatusInProgress, models.StatusPendingInfo:
			changes.ClearResolvedAt = complaint.ResolvedAt != nil
		}
	}
	changes.UpdatedAt = now

	if err := s.complaints.ApplyChanges(ctx, id, changes); err != nil {
		return nil, fmt.Errorf("failed to update complaint: %w", err)
	}

	applyChanges(complaint, changes)
	out := &Outcome{Complaint: s.view(actor, complaint)}

	if statusChanged && complaint.Submitter != nil {
		s.notify(ctx, out, Event{
			Kind:           EventStatusChanged,
			Recipient:      *complaint.Submitter,
			ComplaintID:    complaint.ID,
			TrackingID:     complaint.TrackingID,
			ComplaintTitle: complaint.Title,
			OldStatus:      oldStatus,
			NewStatus:      complaint.Status,
		})
	}

	return out, nil
}

type ResponseInput struct {
	Content     string
	IsPublic    bool
	Attachments []models.Attachment
}

// AddResponse appends a response. Public responses notify the submitter;
// internal ones never do.
func (s *ComplaintService) AddResponse(ctx context.Context, actor *Actor, id primitive.ObjectID, in ResponseInput) (*Outcome, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" || len(content) > 5000 {
		return nil, models.FieldError("content", "must be between 1 and 5000 characters")
	}

	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanRespond(complaint) {
		return nil, models.ErrForbidden
	}
	if !in.IsPublic && !actor.CanManage(complaint) {
		// citizens cannot write internal-only responses
		return nil, models.ErrForbidden
	}

	now := s.now()
	response := models.Response{
		ID:            primitive.NewObjectID(),
		Content:       content,
		Attachments:   in.Attachments,
		ResponderID:   actor.Subject.ID,
		ResponderRole: actor.Role.ResponderRole(),
		IsPublic:      in.IsPublic,
		CreatedAt:     now,
	}

	if err := s.complaints.AppendResponse(ctx, id, response, now); err != nil {
		return nil, fmt.Errorf("failed to add response: %w", err)
	}

	complaint.Responses = append(complaint.Responses, response)
	complaint.UpdatedAt = now
	out := &Outcome{Complaint: s.view(actor, complaint)}

	if !response.IsPublic {
		return out, nil
	}

	if complaint.Submitter != nil {
		event := Event{
			Recipient:      *complaint.Submitter,
			ComplaintID:    complaint.ID,
			TrackingID:     complaint.TrackingID,
			ComplaintTitle: complaint.Title,
			ResponderRole:  response.ResponderRole,
			ResponseID:     response.ID,
		}
		if complaint.IsSubmittedBy(actor.Subject) {
			event.Kind = EventUserResponseRecorded
		} else {
			event.Kind = EventResponseReceived
		}
		s.notify(ctx, out, event)
	}
	if complaint.IsSubmittedBy(actor.Subject) {
		s.notifyAgency(ctx, out, complaint, EventAgencyCitizenResponse, response.ID)
	}

	return out, nil
}

// AddAttachments links already uploaded files to a complaint.
func (s *ComplaintService) AddAttachments(ctx context.Context, actor *Actor, id primitive.ObjectID, attachments []models.Attachment) (*models.Complaint, error) {
	if len(attachments) == 0 {
		return nil, models.FieldError("files", "at least one file is required")
	}
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanRespond(complaint) {
		return nil, models.ErrForbidden
	}

	now := s.now()
	if err := s.complaints.AppendAttachments(ctx, id, attachments, now); err != nil {
		return nil, fmt.Errorf("failed to attach files: %w", err)
	}
	complaint.Attachments = append(complaint.Attachments, attachments...)
	complaint.UpdatedAt = now
	return s.view(actor, complaint), nil
}

// notify dispatches and downgrades any failure to a warning.
func (s *ComplaintService) notify(ctx context.Context, out *Outcome, event Event) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Dispatch(ctx, event); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"complaint_id": event.ComplaintID.Hex(),
			"event":        event.Kind,
		}).Warn("notification dispatch failed")
		out.Warnings = append(out.Warnings, "notification could not be delivered")
	}
}

// notifyAgency alerts every active member of the complaint's agency.
func (s *ComplaintService) notifyAgency(ctx context.Context, out *Outcome, c *models.Complaint, kind EventKind, responseID primitive.ObjectID) {
	if s.users == nil || !c.IsAssigned() {
		return
	}
	members, err := s.users.ListAgencyMembers(ctx, *c.AgencyID)
	if err != nil {
		s.log.WithError(err).WithField("agency_id", c.AgencyID.Hex()).Warn("failed to load agency members")
		return
	}
	for _, member := range members {
		s.notify(ctx, out, Event{
			Kind:           kind,
			Recipient:      models.UserRef(member.ID),
			ComplaintID:    c.ID,
			TrackingID:     c.TrackingID,
			ComplaintTitle: c.Title,
			ResponseID:     responseID,
		})
	}
}

func applyChanges(c *models.Complaint, ch models.ComplaintChanges) {
	if ch.Status != nil {
		c.Status = *ch.Status
	}
	if ch.Priority != nil {
		c.Priority = *ch.Priority
		c.PriorityRank = ch.Priority.Rank()
	}
	if ch.InternalNotes != nil {
		c.InternalNotes = *ch.InternalNotes
	}
	if ch.AgencyID != nil {
		id := *ch.AgencyID
		c.AgencyID = &id
	}
	if ch.Tags != nil {
		c.Tags = ch.Tags
	}
	if ch.DueDate != nil {
		c.DueDate = ch.DueDate
	}
	if ch.ResolvedAt != nil {
		c.ResolvedAt = ch.ResolvedAt
	}
	if ch.ClearResolvedAt {
		c.ResolvedAt = nil
	}
	c.UpdatedAt = ch.UpdatedAt
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func nonNilAttachments(a []models.Attachment) []models.Attachment {
	if a == nil {
		return []models.Attachment{}
	}
	return a
}
