package services

import (
	"context"
	"strings"
	"time"

	"sayit/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// ListQuery is the caller-supplied part of a complaint listing. Scope is
// added from the actor, never from the request.
type ListQuery struct {
	AgencyID   string
	Unassigned bool
	Status     string
	Priority   string
	Search     string
	StartDate  *time.Time
	EndDate    *time.Time
	Sort       string
	Page       int64
	Limit      int64
}

type Pagination struct {
	Page       int64 `json:"page"`
	Limit      int64 `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type ComplaintPage struct {
	Items      []models.Complaint
	Pagination Pagination
}

// List returns one page of complaints visible to the actor.
func (s *ComplaintService) List(ctx context.Context, actor *Actor, q ListQuery) (*ComplaintPage, error) {
	if actor == nil {
		return nil, models.ErrForbidden
	}
	filter, page, err := buildFilter(q)
	if err != nil {
		return nil, err
	}
	actor.scope(&filter)

	items, total, err := s.complaints.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]models.Complaint, 0, len(items))
	for i := range items {
		views = append(views, *s.view(actor, &items[i]))
	}

	return &ComplaintPage{
		Items: views,
		Pagination: Pagination{
			Page:       page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: totalPages(total, filter.Limit),
		},
	}, nil
}

func buildFilter(q ListQuery) (models.ComplaintFilter, int64, error) {
	f := models.ComplaintFilter{Unassigned: q.Unassigned}
	fields := map[string]string{}

	if q.AgencyID != "" {
		id, err := primitive.ObjectIDFromHex(q.AgencyID)
		if err != nil {
			fields["agency"] = "is not a valid id"
		} else {
			f.AgencyID = &id
		}
	}
	if q.Status != "" {
		status, ok := models.ParseStatus(q.Status)
		if !ok {
			fields["status"] = "is not a known status"
		}
		f.Status = status
	}
	if q.Priority != "" {
		f.Priority = models.ComplaintPriority(q.Priority)
		if !f.Priority.IsValid() {
			fields["priority"] = "must be one of: low medium high urgent"
		}
	}
	f.Sort = models.SortNewest
	if q.Sort != "" {
		f.Sort = models.ComplaintSort(q.Sort)
		if !f.Sort.IsValid() {
			fields["sort"] = "must be one of: newest oldest priority-desc"
		}
	}
	if q.StartDate != nil && q.EndDate != nil && q.EndDate.Before(*q.StartDate) {
		fields["endDate"] = "must not be before startDate"
	}
	f.StartDate = q.StartDate
	f.EndDate = q.EndDate
	f.Search = strings.TrimSpace(q.Search)

	if len(fields) > 0 {
		return f, 0, models.NewValidationError("Invalid query parameters", fields)
	}

	page, limit := normalizePage(q.Page, q.Limit)
	f.Limit = limit
	f.Skip = (page - 1) * limit

	return f, page, nil
}

func totalPages(total, limit int64) int64 {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// DashboardStats summarises the complaints an actor is responsible for.
type DashboardStats struct {
	Total      int64            `json:"total"`
	Open       int64            `json:"open"`
	ByStatus   map[string]int64 `json:"byStatus"`
	ByPriority map[string]int64 `json:"byPriority"`
}

// DashboardStats counts complaints by status and priority. Agency members
// always get their own agency; admins get everything unless forAgency is set.
func (s *ComplaintService) DashboardStats(ctx context.Context, actor *Actor, forAgency string) (*DashboardStats, error) {
	if !actor.SeesInternal() {
		return nil, models.ErrForbidden
	}
	var agencyID *primitive.ObjectID
	switch {
	case !actor.IsAdmin():
		agencyID = &primitive.NilObjectID
		if actor.AgencyID != nil {
			agencyID = actor.AgencyID
		}
	case forAgency != "":
		id, err := primitive.ObjectIDFromHex(forAgency)
		if err != nil {
			return nil, models.FieldError("agencyId", "is not a valid id")
		}
		agencyID = &id
	}

	byStatus, err := s.complaints.CountBy(ctx, "status", agencyID)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.complaints.CountBy(ctx, "priority", agencyID)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{ByStatus: map[string]int64{}, ByPriority: byPriority}
	for _, status := range models.AllStatuses() {
		stats.ByStatus[string(status)] = 0
	}
	for raw, n := range byStatus {
		// legacy documents are folded into their canonical bucket
		status, ok := models.ParseStatus(raw)
		if !ok {
			continue
		}
		stats.ByStatus[string(status)] += n
		stats.Total += n
		if status.IsOpen() {
			stats.Open += n
		}
	}
	if stats.ByPriority == nil {
		stats.ByPriority = map[string]int64{}
	}
	return stats, nil
}
