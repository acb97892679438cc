package services

import (
	"sayit/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the caller of a complaint operation. Every dashboard goes through
// the same service methods; what an actor may see or change is decided here.
type Actor struct {
	Subject  models.SubjectRef
	Role     models.UserRole
	AgencyID *primitive.ObjectID
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == models.RoleAdmin
}

// inAgency is true for agents/staff whose agency owns the complaint.
func (a *Actor) inAgency(c *models.Complaint) bool {
	return a.Role.IsAgencyMember() && a.AgencyID != nil && c.BelongsToAgency(*a.AgencyID)
}

// CanView: admins see everything, agency members see their agency's
// complaints, citizens see what they submitted. Unassigned complaints are
// visible only to admins (and their submitter).
func (a *Actor) CanView(c *models.Complaint) bool {
	if a == nil {
		return false
	}
	if a.IsAdmin() || a.inAgency(c) {
		return true
	}
	return a.Role.IsCitizen() && c.IsSubmittedBy(a.Subject)
}

// CanManage covers status, priority, notes and agency changes.
func (a *Actor) CanManage(c *models.Complaint) bool {
	if a == nil {
		return false
	}
	return a.IsAdmin() || a.inAgency(c)
}

// CanRespond allows the handling side and the submitter to append responses.
func (a *Actor) CanRespond(c *models.Complaint) bool {
	return a.CanManage(c) || a.CanView(c)
}

// SeesInternal is true when internal notes and responses may be shown.
func (a *Actor) SeesInternal() bool {
	return a != nil && (a.IsAdmin() || a.Role.IsAgencyMember())
}

// handlesInbox reports whether the actor works the contact and feedback inbox.
func (a *Actor) handlesInbox() bool {
	return a != nil && (a.IsAdmin() || a.Role == models.RoleStaff)
}

// scope narrows a filter to what the actor may list.
func (a *Actor) scope(f *models.ComplaintFilter) {
	switch {
	case a.IsAdmin():
		// cross-agency visibility
	case a.Role.IsAgencyMember():
		f.Unassigned = false
		if a.AgencyID != nil {
			id := *a.AgencyID
			f.AgencyID = &id
		} else {
			// agent without an agency sees nothing
			f.AgencyID = &primitive.NilObjectID
		}
	default:
		subject := a.Subject
		f.Submitter = &subject
		f.Unassigned = false
	}
}

// present hides internal data from actors that may not see it.
func (a *Actor) present(c *models.Complaint) *models.Complaint {
	if a.SeesInternal() {
		return c
	}
	view := c.PublicView()
	return &view
}
