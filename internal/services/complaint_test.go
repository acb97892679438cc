package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"sayit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type complaintFixture struct {
	svc           *ComplaintService
	complaints    *memComplaints
	categories    *memCategories
	agencies      *memAgencies
	users         *memUsers
	notifications *memNotifications
	clock         time.Time

	agency   models.Agency
	category models.Category
	orphan   models.Category
}

func newComplaintFixture(t *testing.T) *complaintFixture {
	t.Helper()
	f := &complaintFixture{
		complaints:    newMemComplaints(),
		categories:    newMemCategories(),
		agencies:      newMemAgencies(),
		users:         newMemUsers(),
		notifications: &memNotifications{},
		clock:         time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	ctx := context.Background()

	f.agency = models.Agency{Name: "Public Works", IsActive: true}
	require.NoError(t, f.agencies.Create(ctx, &f.agency))

	f.category = models.Category{Name: "Roads", DefaultAgency: &f.agency.ID, IsActive: true}
	require.NoError(t, f.categories.Create(ctx, &f.category))
	f.orphan = models.Category{Name: "Other", IsActive: true}
	require.NoError(t, f.categories.Create(ctx, &f.orphan))

	notifier := NewNotificationService(f.notifications, nil, quietLogger())
	notifier.now = func() time.Time { return f.clock }

	f.svc = NewComplaintService(f.complaints, f.categories, f.agencies, f.users, notifier, quietLogger())
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *complaintFixture) tick() {
	f.clock = f.clock.Add(time.Minute)
}

func citizen() *Actor {
	return &Actor{Subject: models.UserRef(primitive.NewObjectID()), Role: models.RoleStandardUser}
}

func anonymous() *Actor {
	return &Actor{Subject: models.AnonymousRef(primitive.NewObjectID()), Role: models.RoleAnonymousUser}
}

func agentOf(agencyID primitive.ObjectID) *Actor {
	id := agencyID
	return &Actor{Subject: models.UserRef(primitive.NewObjectID()), Role: models.RoleAgent, AgencyID: &id}
}

func admin() *Actor {
	return &Actor{Subject: models.UserRef(primitive.NewObjectID()), Role: models.RoleAdmin}
}

func (f *complaintFixture) submit(t *testing.T, actor *Actor, category models.Category) *models.Complaint {
	t.Helper()
	out, err := f.svc.Submit(context.Background(), actor, SubmitInput{
		Title:       "Pothole on Elm Street",
		Description: "Large pothole near the school crossing.",
		CategoryID:  category.ID.Hex(),
	})
	require.NoError(t, err)
	require.Empty(t, out.Warnings)
	return out.Complaint
}

func TestSubmit_RoutesToCategoryDefaultAgency(t *testing.T) {
	f := newComplaintFixture(t)

	registered := f.submit(t, citizen(), f.category)
	anon := f.submit(t, anonymous(), f.category)

	require.NotNil(t, registered.AgencyID)
	require.NotNil(t, anon.AgencyID)
	assert.Equal(t, f.agency.ID, *registered.AgencyID)
	assert.Equal(t, *registered.AgencyID, *anon.AgencyID)
	assert.Equal(t, models.StatusAssigned, registered.Status)
	assert.False(t, registered.IsAnonymous)
	assert.True(t, anon.IsAnonymous)
}

func TestSubmit_WithoutDefaultAgencyStaysUnassigned(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()

	c := f.submit(t, citizen(), f.orphan)
	assert.Nil(t, c.AgencyID)
	assert.Equal(t, models.StatusNew, c.Status)

	agentPage, err := f.svc.List(ctx, agentOf(f.agency.ID), ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, agentPage.Items)

	adminPage, err := f.svc.List(ctx, admin(), ListQuery{Unassigned: true})
	require.NoError(t, err)
	require.Len(t, adminPage.Items, 1)
	assert.Equal(t, c.ID, adminPage.Items[0].ID)
}

func TestSubmit_ExplicitAgencyOverridesDefault(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	other := models.Agency{Name: "Water Board", IsActive: true}
	require.NoError(t, f.agencies.Create(ctx, &other))

	out, err := f.svc.Submit(ctx, citizen(), SubmitInput{
		Title:       "Burst main",
		Description: "Water flooding the road since morning.",
		CategoryID:  f.category.ID.Hex(),
		AgencyID:    other.ID.Hex(),
	})
	require.NoError(t, err)
	assert.Equal(t, other.ID, *out.Complaint.AgencyID)
}

func TestSubmit_TrackingIDsAreSequentialPerYear(t *testing.T) {
	f := newComplaintFixture(t)

	first := f.submit(t, citizen(), f.category)
	second := f.submit(t, citizen(), f.category)

	assert.Equal(t, "SAY-2024-00001", first.TrackingID)
	assert.Equal(t, "SAY-2024-00002", second.TrackingID)
	assert.Equal(t, "SAY-2023-00042", FormatTrackingID(2023, 42))
}

func TestSubmit_NotifiesSubmitterAndAgency(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	member := models.User{Email: "agent@pw.gov", Role: models.RoleAgent, AgencyID: &f.agency.ID, IsActive: true}
	require.NoError(t, f.users.Create(ctx, &member))

	actor := anonymous()
	c := f.submit(t, actor, f.category)

	mine := f.notifications.forRecipient(actor.Subject)
	require.Len(t, mine, 1)
	assert.Equal(t, "Complaint Submitted", mine[0].Title)
	assert.Contains(t, mine[0].Message, c.TrackingID)

	theirs := f.notifications.forRecipient(models.UserRef(member.ID))
	require.Len(t, theirs, 1)
	assert.Equal(t, "New Complaint Received", theirs[0].Title)
}

func TestSubmit_External(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, nil, SubmitInput{
		Title:       "Noise complaint",
		Description: "Construction running past midnight every day.",
		CategoryID:  f.category.ID.Hex(),
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "contact.name")

	out, err := f.svc.Submit(ctx, nil, SubmitInput{
		Title:       "Noise complaint",
		Description: "Construction running past midnight every day.",
		CategoryID:  f.category.ID.Hex(),
		Contact:     &models.ContactInfo{Name: "Ada", Email: "ada@example.com"},
	})
	require.NoError(t, err)
	assert.Nil(t, out.Complaint.Submitter)
	assert.Equal(t, models.SubmissionExternal, out.Complaint.SubmissionType)
	assert.Equal(t, "Ada", out.Complaint.Contact.Name)
}

func TestSubmit_Validation(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, citizen(), SubmitInput{Title: "x", Description: "short", Priority: "extreme"})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "description")
	assert.Contains(t, verr.Fields, "priority")
	assert.Contains(t, verr.Fields, "category")

	_, err = f.svc.Submit(ctx, citizen(), SubmitInput{
		Title:       "Valid title",
		Description: "Valid description here.",
		CategoryID:  primitive.NewObjectID().Hex(),
	})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "category")
	assert.Equal(t, 0, f.complaints.writes)
}

func TestSubmit_NotificationFailureIsAWarning(t *testing.T) {
	f := newComplaintFixture(t)
	dispatcher := &failingDispatcher{}
	f.svc.notifier = dispatcher

	out, err := f.svc.Submit(context.Background(), citizen(), SubmitInput{
		Title:       "Graffiti on wall",
		Description: "Fresh graffiti on the library wall.",
		CategoryID:  f.category.ID.Hex(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, dispatcher.calls)
	assert.NotEmpty(t, out.Warnings)

	stored, err := f.complaints.GetByID(context.Background(), out.Complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, out.Complaint.TrackingID, stored.TrackingID)
}

func TestUpdate_StatusChangeNotifiesSubmitterOnce(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	submitter := citizen()
	c := f.submit(t, submitter, f.category)
	before := len(f.notifications.forRecipient(submitter.Subject))

	f.tick()
	out, err := f.svc.Update(ctx, agentOf(f.agency.ID), c.ID, UpdateInput{Status: string(models.StatusInProgress)})
	require.NoError(t, err)
	assert.Empty(t, out.Warnings)

	stored, err := f.complaints.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, stored.Status)
	assert.True(t, stored.UpdatedAt.After(c.UpdatedAt))

	after := f.notifications.forRecipient(submitter.Subject)
	require.Len(t, after, before+1)
	assert.Equal(t, models.NotificationStatusChange, after[len(after)-1].Type)
}

func TestUpdate_EveryStatusReachableFromEveryStatus(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	c := f.submit(t, citizen(), f.category)
	agent := agentOf(f.agency.ID)

	for _, from := range models.AllStatuses() {
		for _, to := range models.AllStatuses() {
			_, err := f.svc.Update(ctx, agent, c.ID, UpdateInput{Status: string(from)})
			require.NoError(t, err)
			_, err = f.svc.Update(ctx, agent, c.ID, UpdateInput{Status: string(to)})
			require.NoError(t, err, "%s -> %s", from, to)
		}
	}
}

func TestUpdate_SameStatusDoesNotNotify(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	submitter := citizen()
	c := f.submit(t, submitter, f.category)
	before := len(f.notifications.forRecipient(submitter.Subject))

	f.tick()
	out, err := f.svc.Update(ctx, agentOf(f.agency.ID), c.ID, UpdateInput{Status: string(c.Status)})
	require.NoError(t, err)
	assert.True(t, out.Complaint.UpdatedAt.After(c.UpdatedAt))
	assert.Len(t, f.notifications.forRecipient(submitter.Subject), before)
}

func TestUpdate_PriorityAndNotesNeverNotify(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	submitter := citizen()
	c := f.submit(t, submitter, f.category)
	before := len(f.notifications.forRecipient(submitter.Subject))
	notes := "caller is a repeat reporter"

	out, err := f.svc.Update(ctx, agentOf(f.agency.ID), c.ID, UpdateInput{
		Priority:      string(models.PriorityUrgent),
		InternalNotes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityUrgent, out.Complaint.Priority)
	assert.Equal(t, 4, out.Complaint.PriorityRank)
	assert.Len(t, f.notifications.forRecipient(submitter.Subject), before)

	seen, err := f.svc.Get(ctx, submitter, c.ID)
	require.NoError(t, err)
	assert.Empty(t, seen.InternalNotes)
}

func TestUpdate_ForbiddenLeavesComplaintUnchanged(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	submitter := citizen()
	c := f.submit(t, submitter, f.category)
	writes := f.complaints.writes

	outsider := models.Agency{Name: "Parks", IsActive: true}
	require.NoError(t, f.agencies.Create(ctx, &outsider))

	for name, actor := range map[string]*Actor{
		"standard user":    submitter,
		"anonymous user":   anonymous(),
		"other agency":     agentOf(outsider.ID),
		"agent, no agency": {Subject: models.UserRef(primitive.NewObjectID()), Role: models.RoleAgent},
	} {
		_, err := f.svc.Update(ctx, actor, c.ID, UpdateInput{Status: string(models.StatusResolved)})
		assert.ErrorIs(t, err, models.ErrForbidden, name)
	}

	stored, err := f.complaints.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Status, stored.Status)
	assert.Equal(t, c.UpdatedAt, stored.UpdatedAt)
	assert.Equal(t, writes, f.complaints.writes)
}

func TestUpdate_NotFound(t *testing.T) {
	f := newComplaintFixture(t)

	_, err := f.svc.Update(context.Background(), admin(), primitive.NewObjectID(), UpdateInput{Status: "closed"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdate_InvalidStatusIsValidationError(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.submit(t, citizen(), f.category)

	_, err := f.svc.Update(context.Background(), admin(), c.ID, UpdateInput{Status: "teleported"})
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdate_LegacyStatusIsMapped(t *testing.T) {
	f := newComplaintFixture(t)
	c := f.submit(t, citizen(), f.category)

	out, err := f.svc.Update(context.Background(), admin(), c.ID, UpdateInput{Status: "under_review"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, out.Complaint.Status)
}

func TestUpdate_StoredLegacyStatusComparesCanonically(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	submitter := citizen()
	c := f.submit(t, submitter, f.orphan)

	f.complaints.mu.Lock()
	f.complaints.items[c.ID].Status = "pending"
	f.complaints.mu.Unlock()
	before := len(f.notifications.forRecipient(submitter.Subject))

	out, err := f.svc.Update(ctx, admin(), c.ID, UpdateInput{Status: string(models.StatusNew)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, out.Complaint.Status)
	assert.Len(t, f.notifications.forRecipient(submitter.Subject), before)

	stored, err := f.complaints.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, stored.Status)
}

func TestUpdate_ConcurrentStatusChangesLastWriteWins(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	targets := []models.ComplaintStatus{models.StatusInProgress, models.StatusResolved}

	for round := 0; round < 20; round++ {
		submitter := citizen()
		c := f.submit(t, submitter, f.category)
		before := len(f.notifications.forRecipient(submitter.Subject))

		var wg sync.WaitGroup
		errs := make([]error, len(targets))
		for i, status := range targets {
			wg.Add(1)
			go func(i int, status models.ComplaintStatus) {
				defer wg.Done()
				_, errs[i] = f.svc.Update(ctx, agentOf(f.agency.ID), c.ID, UpdateInput{Status: string(status)})
			}(i, status)
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}
		stored, err := f.complaints.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Contains(t, targets, stored.Status)

		// both writes moved the status away from what each one read
		assert.Len(t, f.notifications.forRecipient(submitter.Subject), before+len(targets))
	}
}

func TestUpdate_ResolvedAtFollowsStatus(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	c := f.submit(t, citizen(), f.category)
	agent := agentOf(f.agency.ID)

	f.tick()
	out, err := f.svc.Update(ctx, agent, c.ID, UpdateInput{Status: string(models.StatusResolved)})
	require.NoError(t, err)
	require.NotNil(t, out.Complaint.ResolvedAt)
	assert.Equal(t, f.clock, *out.Complaint.ResolvedAt)

	out, err = f.svc.Update(ctx, agent, c.ID, UpdateInput{Status: string(models.StatusReopened)})
	require.NoError(t, err)
	assert.Nil(t, out.Complaint.ResolvedAt)
}

func TestUpdate_ReassignmentIsAdminOnly(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	c := f.submit(t, citizen(), f.orphan)
	target := f.agency.ID.Hex()

	_, err := f.svc.Update(ctx, agentOf(f.agency.ID), c.ID, UpdateInput{AgencyID: target})
	assert.ErrorIs(t, err, models.ErrForbidden)

	out, err := f.svc.Update(ctx, admin(), c.ID, UpdateInput{AgencyID: target})
	require.NoError(t, err)
	assert.Equal(t, f.agency.ID, *out.Complaint.AgencyID)

	_, err = f.svc.Update(ctx, admin(), c.ID, UpdateInput{AgencyID: primitive.NewObjectID().Hex()})
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestAddResponse_PublicNotifiesInternalDoesNot(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	submitter := anonymous()
	c := f.submit(t, submitter, f.category)
	agent := agentOf(f.agency.ID)
	base := len(f.notifications.forRecipient(submitter.Subject))

	_, err := f.svc.AddResponse(ctx, agent, c.ID, ResponseInput{Content: "Checked with the crew.", IsPublic: false})
	require.NoError(t, err)
	assert.Len(t, f.notifications.forRecipient(submitter.Subject), base)

	_, err = f.svc.AddResponse(ctx, agent, c.ID, ResponseInput{Content: "A crew is scheduled for Monday.", IsPublic: true})
	require.NoError(t, err)
	got := f.notifications.forRecipient(submitter.Subject)
	require.Len(t, got, base+1)
	assert.Equal(t, models.NotificationResponseReceived, got[len(got)-1].Type)
	require.NotNil(t, got[len(got)-1].Related)
	assert.Equal(t, models.EntityResponse, got[len(got)-1].Related.Kind)

	view, err := f.svc.Get(ctx, submitter, c.ID)
	require.NoError(t, err)
	require.Len(t, view.Responses, 1)
	assert.True(t, view.Responses[0].IsPublic)
	assert.Equal(t, models.ResponderAgent, view.Responses[0].ResponderRole)

	full, err := f.svc.Get(ctx, agent, c.ID)
	require.NoError(t, err)
	assert.Len(t, full.Responses, 2)
}

func TestAddResponse_BySubmitter(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	member := models.User{Email: "staff@pw.gov", Role: models.RoleStaff, AgencyID: &f.agency.ID, IsActive: true}
	require.NoError(t, f.users.Create(ctx, &member))
	submitter := citizen()
	c := f.submit(t, submitter, f.category)

	_, err := f.svc.AddResponse(ctx, submitter, c.ID, ResponseInput{Content: "Internal?", IsPublic: false})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.svc.AddResponse(ctx, submitter, c.ID, ResponseInput{Content: "It got worse after the rain.", IsPublic: true})
	require.NoError(t, err)

	mine := f.notifications.forRecipient(submitter.Subject)
	assert.Equal(t, "Response Recorded", mine[len(mine)-1].Title)

	staff := f.notifications.forRecipient(models.UserRef(member.ID))
	require.NotEmpty(t, staff)
	assert.Equal(t, "Citizen Replied", staff[len(staff)-1].Title)
}

func TestAddResponse_Errors(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	c := f.submit(t, citizen(), f.category)

	_, err := f.svc.AddResponse(ctx, admin(), primitive.NewObjectID(), ResponseInput{Content: "hello", IsPublic: true})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.svc.AddResponse(ctx, citizen(), c.ID, ResponseInput{Content: "not mine", IsPublic: true})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.svc.AddResponse(ctx, admin(), c.ID, ResponseInput{Content: "   ", IsPublic: true})
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestAddAttachments(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	submitter := citizen()
	c := f.submit(t, submitter, f.category)

	out, err := f.svc.AddAttachments(ctx, submitter, c.ID, []models.Attachment{{Key: "k1", Name: "photo.jpg"}})
	require.NoError(t, err)
	assert.Len(t, out.Attachments, 1)

	_, err = f.svc.AddAttachments(ctx, citizen(), c.ID, []models.Attachment{{Key: "k2"}})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestTrack(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	c := f.submit(t, citizen(), f.category)
	notes := "do not disclose"
	_, err := f.svc.Update(ctx, admin(), c.ID, UpdateInput{InternalNotes: &notes})
	require.NoError(t, err)

	got, err := f.svc.Track(ctx, " say-2024-00001 ")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Empty(t, got.InternalNotes)
	assert.Nil(t, got.Submitter)

	_, err = f.svc.Track(ctx, "SAY-2023-00001")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGet_Visibility(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	submitter := citizen()
	c := f.submit(t, submitter, f.category)

	_, err := f.svc.Get(ctx, submitter, c.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, agentOf(f.agency.ID), c.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, admin(), c.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, citizen(), c.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = f.svc.Get(ctx, agentOf(primitive.NewObjectID()), c.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestList_Pagination(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		f.tick()
		f.submit(t, citizen(), f.category)
	}

	page, err := f.svc.List(ctx, agentOf(f.agency.ID), ListQuery{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, int64(3), page.Pagination.TotalPages)
	assert.Equal(t, int64(25), page.Pagination.Total)
	assert.Equal(t, int64(3), page.Pagination.Page)

	page, err = f.svc.List(ctx, admin(), ListQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, int64(maxPageLimit), page.Pagination.Limit)
	assert.Equal(t, int64(1), page.Pagination.Page)
}

func TestList_HugePageIsEmptyNotAnError(t *testing.T) {
	q := ListQuery{Page: math.MaxInt64 / 5, Limit: 10}
	filter, _, err := buildFilter(q)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, filter.Skip, int64(0))

	f := newComplaintFixture(t)
	f.submit(t, citizen(), f.category)
	page, err := f.svc.List(context.Background(), admin(), q)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(1), page.Pagination.Total)
}

func TestGet_ReportsDaysOpen(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	submitter := citizen()
	c := f.submit(t, submitter, f.category)

	f.clock = f.clock.Add(72 * time.Hour)
	got, err := f.svc.Get(ctx, submitter, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.DaysOpen)

	tracked, err := f.svc.Track(ctx, c.TrackingID)
	require.NoError(t, err)
	assert.Equal(t, 3, tracked.DaysOpen)

	_, err = f.svc.Update(ctx, agentOf(f.agency.ID), c.ID, UpdateInput{Status: string(models.StatusResolved)})
	require.NoError(t, err)
	f.clock = f.clock.Add(240 * time.Hour)
	page, err := f.svc.List(ctx, admin(), ListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 3, page.Items[0].DaysOpen)
}

func TestList_ScopedPerActor(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	other := models.Agency{Name: "Sanitation", IsActive: true}
	require.NoError(t, f.agencies.Create(ctx, &other))
	otherCategory := models.Category{Name: "Waste", DefaultAgency: &other.ID, IsActive: true}
	require.NoError(t, f.categories.Create(ctx, &otherCategory))

	me := citizen()
	f.submit(t, me, f.category)
	f.submit(t, citizen(), f.category)
	f.submit(t, citizen(), otherCategory)

	mine, err := f.svc.List(ctx, me, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 1)

	// an agent asking for another agency still only sees their own
	scoped, err := f.svc.List(ctx, agentOf(f.agency.ID), ListQuery{AgencyID: other.ID.Hex()})
	require.NoError(t, err)
	assert.Len(t, scoped.Items, 2)

	all, err := f.svc.List(ctx, admin(), ListQuery{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)

	byAgency, err := f.svc.List(ctx, admin(), ListQuery{AgencyID: other.ID.Hex()})
	require.NoError(t, err)
	assert.Len(t, byAgency.Items, 1)
}

func TestList_RejectsBadQuery(t *testing.T) {
	f := newComplaintFixture(t)
	start := f.clock
	end := start.Add(-time.Hour)

	_, err := f.svc.List(context.Background(), admin(), ListQuery{
		Status:    "bogus",
		Sort:      "random",
		StartDate: &start,
		EndDate:   &end,
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
}

func TestList_Search(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	for i, title := range []string{"Streetlight out", "Broken STREETLIGHT pole", "Overflowing bin"} {
		_, err := f.svc.Submit(ctx, citizen(), SubmitInput{
			Title:       title,
			Description: fmt.Sprintf("Report number %d for the area.", i),
			CategoryID:  f.category.ID.Hex(),
		})
		require.NoError(t, err)
	}

	page, err := f.svc.List(ctx, admin(), ListQuery{Search: "streetlight"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestDashboardStats(t *testing.T) {
	f := newComplaintFixture(t)
	ctx := context.Background()
	agent := agentOf(f.agency.ID)
	a := f.submit(t, citizen(), f.category)
	f.submit(t, citizen(), f.category)
	f.submit(t, citizen(), f.orphan)

	_, err := f.svc.Update(ctx, agent, a.ID, UpdateInput{Status: string(models.StatusResolved)})
	require.NoError(t, err)

	stats, err := f.svc.DashboardStats(ctx, agent, primitive.NewObjectID().Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Open)
	assert.Equal(t, int64(1), stats.ByStatus[string(models.StatusResolved)])
	assert.Equal(t, int64(0), stats.ByStatus[string(models.StatusRejected)])

	global, err := f.svc.DashboardStats(ctx, admin(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), global.Total)

	scoped, err := f.svc.DashboardStats(ctx, admin(), f.agency.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(2), scoped.Total)

	_, err = f.svc.DashboardStats(ctx, admin(), "nope")
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.svc.DashboardStats(ctx, citizen(), "")
	assert.ErrorIs(t, err, models.ErrForbidden)
}
