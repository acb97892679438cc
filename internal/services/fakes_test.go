package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"sayit/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type memComplaints struct {
	mu       sync.Mutex
	items    map[primitive.ObjectID]*models.Complaint
	seq      map[string]int64
	writes   int
	failList error
}

func newMemComplaints() *memComplaints {
	return &memComplaints{items: map[primitive.ObjectID]*models.Complaint{}, seq: map[string]int64{}}
}

func (m *memComplaints) Create(_ context.Context, c *models.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	cp := *c
	m.items[c.ID] = &cp
	m.writes++
	return nil
}

func (m *memComplaints) GetByID(_ context.Context, id primitive.ObjectID) (*models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	cp.Responses = append([]models.Response(nil), c.Responses...)
	return &cp, nil
}

func (m *memComplaints) GetByTrackingID(_ context.Context, trackingID string) (*models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.items {
		if c.TrackingID == trackingID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memComplaints) ApplyChanges(_ context.Context, id primitive.ObjectID, ch models.ComplaintChanges) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return models.ErrNotFound
	}
	applyChanges(c, ch)
	m.writes++
	return nil
}

func (m *memComplaints) AppendResponse(_ context.Context, id primitive.ObjectID, r models.Response, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return models.ErrNotFound
	}
	c.Responses = append(c.Responses, r)
	c.UpdatedAt = at
	m.writes++
	return nil
}

func (m *memComplaints) AppendAttachments(_ context.Context, id primitive.ObjectID, a []models.Attachment, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return models.ErrNotFound
	}
	c.Attachments = append(c.Attachments, a...)
	c.UpdatedAt = at
	m.writes++
	return nil
}

func (m *memComplaints) List(_ context.Context, f models.ComplaintFilter) ([]models.Complaint, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList != nil {
		return nil, 0, m.failList
	}
	var matched []models.Complaint
	for _, c := range m.items {
		if f.AgencyID != nil && !c.BelongsToAgency(*f.AgencyID) {
			continue
		}
		if f.Unassigned && c.IsAssigned() {
			continue
		}
		if f.Submitter != nil && !c.IsSubmittedBy(*f.Submitter) {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Priority != "" && c.Priority != f.Priority {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(c.Title), q) && !strings.Contains(strings.ToLower(c.Description), q) {
				continue
			}
		}
		matched = append(matched, *c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := f.Skip
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *memComplaints) CountBy(_ context.Context, field string, agencyID *primitive.ObjectID) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int64{}
	for _, c := range m.items {
		if agencyID != nil && !c.BelongsToAgency(*agencyID) {
			continue
		}
		switch field {
		case "status":
			out[string(c.Status)]++
		case "priority":
			out[string(c.Priority)]++
		}
	}
	return out, nil
}

func (m *memComplaints) NextSequence(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq[name]++
	return m.seq[name], nil
}

type memNotifications struct {
	mu      sync.Mutex
	items   []models.Notification
	failErr error
}

func (m *memNotifications) Create(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	n.ID = primitive.NewObjectID()
	m.items = append(m.items, *n)
	return nil
}

func (m *memNotifications) ListUnread(_ context.Context, r models.SubjectRef, now time.Time, limit int64) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for i := len(m.items) - 1; i >= 0; i-- {
		n := m.items[i]
		if n.Recipient.Equal(r) && !n.IsRead && !n.IsExpired(now) {
			out = append(out, n)
		}
		if int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (m *memNotifications) CountUnread(ctx context.Context, r models.SubjectRef, now time.Time) (int64, error) {
	items, _ := m.ListUnread(ctx, r, now, 1<<30)
	return int64(len(items)), nil
}

func (m *memNotifications) MarkRead(_ context.Context, r models.SubjectRef, id primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].Recipient.Equal(r) {
			m.items[i].IsRead = true
			m.items[i].ReadAt = &at
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *memNotifications) MarkAllRead(_ context.Context, r models.SubjectRef, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.items {
		if m.items[i].Recipient.Equal(r) && !m.items[i].IsRead {
			m.items[i].IsRead = true
			m.items[i].ReadAt = &at
			n++
		}
	}
	return n, nil
}

func (m *memNotifications) DeleteReadBefore(_ context.Context, r models.SubjectRef, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	var n int64
	for _, item := range m.items {
		if item.Recipient.Equal(r) && item.IsRead && item.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, item)
	}
	m.items = kept
	return n, nil
}

func (m *memNotifications) forRecipient(r models.SubjectRef) []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, n := range m.items {
		if n.Recipient.Equal(r) {
			out = append(out, n)
		}
	}
	return out
}

type memCategories struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Category
}

func newMemCategories() *memCategories {
	return &memCategories{items: map[primitive.ObjectID]*models.Category{}}
}

func (m *memCategories) Create(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if strings.EqualFold(existing.Name, c.Name) {
			return models.ErrConflict
		}
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	cp := *c
	m.items[c.ID] = &cp
	return nil
}

func (m *memCategories) GetByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCategories) List(_ context.Context, activeOnly bool) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Category{}
	for _, c := range m.items {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memCategories) Update(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[c.ID]; !ok {
		return models.ErrNotFound
	}
	for id, existing := range m.items {
		if id != c.ID && strings.EqualFold(existing.Name, c.Name) {
			return models.ErrConflict
		}
	}
	cp := *c
	m.items[c.ID] = &cp
	return nil
}

type memAgencies struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Agency
}

func newMemAgencies() *memAgencies {
	return &memAgencies{items: map[primitive.ObjectID]*models.Agency{}}
}

func (m *memAgencies) Create(_ context.Context, a *models.Agency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if strings.EqualFold(existing.Name, a.Name) {
			return models.ErrConflict
		}
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *memAgencies) GetByID(_ context.Context, id primitive.ObjectID) (*models.Agency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAgencies) List(_ context.Context) ([]models.Agency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Agency{}
	for _, a := range m.items {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memAgencies) Update(_ context.Context, a *models.Agency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[a.ID]; !ok {
		return models.ErrNotFound
	}
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

type memUsers struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{items: map[primitive.ObjectID]*models.User{}}
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.Email == u.Email {
			return models.ErrConflict
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	cp := *u
	m.items[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memUsers) List(_ context.Context, role models.UserRole, skip, limit int64) ([]models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.User
	for _, u := range m.items {
		if role != "" && u.Role != role {
			continue
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	total := int64(len(all))
	if skip > total {
		skip = total
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return all[skip:end], total, nil
}

func (m *memUsers) ListAgencyMembers(_ context.Context, agencyID primitive.ObjectID) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.items {
		if u.IsActive && u.Role.IsAgencyMember() && u.AgencyID != nil && *u.AgencyID == agencyID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsers) SetActive(_ context.Context, id primitive.ObjectID, active bool, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return models.ErrNotFound
	}
	u.IsActive = active
	u.UpdatedAt = at
	return nil
}

func (m *memUsers) TouchLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return models.ErrNotFound
	}
	u.LastLoginAt = &at
	return nil
}

type memAnonymous struct {
	mu    sync.Mutex
	items map[string]*models.AnonymousUser
}

func newMemAnonymous() *memAnonymous {
	return &memAnonymous{items: map[string]*models.AnonymousUser{}}
}

func (m *memAnonymous) Create(_ context.Context, a *models.AnonymousUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[a.AccessCode]; exists {
		return models.ErrConflict
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	cp := *a
	m.items[a.AccessCode] = &cp
	return nil
}

func (m *memAnonymous) GetByAccessCode(_ context.Context, code string) (*models.AnonymousUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[code]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAnonymous) Touch(_ context.Context, id primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.ID == id {
			a.LastSeenAt = at
			return nil
		}
	}
	return models.ErrNotFound
}

type memFeedback struct {
	mu       sync.Mutex
	contacts []models.ContactMessage
	feedback []models.Feedback
}

func (m *memFeedback) CreateContact(_ context.Context, msg *models.ContactMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	m.contacts = append(m.contacts, *msg)
	return nil
}

func (m *memFeedback) ListContacts(_ context.Context, skip, limit int64) ([]models.ContactMessage, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := int64(len(m.contacts))
	return pageOf(m.contacts, skip, limit), total, nil
}

func (m *memFeedback) CreateFeedback(_ context.Context, fb *models.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fb.ID = primitive.NewObjectID()
	m.feedback = append(m.feedback, *fb)
	return nil
}

func (m *memFeedback) ListFeedback(_ context.Context, skip, limit int64) ([]models.Feedback, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := int64(len(m.feedback))
	return pageOf(m.feedback, skip, limit), total, nil
}

func pageOf[T any](items []T, skip, limit int64) []T {
	total := int64(len(items))
	if skip > total {
		skip = total
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return append([]T(nil), items[skip:end]...)
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []models.Notification
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, n *models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, *n)
	return nil
}

// failingDispatcher always errors, to exercise best-effort delivery.
type failingDispatcher struct{ calls int }

func (f *failingDispatcher) Dispatch(context.Context, Event) (*models.Notification, error) {
	f.calls++
	return nil, errors.New("notification store offline")
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
