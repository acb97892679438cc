package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"sayit/internal/models"
	"sayit/internal/utils"
	"sayit/pkg/auth"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const accessCodeAttempts = 5

type AuthService struct {
	users     UserStore
	anonymous AnonymousUserStore
	agencies  AgencyStore
	tokens    *auth.JWTManager
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewAuthService(users UserStore, anonymous AnonymousUserStore, agencies AgencyStore, tokens *auth.JWTManager, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		users:     users,
		anonymous: anonymous,
		agencies:  agencies,
		tokens:    tokens,
		log:       log,
		now:       time.Now,
	}
}

// Session is returned by every successful login.
type Session struct {
	Token string          `json:"token"`
	User  *models.User    `json:"user,omitempty"`
	Anon  *AnonymousLogin `json:"anonymous,omitempty"`
}

type AnonymousLogin struct {
	ID         primitive.ObjectID `json:"id"`
	AccessCode string             `json:"accessCode"`
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// Register creates a standard_user account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	user, err := s.createUser(ctx, in, models.RoleStandardUser, nil)
	if err != nil {
		return nil, err
	}
	return s.sessionFor(user)
}

// Login checks credentials and that the account holds one of the allowed
// roles. The agent, staff and admin portals each pass their own set.
func (s *AuthService) Login(ctx context.Context, email, password string, allowed ...models.UserRole) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, fmt.Errorf("account is deactivated: %w", models.ErrForbidden)
	}
	if len(allowed) > 0 && !hasRole(allowed, user.Role) {
		return nil, fmt.Errorf("role %s cannot use this login: %w", user.Role, models.ErrForbidden)
	}

	now := s.now()
	if err := s.users.TouchLogin(ctx, user.ID, now); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("failed to record login time")
	} else {
		user.LastLoginAt = &now
	}
	return s.sessionFor(user)
}

// CreateAnonymous issues a fresh access code and a session for it.
func (s *AuthService) CreateAnonymous(ctx context.Context) (*Session, error) {
	now := s.now()
	for attempt := 0; attempt < accessCodeAttempts; attempt++ {
		code, err := utils.GenerateAccessCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate access code: %w", err)
		}
		anon := &models.AnonymousUser{AccessCode: code, CreatedAt: now, LastSeenAt: now}
		err = s.anonymous.Create(ctx, anon)
		if errors.Is(err, models.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return s.anonymousSession(anon)
	}
	return nil, errors.New("could not allocate a unique access code")
}

// LoginAnonymous resumes an anonymous identity from its access code.
func (s *AuthService) LoginAnonymous(ctx context.Context, accessCode string) (*Session, error) {
	code := utils.NormalizeCode(accessCode)
	if code == "" {
		return nil, models.FieldError("accessCode", "is required")
	}
	anon, err := s.anonymous.GetByAccessCode(ctx, code)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		return nil, err
	}
	if err := s.anonymous.Touch(ctx, anon.ID, s.now()); err != nil {
		s.log.WithError(err).Warn("failed to touch anonymous user")
	}
	return s.anonymousSession(anon)
}

// Me resolves the actor back to its stored identity.
func (s *AuthService) Me(ctx context.Context, actor *Actor) (*models.User, error) {
	if actor == nil || actor.Subject.Kind != models.SubjectUser {
		return nil, models.ErrNotFound
	}
	return s.users.GetByID(ctx, actor.Subject.ID)
}

type StaffAccountInput struct {
	RegisterInput
	Role     string
	AgencyID string
}

// CreateStaffAccount lets an administrator provision agent, staff and admin
// accounts. Agents and staff must belong to an existing agency.
func (s *AuthService) CreateStaffAccount(ctx context.Context, actor *Actor, in StaffAccountInput) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	role, ok := models.FromString(in.Role)
	if !ok || !slices.Contains(models.StaffRoles(), role) {
		return nil, models.FieldError("role", "must be one of: agent staff admin")
	}

	var agencyID *primitive.ObjectID
	if role.IsAgencyMember() {
		id, err := primitive.ObjectIDFromHex(in.AgencyID)
		if err != nil {
			return nil, models.FieldError("agency", "is required for agents and staff")
		}
		if _, err := s.agencies.GetByID(ctx, id); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.FieldError("agency", "does not exist")
			}
			return nil, err
		}
		agencyID = &id
	}

	return s.createUser(ctx, in.RegisterInput, role, agencyID)
}

type UserPage struct {
	Items      []models.User
	Pagination Pagination
}

func (s *AuthService) ListUsers(ctx context.Context, actor *Actor, role string, page, limit int64) (*UserPage, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	var filterRole models.UserRole
	if role != "" {
		r, ok := models.FromString(role)
		if !ok {
			return nil, models.FieldError("role", "is not a known role")
		}
		filterRole = r
	}
	page, limit = normalizePage(page, limit)
	items, total, err := s.users.List(ctx, filterRole, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.User{}
	}
	return &UserPage{
		Items:      items,
		Pagination: Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages(total, limit)},
	}, nil
}

// SetUserActive enables or disables an account. Admins cannot disable
// themselves.
func (s *AuthService) SetUserActive(ctx context.Context, actor *Actor, id primitive.ObjectID, active bool) error {
	if !actor.IsAdmin() {
		return models.ErrForbidden
	}
	if !active && actor.Subject.Kind == models.SubjectUser && actor.Subject.ID == id {
		return models.FieldError("id", "cannot deactivate your own account")
	}
	return s.users.SetActive(ctx, id, active, s.now())
}

// ActorFromClaims turns validated token claims into an Actor.
func ActorFromClaims(claims *auth.Claims) (*Actor, error) {
	id, err := primitive.ObjectIDFromHex(claims.SubjectID)
	if err != nil {
		return nil, models.ErrUnauthorized
	}
	role, ok := models.FromString(claims.Role)
	if !ok {
		return nil, models.ErrUnauthorized
	}

	actor := &Actor{Role: role}
	switch models.SubjectKind(claims.SubjectKind) {
	case models.SubjectAnonymous:
		actor.Subject = models.AnonymousRef(id)
	case models.SubjectUser:
		actor.Subject = models.UserRef(id)
	default:
		return nil, models.ErrUnauthorized
	}
	if claims.AgencyID != "" {
		agencyID, err := primitive.ObjectIDFromHex(claims.AgencyID)
		if err != nil {
			return nil, models.ErrUnauthorized
		}
		actor.AgencyID = &agencyID
	}
	return actor, nil
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput, role models.UserRole, agencyID *primitive.ObjectID) (*models.User, error) {
	email := normalizeEmail(in.Email)
	fields := map[string]string{}
	if !strings.Contains(email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if len(in.Password) < 6 {
		fields["password"] = "must be at least 6 characters"
	}
	if strings.TrimSpace(in.FirstName) == "" {
		fields["first_name"] = "is required"
	}
	if len(fields) > 0 {
		return nil, models.NewValidationError("Invalid request data", fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	now := s.now()
	user := &models.User{
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         role,
		AgencyID:     agencyID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("user with this email already exists: %w", models.ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) sessionFor(user *models.User) (*Session, error) {
	subject := auth.TokenSubject{
		ID:    user.ID.Hex(),
		Kind:  string(models.SubjectUser),
		Email: user.Email,
		Role:  string(user.Role),
	}
	if user.AgencyID != nil {
		subject.AgencyID = user.AgencyID.Hex()
	}
	token, err := s.tokens.GenerateToken(subject)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}

func (s *AuthService) anonymousSession(anon *models.AnonymousUser) (*Session, error) {
	token, err := s.tokens.GenerateToken(auth.TokenSubject{
		ID:   anon.ID.Hex(),
		Kind: string(models.SubjectAnonymous),
		Role: string(models.RoleAnonymousUser),
	})
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}
	return &Session{
		Token: token,
		Anon:  &AnonymousLogin{ID: anon.ID, AccessCode: anon.AccessCode},
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hasRole(roles []models.UserRole, role models.UserRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func normalizePage(page, limit int64) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	// keeps (page-1)*limit from overflowing into a negative skip
	if maxPage := math.MaxInt64 / limit; page > maxPage {
		page = maxPage
	}
	return page, limit
}
