package services

import (
	"context"
	"testing"
	"time"

	"sayit/internal/models"
	"sayit/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type authFixture struct {
	svc       *AuthService
	users     *memUsers
	anonymous *memAnonymous
	agencies  *memAgencies
	tokens    *auth.JWTManager
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:     newMemUsers(),
		anonymous: newMemAnonymous(),
		agencies:  newMemAgencies(),
		tokens:    auth.NewJWTManager("test-secret", time.Hour),
	}
	f.svc = NewAuthService(f.users, f.anonymous, f.agencies, f.tokens, quietLogger())
	return f
}

func (f *authFixture) actorFor(t *testing.T, token string) *Actor {
	t.Helper()
	claims, err := f.tokens.ValidateToken(token)
	require.NoError(t, err)
	actor, err := ActorFromClaims(claims)
	require.NoError(t, err)
	return actor
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	session, err := f.svc.Register(ctx, RegisterInput{
		Email:     "  Citizen@Example.com ",
		Password:  "s3cret!",
		FirstName: "Grace",
	})
	require.NoError(t, err)
	assert.Equal(t, "citizen@example.com", session.User.Email)
	assert.Equal(t, models.RoleStandardUser, session.User.Role)
	assert.NotEqual(t, "s3cret!", session.User.PasswordHash)

	actor := f.actorFor(t, session.Token)
	assert.Equal(t, models.UserRef(session.User.ID), actor.Subject)
	assert.Equal(t, models.RoleStandardUser, actor.Role)

	_, err = f.svc.Register(ctx, RegisterInput{Email: "citizen@example.com", Password: "another1", FirstName: "G"})
	assert.ErrorIs(t, err, models.ErrConflict)

	login, err := f.svc.Login(ctx, "CITIZEN@example.com", "s3cret!")
	require.NoError(t, err)
	require.NotNil(t, login.User.LastLoginAt)

	_, err = f.svc.Login(ctx, "citizen@example.com", "wrong")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = f.svc.Login(ctx, "nobody@example.com", "s3cret!")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestRegister_Validation(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{Email: "nope", Password: "123"})

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
	assert.Contains(t, verr.Fields, "first_name")
}

func TestLogin_RoleGate(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, RegisterInput{Email: "c@example.com", Password: "password", FirstName: "C"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "c@example.com", "password", models.RoleAgent)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestCreateStaffAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	agency := models.Agency{Name: "Transit"}
	require.NoError(t, f.agencies.Create(ctx, &agency))
	root := &Actor{Subject: models.UserRef(primitive.NewObjectID()), Role: models.RoleAdmin}

	input := StaffAccountInput{
		RegisterInput: RegisterInput{Email: "agent@transit.gov", Password: "password", FirstName: "Alan"},
		Role:          "agent",
		AgencyID:      agency.ID.Hex(),
	}

	_, err := f.svc.CreateStaffAccount(ctx, &Actor{Role: models.RoleStaff}, input)
	assert.ErrorIs(t, err, models.ErrForbidden)

	user, err := f.svc.CreateStaffAccount(ctx, root, input)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAgent, user.Role)
	assert.Equal(t, agency.ID, *user.AgencyID)

	session, err := f.svc.Login(ctx, "agent@transit.gov", "password", models.RoleAgent)
	require.NoError(t, err)
	actor := f.actorFor(t, session.Token)
	require.NotNil(t, actor.AgencyID)
	assert.Equal(t, agency.ID, *actor.AgencyID)

	_, err = f.svc.CreateStaffAccount(ctx, root, StaffAccountInput{
		RegisterInput: RegisterInput{Email: "x@transit.gov", Password: "password", FirstName: "X"},
		Role:          "staff",
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "agency")

	_, err = f.svc.CreateStaffAccount(ctx, root, StaffAccountInput{
		RegisterInput: RegisterInput{Email: "y@transit.gov", Password: "password", FirstName: "Y"},
		Role:          "standard_user",
	})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "role")

	admin, err := f.svc.CreateStaffAccount(ctx, root, StaffAccountInput{
		RegisterInput: RegisterInput{Email: "root2@sayit.gov", Password: "password", FirstName: "R"},
		Role:          "admin",
	})
	require.NoError(t, err)
	assert.Nil(t, admin.AgencyID)
}

func TestAnonymousSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	session, err := f.svc.CreateAnonymous(ctx)
	require.NoError(t, err)
	require.NotNil(t, session.Anon)
	assert.Regexp(t, `^ANON-`, session.Anon.AccessCode)

	actor := f.actorFor(t, session.Token)
	assert.Equal(t, models.AnonymousRef(session.Anon.ID), actor.Subject)
	assert.Equal(t, models.RoleAnonymousUser, actor.Role)

	again, err := f.svc.LoginAnonymous(ctx, " "+session.Anon.AccessCode+" ")
	require.NoError(t, err)
	assert.Equal(t, session.Anon.ID, again.Anon.ID)

	_, err = f.svc.LoginAnonymous(ctx, "ANON-0000-0000")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = f.svc.Me(ctx, actor)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserAdministration(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	root := &Actor{Subject: models.UserRef(primitive.NewObjectID()), Role: models.RoleAdmin}

	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		_, err := f.svc.Register(ctx, RegisterInput{Email: email, Password: "password", FirstName: "N"})
		require.NoError(t, err)
	}

	page, err := f.svc.ListUsers(ctx, root, "standard_user", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, int64(2), page.Pagination.TotalPages)

	_, err = f.svc.ListUsers(ctx, &Actor{Role: models.RoleAgent}, "", 1, 10)
	assert.ErrorIs(t, err, models.ErrForbidden)

	target := page.Items[0]
	require.NoError(t, f.svc.SetUserActive(ctx, root, target.ID, false))
	_, err = f.svc.Login(ctx, target.Email, "password")
	assert.ErrorIs(t, err, models.ErrForbidden)

	err = f.svc.SetUserActive(ctx, root, root.Subject.ID, false)
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestActorFromClaims_RejectsGarbage(t *testing.T) {
	for name, claims := range map[string]*auth.Claims{
		"bad id":     {SubjectID: "zzz", SubjectKind: "User", Role: "admin"},
		"bad role":   {SubjectID: primitive.NewObjectID().Hex(), SubjectKind: "User", Role: "overlord"},
		"bad kind":   {SubjectID: primitive.NewObjectID().Hex(), SubjectKind: "Robot", Role: "agent"},
		"bad agency": {SubjectID: primitive.NewObjectID().Hex(), SubjectKind: "User", Role: "agent", AgencyID: "nope"},
	} {
		_, err := ActorFromClaims(claims)
		assert.ErrorIs(t, err, models.ErrUnauthorized, name)
	}
}
