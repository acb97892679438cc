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

// AuthAPI is the part of the auth service the HTTP layer uses.
type AuthAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.Session, error)
	Login(ctx context.Context, email, password string, allowed ...models.UserRole) (*services.Session, error)
	CreateAnonymous(ctx context.Context) (*services.Session, error)
	LoginAnonymous(ctx context.Context, accessCode string) (*services.Session, error)
	Me(ctx context.Context, actor *services.Actor) (*models.User, error)
}

type AuthHandler struct {
	auth AuthAPI
	log  logrus.FieldLogger
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6,max=100"`
	FirstName string `json:"first_name" binding:"required,min=2,max=50"`
	LastName  string `json:"last_name" binding:"required,min=2,max=50"`
	Phone     string `json:"phone,omitempty" binding:"max=30"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AnonymousLoginRequest struct {
	AccessCode string `json:"accessCode" binding:"required"`
}

func NewAuthHandler(auth AuthAPI, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	session, err := h.auth.Register(ctx, services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusCreated, "Registration successful", session)
}

// Login accepts citizens only; the portals below each admit their own role.
func (h *AuthHandler) Login(c *gin.Context) {
	h.login(c, models.RoleStandardUser)
}

func (h *AuthHandler) AgentLogin(c *gin.Context) {
	h.login(c, models.RoleAgent)
}

func (h *AuthHandler) StaffLogin(c *gin.Context) {
	h.login(c, models.RoleStaff)
}

func (h *AuthHandler) AdminLogin(c *gin.Context) {
	h.login(c, models.RoleAdmin)
}

func (h *AuthHandler) login(c *gin.Context, allowed ...models.UserRole) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	session, err := h.auth.Login(ctx, req.Email, req.Password, allowed...)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusOK, "Login successful", session)
}

func (h *AuthHandler) CreateAnonymous(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	session, err := h.auth.CreateAnonymous(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusCreated, "Keep this access code to return to your complaints", session)
}

func (h *AuthHandler) LoginAnonymous(c *gin.Context) {
	var req AnonymousLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	session, err := h.auth.LoginAnonymous(ctx, req.AccessCode)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, session)
}

// Me returns the stored account, or just the token identity for anonymous
// sessions.
func (h *AuthHandler) Me(c *gin.Context) {
	actor := middleware.GetActor(c)
	if actor.Subject.Kind == models.SubjectAnonymous {
		respond(c, http.StatusOK, gin.H{
			"id":   actor.Subject.ID,
			"kind": actor.Subject.Kind,
			"role": actor.Role,
		})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.auth.Me(ctx, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, user)
}
