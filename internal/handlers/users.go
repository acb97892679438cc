package handlers

import (
	"context"
	"net/http"

	"sayit/internal/middleware"
	"sayit/internal/models"
	"sayit/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccountAPI covers administrator account management.
type AccountAPI interface {
	CreateStaffAccount(ctx context.Context, actor *services.Actor, in services.StaffAccountInput) (*models.User, error)
	ListUsers(ctx context.Context, actor *services.Actor, role string, page, limit int64) (*services.UserPage, error)
	SetUserActive(ctx context.Context, actor *services.Actor, id primitive.ObjectID, active bool) error
}

type UserHandler struct {
	accounts AccountAPI
	log      logrus.FieldLogger
}

type CreateStaffRequest struct {
	RegisterRequest
	Role     string `json:"role" binding:"required,oneof=agent staff admin"`
	AgencyID string `json:"agency_id,omitempty"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func NewUserHandler(accounts AccountAPI, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{accounts: accounts, log: log}
}

func (h *UserHandler) CreateStaff(c *gin.Context) {
	var req CreateStaffRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.accounts.CreateStaffAccount(ctx, middleware.GetActor(c), services.StaffAccountInput{
		RegisterInput: services.RegisterInput{
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
		},
		Role:     req.Role,
		AgencyID: req.AgencyID,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusCreated, "Account created", user)
}

func (h *UserHandler) List(c *gin.Context) {
	page, limit := pageParams(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := h.accounts.ListUsers(ctx, middleware.GetActor(c), c.Query("role"), page, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondPage(c, users.Items, users.Pagination)
}

func (h *UserHandler) SetActive(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req SetActiveRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.accounts.SetUserActive(ctx, middleware.GetActor(c), id, *req.IsActive); err != nil {
		respondError(c, h.log, err)
		return
	}
	message := "Account deactivated"
	if *req.IsActive {
		message = "Account activated"
	}
	respondMessage(c, http.StatusOK, message, nil)
}
