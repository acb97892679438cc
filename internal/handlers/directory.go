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

type DirectoryAPI interface {
	ListCategories(ctx context.Context, includeInactive bool) ([]models.Category, error)
	CreateCategory(ctx context.Context, actor *services.Actor, in services.CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, actor *services.Actor, id primitive.ObjectID, in services.CategoryInput) (*models.Category, error)
	ListAgencies(ctx context.Context) ([]models.Agency, error)
	GetAgency(ctx context.Context, id primitive.ObjectID) (*models.Agency, error)
	CreateAgency(ctx context.Context, actor *services.Actor, in services.AgencyInput) (*models.Agency, error)
	UpdateAgency(ctx context.Context, actor *services.Actor, id primitive.ObjectID, in services.AgencyInput) (*models.Agency, error)
}

type DirectoryHandler struct {
	directory DirectoryAPI
	log       logrus.FieldLogger
}

type CategoryRequest struct {
	Name          string `json:"name" binding:"max=100"`
	Description   string `json:"description" binding:"max=500"`
	DefaultAgency string `json:"default_agency,omitempty"`
	Icon          string `json:"icon,omitempty"`
	Color         string `json:"color,omitempty"`
	IsActive      *bool  `json:"is_active,omitempty"`
}

type AgencyRequest struct {
	Name        string `json:"name" binding:"max=150"`
	Logo        string `json:"logo,omitempty"`
	Description string `json:"description" binding:"max=1000"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

func NewDirectoryHandler(directory DirectoryAPI, log logrus.FieldLogger) *DirectoryHandler {
	return &DirectoryHandler{directory: directory, log: log}
}

func (r CategoryRequest) input() services.CategoryInput {
	return services.CategoryInput{
		Name:          r.Name,
		Description:   r.Description,
		DefaultAgency: r.DefaultAgency,
		Icon:          r.Icon,
		Color:         r.Color,
		IsActive:      r.IsActive,
	}
}

func (r AgencyRequest) input() services.AgencyInput {
	return services.AgencyInput{
		Name:        r.Name,
		Logo:        r.Logo,
		Description: r.Description,
		IsActive:    r.IsActive,
	}
}

// ListCategories returns active categories; admins may add ?all=true.
func (h *DirectoryHandler) ListCategories(c *gin.Context) {
	includeInactive := c.Query("all") == "true" && middleware.GetActor(c).IsAdmin()

	ctx, cancel := requestContext(c)
	defer cancel()

	categories, err := h.directory.ListCategories(ctx, includeInactive)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, categories)
}

func (h *DirectoryHandler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	category, err := h.directory.CreateCategory(ctx, middleware.GetActor(c), req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusCreated, "Category created", category)
}

func (h *DirectoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	category, err := h.directory.UpdateCategory(ctx, middleware.GetActor(c), id, req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusOK, "Category updated", category)
}

// DeleteCategory deactivates; complaints keep pointing at the category.
func (h *DirectoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	inactive := false

	ctx, cancel := requestContext(c)
	defer cancel()

	category, err := h.directory.UpdateCategory(ctx, middleware.GetActor(c), id, services.CategoryInput{IsActive: &inactive})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusOK, "Category deactivated", category)
}

func (h *DirectoryHandler) ListAgencies(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	agencies, err := h.directory.ListAgencies(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, agencies)
}

func (h *DirectoryHandler) GetAgency(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	agency, err := h.directory.GetAgency(ctx, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, agency)
}

func (h *DirectoryHandler) CreateAgency(c *gin.Context) {
	var req AgencyRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	agency, err := h.directory.CreateAgency(ctx, middleware.GetActor(c), req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusCreated, "Agency created", agency)
}

func (h *DirectoryHandler) UpdateAgency(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AgencyRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	agency, err := h.directory.UpdateAgency(ctx, middleware.GetActor(c), id, req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondMessage(c, http.StatusOK, "Agency updated", agency)
}
