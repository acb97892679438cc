package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sayit/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DirectoryService manages the category and agency reference data.
// Reads are public; writes are admin only.
type DirectoryService struct {
	categories CategoryStore
	agencies   AgencyStore
	now        func() time.Time
}

func NewDirectoryService(categories CategoryStore, agencies AgencyStore) *DirectoryService {
	return &DirectoryService{categories: categories, agencies: agencies, now: time.Now}
}

type CategoryInput struct {
	Name          string
	Description   string
	DefaultAgency string
	Icon          string
	Color         string
	IsActive      *bool
}

func (s *DirectoryService) ListCategories(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	items, err := s.categories.List(ctx, !includeInactive)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Category{}
	}
	return items, nil
}

func (s *DirectoryService) GetCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	return s.categories.GetByID(ctx, id)
}

func (s *DirectoryService) CreateCategory(ctx context.Context, actor *Actor, in CategoryInput) (*models.Category, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.FieldError("name", "is required")
	}
	agencyID, err := s.lookupAgency(ctx, in.DefaultAgency)
	if err != nil {
		return nil, err
	}

	now := s.now()
	category := &models.Category{
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		DefaultAgency: agencyID,
		Icon:          in.Icon,
		Color:         in.Color,
		IsActive:      in.IsActive == nil || *in.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, duplicateName("category", err)
	}
	return category, nil
}

// UpdateCategory replaces the editable fields. An empty DefaultAgency keeps
// the current routing; "none" clears it.
func (s *DirectoryService) UpdateCategory(ctx context.Context, actor *Actor, id primitive.ObjectID, in CategoryInput) (*models.Category, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		category.Name = name
	}
	if in.Description != "" {
		category.Description = strings.TrimSpace(in.Description)
	}
	switch in.DefaultAgency {
	case "":
	case "none":
		category.DefaultAgency = nil
	default:
		agencyID, err := s.lookupAgency(ctx, in.DefaultAgency)
		if err != nil {
			return nil, err
		}
		category.DefaultAgency = agencyID
	}
	if in.Icon != "" {
		category.Icon = in.Icon
	}
	if in.Color != "" {
		category.Color = in.Color
	}
	if in.IsActive != nil {
		category.IsActive = *in.IsActive
	}
	category.UpdatedAt = s.now()

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, duplicateName("category", err)
	}
	return category, nil
}

type AgencyInput struct {
	Name        string
	Logo        string
	Description string
	IsActive    *bool
}

func (s *DirectoryService) ListAgencies(ctx context.Context) ([]models.Agency, error) {
	items, err := s.agencies.List(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Agency{}
	}
	return items, nil
}

func (s *DirectoryService) GetAgency(ctx context.Context, id primitive.ObjectID) (*models.Agency, error) {
	return s.agencies.GetByID(ctx, id)
}

func (s *DirectoryService) CreateAgency(ctx context.Context, actor *Actor, in AgencyInput) (*models.Agency, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if len(name) < 2 {
		return nil, models.FieldError("name", "must be at least 2 characters")
	}
	now := s.now()
	agency := &models.Agency{
		Name:        name,
		Logo:        in.Logo,
		Description: strings.TrimSpace(in.Description),
		IsActive:    in.IsActive == nil || *in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.agencies.Create(ctx, agency); err != nil {
		return nil, duplicateName("agency", err)
	}
	return agency, nil
}

func (s *DirectoryService) UpdateAgency(ctx context.Context, actor *Actor, id primitive.ObjectID, in AgencyInput) (*models.Agency, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	agency, err := s.agencies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		agency.Name = name
	}
	if in.Logo != "" {
		agency.Logo = in.Logo
	}
	if in.Description != "" {
		agency.Description = strings.TrimSpace(in.Description)
	}
	if in.IsActive != nil {
		agency.IsActive = *in.IsActive
	}
	agency.UpdatedAt = s.now()
	if err := s.agencies.Update(ctx, agency); err != nil {
		return nil, duplicateName("agency", err)
	}
	return agency, nil
}

func (s *DirectoryService) lookupAgency(ctx context.Context, hex string) (*primitive.ObjectID, error) {
	if hex == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, models.FieldError("defaultAgency", "is not a valid id")
	}
	if _, err := s.agencies.GetByID(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.FieldError("defaultAgency", "does not exist")
		}
		return nil, err
	}
	return &id, nil
}

func duplicateName(kind string, err error) error {
	if errors.Is(err, models.ErrConflict) {
		return fmt.Errorf("%s with this name already exists: %w", kind, err)
	}
	return err
}
