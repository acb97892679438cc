package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Agency struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name" binding:"required,min=2,max=120"`
	Logo        string             `bson:"logo,omitempty" json:"logo,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

type Category struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	Name          string              `bson:"name" json:"name"`
	Description   string              `bson:"description,omitempty" json:"description,omitempty"`
	DefaultAgency *primitive.ObjectID `bson:"default_agency,omitempty" json:"default_agency,omitempty"`
	Icon          string              `bson:"icon,omitempty" json:"icon,omitempty"`
	Color         string              `bson:"color,omitempty" json:"color,omitempty"`
	IsActive      bool                `bson:"is_active" json:"is_active"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at" json:"updated_at"`
}

func (c *Category) HasDefaultAgency() bool {
	return c.DefaultAgency != nil && !c.DefaultAgency.IsZero()
}
