package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash string             `bson:"password_hash" json:"-"`

	FirstName string `bson:"first_name" json:"first_name"`
	LastName  string `bson:"last_name" json:"last_name"`

	Role     UserRole            `bson:"role" json:"role"`
	AgencyID *primitive.ObjectID `bson:"agency_id,omitempty" json:"agency_id,omitempty"`
	IsActive bool                `bson:"is_active" json:"is_active"`

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
}

func (u *User) GetFullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// AnonymousUser is identified only by its generated access code.
type AnonymousUser struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AccessCode string             `bson:"access_code" json:"access_code"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	LastSeenAt time.Time          `bson:"last_seen_at" json:"last_seen_at"`
}

type ContactMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Subject   string             `bson:"subject" json:"subject"`
	Message   string             `bson:"message" json:"message"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type Feedback struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Rating     int                `bson:"rating" json:"rating"`
	Comment    string             `bson:"comment,omitempty" json:"comment,omitempty"`
	TrackingID string             `bson:"tracking_id,omitempty" json:"tracking_id,omitempty"`
	Submitter  *SubjectRef        `bson:"submitter,omitempty" json:"submitter,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
