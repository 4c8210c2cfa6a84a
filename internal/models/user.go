package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity record. Email keeps the casing the user registered
// with; EmailNormalized carries the lowercased form used for uniqueness and
// lookups.
type User struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string    `gorm:"size:255;not null;default:''" json:"name"`
	Email           string    `gorm:"size:255;not null" json:"email"`
	EmailNormalized string    `gorm:"size:255;not null;uniqueIndex" json:"-"`
	EmailVerified   bool      `gorm:"not null;default:false" json:"email_verified"`
	Image           *string   `gorm:"size:1024" json:"image"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
