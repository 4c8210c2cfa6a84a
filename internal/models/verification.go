package models

import (
	"time"

	"github.com/google/uuid"
)

// Verification is a single-use, time-boxed token for out-of-band
// confirmation. Identifier is "<purpose>:<userID>" and unique, so a user has
// at most one live token per purpose; Value is the SHA-256 digest of the
// token delivered to the user.
type Verification struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Identifier string    `gorm:"size:255;not null;uniqueIndex" json:"identifier"`
	Value      string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Verification) TableName() string {
	return "verifications"
}

// Expired reports whether the token can no longer be redeemed at now.
func (v *Verification) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
