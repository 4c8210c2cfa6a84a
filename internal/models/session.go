package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is an active login. Token holds the SHA-256 digest of the bearer
// token handed to the client, never the token itself.
type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Token     string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	IPAddress string    `gorm:"size:255" json:"ip_address"`
	UserAgent string    `gorm:"size:1024" json:"user_agent"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Session) TableName() string {
	return "sessions"
}

// Expired reports whether the session is logically dead at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
