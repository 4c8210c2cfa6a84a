package models

import (
	"time"

	"github.com/google/uuid"
)

// ProviderCredential is the provider id of email+password accounts.
const ProviderCredential = "credential"

// Account binds a User to an authentication provider. Only the credential
// provider is populated; the OAuth token columns exist for schema parity.
type Account struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID             string     `gorm:"size:255;not null;uniqueIndex:idx_accounts_provider_account" json:"account_id"`
	ProviderID            string     `gorm:"size:255;not null;uniqueIndex:idx_accounts_provider_account" json:"provider_id"`
	UserID                uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	AccessToken           *string    `gorm:"type:text" json:"-"`
	RefreshToken          *string    `gorm:"type:text" json:"-"`
	IDToken               *string    `gorm:"type:text" json:"-"`
	AccessTokenExpiresAt  *time.Time `json:"-"`
	RefreshTokenExpiresAt *time.Time `json:"-"`
	Scope                 *string    `gorm:"size:255" json:"-"`
	Password              *string    `gorm:"size:255" json:"-"`
	CreatedAt             time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"not null" json:"updated_at"`
	User                  *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Account) TableName() string {
	return "accounts"
}
