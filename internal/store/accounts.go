package store

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/models"
	"github.com/google/uuid"
)

// CredentialAccount returns the email+password account of a user.
func (s *Store) CredentialAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var account models.Account
	err := db.Where("user_id = ? AND provider_id = ?", userID, models.ProviderCredential).
		First(&account).Error
	if err != nil {
		return nil, wrap(err)
	}
	return &account, nil
}

// SetPassword replaces the password hash on the credential account.
func (s *Store) SetPassword(ctx context.Context, userID uuid.UUID, hash string, now time.Time) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Model(&models.Account{}).
		Where("user_id = ? AND provider_id = ?", userID, models.ProviderCredential).
		Updates(map[string]interface{}{"password": hash, "updated_at": now})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
