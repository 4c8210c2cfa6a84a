package store

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/models"
	"github.com/google/uuid"
)

// CreateUser inserts the user together with its credential account.
// A taken email yields ErrDuplicate and leaves no rows behind.
func (s *Store) CreateUser(ctx context.Context, user *models.User, account *models.Account) error {
	return wrap(s.transaction(ctx, func(tx *Store) error {
		if err := tx.db.Create(user).Error; err != nil {
			return wrap(err)
		}
		if account == nil {
			return nil
		}
		account.UserID = user.ID
		return wrap(tx.db.Create(account).Error)
	}))
}

func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, wrap(err)
	}
	return &user, nil
}

// UserByEmail looks up a user by the normalized (lowercased) email.
func (s *Store) UserByEmail(ctx context.Context, normalized string) (*models.User, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var user models.User
	if err := db.Where("email_normalized = ?", normalized).First(&user).Error; err != nil {
		return nil, wrap(err)
	}
	return &user, nil
}

// UpdateProfile sets the non-nil fields and returns the refreshed user.
func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, name, image *string, now time.Time) (*models.User, error) {
	updates := map[string]interface{}{"updated_at": now}
	if name != nil {
		updates["name"] = *name
	}
	if image != nil {
		if *image == "" {
			updates["image"] = nil
		} else {
			updates["image"] = *image
		}
	}

	var user *models.User
	err := s.transaction(ctx, func(tx *Store) error {
		res := tx.db.Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return wrap(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		var err error
		user, err = tx.UserByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, wrap(err)
	}
	return user, nil
}

// MarkEmailVerified flips email_verified to true.
func (s *Store) MarkEmailVerified(ctx context.Context, id uuid.UUID, now time.Time) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"email_verified": true, "updated_at": now})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser hard-deletes the user; sessions and accounts go with it through
// the ON DELETE CASCADE foreign keys.
func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
