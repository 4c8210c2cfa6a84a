package store

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// ReplaceVerification stores v in place of any outstanding token for the same
// identifier. Identifier is unique, so concurrent issuers converge on a single
// row: the last writer's token is the only redeemable one.
func (s *Store) ReplaceVerification(ctx context.Context, v *models.Verification) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identifier"}},
		DoUpdates: clause.AssignmentColumns([]string{"id", "value", "expires_at", "created_at", "updated_at"}),
	}).Create(v).Error
	return wrap(err)
}

func (s *Store) VerificationByValue(ctx context.Context, valueHash string) (*models.Verification, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var v models.Verification
	if err := db.Where("value = ?", valueHash).First(&v).Error; err != nil {
		return nil, wrap(err)
	}
	return &v, nil
}

func (s *Store) DeleteVerification(ctx context.Context, id uuid.UUID) error {
	db, cancel := s.conn(ctx)
	defer cancel()
	return wrap(db.Delete(&models.Verification{}, "id = ?", id).Error)
}

// ConsumeVerification deletes the unexpired verification row and runs apply
// in the same transaction. Only one caller can delete the row; the others get
// ErrConsumed. If apply fails the deletion is rolled back.
func (s *Store) ConsumeVerification(ctx context.Context, id uuid.UUID, now time.Time, apply func(tx *Store) error) error {
	return wrap(s.transaction(ctx, func(tx *Store) error {
		res := tx.db.Where("id = ? AND expires_at > ?", id, now).Delete(&models.Verification{})
		if res.Error != nil {
			return wrap(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConsumed
		}
		if apply == nil {
			return nil
		}
		return apply(tx)
	}))
}
