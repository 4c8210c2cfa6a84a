package store

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/models"
	"github.com/google/uuid"
)

// CreateSession inserts a session. A token collision surfaces as ErrDuplicate
// rather than overwriting the existing row.
func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	db, cancel := s.conn(ctx)
	defer cancel()
	return wrap(db.Create(session).Error)
}

// SessionByToken finds a session by the full token digest.
func (s *Store) SessionByToken(ctx context.Context, tokenHash string) (*models.Session, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var session models.Session
	if err := db.Where("token = ?", tokenHash).First(&session).Error; err != nil {
		return nil, wrap(err)
	}
	return &session, nil
}

// ExtendSession moves expires_at forward. The update only applies while the
// stored expiry is still earlier than the new one, so concurrent renewals
// never move it backwards. It reports whether a row changed.
func (s *Store) ExtendSession(ctx context.Context, id uuid.UUID, expiresAt, now time.Time) (bool, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Model(&models.Session{}).
		Where("id = ? AND expires_at > ? AND expires_at < ?", id, now, expiresAt).
		Updates(map[string]interface{}{"expires_at": expiresAt, "updated_at": now})
	if res.Error != nil {
		return false, wrap(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) DeleteSession(ctx context.Context, tokenHash string) error {
	db, cancel := s.conn(ctx)
	defer cancel()
	return wrap(db.Where("token = ?", tokenHash).Delete(&models.Session{}).Error)
}

// DeleteUserSessions removes every session of the user except keep, when set.
func (s *Store) DeleteUserSessions(ctx context.Context, userID uuid.UUID, keep *uuid.UUID) (int64, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	q := db.Where("user_id = ?", userID)
	if keep != nil {
		q = q.Where("id <> ?", *keep)
	}
	res := q.Delete(&models.Session{})
	return res.RowsAffected, wrap(res.Error)
}
