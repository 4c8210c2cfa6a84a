package store

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/models"
)

// PurgeExpired removes sessions and verifications whose expiry has passed.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (sessions, verifications int64, err error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Where("expires_at <= ?", now).Delete(&models.Session{})
	if res.Error != nil {
		return 0, 0, wrap(res.Error)
	}
	sessions = res.RowsAffected

	res = db.Where("expires_at <= ?", now).Delete(&models.Verification{})
	if res.Error != nil {
		return sessions, 0, wrap(res.Error)
	}
	return sessions, res.RowsAffected, nil
}

// PurgeLogs removes system logs older than cutoff.
func (s *Store) PurgeLogs(ctx context.Context, cutoff time.Time) (int64, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return res.RowsAffected, wrap(res.Error)
}
