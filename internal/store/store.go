// Package store is the credential store: users, accounts, sessions and
// verification tokens persisted through GORM. Uniqueness and cascade rules
// live in the schema; the methods here expose the conditional updates the
// services rely on for single-use redemption.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrDuplicate   = errors.New("duplicate record")
	ErrConsumed    = errors.New("verification already consumed")
	ErrUnavailable = errors.New("store unavailable")
)

const pgUniqueViolation = "23505"

type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

// New wraps db. Every call is bounded by timeout when it is positive.
func New(db *gorm.DB, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

// DB exposes the underlying handle for infrastructure such as health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if s.timeout <= 0 {
		return s.db.WithContext(ctx), func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

// transaction runs fn against a Store bound to a single transaction.
func (s *Store) transaction(ctx context.Context, fn func(tx *Store) error) error {
	db, cancel := s.conn(ctx)
	defer cancel()
	return db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Transaction runs fn against a Store bound to a single transaction. The
// transaction rolls back when fn returns an error.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return wrap(s.transaction(ctx, fn))
}

func (s *Store) Ping(ctx context.Context) error {
	db, cancel := s.conn(ctx)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return wrap(err)
	}
	return wrap(sqlDB.PingContext(db.Statement.Context))
}

func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrConsumed), errors.Is(err, ErrUnavailable):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDuplicate(err):
		return ErrDuplicate
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
