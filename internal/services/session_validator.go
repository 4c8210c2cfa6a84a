package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/models"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/store"
)

// Identity is the result of a successful session validation.
type Identity struct {
	Session *models.Session
	User    *models.User
}

// SessionValidator resolves bearer tokens to identities.
type SessionValidator struct {
	store      *store.Store
	sessionTTL time.Duration
	updateAge  time.Duration
	now        func() time.Time
}

// NewSessionValidator returns a validator. A positive updateAge enables
// sliding renewal: once that long has passed since the last renewal, a
// successful validation pushes expiry to now+sessionTTL.
func NewSessionValidator(st *store.Store, sessionTTL, updateAge time.Duration) *SessionValidator {
	return &SessionValidator{
		store:      st,
		sessionTTL: sessionTTL,
		updateAge:  updateAge,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Validate returns the identity owning token. Every rejection is
// ErrUnauthenticated; the attached cause says why.
func (v *SessionValidator) Validate(ctx context.Context, token string) (*Identity, error) {
	if !ValidTokenSyntax(token) {
		return nil, withCause(ErrUnauthenticated, CauseMalformed)
	}

	session, err := v.store.SessionByToken(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, withCause(ErrUnauthenticated, CauseNotFound)
		}
		return nil, err
	}

	now := v.now()
	if session.Expired(now) {
		return nil, withCause(ErrUnauthenticated, CauseExpired)
	}

	user, err := v.store.UserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, withCause(ErrUnauthenticated, CauseUserMissing)
		}
		return nil, err
	}

	if v.dueForRenewal(session, now) {
		expiresAt := now.Add(v.sessionTTL)
		changed, err := v.store.ExtendSession(ctx, session.ID, expiresAt, now)
		switch {
		case err != nil:
			slog.Warn("session renewal failed", "action", "session_renew", "user_id", user.ID.String(), "error", err)
		case changed:
			session.ExpiresAt = expiresAt
			session.UpdatedAt = now
		}
	}

	return &Identity{Session: session, User: user}, nil
}

// Revoke deletes the session behind token. Unknown tokens are not an error.
func (v *SessionValidator) Revoke(ctx context.Context, token string) error {
	if !ValidTokenSyntax(token) {
		return nil
	}
	return v.store.DeleteSession(ctx, hashToken(token))
}

func (v *SessionValidator) dueForRenewal(session *models.Session, now time.Time) bool {
	if v.updateAge <= 0 {
		return false
	}
	renewedAt := session.ExpiresAt.Add(-v.sessionTTL)
	return !now.Before(renewedAt.Add(v.updateAge))
}
