package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/config"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/models"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/store"
	"github.com/google/uuid"
)

// VerificationService runs the issue, deliver and redeem sequence for email
// verification and password reset.
type VerificationService struct {
	store            *store.Store
	issuer           *TokenIssuer
	cfg              *config.Config
	sendVerification SendFunc
	sendReset        SendFunc
	now              func() time.Time
}

func NewVerificationService(st *store.Store, issuer *TokenIssuer, cfg *config.Config, sendVerification, sendReset SendFunc) *VerificationService {
	return &VerificationService{
		store:            st,
		issuer:           issuer,
		cfg:              cfg,
		sendVerification: sendVerification,
		sendReset:        sendReset,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// RequestEmailVerification sends a fresh verification link to the user.
func (s *VerificationService) RequestEmailVerification(ctx context.Context, userID uuid.UUID) error {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.EmailVerified {
		return ErrEmailAlreadyVerified
	}

	link := func(token string) (string, error) {
		return withToken(s.cfg.BaseURL+"/api/auth/verify-email", token)
	}
	return s.issuer.IssueVerification(ctx, user, PurposeEmailVerification, s.cfg.EmailVerificationTTL, link, s.sendVerification)
}

// RedeemEmailVerification marks the token owner's email as verified.
func (s *VerificationService) RedeemEmailVerification(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.issuer.parseVerification(token)
	if err != nil {
		return nil, err
	}
	if Purpose(claims.Purpose) != PurposeEmailVerification {
		return nil, withCause(ErrInvalidOrExpiredToken, CauseIdentifierMismatch)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, withCause(ErrInvalidOrExpiredToken, CauseBadSignature)
	}

	v, err := s.lookup(ctx, token, PurposeEmailVerification.identifier(userID))
	if err != nil {
		return nil, err
	}

	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, withCause(ErrInvalidOrExpiredToken, CauseUserMissing)
		}
		return nil, err
	}
	if NormalizeEmail(user.Email) != claims.Email {
		return nil, withCause(ErrInvalidOrExpiredToken, CauseEmailChanged)
	}

	now := s.now()
	err = s.store.ConsumeVerification(ctx, v.ID, now, func(tx *store.Store) error {
		return tx.MarkEmailVerified(ctx, user.ID, now)
	})
	if err != nil {
		return nil, redeemError(err)
	}

	user.EmailVerified = true
	user.UpdatedAt = now
	slog.Info("email verified", "action", "verify_email", "user_id", user.ID.String())
	return user, nil
}

// RequestPasswordReset sends a reset link when email belongs to an account.
// Unknown emails succeed silently so the response does not reveal which
// addresses are registered.
func (s *VerificationService) RequestPasswordReset(ctx context.Context, email string) error {
	var verr ValidationError
	email = validateEmail(&verr, email)
	if err := verr.orNil(); err != nil {
		return err
	}

	user, err := s.store.UserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Info("password reset requested for unknown email", "action", "request_password_reset", "cause", CauseUnknownEmail)
			return nil
		}
		return err
	}

	link := func(token string) (string, error) {
		return withToken(s.cfg.ResetPasswordURL, token)
	}
	return s.issuer.IssueVerification(ctx, user, PurposePasswordReset, s.cfg.PasswordResetTTL, link, s.sendReset)
}

// RedeemPasswordReset sets a new password for the token owner. When
// configured, every session of the account is revoked in the same
// transaction.
func (s *VerificationService) RedeemPasswordReset(ctx context.Context, token, newPassword string) error {
	var verr ValidationError
	validatePassword(&verr, "newPassword", newPassword, s.cfg.PasswordMinLength, s.cfg.PasswordMaxLength)
	if token == "" {
		verr.add("token", "token is required")
	}
	if err := verr.orNil(); err != nil {
		return err
	}

	v, err := s.lookup(ctx, token, "")
	if err != nil {
		return err
	}
	purpose, userID, ok := parseIdentifier(v.Identifier)
	if !ok || purpose != PurposePasswordReset {
		return withCause(ErrInvalidOrExpiredToken, CauseIdentifierMismatch)
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	now := s.now()
	var revoked int64
	err = s.store.ConsumeVerification(ctx, v.ID, now, func(tx *store.Store) error {
		if err := tx.SetPassword(ctx, userID, hash, now); err != nil {
			return err
		}
		if !s.cfg.RevokeSessionsOnPasswordReset {
			return nil
		}
		n, err := tx.DeleteUserSessions(ctx, userID, nil)
		revoked = n
		return err
	})
	if err != nil {
		return redeemError(err)
	}

	slog.Info("password reset", "action", "reset_password", "user_id", userID.String(), "revoked_sessions", revoked)
	return nil
}

// lookup finds the stored verification for token. When identifier is set the
// row must carry it.
func (s *VerificationService) lookup(ctx context.Context, token, identifier string) (*models.Verification, error) {
	if token == "" {
		return nil, withCause(ErrInvalidOrExpiredToken, CauseMalformed)
	}

	v, err := s.store.VerificationByValue(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, withCause(ErrInvalidOrExpiredToken, CauseNotFound)
		}
		return nil, err
	}
	if v.Expired(s.now()) {
		if err := s.store.DeleteVerification(ctx, v.ID); err != nil {
			slog.Warn("failed to delete expired verification", "error", err)
		}
		return nil, withCause(ErrInvalidOrExpiredToken, CauseExpired)
	}
	if identifier != "" && v.Identifier != identifier {
		return nil, withCause(ErrInvalidOrExpiredToken, CauseIdentifierMismatch)
	}
	return v, nil
}

func redeemError(err error) error {
	switch {
	case errors.Is(err, store.ErrConsumed):
		return withCause(ErrInvalidOrExpiredToken, CauseConsumed)
	case errors.Is(err, store.ErrNotFound):
		return withCause(ErrInvalidOrExpiredToken, CauseUserMissing)
	default:
		return err
	}
}

func withToken(base, token string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid link base %q: %w", base, err)
	}
	query := parsed.Query()
	query.Set("token", token)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
