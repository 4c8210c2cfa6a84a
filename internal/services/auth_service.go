package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/config"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/models"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/store"
	"github.com/google/uuid"
)

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type ProfileUpdate struct {
	Name  *string
	Image *string
}

type AuthService struct {
	store         *store.Store
	issuer        *TokenIssuer
	validator     *SessionValidator
	verifications *VerificationService
	cfg           *config.Config
	now           func() time.Time
}

func NewAuthService(st *store.Store, issuer *TokenIssuer, validator *SessionValidator, verifications *VerificationService, cfg *config.Config) *AuthService {
	return &AuthService{
		store:         st,
		issuer:        issuer,
		validator:     validator,
		verifications: verifications,
		cfg:           cfg,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a user with a credential account. A taken email returns
// ErrEmailTaken and creates nothing.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	var verr ValidationError
	email := validateEmail(&verr, in.Email)
	validatePassword(&verr, "password", in.Password, s.cfg.PasswordMinLength, s.cfg.PasswordMaxLength)
	name := strings.TrimSpace(in.Name)
	if len(name) > 255 {
		verr.add("name", "name is too long")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		ID:              uuid.New(),
		Name:            name,
		Email:           email,
		EmailNormalized: NormalizeEmail(email),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	account := &models.Account{
		ID:         uuid.New(),
		AccountID:  user.ID.String(),
		ProviderID: models.ProviderCredential,
		Password:   &hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateUser(ctx, user, account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	slog.Info("user registered", "action", "register", "user_id", user.ID.String())

	if s.cfg.SendVerificationOnSignUp {
		if err := s.verifications.RequestEmailVerification(ctx, user.ID); err != nil {
			slog.Error("sign-up verification email failed", "action", "register", "user_id", user.ID.String(), "error", err)
		}
	}
	return user, nil
}

// Login checks the password and opens a session. Every rejection is
// ErrInvalidCredentials; the cause is only logged.
func (s *AuthService) Login(ctx context.Context, email, password string, meta SessionMeta) (*IssuedSession, *models.User, error) {
	var verr ValidationError
	if strings.TrimSpace(email) == "" {
		verr.add("email", "email is required")
	}
	if password == "" {
		verr.add("password", "password is required")
	}
	if err := verr.orNil(); err != nil {
		return nil, nil, err
	}

	user, err := s.store.UserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			checkPassword(nil, password)
			return nil, nil, withCause(ErrInvalidCredentials, CauseUnknownEmail)
		}
		return nil, nil, err
	}

	account, err := s.store.CredentialAccount(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			checkPassword(nil, password)
			return nil, nil, withCause(ErrInvalidCredentials, CauseNoPassword)
		}
		return nil, nil, err
	}
	if !checkPassword(account.Password, password) {
		return nil, nil, withCause(ErrInvalidCredentials, CauseWrongPassword)
	}
	if s.cfg.RequireEmailVerification && !user.EmailVerified {
		return nil, nil, withCause(ErrInvalidCredentials, CauseEmailUnverified)
	}

	issued, err := s.issuer.IssueSession(ctx, user, meta)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("user logged in", "action", "login", "user_id", user.ID.String())
	return issued, user, nil
}

// Logout revokes the presented session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.validator.Revoke(ctx, token)
}

// ChangePassword replaces the password after checking the current one. With
// revokeOthers, every other session of the user is deleted.
func (s *AuthService) ChangePassword(ctx context.Context, id *Identity, current, next string, revokeOthers bool) error {
	var verr ValidationError
	if current == "" {
		verr.add("currentPassword", "password is required")
	}
	validatePassword(&verr, "newPassword", next, s.cfg.PasswordMinLength, s.cfg.PasswordMaxLength)
	if err := verr.orNil(); err != nil {
		return err
	}

	account, err := s.store.CredentialAccount(ctx, id.User.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return withCause(ErrInvalidCredentials, CauseNoPassword)
		}
		return err
	}
	if !checkPassword(account.Password, current) {
		return withCause(ErrInvalidCredentials, CauseWrongPassword)
	}

	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	var revoked int64
	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.SetPassword(ctx, id.User.ID, hash, s.now()); err != nil {
			return err
		}
		if !revokeOthers {
			return nil
		}
		n, err := tx.DeleteUserSessions(ctx, id.User.ID, &id.Session.ID)
		revoked = n
		return err
	})
	if err != nil {
		return err
	}

	if revokeOthers {
		slog.Info("other sessions revoked", "action", "change_password", "user_id", id.User.ID.String(), "count", revoked)
	}
	return nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*models.User, error) {
	var verr ValidationError
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) > 255 {
			verr.add("name", "name is too long")
		}
		in.Name = &name
	}
	if in.Image != nil && len(*in.Image) > 1024 {
		verr.add("image", "image reference is too long")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	user, err := s.store.UpdateProfile(ctx, userID, in.Name, in.Image, s.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the user after confirming the password. Sessions and
// accounts are removed by the cascade.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uuid.UUID, password string) error {
	if password == "" {
		return &ValidationError{Fields: map[string]string{"password": "password is required"}}
	}

	account, err := s.store.CredentialAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return withCause(ErrInvalidCredentials, CauseNoPassword)
		}
		return err
	}
	if !checkPassword(account.Password, password) {
		return withCause(ErrInvalidCredentials, CauseWrongPassword)
	}

	if err := s.store.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	slog.Info("account deleted", "action", "delete_account", "user_id", userID.String())
	return nil
}
