package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/models"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purpose scopes a verification token to one flow.
type Purpose string

const (
	PurposeEmailVerification Purpose = "email-verification"
	PurposePasswordReset     Purpose = "reset-password"
)

func (p Purpose) identifier(userID uuid.UUID) string {
	return string(p) + ":" + userID.String()
}

// parseIdentifier splits "<purpose>:<userID>".
func parseIdentifier(identifier string) (Purpose, uuid.UUID, bool) {
	purpose, id, ok := strings.Cut(identifier, ":")
	if !ok {
		return "", uuid.Nil, false
	}
	userID, err := uuid.Parse(id)
	if err != nil {
		return "", uuid.Nil, false
	}
	return Purpose(purpose), userID, true
}

const (
	tokenBytes         = 32
	sessionInsertTries = 3
)

// Raw URL base64 of 32 bytes is always 43 characters.
var opaqueTokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{43}$`)

// ValidTokenSyntax reports whether s has the shape of an issued session token.
func ValidTokenSyntax(s string) bool {
	return opaqueTokenPattern.MatchString(s)
}

// SendFunc delivers a link carrying token to user.
type SendFunc func(ctx context.Context, user *models.User, url, token string) error

// LinkFunc builds the URL embedded in the email for token.
type LinkFunc func(token string) (string, error)

type SessionMeta struct {
	IPAddress string
	UserAgent string
}

// IssuedSession is a stored session plus the bearer token handed to the
// client. The token itself is never persisted.
type IssuedSession struct {
	Token   string
	Session *models.Session
}

type verificationClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenIssuer creates session and verification tokens.
type TokenIssuer struct {
	store      *store.Store
	secret     []byte
	sessionTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(st *store.Store, secret string, sessionTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		store:      st,
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// IssueSession creates a session for user with a fresh 256-bit token.
func (t *TokenIssuer) IssueSession(ctx context.Context, user *models.User, meta SessionMeta) (*IssuedSession, error) {
	for attempt := 1; ; attempt++ {
		raw, err := randomToken()
		if err != nil {
			return nil, err
		}

		now := t.now()
		session := &models.Session{
			ID:        uuid.New(),
			Token:     hashToken(raw),
			UserID:    user.ID,
			ExpiresAt: now.Add(t.sessionTTL),
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
			CreatedAt: now,
			UpdatedAt: now,
		}

		err = t.store.CreateSession(ctx, session)
		if err == nil {
			return &IssuedSession{Token: raw, Session: session}, nil
		}
		if !errors.Is(err, store.ErrDuplicate) || attempt == sessionInsertTries {
			return nil, fmt.Errorf("failed to store session: %w", err)
		}
	}
}

// IssueVerification stores a new token for user and purpose, superseding any
// outstanding one, and delivers it. If delivery fails the token is deleted
// again so the user is never left with a valid token they did not receive.
func (t *TokenIssuer) IssueVerification(ctx context.Context, user *models.User, purpose Purpose, ttl time.Duration, link LinkFunc, send SendFunc) error {
	now := t.now()
	expiresAt := now.Add(ttl)

	var (
		raw string
		err error
	)
	switch purpose {
	case PurposeEmailVerification:
		raw, err = t.signVerification(user, purpose, now, expiresAt)
	case PurposePasswordReset:
		raw, err = randomToken()
	default:
		err = fmt.Errorf("unknown verification purpose %q", purpose)
	}
	if err != nil {
		return err
	}

	v := &models.Verification{
		ID:         uuid.New(),
		Identifier: purpose.identifier(user.ID),
		Value:      hashToken(raw),
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := t.store.ReplaceVerification(ctx, v); err != nil {
		return fmt.Errorf("failed to store verification: %w", err)
	}

	url, err := link(raw)
	if err == nil {
		err = send(ctx, user, url, raw)
	}
	if err != nil {
		// The request context may already be done; rollback gets its own.
		rollbackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if rbErr := t.store.DeleteVerification(rollbackCtx, v.ID); rbErr != nil {
			slog.Error("failed to revoke undelivered verification", "action", string(purpose), "user_id", user.ID.String(), "error", rbErr)
		}
		return err
	}
	return nil
}

func (t *TokenIssuer) signVerification(user *models.User, purpose Purpose, now, expiresAt time.Time) (string, error) {
	claims := verificationClaims{
		Email:   NormalizeEmail(user.Email),
		Purpose: string(purpose),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign verification token: %w", err)
	}
	return signed, nil
}

// parseVerification checks signature and expiry of a signed verification
// token. Failures carry CauseExpired or CauseBadSignature.
func (t *TokenIssuer) parseVerification(raw string) (*verificationClaims, error) {
	var claims verificationClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	switch {
	case err == nil:
		return &claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, withCause(ErrInvalidOrExpiredToken, CauseExpired)
	default:
		return nil, withCause(ErrInvalidOrExpiredToken, CauseBadSignature)
	}
}

func randomToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
