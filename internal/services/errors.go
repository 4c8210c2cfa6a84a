package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/mail"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/store"
)

var (
	ErrEmailTaken            = errors.New("account may already exist")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrEmailAlreadyVerified  = errors.New("email already verified")
	ErrUserNotFound          = errors.New("user not found")
	ErrDelivery              = mail.ErrDelivery
	ErrStoreUnavailable      = store.ErrUnavailable
)

// Internal causes. They are logged, never returned to clients.
const (
	CauseMalformed          = "malformed"
	CauseNotFound           = "not_found"
	CauseExpired            = "expired"
	CauseConsumed           = "already_used"
	CauseIdentifierMismatch = "identifier_mismatch"
	CauseBadSignature       = "bad_signature"
	CauseEmailChanged       = "email_changed"
	CauseUserMissing        = "user_missing"
	CauseUnknownEmail       = "unknown_email"
	CauseWrongPassword      = "wrong_password"
	CauseNoPassword         = "no_credential"
	CauseEmailUnverified    = "email_unverified"
)

// CauseError pairs a public sentinel with the internal reason it was raised.
type CauseError struct {
	Err   error
	Cause string
}

func (e *CauseError) Error() string {
	return e.Err.Error() + ": " + e.Cause
}

func (e *CauseError) Unwrap() error {
	return e.Err
}

func withCause(err error, cause string) error {
	return &CauseError{Err: err, Cause: cause}
}

// Cause returns the internal cause attached to err, or "".
func Cause(err error) string {
	var ce *CauseError
	if errors.As(err, &ce) {
		return ce.Cause
	}
	return ""
}

// ValidationError reports malformed input per field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// orNil returns e only when at least one field failed.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
