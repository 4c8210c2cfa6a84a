package services

import (
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSession(t *testing.T) {
	e := newEnv(t)
	user := e.register(t, "alice@example.com", "pw123")
	issued := e.login(t, "alice@example.com", "pw123")

	id, err := e.validator.Validate(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id.User.ID)
	assert.Equal(t, issued.Session.ID, id.Session.ID)
}

func TestValidateRejections(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice@example.com", "pw123")
	issued := e.login(t, "alice@example.com", "pw123")

	tests := []struct {
		name  string
		token string
		cause string
	}{
		{"empty", "", CauseMalformed},
		{"too short", issued.Token[:42], CauseMalformed},
		{"bad alphabet", strings.Repeat("*", 43), CauseMalformed},
		{"unknown", strings.Repeat("A", 43), CauseNotFound},
		{"stored digest", issued.Session.Token, CauseMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.validator.Validate(ctx, tt.token)
			assert.ErrorIs(t, err, ErrUnauthenticated)
			assert.Equal(t, tt.cause, Cause(err))
		})
	}
}

func TestValidateExpiry(t *testing.T) {
	e := newEnv(t, func(c *config.Config) { c.SessionUpdateAge = 0 })
	e.register(t, "alice@example.com", "pw123")
	issued := e.login(t, "alice@example.com", "pw123")

	e.clock.Advance(e.cfg.SessionTTL - time.Second)
	_, err := e.validator.Validate(ctx, issued.Token)
	require.NoError(t, err, "valid just before expiry")

	e.clock.Advance(time.Second)
	_, err = e.validator.Validate(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, CauseExpired, Cause(err))
}

func TestValidateSlidingRenewal(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice@example.com", "pw123")
	issued := e.login(t, "alice@example.com", "pw123")
	originalExpiry := issued.Session.ExpiresAt

	e.clock.Advance(12 * time.Hour)
	id, err := e.validator.Validate(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, originalExpiry, id.Session.ExpiresAt, "not renewed before update age")

	e.clock.Advance(13 * time.Hour)
	id, err = e.validator.Validate(ctx, issued.Token)
	require.NoError(t, err)
	want := e.clock.Now().Add(e.cfg.SessionTTL)
	assert.Equal(t, want, id.Session.ExpiresAt)

	stored, err := e.store.SessionByToken(ctx, issued.Session.Token)
	require.NoError(t, err)
	assert.True(t, stored.ExpiresAt.Equal(want))

	// Past the original expiry the renewed session is still accepted.
	e.clock.Advance(e.cfg.SessionTTL - time.Hour)
	_, err = e.validator.Validate(ctx, issued.Token)
	assert.NoError(t, err)
}

func TestRevokeIgnoresMalformedToken(t *testing.T) {
	e := newEnv(t)
	assert.NoError(t, e.validator.Revoke(ctx, "garbage"))
}
