package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/models"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/testkit"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var ctx = context.Background()

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(testkit.NewDB(t), 5*time.Second)
}

func seedUser(t *testing.T, s *Store, email string) *models.User {
	t.Helper()
	now := time.Now().UTC()
	hash := "hash"
	user := &models.User{ID: uuid.New(), Email: email, EmailNormalized: email, CreatedAt: now, UpdatedAt: now}
	account := &models.Account{
		ID:         uuid.New(),
		AccountID:  user.ID.String(),
		ProviderID: models.ProviderCredential,
		Password:   &hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, s.CreateUser(ctx, user, account))
	return user
}

func seedSession(t *testing.T, s *Store, userID uuid.UUID, token string, expiresAt time.Time) *models.Session {
	t.Helper()
	now := time.Now().UTC()
	session := &models.Session{ID: uuid.New(), Token: token, UserID: userID, ExpiresAt: expiresAt, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateSession(ctx, session))
	return session
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newStore(t)
	seedUser(t, s, "alice@example.com")

	now := time.Now().UTC()
	dup := &models.User{ID: uuid.New(), Email: "Alice@example.com", EmailNormalized: "alice@example.com", CreatedAt: now, UpdatedAt: now}
	acct := &models.Account{ID: uuid.New(), AccountID: dup.ID.String(), ProviderID: models.ProviderCredential, CreatedAt: now, UpdatedAt: now}
	err := s.CreateUser(ctx, dup, acct)
	assert.ErrorIs(t, err, ErrDuplicate)

	var users, accounts int64
	require.NoError(t, s.DB().Model(&models.User{}).Count(&users).Error)
	require.NoError(t, s.DB().Model(&models.Account{}).Count(&accounts).Error)
	assert.EqualValues(t, 1, users)
	assert.EqualValues(t, 1, accounts)
}

func TestUserLookups(t *testing.T) {
	s := newStore(t)
	user := seedUser(t, s, "bob@example.com")

	got, err := s.UserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	got, err = s.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", got.Email)

	_, err = s.UserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	account, err := s.CredentialAccount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", *account.Password)
}

func TestUpdateProfile(t *testing.T) {
	s := newStore(t)
	user := seedUser(t, s, "carol@example.com")

	name, image := "Carol", "https://cdn.example.com/c.png"
	got, err := s.UpdateProfile(ctx, user.ID, &name, &image, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, "Carol", got.Name)
	require.NotNil(t, got.Image)
	assert.Equal(t, image, *got.Image)

	empty := ""
	got, err = s.UpdateProfile(ctx, user.ID, nil, &empty, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, "Carol", got.Name)
	assert.Nil(t, got.Image)

	_, err = s.UpdateProfile(ctx, uuid.New(), &name, nil, time.Now().UTC())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionTokenUnique(t *testing.T) {
	s := newStore(t)
	user := seedUser(t, s, "dave@example.com")
	seedSession(t, s, user.ID, "token-digest", time.Now().UTC().Add(time.Hour))

	now := time.Now().UTC()
	err := s.CreateSession(ctx, &models.Session{ID: uuid.New(), Token: "token-digest", UserID: user.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestExtendSessionOnlyMovesForward(t *testing.T) {
	s := newStore(t)
	user := seedUser(t, s, "erin@example.com")
	now := time.Now().UTC()
	session := seedSession(t, s, user.ID, "digest", now.Add(time.Hour))

	changed, err := s.ExtendSession(ctx, session.ID, now.Add(2*time.Hour), now)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.ExtendSession(ctx, session.ID, now.Add(90*time.Minute), now)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := s.SessionByToken(ctx, "digest")
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(2*time.Hour), got.ExpiresAt, time.Second)
}

func TestDeleteUserSessionsKeepsCurrent(t *testing.T) {
	s := newStore(t)
	user := seedUser(t, s, "frank@example.com")
	exp := time.Now().UTC().Add(time.Hour)
	keep := seedSession(t, s, user.ID, "a", exp)
	seedSession(t, s, user.ID, "b", exp)
	seedSession(t, s, user.ID, "c", exp)

	n, err := s.DeleteUserSessions(ctx, user.ID, &keep.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = s.SessionByToken(ctx, "a")
	assert.NoError(t, err)
	_, err = s.SessionByToken(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUserCascades(t *testing.T) {
	s := newStore(t)
	user := seedUser(t, s, "gina@example.com")
	other := seedUser(t, s, "hank@example.com")
	exp := time.Now().UTC().Add(time.Hour)
	seedSession(t, s, user.ID, "s1", exp)
	seedSession(t, s, user.ID, "s2", exp)
	seedSession(t, s, other.ID, "s3", exp)

	require.NoError(t, s.DeleteUser(ctx, user.ID))

	var sessions, accounts int64
	require.NoError(t, s.DB().Model(&models.Session{}).Where("user_id = ?", user.ID).Count(&sessions).Error)
	require.NoError(t, s.DB().Model(&models.Account{}).Where("user_id = ?", user.ID).Count(&accounts).Error)
	assert.Zero(t, sessions)
	assert.Zero(t, accounts)

	_, err := s.SessionByToken(ctx, "s3")
	assert.NoError(t, err)

	assert.ErrorIs(t, s.DeleteUser(ctx, user.ID), ErrNotFound)
}

func newVerification(identifier, value string, expiresAt time.Time) *models.Verification {
	now := time.Now().UTC()
	return &models.Verification{ID: uuid.New(), Identifier: identifier, Value: value, ExpiresAt: expiresAt, CreatedAt: now, UpdatedAt: now}
}

func TestReplaceVerificationSupersedes(t *testing.T) {
	s := newStore(t)
	exp := time.Now().UTC().Add(time.Hour)

	require.NoError(t, s.ReplaceVerification(ctx, newVerification("reset-password:u1", "v1", exp)))
	require.NoError(t, s.ReplaceVerification(ctx, newVerification("reset-password:u2", "v2", exp)))
	require.NoError(t, s.ReplaceVerification(ctx, newVerification("reset-password:u1", "v3", exp)))

	_, err := s.VerificationByValue(ctx, "v1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.VerificationByValue(ctx, "v2")
	assert.NoError(t, err)
	_, err = s.VerificationByValue(ctx, "v3")
	assert.NoError(t, err)
}

func TestVerificationIdentifierUnique(t *testing.T) {
	s := newStore(t)
	exp := time.Now().UTC().Add(time.Hour)

	require.NoError(t, s.DB().Create(newVerification("reset-password:u1", "v1", exp)).Error)
	err := s.DB().Create(newVerification("reset-password:u1", "v2", exp)).Error
	assert.ErrorIs(t, wrap(err), ErrDuplicate)
}

func TestReplaceVerificationConcurrentLeavesOneToken(t *testing.T) {
	s := newStore(t)
	exp := time.Now().UTC().Add(time.Hour)

	const issuers = 8
	var wg sync.WaitGroup
	for i := 0; i < issuers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v := newVerification("reset-password:u1", fmt.Sprintf("v%d", i), exp)
			assert.NoError(t, s.ReplaceVerification(ctx, v))
		}(i)
	}
	wg.Wait()

	var rows []models.Verification
	require.NoError(t, s.DB().Where("identifier = ?", "reset-password:u1").Find(&rows).Error)
	require.Len(t, rows, 1)

	got, err := s.VerificationByValue(ctx, rows[0].Value)
	require.NoError(t, err)
	assert.Equal(t, rows[0].ID, got.ID)
}

func TestConsumeVerificationOnce(t *testing.T) {
	s := newStore(t)
	v := newVerification("email-verification:u1", "v1", time.Now().UTC().Add(time.Hour))
	require.NoError(t, s.ReplaceVerification(ctx, v))

	calls := 0
	apply := func(tx *Store) error { calls++; return nil }

	require.NoError(t, s.ConsumeVerification(ctx, v.ID, time.Now().UTC(), apply))
	assert.ErrorIs(t, s.ConsumeVerification(ctx, v.ID, time.Now().UTC(), apply), ErrConsumed)
	assert.Equal(t, 1, calls)
}

func TestConsumeVerificationExpired(t *testing.T) {
	s := newStore(t)
	v := newVerification("email-verification:u1", "v1", time.Now().UTC().Add(time.Minute))
	require.NoError(t, s.ReplaceVerification(ctx, v))

	err := s.ConsumeVerification(ctx, v.ID, time.Now().UTC().Add(2*time.Minute), nil)
	assert.ErrorIs(t, err, ErrConsumed)
}

func TestConsumeVerificationRollsBackOnApplyError(t *testing.T) {
	s := newStore(t)
	v := newVerification("reset-password:u1", "v1", time.Now().UTC().Add(time.Hour))
	require.NoError(t, s.ReplaceVerification(ctx, v))

	boom := errors.New("boom")
	err := s.ConsumeVerification(ctx, v.ID, time.Now().UTC(), func(tx *Store) error { return boom })
	assert.ErrorIs(t, err, boom)

	_, err = s.VerificationByValue(ctx, "v1")
	assert.NoError(t, err, "token must remain redeemable after a failed side effect")
}

func TestConsumeVerificationConcurrent(t *testing.T) {
	s := newStore(t)
	user := seedUser(t, s, "ivy@example.com")
	v := newVerification("email-verification:"+user.ID.String(), "v1", time.Now().UTC().Add(time.Hour))
	require.NoError(t, s.ReplaceVerification(ctx, v))

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		consumed  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.ConsumeVerification(ctx, v.ID, time.Now().UTC(), func(tx *Store) error {
				return tx.MarkEmailVerified(ctx, user.ID, time.Now().UTC())
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrConsumed):
				consumed++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, consumed)
}

func TestPurgeExpired(t *testing.T) {
	s := newStore(t)
	user := seedUser(t, s, "jill@example.com")
	now := time.Now().UTC()
	seedSession(t, s, user.ID, "old", now.Add(-time.Minute))
	seedSession(t, s, user.ID, "live", now.Add(time.Hour))
	require.NoError(t, s.ReplaceVerification(ctx, newVerification("a", "old", now.Add(-time.Minute))))
	require.NoError(t, s.ReplaceVerification(ctx, newVerification("b", "live", now.Add(time.Hour))))

	sessions, verifications, err := s.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, sessions)
	assert.EqualValues(t, 1, verifications)
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"gorm duplicate", gorm.ErrDuplicatedKey, ErrDuplicate},
		{"pg unique violation", &pgconn.PgError{Code: "23505"}, ErrDuplicate},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: users.email_normalized (2067)"), ErrDuplicate},
		{"other", errors.New("connection refused"), ErrUnavailable},
		{"timeout", context.DeadlineExceeded, ErrUnavailable},
		{"passthrough", ErrConsumed, ErrConsumed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, wrap(tt.in), tt.want)
		})
	}
	assert.NoError(t, wrap(nil))
}
