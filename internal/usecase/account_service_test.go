package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tradesim/internal/domain"
)

func newAccountFixture() (*AccountService, *fakeUsers, *fakeSessions) {
	users := newFakeUsers()
	sessions := newFakeSessions()
	return NewAccountService(users, sessions, money("10000.00"), time.Hour), users, sessions
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	as, _, _ := newAccountFixture()

	user, err := as.Register(ctx, "alice", "hunter22", "hunter22")
	require.NoError(t, err)

	assert.Equal(t, "alice", user.Username)
	assert.True(t, user.Cash.Equal(money("10000.00")))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))
	assert.NotEqual(t, "hunter22", user.PasswordHash)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	as, _, _ := newAccountFixture()

	tests := []struct {
		name         string
		username     string
		password     string
		confirmation string
		want         error
	}{
		{"missing username", "", "hunter22", "hunter22", domain.ErrMissingField},
		{"missing password", "alice", "", "", domain.ErrMissingField},
		{"missing confirmation", "alice", "hunter22", "", domain.ErrMissingField},
		{"short password", "alice", "abc", "abc", domain.ErrPasswordTooShort},
		{"mismatch", "alice", "hunter22", "hunter23", domain.ErrPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := as.Register(ctx, tt.username, tt.password, tt.confirmation)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	as, users, _ := newAccountFixture()

	first, err := as.Register(ctx, "alice", "hunter22", "hunter22")
	require.NoError(t, err)

	_, err = as.Register(ctx, "alice", "other-password", "other-password")
	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)

	// first registration untouched
	stored, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter22")))
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	as, _, _ := newAccountFixture()

	user, err := as.Register(ctx, "alice", "hunter22", "hunter22")
	require.NoError(t, err)

	got, err := as.Authenticate(ctx, "alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// unknown user and wrong password are indistinguishable
	_, err = as.Authenticate(ctx, "nobody", "hunter22")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = as.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = as.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrMissingField)
}

func TestStartSessionClearsPriorSessions(t *testing.T) {
	ctx := context.Background()
	as, _, sessions := newAccountFixture()

	user, err := as.Register(ctx, "alice", "hunter22", "hunter22")
	require.NoError(t, err)

	first, err := as.StartSession(ctx, user.ID)
	require.NoError(t, err)

	second, err := as.StartSession(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, 1, sessions.count())

	// the old token no longer resolves
	_, err = sessions.GetByToken(ctx, first.Token)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := sessions.GetByToken(ctx, second.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
}

func TestEndSession(t *testing.T) {
	ctx := context.Background()
	as, _, sessions := newAccountFixture()

	user, err := as.Register(ctx, "alice", "hunter22", "hunter22")
	require.NoError(t, err)

	session, err := as.StartSession(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, as.EndSession(ctx, session.Token))

	_, err = sessions.GetByToken(ctx, session.Token)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
