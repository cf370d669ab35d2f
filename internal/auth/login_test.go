package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/rosterkeeper/internal/models"
	"github.com/dmitrijs2005/rosterkeeper/internal/store"
)

func TestScenario_SetupLoginValidate(t *testing.T) {
	f := newFixture(t)

	id, err := f.svc.SetupInitialAdmin(f.ctx, SetupRequest{Username: "alice", Password: "Passw0rd!", FullName: "Alice A", Email: ""})
	require.NoError(t, err)

	needs, err := f.svc.NeedsSetup(f.ctx)
	require.NoError(t, err)
	require.False(t, needs)

	res := f.login(t, "ALICE", "Passw0rd!")
	assert.Len(t, res.SessionToken, 64)
	assert.Equal(t, id, res.User.ID)
	assert.Equal(t, start.Add(30*time.Minute), res.ExpiresAt)

	info, err := f.svc.ValidateSession(f.ctx, res.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, id, info.User.ID)
	assert.Equal(t, res.SessionToken, info.SessionToken)
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	id := f.setupAdmin(t)

	res, err := f.svc.Login(f.ctx, LoginRequest{Username: "alice", Password: "Passw0rd!", RememberMe: true})
	require.NoError(t, err)
	assert.Equal(t, start.Add(7*24*time.Hour), res.ExpiresAt)

	u := f.user(t, id)
	require.NotNil(t, u.LastLogin)
	assert.True(t, start.Equal(*u.LastLogin))

	sessions := f.sessions(t)
	require.Len(t, sessions, 1)
	assert.Equal(t, id, sessions[0].UserID)
	assert.Equal(t, int64(1), sessions[0].ID)

	entry := f.lastAudit(t)
	assert.Equal(t, models.ActionLoginSuccess, entry.Action)
	assert.Equal(t, "Login with remember me", entry.Details)

	second := f.login(t, "alice", "Passw0rd!")
	assert.NotEqual(t, res.SessionToken, second.SessionToken)
	assert.Len(t, f.sessions(t), 2, "concurrent sessions are allowed")
	assert.Equal(t, "Login", f.lastAudit(t).Details)
}

func TestLogin_UnknownOrInactiveUser(t *testing.T) {
	f := newFixture(t)
	f.setupAdmin(t)

	_, err := f.svc.Login(f.ctx, LoginRequest{Username: "Mallory", Password: "whatever1A"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "Invalid username or password", err.Error())

	entry := f.lastAudit(t)
	assert.Equal(t, models.ActionLoginFailed, entry.Action)
	assert.Nil(t, entry.UserID)
	assert.Equal(t, "mallory", entry.Username)
	assert.Equal(t, "User not found or inactive", entry.Details)

	users, _ := f.store.ReadUsers(f.ctx)
	users[0].IsActive = false
	require.NoError(t, f.store.WriteUsers(f.ctx, users))

	_, err = f.svc.Login(f.ctx, LoginRequest{Username: "alice", Password: "Passw0rd!"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, f.sessions(t))
}

// countingHasher records every Verify call made through it.
type countingHasher struct {
	PasswordHasher
	verified []string
}

func (h *countingHasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	h.verified = append(h.verified, hash)
	return h.PasswordHasher.Verify(ctx, plaintext, hash)
}

func TestLogin_UnknownUserStillVerifies(t *testing.T) {
	f := newFixture(t)
	id := f.setupAdmin(t)
	hasher := &countingHasher{PasswordHasher: f.svc.hasher}
	f.svc.hasher = hasher

	_, err := f.svc.Login(f.ctx, LoginRequest{Username: "mallory", Password: "whatever1A"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Len(t, hasher.verified, 1, "unknown user costs one bcrypt comparison")
	assert.NotEqual(t, f.user(t, id).PasswordHash, hasher.verified[0])

	_, err = f.svc.Login(f.ctx, LoginRequest{Username: "nobody", Password: "whatever1A"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Len(t, hasher.verified, 2)
	assert.Equal(t, hasher.verified[0], hasher.verified[1], "dummy hash is computed once")

	_, err = f.svc.Login(f.ctx, LoginRequest{Username: "alice", Password: "nope"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Len(t, hasher.verified, 3)
	assert.Equal(t, f.user(t, id).PasswordHash, hasher.verified[2])
}

func TestLogin_WrongPasswordIsGeneric(t *testing.T) {
	f := newFixture(t)
	id := f.setupAdmin(t)

	_, err := f.svc.Login(f.ctx, LoginRequest{Username: "alice", Password: "nope"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, IsValidation(err))

	assert.Equal(t, 1, f.user(t, id).FailedLoginAttempts)
	entry := f.lastAudit(t)
	assert.Equal(t, models.ActionLoginFailed, entry.Action)
	assert.Equal(t, "Invalid password (attempt 1/5)", entry.Details)
}

func TestLogin_LockoutBoundary(t *testing.T) {
	f := newFixture(t)
	id := f.setupAdmin(t)

	for i := 1; i <= 4; i++ {
		_, err := f.svc.Login(f.ctx, LoginRequest{Username: "alice", Password: "wrong"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
		assert.NotErrorIs(t, err, ErrAccountLocked)
	}
	u := f.user(t, id)
	assert.Equal(t, 4, u.FailedLoginAttempts)
	assert.Nil(t, u.LockedUntil, "four failures leave the account unlocked")

	_, err := f.svc.Login(f.ctx, LoginRequest{Username: "alice", Password: "wrong"})
	require.ErrorIs(t, err, ErrAccountLocked)
	var locked *LockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, 15*time.Minute, locked.Remaining)
	assert.Equal(t, "Account locked. Try again in 15 minutes.", err.Error())

	u = f.user(t, id)
	assert.Equal(t, 5, u.FailedLoginAttempts)
	require.NotNil(t, u.LockedUntil)
	assert.True(t, start.Add(15*time.Minute).Equal(*u.LockedUntil))

	entry := f.lastAudit(t)
	assert.Equal(t, models.ActionAccountLocked, entry.Action)
	assert.Equal(t, "Account locked after 5 failed attempts", entry.Details)

	// inside the window even the right password is refused, counter untouched
	f.clock.Advance(14*time.Minute + 30*time.Second)
	_, err = f.svc.Login(f.ctx, LoginRequest{Username: "alice", Password: "Passw0rd!"})
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, 30*time.Second, locked.Remaining)
	assert.Equal(t, "Account locked. Try again in 1 minute.", err.Error())
	assert.Equal(t, 5, f.user(t, id).FailedLoginAttempts)
	assert.Equal(t, models.ActionAccountLocked, f.lastAudit(t).Action)

	// window over: the lock clears before the password is checked
	f.clock.Advance(30 * time.Second)
	_, err = f.svc.Login(f.ctx, LoginRequest{Username: "alice", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	u = f.user(t, id)
	assert.Equal(t, 1, u.FailedLoginAttempts)
	assert.Nil(t, u.LockedUntil)

	f.login(t, "alice", "Passw0rd!")
	assert.Zero(t, f.user(t, id).FailedLoginAttempts)
}

func TestLogin_LockExpiredThenCorrectPassword(t *testing.T) {
	f := newFixture(t)
	id := f.setupAdmin(t)

	for range 5 {
		_, _ = f.svc.Login(f.ctx, LoginRequest{Username: "alice", Password: "wrong"})
	}
	f.clock.Advance(16 * time.Minute)

	res := f.login(t, "alice", "Passw0rd!")
	assert.Equal(t, id, res.User.ID)
	u := f.user(t, id)
	assert.Zero(t, u.FailedLoginAttempts)
	assert.Nil(t, u.LockedUntil)
}

func TestValidateSession(t *testing.T) {
	f := newFixture(t)
	f.setupAdmin(t)
	res := f.login(t, "alice", "Passw0rd!")

	_, err := f.svc.ValidateSession(f.ctx, "")
	require.ErrorIs(t, err, ErrInvalidSession)
	_, err = f.svc.ValidateSession(f.ctx, "deadbeef")
	require.ErrorIs(t, err, ErrInvalidSession)

	f.clock.Advance(29 * time.Minute)
	_, err = f.svc.ValidateSession(f.ctx, res.SessionToken)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	_, err = f.svc.ValidateSession(f.ctx, res.SessionToken)
	require.ErrorIs(t, err, ErrInvalidSession)
	assert.Empty(t, f.sessions(t), "expired session is purged on access")
}

func TestValidateSession_ExpiryBoundary(t *testing.T) {
	f := newFixture(t)
	f.setupAdmin(t)
	res := f.login(t, "alice", "Passw0rd!")

	f.clock.Advance(30 * time.Minute)
	_, err := f.svc.ValidateSession(f.ctx, res.SessionToken)
	require.NoError(t, err, "session is valid at its expiry instant")

	removed, err := f.svc.CleanupExpiredSessions(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	f.clock.Advance(time.Second)
	_, err = f.svc.ValidateSession(f.ctx, res.SessionToken)
	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestValidateSession_InactiveUser(t *testing.T) {
	f := newFixture(t)
	admin := f.setupAdmin(t)
	_, err := f.svc.CreateUser(f.ctx, CreateUserRequest{Username: "bob", Password: "password1", FullName: "Bob", Role: "servant"}, admin)
	require.NoError(t, err)
	res := f.login(t, "bob", "password1")

	users, _ := f.store.ReadUsers(f.ctx)
	users[1].IsActive = false
	require.NoError(t, f.store.WriteUsers(f.ctx, users))

	_, err = f.svc.ValidateSession(f.ctx, res.SessionToken)
	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	id := f.setupAdmin(t)
	first := f.login(t, "alice", "Passw0rd!")
	second := f.login(t, "alice", "Passw0rd!")

	require.NoError(t, f.svc.Logout(f.ctx, first.SessionToken))

	entry := f.lastAudit(t)
	assert.Equal(t, models.ActionLogout, entry.Action)
	assert.Equal(t, "alice", entry.Username)
	assert.Equal(t, "User logged out", entry.Details)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, id, *entry.UserID)

	sessions := f.sessions(t)
	require.Len(t, sessions, 1)
	assert.Equal(t, second.SessionToken, sessions[0].SessionToken)

	before, _ := f.store.ReadAudit(f.ctx)
	require.NoError(t, f.svc.Logout(f.ctx, first.SessionToken))
	require.NoError(t, f.svc.Logout(f.ctx, ""))
	after, _ := f.store.ReadAudit(f.ctx)
	assert.Len(t, after, len(before), "unknown tokens are a silent no-op")
}

func TestCleanupExpiredSessions(t *testing.T) {
	f := newFixture(t)
	f.setupAdmin(t)
	f.login(t, "alice", "Passw0rd!")
	long, err := f.svc.Login(f.ctx, LoginRequest{Username: "alice", Password: "Passw0rd!", RememberMe: true})
	require.NoError(t, err)

	n, err := f.svc.CleanupExpiredSessions(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clock.Advance(time.Hour)
	n, err = f.svc.CleanupExpiredSessions(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sessions := f.sessions(t)
	require.Len(t, sessions, 1)
	assert.Equal(t, long.SessionToken, sessions[0].SessionToken)
}

func TestRunSessionSweeper(t *testing.T) {
	f := newFixture(t)
	f.setupAdmin(t)
	f.login(t, "alice", "Passw0rd!")

	ctx, cancel := context.WithCancel(f.ctx)
	done := make(chan struct{})
	go func() {
		f.svc.RunSessionSweeper(ctx)
		close(done)
	}()

	f.clock.WaitForTimers(1)
	require.Len(t, f.sessions(t), 1)

	f.clock.Advance(time.Hour)
	require.Eventually(t, func() bool {
		return len(f.sessions(t)) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSessionIDsAreNotReused(t *testing.T) {
	f := newFixture(t)
	f.setupAdmin(t)
	first := f.login(t, "alice", "Passw0rd!")
	require.NoError(t, f.svc.Logout(f.ctx, first.SessionToken))
	f.login(t, "alice", "Passw0rd!")

	sessions := f.sessions(t)
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(2), sessions[0].ID)
}

func TestAuditLog_KeepsNewest500(t *testing.T) {
	f := newFixture(t)

	for i := 1; i <= 501; i++ {
		_, err := f.svc.Login(f.ctx, LoginRequest{Username: fmt.Sprintf("user%03d", i), Password: "x"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	entries, err := f.svc.ListAudit(f.ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, store.AuditCap)
	assert.Equal(t, "user501", entries[0].Username)
	assert.Equal(t, "user002", entries[len(entries)-1].Username)

	page, err := f.svc.ListAudit(f.ctx, 10)
	require.NoError(t, err)
	assert.Len(t, page, 10)
}

func TestLogin_TokenGenerationFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	id := f.setupAdmin(t)
	f.svc.newToken = func() (string, error) { return "", assert.AnError }

	_, err := f.svc.Login(f.ctx, LoginRequest{Username: "alice", Password: "Passw0rd!"})
	require.ErrorIs(t, err, assert.AnError)

	assert.Nil(t, f.user(t, id).LastLogin, "user update is rolled back with the session")
	assert.Empty(t, f.sessions(t))
}
