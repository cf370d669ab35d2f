package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/rosterkeeper/internal/permissions"
)

func TestUser_IsLocked(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	assert.False(t, (&User{}).IsLocked(now))
	assert.True(t, (&User{LockedUntil: &future}).IsLocked(now))
	assert.False(t, (&User{LockedUntil: &past}).IsLocked(now))
	assert.False(t, (&User{LockedUntil: &now}).IsLocked(now))
}

func TestUser_PublicStripsSecrets(t *testing.T) {
	locked := time.Now()
	u := &User{
		ID:                  7,
		Username:            "alice",
		PasswordHash:        "$2a$10$secret",
		FullName:            "Alice A",
		Role:                permissions.Admin,
		IsActive:            true,
		FailedLoginAttempts: 3,
		LockedUntil:         &locked,
	}

	b, err := json.Marshal(u.Public())
	require.NoError(t, err)
	assert.NotContains(t, string(b), "passwordHash")
	assert.NotContains(t, string(b), "failedLoginAttempts")
	assert.NotContains(t, string(b), "lockedUntil")
	assert.Contains(t, string(b), `"role":"admin"`)

	b, err = json.Marshal(u.Summary())
	require.NoError(t, err)
	assert.NotContains(t, string(b), "passwordHash")
	assert.Contains(t, string(b), `"failedLoginAttempts":3`)
	assert.Contains(t, string(b), `"username":"alice"`)
}

func TestUser_StoredShape(t *testing.T) {
	raw := `{"id":1,"username":"admin","passwordHash":"x","fullName":"A","email":null,"role":"servant",
		"isActive":true,"failedLoginAttempts":0,"lockedUntil":null,"lastLogin":null,
		"createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"}`

	var u User
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, permissions.Servant, u.Role)
	assert.Nil(t, u.Email)
	assert.Nil(t, u.LockedUntil)
	assert.False(t, u.RequirePasswordChange)
}
