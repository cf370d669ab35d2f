package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/rosterkeeper/internal/models"
)

func TestBuildIndexes(t *testing.T) {
	users := []models.User{{ID: 1, Username: "alice"}, {ID: 2, Username: "Bob"}, {ID: 3}}
	sessions := []models.Session{{ID: 1, SessionToken: "tok1"}, {ID: 2}}

	idx := BuildIndexes(users, sessions)

	assert.Len(t, idx.UsersByUsername, 2)
	assert.Len(t, idx.SessionsByToken, 1)
	require.Contains(t, idx.UsersByUsername, "bob")
	assert.Equal(t, int64(2), idx.UsersByUsername["bob"].ID)

	// entries alias the snapshot
	idx.UsersByUsername["alice"].FailedLoginAttempts = 2
	assert.Equal(t, 2, users[0].FailedLoginAttempts)
}
