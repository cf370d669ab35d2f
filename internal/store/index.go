package store

import (
	"strings"

	"github.com/dmitrijs2005/rosterkeeper/internal/models"
)

// Indexes are lookup maps over collection snapshots. Values point into the
// slices given to BuildIndexes, so edits through them change those slices;
// rebuild after appending or writing.
type Indexes struct {
	UsersByUsername map[string]*models.User
	SessionsByToken map[string]*models.Session
}

// BuildIndexes keys users by lowercased username and sessions by token.
// Records with an empty key are skipped.
func BuildIndexes(users []models.User, sessions []models.Session) Indexes {
	idx := Indexes{
		UsersByUsername: make(map[string]*models.User, len(users)),
		SessionsByToken: make(map[string]*models.Session, len(sessions)),
	}
	for i := range users {
		if users[i].Username != "" {
			idx.UsersByUsername[strings.ToLower(users[i].Username)] = &users[i]
		}
	}
	for i := range sessions {
		if sessions[i].SessionToken != "" {
			idx.SessionsByToken[sessions[i].SessionToken] = &sessions[i]
		}
	}
	return idx
}
