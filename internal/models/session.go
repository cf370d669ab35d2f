package models

import "time"

// Session binds a bearer token to a user until ExpiresAt.
type Session struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	SessionToken string    `json:"sessionToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Expired reports whether now is past ExpiresAt. The session is still valid
// at ExpiresAt itself.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
