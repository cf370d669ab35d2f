package models

import (
	"time"

	"github.com/dmitrijs2005/rosterkeeper/internal/permissions"
)

// User is a stored account. Usernames are kept lowercase.
type User struct {
	ID                    int64            `json:"id"`
	Username              string           `json:"username"`
	PasswordHash          string           `json:"passwordHash"`
	FullName              string           `json:"fullName"`
	Email                 *string          `json:"email"`
	Role                  permissions.Role `json:"role"`
	IsActive              bool             `json:"isActive"`
	FailedLoginAttempts   int              `json:"failedLoginAttempts"`
	LockedUntil           *time.Time       `json:"lockedUntil"`
	LastLogin             *time.Time       `json:"lastLogin"`
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`
	RequirePasswordChange bool             `json:"requirePasswordChange,omitempty"`
}

// IsLocked reports whether the lockout window is still open at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// Public returns the view of u returned by login and session validation:
// the hash and lockout bookkeeping are stripped.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:                    u.ID,
		Username:              u.Username,
		FullName:              u.FullName,
		Email:                 u.Email,
		Role:                  u.Role,
		IsActive:              u.IsActive,
		LastLogin:             u.LastLogin,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
		RequirePasswordChange: u.RequirePasswordChange,
	}
}

// Summary returns the administrative view of u: everything but the hash.
func (u *User) Summary() UserSummary {
	return UserSummary{
		PublicUser:          u.Public(),
		FailedLoginAttempts: u.FailedLoginAttempts,
		LockedUntil:         u.LockedUntil,
	}
}

// PublicUser is a User without credentials or lockout state.
type PublicUser struct {
	ID                    int64            `json:"id"`
	Username              string           `json:"username"`
	FullName              string           `json:"fullName"`
	Email                 *string          `json:"email"`
	Role                  permissions.Role `json:"role"`
	IsActive              bool             `json:"isActive"`
	LastLogin             *time.Time       `json:"lastLogin"`
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`
	RequirePasswordChange bool             `json:"requirePasswordChange,omitempty"`
}

// UserSummary is a User without its password hash, as listed to admins.
type UserSummary struct {
	PublicUser
	FailedLoginAttempts int        `json:"failedLoginAttempts"`
	LockedUntil         *time.Time `json:"lockedUntil"`
}
