package auth

import (
	"strings"

	"github.com/dmitrijs2005/rosterkeeper/internal/permissions"
)

const (
	minUsernameLen = 3
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt input limit, bytes
)

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validateUsername(username string) error {
	if len([]rune(username)) < minUsernameLen {
		return ErrUsernameTooShort
	}
	return nil
}

func validatePasswordLength(password string) error {
	if len(password) < minPasswordLen {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordLen {
		return ErrPasswordTooLong
	}
	return nil
}

// validateStrongPassword adds the complexity rule: at least one lowercase
// letter, one uppercase letter and one digit.
func validateStrongPassword(password string) error {
	if err := validatePasswordLength(password); err != nil {
		return err
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return ErrPasswordTooWeak
	}
	return nil
}

func validateRole(role permissions.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

// optionalString turns blank input into nil.
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
