package auth

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Validation errors. Their text is the message shown next to the form field.
var (
	ErrUsernameTooShort  = errors.New("Username must be at least 3 characters")
	ErrPasswordTooShort  = errors.New("Password must be at least 8 characters")
	ErrPasswordTooLong   = errors.New("Password must be at most 72 bytes")
	ErrPasswordTooWeak   = errors.New("Password must contain uppercase, lowercase, and numbers")
	ErrPasswordUnchanged = errors.New("New password must differ from the current one")
	ErrFullNameRequired  = errors.New("Full name is required")
	ErrInvalidRole       = errors.New("Invalid role")
	ErrUsernameTaken     = errors.New("Username already taken")
	ErrAdminExists       = errors.New("Admin account already exists")
	ErrUserNotFound      = errors.New("User not found")
	ErrLastAdmin         = errors.New("Cannot demote or deactivate the last active administrator")
	ErrWrongPassword     = errors.New("Current password is incorrect")
)

// ErrInvalidCredentials is the single answer to an unknown user, an
// inactive account or a wrong password.
var ErrInvalidCredentials = errors.New("Invalid username or password")

// ErrInvalidSession covers absent, unknown and expired tokens as well as
// sessions whose user is gone or deactivated.
var ErrInvalidSession = errors.New("invalid or expired session")

// ErrAccountLocked matches every *LockedError.
var ErrAccountLocked = errors.New("account locked")

// LockedError reports a login refused because of an open lockout window.
// The message is the same whether this attempt or an earlier one closed it.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	minutes := int(math.Ceil(e.Remaining.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	unit := "minute"
	if minutes > 1 {
		unit = "minutes"
	}
	return fmt.Sprintf("Account locked. Try again in %d %s.", minutes, unit)
}

func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

var validationErrors = []error{
	ErrUsernameTooShort,
	ErrPasswordTooShort,
	ErrPasswordTooLong,
	ErrPasswordTooWeak,
	ErrPasswordUnchanged,
	ErrFullNameRequired,
	ErrInvalidRole,
	ErrUsernameTaken,
	ErrAdminExists,
	ErrUserNotFound,
	ErrLastAdmin,
	ErrWrongPassword,
}

// IsValidation reports whether err is an input problem the user can fix,
// as opposed to an authentication or storage failure.
func IsValidation(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// rejection carries a domain error out of a store transaction that must
// still commit (failed-login counters, audit entries).
type rejection struct {
	err error
}

func (r rejection) Error() string { return r.err.Error() }

func (r rejection) Unwrap() error { return r.err }

func reject(err error) error {
	return rejection{err: err}
}
