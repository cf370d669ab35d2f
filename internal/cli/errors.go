package cli

import (
	"errors"
	"io"

	"github.com/dmitrijs2005/rosterkeeper/internal/auth"
	"github.com/dmitrijs2005/rosterkeeper/internal/passmigrate"
	"github.com/dmitrijs2005/rosterkeeper/internal/permissions"
	"github.com/dmitrijs2005/rosterkeeper/internal/session"
)

var (
	errPasswordMismatch = errors.New("Passwords do not match")
	errInvalidID        = errors.New("User ID must be a positive number")
)

// usageError carries the usage line of a command called with bad arguments.
type usageError struct {
	usage string
}

func (e usageError) Error() string { return "Usage: " + e.usage }

func usage(line string) error {
	return usageError{usage: line}
}

const unexpectedError = "An unexpected error occurred. Please try again."

// HumanError maps err to the one-line message shown next to the prompt.
// Storage and other internal failures get a generic message.
func HumanError(err error) string {
	var locked *auth.LockedError
	var u usageError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &u):
		return u.Error()
	case errors.As(err, &locked):
		return locked.Error()
	case auth.IsValidation(err),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, errPasswordMismatch),
		errors.Is(err, errInvalidID),
		errors.Is(err, passmigrate.ErrTemporaryPasswordTooShort):
		return err.Error()
	case errors.Is(err, permissions.ErrUnknownRole):
		return auth.ErrInvalidRole.Error()
	case errors.Is(err, auth.ErrInvalidSession):
		return "Your session has expired. Please login again."
	case errors.Is(err, session.ErrPasswordChangeRequired):
		return "You must change your temporary password first. Use 'passwd'."
	case errors.Is(err, session.ErrForbidden):
		return "You do not have permission to do that."
	case errors.Is(err, io.EOF):
		return "Input closed."
	}
	return unexpectedError
}
