// Package permissions is the static role/capability table.
//
// Roles form a closed set with strictly decreasing privilege (Admin, Servant,
// Viewer). Capabilities are a fixed enumeration mirrored by the fields of
// Set, so a mistyped capability does not compile. Lookups never touch
// storage and fail closed: an unknown role or capability grants nothing.
package permissions

import (
	"errors"
	"fmt"
	"strings"
)

// Role is a named permission bundle. Its string form is what gets persisted.
type Role string

const (
	Admin   Role = "admin"
	Servant Role = "servant"
	Viewer  Role = "viewer"
)

var ErrUnknownRole = errors.New("invalid role")

// Roles lists every role, most privileged first.
func Roles() []Role {
	return []Role{Admin, Servant, Viewer}
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case Admin, Servant, Viewer:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole accepts a role name in any letter case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// MustParseRole is ParseRole for compile-time constants; it panics on an
// unknown name.
func MustParseRole(s string) Role {
	r, err := ParseRole(s)
	if err != nil {
		panic(err)
	}
	return r
}

// DisplayName returns the human label of a role, or the raw value for an
// unknown one.
func DisplayName(r Role) string {
	switch r {
	case Admin:
		return "Administrator"
	case Servant:
		return "Servant"
	case Viewer:
		return "Viewer"
	}
	return string(r)
}

// Description returns a one-line summary of what the role may do, or "".
func Description(r Role) string {
	switch r {
	case Admin:
		return "Full access to all features including user management and settings"
	case Servant:
		return "Can view and edit data but cannot delete records or manage users"
	case Viewer:
		return "Read-only access to dashboard and reports"
	}
	return ""
}
