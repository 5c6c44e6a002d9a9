package domain

import (
	"errors"
	"strings"
)

// ErrUnknownRole is returned by ParseRole for names outside user, admin, and master.
var ErrUnknownRole = errors.New("unknown role")

// Role is an identity's privilege tier. Values are ordered: a higher role satisfies every lower requirement.
type Role int

const (
	// RoleInvalid is the zero value; it satisfies no requirement.
	RoleInvalid Role = iota
	RoleStandard
	RoleElevated
	RoleSuperElevated
)

// Stored and wire names.
const (
	roleNameStandard      = "user"
	roleNameElevated      = "admin"
	roleNameSuperElevated = "master"
)

// ParseRole maps a stored role name to a Role. Matching is case-insensitive.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case roleNameStandard:
		return RoleStandard, nil
	case roleNameElevated:
		return RoleElevated, nil
	case roleNameSuperElevated:
		return RoleSuperElevated, nil
	default:
		return RoleInvalid, ErrUnknownRole
	}
}

// String returns the stored name ("user", "admin", "master"), or "invalid".
func (r Role) String() string {
	switch r {
	case RoleStandard:
		return roleNameStandard
	case RoleElevated:
		return roleNameElevated
	case RoleSuperElevated:
		return roleNameSuperElevated
	default:
		return "invalid"
	}
}

// Valid reports whether r is one of the defined tiers.
func (r Role) Valid() bool {
	return r >= RoleStandard && r <= RoleSuperElevated
}

// Satisfies reports whether r meets the required tier.
func (r Role) Satisfies(required Role) bool {
	return r.Valid() && required.Valid() && r >= required
}

// Assignable reports whether r can be granted through an ordinary role change.
// SuperElevated is only reachable through the master bootstrap.
func (r Role) Assignable() bool {
	return r == RoleStandard || r == RoleElevated
}
