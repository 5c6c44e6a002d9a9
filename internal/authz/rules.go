package authz

import (
	"errors"

	"github.com/Lorenzzoczn/Aumigo/internal/identity/domain"
)

var (
	ErrRoleNotAssignable = errors.New("role cannot be assigned")
	ErrSelfRoleChange    = errors.New("cannot change own role")
	ErrSelfDeactivation  = errors.New("cannot deactivate own account")
)

// CanChangeRole reports whether actor may set target's role to newRole. Only a SuperElevated
// actor changes roles, only Standard and Elevated are granted or taken away, and never its own.
// The policy engine evaluates the same rule; this is the in-process statement of it.
func CanChangeRole(actor, target *domain.Identity, newRole domain.Role) error {
	if actor == nil || actor.Role != domain.RoleSuperElevated {
		return ErrInsufficientRole
	}
	if target == nil {
		return ErrIdentityNotFound
	}
	if actor.ID == target.ID {
		return ErrSelfRoleChange
	}
	if !newRole.Assignable() || !target.Role.Assignable() {
		return ErrRoleNotAssignable
	}
	return nil
}

// CanDeactivate reports whether actor may deactivate target. Elevated actors may deactivate
// anyone below SuperElevated; a SuperElevated target needs a SuperElevated actor.
func CanDeactivate(actor, target *domain.Identity) error {
	if actor == nil || !actor.Role.Satisfies(domain.RoleElevated) {
		return ErrInsufficientRole
	}
	if target == nil {
		return ErrIdentityNotFound
	}
	if actor.ID == target.ID {
		return ErrSelfDeactivation
	}
	if !actor.Role.Satisfies(target.Role) {
		return ErrInsufficientRole
	}
	return nil
}
