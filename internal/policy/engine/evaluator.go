package engine

import (
	"context"
	"slices"

	"github.com/Lorenzzoczn/Aumigo/internal/authz"
	"github.com/Lorenzzoczn/Aumigo/internal/identity/domain"
)

// Denial reasons produced by the role-change policy.
const (
	ReasonActorNotSuperElevated = "actor_not_super_elevated"
	ReasonSelfChange            = "self_change"
	ReasonRoleNotAssignable     = "role_not_assignable"
	ReasonTargetNotAssignable   = "target_not_assignable"
)

// RoleChangeInput describes a requested role change.
type RoleChangeInput struct {
	ActorID    string
	ActorRole  domain.Role
	TargetID   string
	TargetRole domain.Role
	NewRole    domain.Role
}

// RoleChangeDecision is the policy outcome. Reasons is empty when Allow is true.
type RoleChangeDecision struct {
	Allow   bool
	Reasons []string
}

// Err maps a denial to the authz sentinel for its most significant reason; nil when allowed.
func (d RoleChangeDecision) Err() error {
	if d.Allow {
		return nil
	}
	switch {
	case slices.Contains(d.Reasons, ReasonActorNotSuperElevated):
		return authz.ErrInsufficientRole
	case slices.Contains(d.Reasons, ReasonSelfChange):
		return authz.ErrSelfRoleChange
	case slices.Contains(d.Reasons, ReasonRoleNotAssignable), slices.Contains(d.Reasons, ReasonTargetNotAssignable):
		return authz.ErrRoleNotAssignable
	default:
		return authz.ErrInsufficientRole
	}
}

// Evaluator evaluates role-change policy using OPA or other engines.
type Evaluator interface {
	EvaluateRoleChange(ctx context.Context, in RoleChangeInput) (RoleChangeDecision, error)
}

// FallbackEvaluator applies authz.CanChangeRole in process. Used when no policy engine is configured.
type FallbackEvaluator struct{}

func (FallbackEvaluator) EvaluateRoleChange(ctx context.Context, in RoleChangeInput) (RoleChangeDecision, error) {
	if err := ctx.Err(); err != nil {
		return RoleChangeDecision{}, err
	}
	actor := &domain.Identity{ID: in.ActorID, Role: in.ActorRole}
	target := &domain.Identity{ID: in.TargetID, Role: in.TargetRole}
	switch err := authz.CanChangeRole(actor, target, in.NewRole); err {
	case nil:
		return RoleChangeDecision{Allow: true}, nil
	case authz.ErrSelfRoleChange:
		return RoleChangeDecision{Reasons: []string{ReasonSelfChange}}, nil
	case authz.ErrRoleNotAssignable:
		return RoleChangeDecision{Reasons: []string{ReasonRoleNotAssignable}}, nil
	default:
		return RoleChangeDecision{Reasons: []string{ReasonActorNotSuperElevated}}, nil
	}
}
