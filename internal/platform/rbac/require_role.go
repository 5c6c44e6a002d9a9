// Package rbac gives handlers the authorized caller. The auth interceptor already enforced the
// method's tier; handlers call RequireRole again for their own minimum so a misconfigured method
// table cannot open an operation.
package rbac

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lorenzzoczn/Aumigo/internal/identity/domain"
	"github.com/Lorenzzoczn/Aumigo/internal/server/interceptors"
)

// RequireIdentity returns the authorized caller, or Unauthenticated if the context has none.
func RequireIdentity(ctx context.Context) (*domain.Identity, error) {
	identity, ok := interceptors.IdentityFromContext(ctx)
	if !ok || identity.ID == "" {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	return identity, nil
}

// RequireRole returns the authorized caller if its role satisfies required.
// Returns Unauthenticated without a caller and PermissionDenied for a lower role.
func RequireRole(ctx context.Context, required domain.Role) (*domain.Identity, error) {
	identity, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if !identity.Active {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	if !identity.Role.Satisfies(required) {
		return nil, status.Error(codes.PermissionDenied, required.String()+" role required")
	}
	return identity, nil
}
