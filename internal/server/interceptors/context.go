package interceptors

import (
	"context"

	"github.com/Lorenzzoczn/Aumigo/internal/identity/domain"
)

type contextKey struct{ name string }

var identityKey = contextKey{"identity"}

// WithIdentity returns a context carrying the authorized identity.
// Handlers read it back with IdentityFromContext.
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the authorized identity and true if set; otherwise nil, false.
func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	v, ok := ctx.Value(identityKey).(*domain.Identity)
	return v, ok && v != nil
}

// IdentityID returns the authorized identity id from context, or "" if unauthenticated.
func IdentityID(ctx context.Context) string {
	if i, ok := IdentityFromContext(ctx); ok {
		return i.ID
	}
	return ""
}
