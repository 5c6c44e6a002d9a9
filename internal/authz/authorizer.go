// Package authz decides whether a bearer credential may perform an operation that requires a role.
package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lorenzzoczn/Aumigo/internal/identity/domain"
	"github.com/Lorenzzoczn/Aumigo/internal/security"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid or expired credential")
	ErrIdentityNotFound  = errors.New("identity not found or inactive")
	ErrInsufficientRole  = errors.New("insufficient role")
)

// CredentialVerifier verifies a bearer token and returns its content.
type CredentialVerifier interface {
	Verify(token string) (*security.Credential, error)
}

// IdentityFinder looks up the identity a credential names. It returns (nil, nil) when none exists.
type IdentityFinder interface {
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
}

// Authorizer checks credentials against the stored identity's current role. It holds no
// mutable state and is safe for concurrent use.
type Authorizer struct {
	verifier CredentialVerifier
	finder   IdentityFinder
}

// NewAuthorizer returns an Authorizer that verifies tokens with verifier and loads identities from finder.
func NewAuthorizer(verifier CredentialVerifier, finder IdentityFinder) *Authorizer {
	return &Authorizer{verifier: verifier, finder: finder}
}

// Authorize returns the identity behind credential when its role satisfies required.
// Checks run in order and stop at the first failure: presence, token validity,
// identity lookup, role. Store failures are returned wrapped and are not retried.
func (a *Authorizer) Authorize(ctx context.Context, credential string, required domain.Role) (*domain.Identity, error) {
	if credential == "" {
		return nil, ErrMissingCredential
	}
	cred, err := a.verifier.Verify(credential)
	if err != nil {
		return nil, ErrInvalidCredential
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	identity, err := a.finder.GetByID(ctx, cred.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if identity == nil || !identity.Active {
		return nil, ErrIdentityNotFound
	}
	if !identity.Role.Satisfies(required) {
		return nil, ErrInsufficientRole
	}
	return identity, nil
}
