package repository

import (
	"context"
	"errors"

	"github.com/Lorenzzoczn/Aumigo/internal/identity/domain"
)

// ErrConflict is returned by Create and Update when the email, document, or federated id
// is already held by another identity.
var ErrConflict = errors.New("identity conflicts with an existing identity")

// ErrNotFound is returned by Update, SetRole and SetActive when no identity has the given id.
var ErrNotFound = errors.New("identity not found")

// ListFilter selects a page of identities ordered by creation time, newest first.
type ListFilter struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}

// Repository defines persistence for identities. Getters return (nil, nil) when no row matches;
// errors are reserved for storage failures.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	GetByDocument(ctx context.Context, document string) (*domain.Identity, error)
	GetByFederatedID(ctx context.Context, federatedID string) (*domain.Identity, error)
	Create(ctx context.Context, i *domain.Identity) error
	// Update overwrites profile fields. Role and active flag are only changed through SetRole and SetActive.
	Update(ctx context.Context, i *domain.Identity) error
	SetRole(ctx context.Context, id string, role domain.Role) error
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context, f ListFilter) ([]*domain.Identity, error)
	Count(ctx context.Context, activeOnly bool) (int, error)
	// CountByRole and CountByAccountType count active identities only.
	CountByRole(ctx context.Context) (map[domain.Role]int, error)
	CountByAccountType(ctx context.Context) (map[domain.AccountType]int, error)
	// ExistsWithRole reports whether any identity, active or not, holds role.
	ExistsWithRole(ctx context.Context, role domain.Role) (bool, error)
	Ping(ctx context.Context) error
}
