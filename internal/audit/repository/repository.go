package repository

import (
	"context"

	"github.com/Lorenzzoczn/Aumigo/internal/audit/domain"
)

// ListFilter narrows a List call. Empty string fields match any value.
type ListFilter struct {
	ActorID string
	Action  string
	Limit   int
	Offset  int
}

// Repository defines persistence for audit logs. Entries are append-only.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// List returns entries newest first.
	List(ctx context.Context, f ListFilter) ([]*domain.AuditLog, error)
}
