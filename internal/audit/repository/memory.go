package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Lorenzzoczn/Aumigo/internal/audit/domain"
)

// MemoryRepository keeps audit logs in process. Used by tests and STORE=memory runs.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *a)
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, f ListFilter) ([]*domain.AuditLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	var out []*domain.AuditLog
	for n := range r.entries {
		e := r.entries[n]
		if f.ActorID != "" && e.ActorID != f.ActorID {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		out = append(out, &e)
	}
	r.mu.Unlock()

	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	offset := max(f.Offset, 0)
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
