package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Lorenzzoczn/Aumigo/internal/identity/domain"
)

// MemoryRepository is an in-memory Repository for tests and STORE=memory development runs.
// Stored values are copied on the way in and out so callers cannot mutate shared state.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.Identity
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*domain.Identity)}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id].Clone(), nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.find(ctx, func(i *domain.Identity) bool { return i.Email == email })
}

func (r *MemoryRepository) GetByDocument(ctx context.Context, document string) (*domain.Identity, error) {
	if document == "" {
		return nil, nil
	}
	return r.find(ctx, func(i *domain.Identity) bool { return i.Document == document })
}

func (r *MemoryRepository) GetByFederatedID(ctx context.Context, federatedID string) (*domain.Identity, error) {
	if federatedID == "" {
		return nil, nil
	}
	return r.find(ctx, func(i *domain.Identity) bool { return i.FederatedID == federatedID })
}

func (r *MemoryRepository) find(ctx context.Context, match func(*domain.Identity) bool) (*domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, i := range r.byID {
		if match(i) {
			return i.Clone(), nil
		}
	}
	return nil, nil
}

// Create stores i. The identity must have ID set.
func (r *MemoryRepository) Create(ctx context.Context, i *domain.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[i.ID]; ok {
		return ErrConflict
	}
	if r.conflictsLocked(i) {
		return ErrConflict
	}
	r.byID[i.ID] = i.Clone()
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, i *domain.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[i.ID]
	if !ok {
		return ErrNotFound
	}
	if r.conflictsLocked(i) {
		return ErrConflict
	}
	next := i.Clone()
	next.Role = cur.Role
	next.Active = cur.Active
	next.CreatedAt = cur.CreatedAt
	r.byID[i.ID] = next
	return nil
}

// conflictsLocked reports whether another identity holds i's email, document, or federated id.
func (r *MemoryRepository) conflictsLocked(i *domain.Identity) bool {
	for id, other := range r.byID {
		if id == i.ID {
			continue
		}
		if other.Email == i.Email ||
			(i.Document != "" && other.Document == i.Document) ||
			(i.FederatedID != "" && other.FederatedID == i.FederatedID) {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) SetRole(ctx context.Context, id string, role domain.Role) error {
	return r.mutate(ctx, id, func(i *domain.Identity) { i.Role = role })
}

func (r *MemoryRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.mutate(ctx, id, func(i *domain.Identity) { i.Active = active })
}

func (r *MemoryRepository) mutate(ctx context.Context, id string, fn func(*domain.Identity)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	next := cur.Clone()
	fn(next)
	next.UpdatedAt = time.Now().UTC()
	r.byID[id] = next
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, f ListFilter) ([]*domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	all := make([]*domain.Identity, 0, len(r.byID))
	for _, i := range r.byID {
		if f.ActiveOnly && !i.Active {
			continue
		}
		all = append(all, i.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(all, func(a, b int) bool {
		if all[a].CreatedAt.Equal(all[b].CreatedAt) {
			return all[a].ID > all[b].ID
		}
		return all[a].CreatedAt.After(all[b].CreatedAt)
	})
	offset := max(f.Offset, 0)
	if offset >= len(all) {
		return []*domain.Identity{}, nil
	}
	all = all[offset:]
	if f.Limit > 0 && f.Limit < len(all) {
		all = all[:f.Limit]
	}
	return all, nil
}

func (r *MemoryRepository) Count(ctx context.Context, activeOnly bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, i := range r.byID {
		if !activeOnly || i.Active {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) CountByRole(ctx context.Context) (map[domain.Role]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domain.Role]int)
	for _, i := range r.byID {
		if i.Active {
			out[i.Role]++
		}
	}
	return out, nil
}

func (r *MemoryRepository) CountByAccountType(ctx context.Context) (map[domain.AccountType]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domain.AccountType]int)
	for _, i := range r.byID {
		if i.Active && i.AccountType != "" {
			out[i.AccountType]++
		}
	}
	return out, nil
}

func (r *MemoryRepository) ExistsWithRole(ctx context.Context, role domain.Role) (bool, error) {
	i, err := r.find(ctx, func(i *domain.Identity) bool { return i.Role == role })
	return i != nil, err
}

// Ping always succeeds unless ctx is done.
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
