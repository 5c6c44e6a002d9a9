package authz

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Lorenzzoczn/Aumigo/internal/identity/domain"
	"github.com/Lorenzzoczn/Aumigo/internal/identity/repository"
	"github.com/Lorenzzoczn/Aumigo/internal/security"
)

type fixture struct {
	tokens *security.TokenProvider
	repo   *repository.MemoryRepository
	authz  *Authorizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	repo := repository.NewMemoryRepository()
	return &fixture{tokens: tokens, repo: repo, authz: NewAuthorizer(tokens, repo)}
}

func (f *fixture) add(t *testing.T, id string, role domain.Role, active bool) string {
	t.Helper()
	now := time.Now().UTC()
	err := f.repo.Create(context.Background(), &domain.Identity{
		ID: id, Email: id + "@example.com", PasswordHash: "hash",
		Role: role, Active: active, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	token, _, err := f.tokens.Issue(id)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

func TestAuthorize(t *testing.T) {
	f := newFixture(t)
	userToken := f.add(t, "user-1", domain.RoleStandard, true)
	adminToken := f.add(t, "admin-1", domain.RoleElevated, true)
	masterToken := f.add(t, "master-1", domain.RoleSuperElevated, true)
	inactiveToken := f.add(t, "gone-1", domain.RoleElevated, false)
	orphanToken, _, err := f.tokens.Issue("never-stored")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	expiredToken, _, err := f.tokens.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }).Issue("admin-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	testCases := []struct {
		name     string
		token    string
		required domain.Role
		wantID   string
		wantErr  error
	}{
		{"missing", "", domain.RoleStandard, "", ErrMissingCredential},
		{"garbage", "not-a-token", domain.RoleStandard, "", ErrInvalidCredential},
		{"expired", expiredToken, domain.RoleStandard, "", ErrInvalidCredential},
		{"unknown identity", orphanToken, domain.RoleStandard, "", ErrIdentityNotFound},
		{"inactive identity", inactiveToken, domain.RoleStandard, "", ErrIdentityNotFound},
		{"standard for elevated", userToken, domain.RoleElevated, "", ErrInsufficientRole},
		{"elevated for super elevated", adminToken, domain.RoleSuperElevated, "", ErrInsufficientRole},
		{"standard for standard", userToken, domain.RoleStandard, "user-1", nil},
		{"elevated for elevated", adminToken, domain.RoleElevated, "admin-1", nil},
		{"super elevated for elevated", masterToken, domain.RoleElevated, "master-1", nil},
		{"super elevated for standard", masterToken, domain.RoleStandard, "master-1", nil},
		{"invalid required role", masterToken, domain.RoleInvalid, "", ErrInsufficientRole},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.authz.Authorize(context.Background(), tc.token, tc.required)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if tc.wantErr != nil {
				if got != nil {
					t.Errorf("identity = %+v, want nil on error", got)
				}
				return
			}
			if got == nil || got.ID != tc.wantID {
				t.Errorf("identity = %+v, want %s", got, tc.wantID)
			}
		})
	}
}

func TestAuthorize_UsesCurrentRole(t *testing.T) {
	f := newFixture(t)
	token := f.add(t, "user-1", domain.RoleElevated, true)
	ctx := context.Background()
	if _, err := f.authz.Authorize(ctx, token, domain.RoleElevated); err != nil {
		t.Fatalf("Authorize before demotion: %v", err)
	}
	if err := f.repo.SetRole(ctx, "user-1", domain.RoleStandard); err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if _, err := f.authz.Authorize(ctx, token, domain.RoleElevated); !errors.Is(err, ErrInsufficientRole) {
		t.Errorf("Authorize after demotion err = %v, want ErrInsufficientRole", err)
	}
}

// countingFinder records lookups and returns a fixed result.
type countingFinder struct {
	mu       sync.Mutex
	calls    int
	identity *domain.Identity
	err      error
}

func (c *countingFinder) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.identity, c.err
}

func TestAuthorize_StoreFailureNotRetried(t *testing.T) {
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	storeErr := errors.New("connection reset")
	finder := &countingFinder{err: storeErr}
	a := NewAuthorizer(tokens, finder)
	token, _, _ := tokens.Issue("user-1")

	_, err = a.Authorize(context.Background(), token, domain.RoleStandard)
	if !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
	for _, sentinel := range []error{ErrMissingCredential, ErrInvalidCredential, ErrIdentityNotFound, ErrInsufficientRole} {
		if errors.Is(err, sentinel) {
			t.Errorf("store failure reported as %v", sentinel)
		}
	}
	if finder.calls != 1 {
		t.Errorf("store called %d times, want 1", finder.calls)
	}
}

func TestAuthorize_CancelledContextSkipsLookup(t *testing.T) {
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	finder := &countingFinder{identity: &domain.Identity{ID: "user-1", Role: domain.RoleStandard, Active: true}}
	a := NewAuthorizer(tokens, finder)
	token, _, _ := tokens.Issue("user-1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Authorize(ctx, token, domain.RoleStandard); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if finder.calls != 0 {
		t.Errorf("store called %d times, want 0", finder.calls)
	}
}

func TestAuthorize_Concurrent(t *testing.T) {
	f := newFixture(t)
	token := f.add(t, "admin-1", domain.RoleElevated, true)
	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for n := 0; n < 32; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			required := domain.RoleElevated
			if n%2 == 0 {
				required = domain.RoleSuperElevated
			}
			_, err := f.authz.Authorize(context.Background(), token, required)
			if required == domain.RoleElevated && err != nil {
				errs <- err
			}
			if required == domain.RoleSuperElevated && !errors.Is(err, ErrInsufficientRole) {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Authorize: %v", err)
	}
}
