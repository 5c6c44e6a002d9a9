package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Lorenzzoczn/Aumigo/internal/audit"
	auditdomain "github.com/Lorenzzoczn/Aumigo/internal/audit/domain"
	auditrepo "github.com/Lorenzzoczn/Aumigo/internal/audit/repository"
	"github.com/Lorenzzoczn/Aumigo/internal/authz"
	"github.com/Lorenzzoczn/Aumigo/internal/identity/domain"
	"github.com/Lorenzzoczn/Aumigo/internal/identity/repository"
	"github.com/Lorenzzoczn/Aumigo/internal/policy/engine"
	"github.com/Lorenzzoczn/Aumigo/internal/security"
)

const testMasterKey = "correct-horse-battery-staple"

type testEnv struct {
	svc    *AdminService
	repo   *repository.MemoryRepository
	audits *auditrepo.MemoryRepository
	hasher *security.Hasher
}

func newTestEnv(t *testing.T, policy engine.Evaluator, masterKey string) *testEnv {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	repo := repository.NewMemoryRepository()
	audits := auditrepo.NewMemoryRepository()
	hasher := security.NewHasher(4)
	svc := NewAdminService(Config{
		Store:     repo,
		Audits:    audits,
		Policy:    policy,
		Audit:     audit.NewLogger(audits, nil, zap.NewNop()),
		Hasher:    hasher,
		Tokens:    tokens,
		MasterKey: masterKey,
		Log:       zap.NewNop(),
	})
	return &testEnv{svc: svc, repo: repo, audits: audits, hasher: hasher}
}

var seq int

func (e *testEnv) add(t *testing.T, role domain.Role, accountType domain.AccountType) *domain.Identity {
	t.Helper()
	seq++
	now := time.Now().UTC().Add(time.Duration(seq) * time.Second)
	hash, err := e.hasher.Hash([]byte("secret1"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	i := &domain.Identity{
		ID: fmt.Sprintf("id-%d", seq), Email: fmt.Sprintf("u%d@example.com", seq), Name: "User",
		PasswordHash: hash, Role: role, AccountType: accountType, Active: true, CreatedAt: now, UpdatedAt: now,
	}
	if err := e.repo.Create(context.Background(), i); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return i
}

func (e *testEnv) auditCount(t *testing.T, action string, outcome auditdomain.Outcome) int {
	t.Helper()
	entries, err := e.audits.List(context.Background(), auditrepo.ListFilter{Action: action, Limit: MaxPageSize})
	if err != nil {
		t.Fatalf("List audits: %v", err)
	}
	n := 0
	for _, a := range entries {
		if a.Outcome == outcome {
			n++
		}
	}
	return n
}

func opaEvaluator(t *testing.T) engine.Evaluator {
	t.Helper()
	e, err := engine.NewOPAEvaluator(context.Background())
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	return e
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t, nil, "")
	ctx := context.Background()
	for n := 0; n < 4; n++ {
		env.add(t, domain.RoleStandard, domain.AccountTypePerson)
	}
	env.add(t, domain.RoleStandard, domain.AccountTypeOrganization)
	env.add(t, domain.RoleElevated, domain.AccountTypePerson)
	gone := env.add(t, domain.RoleStandard, domain.AccountTypePerson)
	_ = env.repo.SetActive(ctx, gone.ID, false)

	d, err := env.svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.TotalActive != 6 {
		t.Errorf("TotalActive = %d, want 6", d.TotalActive)
	}
	if d.ByRole[domain.RoleStandard] != 5 || d.ByRole[domain.RoleElevated] != 1 {
		t.Errorf("ByRole = %v", d.ByRole)
	}
	if d.ByAccountType[domain.AccountTypePerson] != 5 || d.ByAccountType[domain.AccountTypeOrganization] != 1 {
		t.Errorf("ByAccountType = %v", d.ByAccountType)
	}
	if len(d.Recent) != 5 {
		t.Fatalf("Recent = %d, want 5", len(d.Recent))
	}
	for _, r := range d.Recent {
		if r.ID == gone.ID {
			t.Error("inactive identity listed as recent")
		}
	}
}

func TestListIdentities_Pagination(t *testing.T) {
	env := newTestEnv(t, nil, "")
	ctx := context.Background()
	for n := 0; n < 25; n++ {
		env.add(t, domain.RoleStandard, domain.AccountTypePerson)
	}
	testCases := []struct {
		page, limit         int
		wantPage, wantLimit int
		wantLen, wantPages  int
	}{
		{1, 10, 1, 10, 10, 3},
		{3, 10, 3, 10, 5, 3},
		{4, 10, 4, 10, 0, 3},
		{0, 0, 1, DefaultPageSize, 20, 2},
		{-1, 500, 1, MaxPageSize, 25, 1},
	}
	for _, tc := range testCases {
		p, err := env.svc.ListIdentities(ctx, tc.page, tc.limit)
		if err != nil {
			t.Fatalf("ListIdentities: %v", err)
		}
		if p.Page != tc.wantPage || p.Limit != tc.wantLimit || len(p.Identities) != tc.wantLen || p.Pages != tc.wantPages || p.Total != 25 {
			t.Errorf("ListIdentities(%d, %d) = page %d limit %d len %d pages %d total %d",
				tc.page, tc.limit, p.Page, p.Limit, len(p.Identities), p.Pages, p.Total)
		}
	}
}

func TestListIdentities_PageOutOfRange(t *testing.T) {
	env := newTestEnv(t, nil, "")
	ctx := context.Background()
	env.add(t, domain.RoleStandard, domain.AccountTypePerson)
	for _, page := range []int{MaxPage + 1, math.MaxInt64 / 10, math.MaxInt} {
		if _, err := env.svc.ListIdentities(ctx, page, 20); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ListIdentities(page %d) err = %v, want ErrInvalidInput", page, err)
		}
		if _, err := env.svc.ListAuditLogs(ctx, "", "", page, 20); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ListAuditLogs(page %d) err = %v, want ErrInvalidInput", page, err)
		}
	}
	p, err := env.svc.ListIdentities(ctx, MaxPage, MaxPageSize)
	if err != nil {
		t.Fatalf("ListIdentities(MaxPage): %v", err)
	}
	if len(p.Identities) != 0 || p.Total != 1 {
		t.Errorf("last allowed page = %d identities, total %d", len(p.Identities), p.Total)
	}
}

func TestChangeRole(t *testing.T) {
	for name, policy := range map[string]func(*testing.T) engine.Evaluator{
		"opa":      opaEvaluator,
		"fallback": func(*testing.T) engine.Evaluator { return nil },
	} {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, policy(t), "")
			ctx := context.Background()
			master := env.add(t, domain.RoleSuperElevated, domain.AccountTypeAdmin)
			otherMaster := env.add(t, domain.RoleSuperElevated, domain.AccountTypeAdmin)
			admin := env.add(t, domain.RoleElevated, domain.AccountTypePerson)
			user := env.add(t, domain.RoleStandard, domain.AccountTypePerson)

			got, err := env.svc.ChangeRole(ctx, master, user.ID, domain.RoleElevated)
			if err != nil {
				t.Fatalf("promote: %v", err)
			}
			if got.Role != domain.RoleElevated {
				t.Errorf("returned role = %v", got.Role)
			}
			stored, _ := env.repo.GetByID(ctx, user.ID)
			if stored.Role != domain.RoleElevated {
				t.Errorf("stored role = %v, want admin", stored.Role)
			}

			denials := []struct {
				name    string
				actor   *domain.Identity
				target  string
				newRole domain.Role
				want    error
			}{
				{"admin actor", admin, user.ID, domain.RoleStandard, authz.ErrInsufficientRole},
				{"grant master", master, user.ID, domain.RoleSuperElevated, authz.ErrRoleNotAssignable},
				{"demote other master", master, otherMaster.ID, domain.RoleStandard, authz.ErrRoleNotAssignable},
				{"self", master, master.ID, domain.RoleStandard, authz.ErrSelfRoleChange},
				{"nil actor", nil, user.ID, domain.RoleStandard, authz.ErrInsufficientRole},
			}
			for _, d := range denials {
				if _, err := env.svc.ChangeRole(ctx, d.actor, d.target, d.newRole); !errors.Is(err, d.want) {
					t.Errorf("%s: err = %v, want %v", d.name, err, d.want)
				}
			}
			if _, err := env.svc.ChangeRole(ctx, master, "missing", domain.RoleStandard); !errors.Is(err, ErrTargetNotFound) {
				t.Errorf("missing target err = %v, want ErrTargetNotFound", err)
			}
			stored, _ = env.repo.GetByID(ctx, otherMaster.ID)
			if stored.Role != domain.RoleSuperElevated {
				t.Error("denied change was persisted")
			}
			if n := env.auditCount(t, audit.ActionRoleChanged, auditdomain.OutcomeSuccess); n != 1 {
				t.Errorf("successful role_changed audits = %d, want 1", n)
			}
			if n := env.auditCount(t, audit.ActionRoleChanged, auditdomain.OutcomeDenied); n != 4 {
				t.Errorf("denied role_changed audits = %d, want 4", n)
			}
		})
	}
}

// allowAllPolicy allows every role change.
type allowAllPolicy struct{}

func (allowAllPolicy) EvaluateRoleChange(ctx context.Context, in engine.RoleChangeInput) (engine.RoleChangeDecision, error) {
	return engine.RoleChangeDecision{Allow: true}, nil
}

func TestChangeRole_RulesApplyBeforePolicy(t *testing.T) {
	env := newTestEnv(t, allowAllPolicy{}, "")
	ctx := context.Background()
	master := env.add(t, domain.RoleSuperElevated, domain.AccountTypeAdmin)
	admin := env.add(t, domain.RoleElevated, domain.AccountTypePerson)
	user := env.add(t, domain.RoleStandard, domain.AccountTypePerson)

	denials := []struct {
		name    string
		actor   *domain.Identity
		target  string
		newRole domain.Role
		want    error
	}{
		{"admin actor", admin, user.ID, domain.RoleElevated, authz.ErrInsufficientRole},
		{"self", master, master.ID, domain.RoleStandard, authz.ErrSelfRoleChange},
		{"grant master", master, user.ID, domain.RoleSuperElevated, authz.ErrRoleNotAssignable},
	}
	for _, d := range denials {
		if _, err := env.svc.ChangeRole(ctx, d.actor, d.target, d.newRole); !errors.Is(err, d.want) {
			t.Errorf("%s: err = %v, want %v", d.name, err, d.want)
		}
	}
	stored, _ := env.repo.GetByID(ctx, user.ID)
	if stored.Role != domain.RoleStandard {
		t.Errorf("stored role = %v, want user", stored.Role)
	}
	if n := env.auditCount(t, audit.ActionRoleChanged, auditdomain.OutcomeDenied); n != len(denials) {
		t.Errorf("denied role_changed audits = %d, want %d", n, len(denials))
	}
	if _, err := env.svc.ChangeRole(ctx, master, user.ID, domain.RoleElevated); err != nil {
		t.Errorf("allowed change: %v", err)
	}
}

// brokenPolicy fails every evaluation.
type brokenPolicy struct{}

func (brokenPolicy) EvaluateRoleChange(ctx context.Context, in engine.RoleChangeInput) (engine.RoleChangeDecision, error) {
	return engine.RoleChangeDecision{}, errors.New("engine down")
}

func TestChangeRole_PolicyFailureDenies(t *testing.T) {
	env := newTestEnv(t, brokenPolicy{}, "")
	master := env.add(t, domain.RoleSuperElevated, domain.AccountTypeAdmin)
	user := env.add(t, domain.RoleStandard, domain.AccountTypePerson)
	if _, err := env.svc.ChangeRole(context.Background(), master, user.ID, domain.RoleElevated); !errors.Is(err, ErrPolicyUnavailable) {
		t.Fatalf("err = %v, want ErrPolicyUnavailable", err)
	}
	stored, _ := env.repo.GetByID(context.Background(), user.ID)
	if stored.Role != domain.RoleStandard {
		t.Error("role changed despite policy failure")
	}
}

func TestDeactivate(t *testing.T) {
	env := newTestEnv(t, nil, "")
	ctx := context.Background()
	master := env.add(t, domain.RoleSuperElevated, domain.AccountTypeAdmin)
	admin := env.add(t, domain.RoleElevated, domain.AccountTypePerson)
	user := env.add(t, domain.RoleStandard, domain.AccountTypePerson)

	got, err := env.svc.Deactivate(ctx, admin, user.ID)
	if err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if got.Active {
		t.Error("returned identity still active")
	}
	stored, _ := env.repo.GetByID(ctx, user.ID)
	if stored.Active {
		t.Error("stored identity still active")
	}
	if _, err := env.svc.Deactivate(ctx, admin, user.ID); err != nil {
		t.Errorf("second Deactivate: %v", err)
	}

	if _, err := env.svc.Deactivate(ctx, admin, master.ID); !errors.Is(err, authz.ErrInsufficientRole) {
		t.Errorf("admin deactivating master err = %v, want ErrInsufficientRole", err)
	}
	if _, err := env.svc.Deactivate(ctx, admin, admin.ID); !errors.Is(err, authz.ErrSelfDeactivation) {
		t.Errorf("self deactivation err = %v, want ErrSelfDeactivation", err)
	}
	if _, err := env.svc.Deactivate(ctx, admin, "missing"); !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("missing target err = %v, want ErrTargetNotFound", err)
	}
	if _, err := env.svc.Deactivate(ctx, master, admin.ID); err != nil {
		t.Errorf("master deactivating admin: %v", err)
	}
	if n := env.auditCount(t, audit.ActionIdentityDeactivated, auditdomain.OutcomeSuccess); n != 2 {
		t.Errorf("identity_deactivated audits = %d, want 2", n)
	}
	if n := env.auditCount(t, audit.ActionIdentityDeactivated, auditdomain.OutcomeDenied); n != 2 {
		t.Errorf("denied deactivation audits = %d, want 2", n)
	}
}

func TestBootstrap_CreatesMaster(t *testing.T) {
	env := newTestEnv(t, nil, testMasterKey)
	ctx := context.Background()
	res, err := env.svc.Bootstrap(ctx, "Root@Example.com", "secret1", testMasterKey)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if !res.Created || res.Token == "" {
		t.Errorf("result = %+v", res)
	}
	stored, _ := env.repo.GetByEmail(ctx, "root@example.com")
	if stored == nil || stored.Role != domain.RoleSuperElevated || stored.AccountType != domain.AccountTypeAdmin {
		t.Fatalf("stored = %+v", stored)
	}
	if n := env.auditCount(t, audit.ActionMasterBootstrap, auditdomain.OutcomeSuccess); n != 1 {
		t.Errorf("master_bootstrap audits = %d, want 1", n)
	}

	// One-time: a second attempt with the right key is refused.
	if _, err := env.svc.Bootstrap(ctx, "other@example.com", "secret1", testMasterKey); !errors.Is(err, ErrBootstrapCompleted) {
		t.Errorf("second Bootstrap err = %v, want ErrBootstrapCompleted", err)
	}
	if n := env.auditCount(t, audit.ActionMasterBootstrapDenied, auditdomain.OutcomeDenied); n != 1 {
		t.Errorf("master_bootstrap_denied audits = %d, want 1", n)
	}
}

func TestBootstrap_PromotesExisting(t *testing.T) {
	env := newTestEnv(t, nil, testMasterKey)
	ctx := context.Background()
	existing := env.add(t, domain.RoleStandard, domain.AccountTypePerson)

	if _, err := env.svc.Bootstrap(ctx, existing.Email, "wrong-password", testMasterKey); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	res, err := env.svc.Bootstrap(ctx, existing.Email, "secret1", testMasterKey)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if res.Created || res.Identity.ID != existing.ID {
		t.Errorf("result = %+v, want promotion of %s", res, existing.ID)
	}
	stored, _ := env.repo.GetByID(ctx, existing.ID)
	if stored.Role != domain.RoleSuperElevated {
		t.Errorf("role = %v, want master", stored.Role)
	}
}

func TestBootstrap_Refusals(t *testing.T) {
	testCases := []struct {
		name      string
		configKey string
		email     string
		password  string
		key       string
		want      error
	}{
		{"disabled", "", "root@example.com", "secret1", "anything", ErrBootstrapDisabled},
		{"wrong key", testMasterKey, "root@example.com", "secret1", "wrong-key", ErrInvalidMasterKey},
		{"key prefix", testMasterKey, "root@example.com", "secret1", testMasterKey[:10], ErrInvalidMasterKey},
		{"missing key", testMasterKey, "root@example.com", "secret1", "", ErrInvalidInput},
		{"short password", testMasterKey, "root@example.com", "123", testMasterKey, ErrInvalidInput},
		{"bad email", testMasterKey, "root", "secret1", testMasterKey, ErrInvalidInput},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, nil, tc.configKey)
			if _, err := env.svc.Bootstrap(context.Background(), tc.email, tc.password, tc.key); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
			if ok, _ := env.repo.ExistsWithRole(context.Background(), domain.RoleSuperElevated); ok {
				t.Error("refused bootstrap created a master")
			}
		})
	}
}

func TestBootstrap_ConcurrentAttemptsCreateOneMaster(t *testing.T) {
	env := newTestEnv(t, nil, testMasterKey)
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for n := 0; n < 8; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.svc.Bootstrap(context.Background(), fmt.Sprintf("root%d@example.com", n), "secret1", testMasterKey); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Errorf("successful bootstraps = %d, want 1", wins)
	}
}

func TestListAuditLogs(t *testing.T) {
	env := newTestEnv(t, nil, "")
	ctx := context.Background()
	master := env.add(t, domain.RoleSuperElevated, domain.AccountTypeAdmin)
	user := env.add(t, domain.RoleStandard, domain.AccountTypePerson)
	if _, err := env.svc.ChangeRole(ctx, master, user.ID, domain.RoleElevated); err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	logs, err := env.svc.ListAuditLogs(ctx, master.ID, "", 1, 10)
	if err != nil {
		t.Fatalf("ListAuditLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].TargetID != user.ID {
		t.Errorf("logs = %+v", logs)
	}
}
