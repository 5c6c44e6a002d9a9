package handler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	adminv1 "github.com/Lorenzzoczn/Aumigo/api/admin/v1"
	"github.com/Lorenzzoczn/Aumigo/internal/admin/service"
	"github.com/Lorenzzoczn/Aumigo/internal/audit"
	auditrepo "github.com/Lorenzzoczn/Aumigo/internal/audit/repository"
	"github.com/Lorenzzoczn/Aumigo/internal/identity/domain"
	"github.com/Lorenzzoczn/Aumigo/internal/identity/repository"
	"github.com/Lorenzzoczn/Aumigo/internal/policy/engine"
	"github.com/Lorenzzoczn/Aumigo/internal/server/interceptors"
)

// brokenPolicy fails every evaluation.
type brokenPolicy struct{}

func (brokenPolicy) EvaluateRoleChange(ctx context.Context, in engine.RoleChangeInput) (engine.RoleChangeDecision, error) {
	return engine.RoleChangeDecision{}, errors.New("policy bundle missing")
}

type fixture struct {
	srv    *Server
	repo   *repository.MemoryRepository
	master *domain.Identity
	admin  *domain.Identity
	user   *domain.Identity
}

func newFixture(t *testing.T, policy engine.Evaluator) *fixture {
	t.Helper()
	repo := repository.NewMemoryRepository()
	audits := auditrepo.NewMemoryRepository()
	svc := service.NewAdminService(service.Config{
		Store:  repo,
		Audits: audits,
		Policy: policy,
		Audit:  audit.NewLogger(audits, nil, zap.NewNop()),
		Log:    zap.NewNop(),
	})
	f := &fixture{srv: NewServer(svc, zap.NewNop()), repo: repo}
	base := time.Now().UTC()
	mk := func(n int, role domain.Role, t0 domain.AccountType) *domain.Identity {
		i := &domain.Identity{
			ID: fmt.Sprintf("id-%d", n), Email: fmt.Sprintf("u%d@example.com", n), Name: "User",
			PasswordHash: "x", Role: role, AccountType: t0, Active: true,
			CreatedAt: base.Add(time.Duration(n) * time.Second), UpdatedAt: base,
		}
		if err := repo.Create(context.Background(), i); err != nil {
			t.Fatalf("Create: %v", err)
		}
		return i
	}
	f.master = mk(1, domain.RoleSuperElevated, domain.AccountTypeAdmin)
	f.admin = mk(2, domain.RoleElevated, domain.AccountTypePerson)
	f.user = mk(3, domain.RoleStandard, domain.AccountTypeOrganization)
	return f
}

func as(i *domain.Identity) context.Context {
	return interceptors.WithIdentity(context.Background(), i)
}

func TestGetDashboard(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := f.srv.GetDashboard(as(f.admin), &adminv1.GetDashboardRequest{})
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if resp.TotalActive != 3 {
		t.Errorf("TotalActive = %d, want 3", resp.TotalActive)
	}
	if resp.ByRole["master"] != 1 || resp.ByRole["admin"] != 1 || resp.ByRole["user"] != 1 {
		t.Errorf("ByRole = %v", resp.ByRole)
	}
	if resp.ByAccountType["organization"] != 1 || resp.ByAccountType["person"] != 1 {
		t.Errorf("ByAccountType = %v", resp.ByAccountType)
	}
	if len(resp.Recent) != 3 || resp.Recent[0].ID != f.user.ID {
		t.Errorf("Recent = %v, want newest first", resp.Recent)
	}

	if _, err := f.srv.GetDashboard(as(f.user), &adminv1.GetDashboardRequest{}); status.Code(err) != codes.PermissionDenied {
		t.Errorf("standard caller code = %v, want PermissionDenied", status.Code(err))
	}
}

func TestListUsers_Paging(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := f.srv.ListUsers(as(f.admin), &adminv1.ListUsersRequest{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if resp.Total != 3 || resp.Pages != 2 || resp.Page != 2 || resp.Limit != 2 {
		t.Errorf("page info = %+v", resp)
	}
	if len(resp.Users) != 1 || resp.Users[0].ID != f.master.ID {
		t.Errorf("users = %v, want only the oldest identity", resp.Users)
	}

	_, err = f.srv.ListUsers(as(f.admin), &adminv1.ListUsersRequest{Page: math.MaxInt64 / 10, Limit: 20})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("huge page: code = %v, want InvalidArgument", status.Code(err))
	}
}

func TestChangeRole(t *testing.T) {
	testCases := []struct {
		name   string
		actor  func(*fixture) *domain.Identity
		target func(*fixture) string
		role   string
		want   codes.Code
	}{
		{"master promotes user", func(f *fixture) *domain.Identity { return f.master }, func(f *fixture) string { return f.user.ID }, "admin", codes.OK},
		{"admin cannot change roles", func(f *fixture) *domain.Identity { return f.admin }, func(f *fixture) string { return f.user.ID }, "admin", codes.PermissionDenied},
		{"master cannot grant master", func(f *fixture) *domain.Identity { return f.master }, func(f *fixture) string { return f.user.ID }, "master", codes.PermissionDenied},
		{"master cannot change self", func(f *fixture) *domain.Identity { return f.master }, func(f *fixture) string { return f.master.ID }, "user", codes.PermissionDenied},
		{"unknown role", func(f *fixture) *domain.Identity { return f.master }, func(f *fixture) string { return f.user.ID }, "owner", codes.InvalidArgument},
		{"missing target id", func(f *fixture) *domain.Identity { return f.master }, func(f *fixture) string { return "" }, "admin", codes.InvalidArgument},
		{"unknown target", func(f *fixture) *domain.Identity { return f.master }, func(f *fixture) string { return "ghost" }, "admin", codes.NotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			resp, err := f.srv.ChangeRole(as(tc.actor(f)), &adminv1.ChangeRoleRequest{UserID: tc.target(f), Role: tc.role})
			if code := status.Code(err); code != tc.want {
				t.Fatalf("code = %v, want %v (err %v)", code, tc.want, err)
			}
			if tc.want == codes.OK && resp.User.Role != tc.role {
				t.Errorf("role = %q, want %q", resp.User.Role, tc.role)
			}
		})
	}
}

func TestChangeRole_PolicyUnavailable(t *testing.T) {
	f := newFixture(t, brokenPolicy{})
	_, err := f.srv.ChangeRole(as(f.master), &adminv1.ChangeRoleRequest{UserID: f.user.ID, Role: "admin"})
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("code = %v, want Unavailable", status.Code(err))
	}
	stored, _ := f.repo.GetByID(context.Background(), f.user.ID)
	if stored.Role != domain.RoleStandard {
		t.Errorf("role changed to %v despite policy failure", stored.Role)
	}
}

func TestDeactivateUser(t *testing.T) {
	testCases := []struct {
		name   string
		actor  func(*fixture) *domain.Identity
		target func(*fixture) string
		want   codes.Code
	}{
		{"admin deactivates user", func(f *fixture) *domain.Identity { return f.admin }, func(f *fixture) string { return f.user.ID }, codes.OK},
		{"admin cannot deactivate master", func(f *fixture) *domain.Identity { return f.admin }, func(f *fixture) string { return f.master.ID }, codes.PermissionDenied},
		{"no self deactivation", func(f *fixture) *domain.Identity { return f.admin }, func(f *fixture) string { return f.admin.ID }, codes.PermissionDenied},
		{"user cannot deactivate", func(f *fixture) *domain.Identity { return f.user }, func(f *fixture) string { return f.admin.ID }, codes.PermissionDenied},
		{"unknown target", func(f *fixture) *domain.Identity { return f.master }, func(f *fixture) string { return "ghost" }, codes.NotFound},
		{"missing id", func(f *fixture) *domain.Identity { return f.master }, func(f *fixture) string { return "" }, codes.InvalidArgument},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			resp, err := f.srv.DeactivateUser(as(tc.actor(f)), &adminv1.DeactivateUserRequest{UserID: tc.target(f)})
			if code := status.Code(err); code != tc.want {
				t.Fatalf("code = %v, want %v (err %v)", code, tc.want, err)
			}
			if tc.want == codes.OK && resp.User.Active {
				t.Error("user still active after deactivation")
			}
		})
	}
}

func TestListAuditLogs(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.srv.ChangeRole(as(f.master), &adminv1.ChangeRoleRequest{UserID: f.user.ID, Role: "admin"}); err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	if _, err := f.srv.ChangeRole(as(f.master), &adminv1.ChangeRoleRequest{UserID: f.master.ID, Role: "user"}); err == nil {
		t.Fatal("self role change succeeded")
	}
	resp, err := f.srv.ListAuditLogs(as(f.admin), &adminv1.ListAuditLogsRequest{Action: audit.ActionRoleChanged})
	if err != nil {
		t.Fatalf("ListAuditLogs: %v", err)
	}
	if len(resp.Logs) != 2 {
		t.Fatalf("logs = %d, want 2", len(resp.Logs))
	}
	outcomes := map[string]int{}
	for _, l := range resp.Logs {
		outcomes[l.Outcome]++
		if l.ActorID != f.master.ID {
			t.Errorf("ActorID = %q, want %q", l.ActorID, f.master.ID)
		}
	}
	if outcomes["success"] != 1 || outcomes["denied"] != 1 {
		t.Errorf("outcomes = %v, want one success and one denied", outcomes)
	}

	if _, err := f.srv.ListAuditLogs(as(f.user), &adminv1.ListAuditLogsRequest{}); status.Code(err) != codes.PermissionDenied {
		t.Errorf("standard caller code = %v, want PermissionDenied", status.Code(err))
	}
}

func TestUnauthenticatedAndUnimplemented(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.srv.ListUsers(context.Background(), &adminv1.ListUsersRequest{}); status.Code(err) != codes.Unauthenticated {
		t.Errorf("no identity code = %v, want Unauthenticated", status.Code(err))
	}
	empty := NewServer(nil, nil)
	if _, err := empty.GetDashboard(as(f.master), &adminv1.GetDashboardRequest{}); status.Code(err) != codes.Unimplemented {
		t.Errorf("nil service code = %v, want Unimplemented", status.Code(err))
	}
}
