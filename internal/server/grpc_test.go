package server

import (
	"context"
	"net"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	accountv1 "github.com/Lorenzzoczn/Aumigo/api/account/v1"
	adminv1 "github.com/Lorenzzoczn/Aumigo/api/admin/v1"
	adminservice "github.com/Lorenzzoczn/Aumigo/internal/admin/service"
	"github.com/Lorenzzoczn/Aumigo/internal/audit"
	auditrepo "github.com/Lorenzzoczn/Aumigo/internal/audit/repository"
	"github.com/Lorenzzoczn/Aumigo/internal/authz"
	"github.com/Lorenzzoczn/Aumigo/internal/identity/repository"
	identityservice "github.com/Lorenzzoczn/Aumigo/internal/identity/service"
	"github.com/Lorenzzoczn/Aumigo/internal/security"
	"github.com/Lorenzzoczn/Aumigo/internal/server/interceptors"
)

const testMasterKey = "correct-horse-battery-staple"

// mockServiceRegistrar implements grpc.ServiceRegistrar for testing.
type mockServiceRegistrar struct {
	services []string
}

func (m *mockServiceRegistrar) RegisterService(desc *grpc.ServiceDesc, impl interface{}) {
	m.services = append(m.services, desc.ServiceName)
}

func TestRegisterServices(t *testing.T) {
	testCases := []struct {
		name string
		deps Deps
		want int
	}{
		{"without health", Deps{}, 2},
		{"with health", Deps{Health: health.NewServer()}, 3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reg := &mockServiceRegistrar{}
			RegisterServices(reg, tc.deps)
			if len(reg.services) != tc.want {
				t.Errorf("registered %v, want %d services", reg.services, tc.want)
			}
		})
	}
}

func TestMethodAccess_CoversEveryRPC(t *testing.T) {
	access := MethodAccess()
	for _, desc := range []grpc.ServiceDesc{accountv1.AccountService_ServiceDesc, adminv1.AdminService_ServiceDesc} {
		for _, m := range desc.Methods {
			full := "/" + desc.ServiceName + "/" + m.MethodName
			if _, ok := access[full]; !ok {
				t.Errorf("%s missing from MethodAccess", full)
			}
		}
	}
	if !access[adminv1.AdminService_ChangeRole_FullMethodName].Role.Satisfies(access[adminv1.AdminService_DeactivateUser_FullMethodName].Role) {
		t.Error("ChangeRole must require at least the DeactivateUser tier")
	}
}

type testClients struct {
	account accountv1.AccountServiceClient
	admin   adminv1.AdminServiceClient
	health  healthpb.HealthClient
	audits  *auditrepo.MemoryRepository
}

func startServer(t *testing.T) *testClients {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	repo := repository.NewMemoryRepository()
	audits := auditrepo.NewMemoryRepository()
	auditLogger := audit.NewLogger(audits, interceptors.ClientIP, zap.NewNop())
	hasher := security.NewHasher(4)
	hs := health.NewServer()

	s := NewServer(Deps{
		Accounts: identityservice.NewAccountService(repo, hasher, tokens, auditLogger, zap.NewNop()),
		Admin: adminservice.NewAdminService(adminservice.Config{
			Store: repo, Audits: audits, Audit: auditLogger, Hasher: hasher, Tokens: tokens, MasterKey: testMasterKey,
		}),
		Authorizer:  authz.NewAuthorizer(tokens, repo),
		AuditLogger: auditLogger,
		Health:      hs,
	})
	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &testClients{
		account: accountv1.NewAccountServiceClient(conn),
		admin:   adminv1.NewAdminServiceClient(conn),
		health:  healthpb.NewHealthClient(conn),
		audits:  audits,
	}
}

func withToken(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func TestEndToEnd_AccountAndAdminFlow(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	doc, err := c.account.ValidateDocument(ctx, &accountv1.ValidateDocumentRequest{Document: "11.444.777/0001-61"})
	if err != nil {
		t.Fatalf("ValidateDocument: %v", err)
	}
	if !doc.Valid || doc.Kind != "cnpj" {
		t.Errorf("ValidateDocument = %+v", doc)
	}

	reg, err := c.account.Register(ctx, &accountv1.RegisterRequest{
		Name: "Abrigo Patas", Email: "abrigo@example.com", Password: "secret1", AccountType: "ong",
		Document: "11444777000161", Phone: "81 3333-0000", City: "Recife", State: "PE",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	userCtx := withToken(reg.Token)

	me, err := c.account.Me(userCtx, &accountv1.MeRequest{})
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Identity.ID != reg.Identity.ID || me.Identity.AccountType != "organization" {
		t.Errorf("Me = %+v", me.Identity)
	}

	if _, err := c.account.Me(ctx, &accountv1.MeRequest{}); status.Code(err) != codes.Unauthenticated {
		t.Errorf("Me without token: code = %v, want Unauthenticated", status.Code(err))
	}
	if _, err := c.admin.ListUsers(userCtx, &adminv1.ListUsersRequest{}); status.Code(err) != codes.PermissionDenied {
		t.Errorf("ListUsers as user: code = %v, want PermissionDenied", status.Code(err))
	}

	master, err := c.account.MasterLogin(ctx, &accountv1.MasterLoginRequest{
		Email: "root@example.com", Password: "rootpass", MasterKey: testMasterKey,
	})
	if err != nil {
		t.Fatalf("MasterLogin: %v", err)
	}
	if master.Identity.Role != "master" {
		t.Errorf("master role = %q", master.Identity.Role)
	}
	if _, err := c.account.MasterLogin(ctx, &accountv1.MasterLoginRequest{
		Email: "root2@example.com", Password: "rootpass", MasterKey: testMasterKey,
	}); status.Code(err) != codes.FailedPrecondition {
		t.Errorf("second bootstrap: code = %v, want FailedPrecondition", status.Code(err))
	}
	masterCtx := withToken(master.Token)

	changed, err := c.admin.ChangeRole(masterCtx, &adminv1.ChangeRoleRequest{UserID: reg.Identity.ID, Role: "admin"})
	if err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	if changed.User.Role != "admin" {
		t.Errorf("role = %q, want admin", changed.User.Role)
	}

	// The same token now carries the new role; roles are read from the store on every call.
	list, err := c.admin.ListUsers(userCtx, &adminv1.ListUsersRequest{})
	if err != nil {
		t.Fatalf("ListUsers after promotion: %v", err)
	}
	if list.Total != 2 {
		t.Errorf("Total = %d, want 2", list.Total)
	}
	if _, err := c.admin.ChangeRole(userCtx, &adminv1.ChangeRoleRequest{UserID: master.Identity.ID, Role: "user"}); status.Code(err) != codes.PermissionDenied {
		t.Errorf("ChangeRole as admin: code = %v, want PermissionDenied", status.Code(err))
	}
	if _, err := c.admin.DeactivateUser(userCtx, &adminv1.DeactivateUserRequest{UserID: master.Identity.ID}); status.Code(err) != codes.PermissionDenied {
		t.Errorf("admin deactivating master: code = %v, want PermissionDenied", status.Code(err))
	}

	if _, err := c.admin.DeactivateUser(masterCtx, &adminv1.DeactivateUserRequest{UserID: reg.Identity.ID}); err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}
	if _, err := c.account.Me(userCtx, &accountv1.MeRequest{}); status.Code(err) != codes.Unauthenticated {
		t.Errorf("Me after deactivation: code = %v, want Unauthenticated", status.Code(err))
	}

	logs, err := c.admin.ListAuditLogs(masterCtx, &adminv1.ListAuditLogsRequest{Action: audit.ActionRoleChanged})
	if err != nil {
		t.Fatalf("ListAuditLogs: %v", err)
	}
	if len(logs.Logs) != 1 {
		t.Errorf("role_changed entries = %d, want 1 (no duplicate per-RPC entry)", len(logs.Logs))
	}
}

func TestEndToEnd_Health(t *testing.T) {
	c := startServer(t)
	resp, err := c.health.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", resp.GetStatus())
	}
}
