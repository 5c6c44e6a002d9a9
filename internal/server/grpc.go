// Package server assembles the gRPC server: interceptor chain, method access table and services.
package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	accountv1 "github.com/Lorenzzoczn/Aumigo/api/account/v1"
	adminv1 "github.com/Lorenzzoczn/Aumigo/api/admin/v1"
	adminhandler "github.com/Lorenzzoczn/Aumigo/internal/admin/handler"
	adminservice "github.com/Lorenzzoczn/Aumigo/internal/admin/service"
	"github.com/Lorenzzoczn/Aumigo/internal/audit"
	"github.com/Lorenzzoczn/Aumigo/internal/identity/domain"
	identityhandler "github.com/Lorenzzoczn/Aumigo/internal/identity/handler"
	identityservice "github.com/Lorenzzoczn/Aumigo/internal/identity/service"
	"github.com/Lorenzzoczn/Aumigo/internal/server/interceptors"
)

const healthListFullMethodName = "/grpc.health.v1.Health/List"

// Deps holds the services and cross-cutting collaborators of the server.
type Deps struct {
	// Accounts backs AccountService. If nil, account RPCs return Unimplemented.
	Accounts *identityservice.AccountService
	// Admin backs AdminService and MasterLogin. If nil, those RPCs return Unimplemented.
	Admin *adminservice.AdminService
	// Authorizer resolves bearer credentials for non-public methods. Required.
	Authorizer interceptors.Authorizer
	// AuditLogger records one entry per authenticated RPC. If nil, no per-RPC entries are written.
	AuditLogger audit.AuditLogger
	// Metrics records RPC and denial counts. If nil, nothing is recorded.
	Metrics *interceptors.Metrics
	// Health serves grpc.health.v1. If nil, the health service is not registered.
	Health *health.Server
	Log    *zap.Logger
}

// MethodAccess is the authorization table for every RPC the server exposes. Methods missing
// from it require SuperElevated.
func MethodAccess() map[string]interceptors.Access {
	public := interceptors.PublicAccess()
	standard := interceptors.RequireRole(domain.RoleStandard)
	elevated := interceptors.RequireRole(domain.RoleElevated)
	return map[string]interceptors.Access{
		accountv1.AccountService_ValidateDocument_FullMethodName: public,
		accountv1.AccountService_Register_FullMethodName:         public,
		accountv1.AccountService_Login_FullMethodName:            public,
		accountv1.AccountService_MasterLogin_FullMethodName:      public,
		accountv1.AccountService_Me_FullMethodName:               standard,
		accountv1.AccountService_CompleteProfile_FullMethodName:  standard,
		accountv1.AccountService_GetPublicProfile_FullMethodName: public,
		adminv1.AdminService_GetDashboard_FullMethodName:         elevated,
		adminv1.AdminService_ListUsers_FullMethodName:            elevated,
		adminv1.AdminService_DeactivateUser_FullMethodName:       elevated,
		adminv1.AdminService_ListAuditLogs_FullMethodName:        elevated,
		adminv1.AdminService_ChangeRole_FullMethodName:           interceptors.RequireRole(domain.RoleSuperElevated),
		healthpb.Health_Check_FullMethodName:                     public,
		healthListFullMethodName:                                 public,
		healthpb.Health_Watch_FullMethodName:                     public,
	}
}

// quietMethods are not logged or measured.
func quietMethods() map[string]bool {
	return map[string]bool{
		healthpb.Health_Check_FullMethodName: true,
		healthListFullMethodName:             true,
	}
}

// auditSkipMethods are not audited per RPC: health checks, and mutations whose service writes
// a richer entry itself.
func auditSkipMethods() map[string]bool {
	skip := quietMethods()
	skip[adminv1.AdminService_ChangeRole_FullMethodName] = true
	skip[adminv1.AdminService_DeactivateUser_FullMethodName] = true
	return skip
}

// ServiceNames lists the application services reported by the health service.
func ServiceNames() []string {
	return []string{
		accountv1.AccountService_ServiceDesc.ServiceName,
		adminv1.AdminService_ServiceDesc.ServiceName,
	}
}

// NewServer returns a gRPC server with the interceptor chain
// recover → logging → telemetry → auth → audit, OpenTelemetry stats, and all services registered.
func NewServer(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	quiet := quietMethods()
	base := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.RecoverUnary(log),
			interceptors.LoggingUnary(log, quiet),
			interceptors.TelemetryUnary(deps.Metrics, quiet),
			interceptors.AuthUnary(deps.Authorizer, MethodAccess(), deps.Metrics, log),
			interceptors.AuditUnary(deps.AuditLogger, auditSkipMethods()),
		),
	}
	s := grpc.NewServer(append(base, opts...)...)
	RegisterServices(s, deps)
	return s
}

// RegisterServices registers every service with s.
//
// Service → handler mapping:
//   - AccountService → internal/identity/handler
//   - AdminService   → internal/admin/handler
//   - grpc.health.v1 → google.golang.org/grpc/health (probed by internal/health)
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	var bootstrap identityhandler.Bootstrapper
	if deps.Admin != nil {
		bootstrap = deps.Admin
	}
	accountv1.RegisterAccountServiceServer(s, identityhandler.NewAccountServer(deps.Accounts, bootstrap, deps.Log))
	adminv1.RegisterAdminServiceServer(s, adminhandler.NewServer(deps.Admin, deps.Log))
	if deps.Health != nil {
		healthpb.RegisterHealthServer(s, deps.Health)
	}
}
