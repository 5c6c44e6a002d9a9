// Package handler exposes the administrative operations over gRPC (aumigo.admin.v1.AdminService).
package handler

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	accountv1 "github.com/Lorenzzoczn/Aumigo/api/account/v1"
	adminv1 "github.com/Lorenzzoczn/Aumigo/api/admin/v1"
	"github.com/Lorenzzoczn/Aumigo/internal/admin/service"
	auditdomain "github.com/Lorenzzoczn/Aumigo/internal/audit/domain"
	"github.com/Lorenzzoczn/Aumigo/internal/authz"
	"github.com/Lorenzzoczn/Aumigo/internal/identity/domain"
	identityhandler "github.com/Lorenzzoczn/Aumigo/internal/identity/handler"
	"github.com/Lorenzzoczn/Aumigo/internal/platform/rbac"
)

// Server implements AdminService. If admin is nil, every RPC returns Unimplemented.
type Server struct {
	adminv1.UnimplementedAdminServiceServer
	admin *service.AdminService
	log   *zap.Logger
}

// NewServer returns a new Admin gRPC server.
func NewServer(admin *service.AdminService, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{admin: admin, log: log}
}

// GetDashboard returns active identity counts and the newest identities.
func (s *Server) GetDashboard(ctx context.Context, req *adminv1.GetDashboardRequest) (*adminv1.GetDashboardResponse, error) {
	if s.admin == nil {
		return nil, status.Error(codes.Unimplemented, "method GetDashboard not implemented")
	}
	if _, err := rbac.RequireRole(ctx, domain.RoleElevated); err != nil {
		return nil, err
	}
	d, err := s.admin.Dashboard(ctx)
	if err != nil {
		return nil, s.grpcError("GetDashboard", err)
	}
	resp := &adminv1.GetDashboardResponse{
		TotalActive:   d.TotalActive,
		ByRole:        make(map[string]int, len(d.ByRole)),
		ByAccountType: make(map[string]int, len(d.ByAccountType)),
		Recent:        identities(d.Recent),
	}
	for role, n := range d.ByRole {
		resp.ByRole[role.String()] = n
	}
	for t, n := range d.ByAccountType {
		resp.ByAccountType[string(t)] = n
	}
	return resp, nil
}

// ListUsers returns a page of active identities, newest first.
func (s *Server) ListUsers(ctx context.Context, req *adminv1.ListUsersRequest) (*adminv1.ListUsersResponse, error) {
	if s.admin == nil {
		return nil, status.Error(codes.Unimplemented, "method ListUsers not implemented")
	}
	if _, err := rbac.RequireRole(ctx, domain.RoleElevated); err != nil {
		return nil, err
	}
	page, err := s.admin.ListIdentities(ctx, req.Page, req.Limit)
	if err != nil {
		return nil, s.grpcError("ListUsers", err)
	}
	return &adminv1.ListUsersResponse{
		Users: identities(page.Identities),
		Page:  page.Page,
		Limit: page.Limit,
		Total: page.Total,
		Pages: page.Pages,
	}, nil
}

// DeactivateUser marks an identity inactive. Elevated callers cannot deactivate SuperElevated
// identities, and nobody can deactivate themselves.
func (s *Server) DeactivateUser(ctx context.Context, req *adminv1.DeactivateUserRequest) (*adminv1.DeactivateUserResponse, error) {
	if s.admin == nil {
		return nil, status.Error(codes.Unimplemented, "method DeactivateUser not implemented")
	}
	actor, err := rbac.RequireRole(ctx, domain.RoleElevated)
	if err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}
	target, err := s.admin.Deactivate(ctx, actor, req.UserID)
	if err != nil {
		return nil, s.grpcError("DeactivateUser", err)
	}
	return &adminv1.DeactivateUserResponse{User: identityhandler.IdentityMessage(target)}, nil
}

// ChangeRole grants user or admin to another identity. Only SuperElevated callers may.
func (s *Server) ChangeRole(ctx context.Context, req *adminv1.ChangeRoleRequest) (*adminv1.ChangeRoleResponse, error) {
	if s.admin == nil {
		return nil, status.Error(codes.Unimplemented, "method ChangeRole not implemented")
	}
	actor, err := rbac.RequireRole(ctx, domain.RoleSuperElevated)
	if err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "role must be user, admin or master")
	}
	target, err := s.admin.ChangeRole(ctx, actor, req.UserID, role)
	if err != nil {
		return nil, s.grpcError("ChangeRole", err)
	}
	return &adminv1.ChangeRoleResponse{User: identityhandler.IdentityMessage(target)}, nil
}

// ListAuditLogs returns audit entries newest first, optionally filtered by actor and action.
func (s *Server) ListAuditLogs(ctx context.Context, req *adminv1.ListAuditLogsRequest) (*adminv1.ListAuditLogsResponse, error) {
	if s.admin == nil {
		return nil, status.Error(codes.Unimplemented, "method ListAuditLogs not implemented")
	}
	if _, err := rbac.RequireRole(ctx, domain.RoleElevated); err != nil {
		return nil, err
	}
	logs, err := s.admin.ListAuditLogs(ctx, req.ActorID, req.Action, req.Page, req.Limit)
	if err != nil {
		return nil, s.grpcError("ListAuditLogs", err)
	}
	resp := &adminv1.ListAuditLogsResponse{Logs: make([]*adminv1.AuditLog, 0, len(logs))}
	for _, l := range logs {
		resp.Logs = append(resp.Logs, auditLogMessage(l))
	}
	return resp, nil
}

// grpcError maps admin service and rule errors to gRPC status.
func (s *Server) grpcError(method string, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrTargetNotFound), errors.Is(err, authz.ErrIdentityNotFound):
		return status.Error(codes.NotFound, "user not found")
	case errors.Is(err, authz.ErrInsufficientRole),
		errors.Is(err, authz.ErrSelfRoleChange),
		errors.Is(err, authz.ErrSelfDeactivation),
		errors.Is(err, authz.ErrRoleNotAssignable):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, service.ErrPolicyUnavailable):
		s.log.Error("admin rpc policy unavailable", zap.String("method", method), zap.Error(err))
		return status.Error(codes.Unavailable, "role change policy unavailable")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	default:
		s.log.Error("admin rpc failed", zap.String("method", method), zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}

func identities(list []*domain.Identity) []*accountv1.Identity {
	out := make([]*accountv1.Identity, 0, len(list))
	for _, i := range list {
		out = append(out, identityhandler.IdentityMessage(i))
	}
	return out
}

func auditLogMessage(l *auditdomain.AuditLog) *adminv1.AuditLog {
	return &adminv1.AuditLog{
		ID:        l.ID,
		ActorID:   l.ActorID,
		Action:    l.Action,
		Resource:  l.Resource,
		TargetID:  l.TargetID,
		Outcome:   string(l.Outcome),
		IP:        l.IP,
		Metadata:  l.Metadata,
		CreatedAt: l.CreatedAt,
	}
}
