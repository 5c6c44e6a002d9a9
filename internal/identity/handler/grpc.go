// Package handler exposes the account operations over gRPC (aumigo.account.v1.AccountService).
package handler

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	accountv1 "github.com/Lorenzzoczn/Aumigo/api/account/v1"
	adminservice "github.com/Lorenzzoczn/Aumigo/internal/admin/service"
	"github.com/Lorenzzoczn/Aumigo/internal/document"
	"github.com/Lorenzzoczn/Aumigo/internal/identity/domain"
	"github.com/Lorenzzoczn/Aumigo/internal/identity/service"
	"github.com/Lorenzzoczn/Aumigo/internal/platform/rbac"
)

// Bootstrapper performs the one-time master bootstrap behind MasterLogin.
type Bootstrapper interface {
	Bootstrap(ctx context.Context, email, password, masterKey string) (*adminservice.BootstrapResult, error)
}

// AccountServer implements AccountService. A nil accounts service makes every account RPC
// return Unimplemented; a nil bootstrapper does the same for MasterLogin.
type AccountServer struct {
	accountv1.UnimplementedAccountServiceServer
	accounts  *service.AccountService
	bootstrap Bootstrapper
	log       *zap.Logger
}

// NewAccountServer returns a new Account gRPC server.
func NewAccountServer(accounts *service.AccountService, bootstrap Bootstrapper, log *zap.Logger) *AccountServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountServer{accounts: accounts, bootstrap: bootstrap, log: log}
}

// ValidateDocument checks a CPF or CNPJ. An invalid document is a normal response with Valid false.
func (s *AccountServer) ValidateDocument(ctx context.Context, req *accountv1.ValidateDocumentRequest) (*accountv1.ValidateDocumentResponse, error) {
	var kind document.Kind
	switch strings.ToLower(strings.TrimSpace(req.Kind)) {
	case "":
		kind = document.Classify(req.Document)
	case "cpf":
		kind = document.KindIndividual
	case "cnpj":
		kind = document.KindOrganization
	default:
		return nil, status.Error(codes.InvalidArgument, "kind must be cpf or cnpj")
	}
	resp := &accountv1.ValidateDocumentResponse{Kind: kind.String()}
	switch err := document.Validate(kind, req.Document); {
	case err == nil:
		resp.Valid = true
		resp.Formatted = document.Format(req.Document)
	case errors.Is(err, document.ErrChecksumMismatch):
		resp.Reason = "check digits do not match"
	default:
		resp.Reason = "invalid format"
	}
	return resp, nil
}

// Register creates a Standard identity and returns a credential for it.
func (s *AccountServer) Register(ctx context.Context, req *accountv1.RegisterRequest) (*accountv1.AuthResponse, error) {
	if s.accounts == nil {
		return nil, status.Error(codes.Unimplemented, "method Register not implemented")
	}
	res, err := s.accounts.Register(ctx, service.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		AccountType: req.AccountType,
		Document:    req.Document,
		Phone:       req.Phone,
		City:        req.City,
		State:       req.State,
		Description: req.Description,
	})
	if err != nil {
		return nil, s.grpcError("Register", err)
	}
	return authResponse(res), nil
}

// Login authenticates a local password.
func (s *AccountServer) Login(ctx context.Context, req *accountv1.LoginRequest) (*accountv1.AuthResponse, error) {
	if s.accounts == nil {
		return nil, status.Error(codes.Unimplemented, "method Login not implemented")
	}
	res, err := s.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.grpcError("Login", err)
	}
	return authResponse(res), nil
}

// MasterLogin performs the master bootstrap: it creates or promotes the SuperElevated identity
// when the master key matches and none exists yet.
func (s *AccountServer) MasterLogin(ctx context.Context, req *accountv1.MasterLoginRequest) (*accountv1.AuthResponse, error) {
	if s.bootstrap == nil {
		return nil, status.Error(codes.Unimplemented, "method MasterLogin not implemented")
	}
	res, err := s.bootstrap.Bootstrap(ctx, req.Email, req.Password, req.MasterKey)
	if err != nil {
		return nil, s.grpcError("MasterLogin", err)
	}
	return &accountv1.AuthResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		Identity:  IdentityMessage(res.Identity),
	}, nil
}

// Me returns the caller's identity.
func (s *AccountServer) Me(ctx context.Context, req *accountv1.MeRequest) (*accountv1.MeResponse, error) {
	if s.accounts == nil {
		return nil, status.Error(codes.Unimplemented, "method Me not implemented")
	}
	caller, err := rbac.RequireRole(ctx, domain.RoleStandard)
	if err != nil {
		return nil, err
	}
	identity, err := s.accounts.Me(ctx, caller.ID)
	if err != nil {
		return nil, s.grpcError("Me", err)
	}
	return &accountv1.MeResponse{Identity: IdentityMessage(identity)}, nil
}

// CompleteProfile updates the caller's name, email, account type, document and contact details.
func (s *AccountServer) CompleteProfile(ctx context.Context, req *accountv1.CompleteProfileRequest) (*accountv1.CompleteProfileResponse, error) {
	if s.accounts == nil {
		return nil, status.Error(codes.Unimplemented, "method CompleteProfile not implemented")
	}
	caller, err := rbac.RequireRole(ctx, domain.RoleStandard)
	if err != nil {
		return nil, err
	}
	identity, err := s.accounts.CompleteProfile(ctx, caller.ID, service.ProfileInput{
		Name:        req.Name,
		Email:       req.Email,
		AccountType: req.AccountType,
		Document:    req.Document,
		Phone:       req.Phone,
		City:        req.City,
		State:       req.State,
		Description: req.Description,
	})
	if err != nil {
		return nil, s.grpcError("CompleteProfile", err)
	}
	return &accountv1.CompleteProfileResponse{Identity: IdentityMessage(identity)}, nil
}

// GetPublicProfile returns the public profile of an active identity. It needs no credential.
func (s *AccountServer) GetPublicProfile(ctx context.Context, req *accountv1.GetPublicProfileRequest) (*accountv1.GetPublicProfileResponse, error) {
	if s.accounts == nil {
		return nil, status.Error(codes.Unimplemented, "method GetPublicProfile not implemented")
	}
	p, err := s.accounts.PublicProfile(ctx, req.ID)
	if err != nil {
		return nil, s.grpcError("GetPublicProfile", err)
	}
	return &accountv1.GetPublicProfileResponse{Profile: &accountv1.PublicProfile{
		ID:          p.ID,
		Name:        p.Name,
		AccountType: p.AccountType,
		City:        p.City,
		State:       p.State,
		Description: p.Description,
		AvatarURL:   p.AvatarURL,
		CreatedAt:   p.CreatedAt,
	}}, nil
}

// grpcError maps account and bootstrap errors to gRPC status. Unexpected errors are logged
// and returned as Internal without detail.
func (s *AccountServer) grpcError(method string, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, adminservice.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrAlreadyRegistered):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, adminservice.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, service.ErrIdentityNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrDocumentImmutable):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, adminservice.ErrInvalidMasterKey):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, adminservice.ErrBootstrapDisabled), errors.Is(err, adminservice.ErrBootstrapCompleted):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	default:
		s.log.Error("account rpc failed", zap.String("method", method), zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}

func authResponse(res *service.AuthResult) *accountv1.AuthResponse {
	return &accountv1.AuthResponse{
		Token:        res.Token,
		ExpiresAt:    res.ExpiresAt,
		Identity:     IdentityMessage(res.Identity),
		NeedsProfile: res.NeedsProfile,
	}
}

// IdentityMessage converts an identity to its wire form; nil stays nil. The document is sent
// as digits, the way it is stored.
func IdentityMessage(i *domain.Identity) *accountv1.Identity {
	if i == nil {
		return nil
	}
	p := i.Public()
	return &accountv1.Identity{
		ID:          p.ID,
		Email:       p.Email,
		Name:        p.Name,
		Role:        p.Role,
		AccountType: p.AccountType,
		Document:    p.Document,
		Phone:       p.Phone,
		City:        p.City,
		State:       p.State,
		Description: p.Description,
		AvatarURL:   p.AvatarURL,
		Federated:   p.Federated,
		Active:      i.Active,
		CreatedAt:   p.CreatedAt,
	}
}
