package interceptors

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Lorenzzoczn/Aumigo/internal/authz"
	"github.com/Lorenzzoczn/Aumigo/internal/identity/domain"
)

const bearerPrefix = "bearer "

// Access is the authorization requirement of one RPC.
type Access struct {
	// Public methods run without a credential.
	Public bool
	// Role is the minimum role for non-public methods.
	Role domain.Role
}

// PublicAccess marks a method callable without a credential.
func PublicAccess() Access { return Access{Public: true} }

// RequireRole marks a method callable by identities whose role satisfies r.
func RequireRole(r domain.Role) Access { return Access{Role: r} }

// Authorizer resolves a bearer credential to an active identity holding at least the required role.
type Authorizer interface {
	Authorize(ctx context.Context, credential string, required domain.Role) (*domain.Identity, error)
}

// DenialRecorder is notified of every rejected call; see Metrics.
type DenialRecorder interface {
	RecordDenial(ctx context.Context, fullMethod string, code codes.Code)
}

// AuthUnary returns a unary server interceptor that authorizes each call against methods.
// Methods missing from the table require RoleSuperElevated. On success the identity is stored in
// the context (see IdentityFromContext). denials and log may be nil.
func AuthUnary(authorizer Authorizer, methods map[string]Access, denials DenialRecorder, log *zap.Logger) grpc.UnaryServerInterceptor {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		access, ok := methods[info.FullMethod]
		if !ok {
			access = RequireRole(domain.RoleSuperElevated)
		}
		if access.Public {
			return handler(ctx, req)
		}

		identity, err := authorizer.Authorize(ctx, extractBearer(ctx), access.Role)
		if err != nil {
			st := authStatus(err)
			if st.Code() == codes.Internal {
				log.Error("authorization lookup failed", zap.String("method", info.FullMethod), zap.Error(err))
			}
			if denials != nil {
				denials.RecordDenial(ctx, info.FullMethod, st.Code())
			}
			return nil, st.Err()
		}
		return handler(WithIdentity(ctx, identity), req)
	}
}

// authStatus maps Authorizer failures to gRPC statuses. Store failures are not exposed to callers.
func authStatus(err error) *status.Status {
	switch {
	case errors.Is(err, authz.ErrMissingCredential),
		errors.Is(err, authz.ErrInvalidCredential),
		errors.Is(err, authz.ErrIdentityNotFound):
		return status.New(codes.Unauthenticated, "missing or invalid authorization")
	case errors.Is(err, authz.ErrInsufficientRole):
		return status.New(codes.PermissionDenied, "insufficient role")
	case errors.Is(err, context.Canceled):
		return status.New(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.New(codes.DeadlineExceeded, "deadline exceeded")
	default:
		return status.New(codes.Internal, "authorization failed")
	}
}

// extractBearer returns the Bearer token from ctx metadata, or "" if missing or malformed.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
