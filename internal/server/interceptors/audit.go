package interceptors

import (
	"context"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/Lorenzzoczn/Aumigo/internal/audit"
	"github.com/Lorenzzoczn/Aumigo/internal/audit/domain"
)

// AuditUnary returns a unary server interceptor that records an audit entry after each
// authenticated RPC. skipMethods lists full method names not to audit, such as health checks and
// RPCs whose service writes its own, more detailed entry. Writes are best-effort.
func AuditUnary(logger audit.AuditLogger, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if logger == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		actorID := IdentityID(ctx)
		if actorID == "" {
			return resp, err
		}
		ar := audit.ParseFullMethod(info.FullMethod)
		e := audit.Event{
			ActorID:  actorID,
			Action:   ar.Action,
			Resource: ar.Resource,
			Outcome:  outcomeFor(err),
		}
		if err != nil {
			e.Metadata = "code=" + status.Code(err).String()
		}
		logger.LogEvent(ctx, e)
		return resp, err
	}
}

func outcomeFor(err error) domain.Outcome {
	switch status.Code(err) {
	case codes.OK:
		return domain.OutcomeSuccess
	case codes.PermissionDenied, codes.Unauthenticated, codes.FailedPrecondition:
		return domain.OutcomeDenied
	default:
		return domain.OutcomeError
	}
}

// ClientIP returns the client IP from gRPC metadata (x-forwarded-for, x-real-ip) or peer, or "unknown".
func ClientIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("x-forwarded-for"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				if i := strings.Index(s, ","); i > 0 {
					s = strings.TrimSpace(s[:i])
				}
				return s
			}
		}
		if vals := md.Get("x-real-ip"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				return s
			}
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return "unknown"
}
