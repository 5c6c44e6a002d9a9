package interceptors

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Lorenzzoczn/Aumigo/internal/authz"
	"github.com/Lorenzzoczn/Aumigo/internal/identity/domain"
	"github.com/Lorenzzoczn/Aumigo/internal/identity/repository"
	"github.com/Lorenzzoczn/Aumigo/internal/security"
)

// fakeAuthorizer returns a fixed result and records the role it was asked for.
type fakeAuthorizer struct {
	identity *domain.Identity
	err      error
	calls    int
	required domain.Role
	token    string
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, credential string, required domain.Role) (*domain.Identity, error) {
	f.calls++
	f.required = required
	f.token = credential
	return f.identity, f.err
}

type recordingDenials struct {
	codes []codes.Code
}

func (r *recordingDenials) RecordDenial(ctx context.Context, fullMethod string, code codes.Code) {
	r.codes = append(r.codes, code)
}

func bearerContext(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.New(map[string]string{
		"authorization": "Bearer " + token,
	}))
}

func TestAuthUnary_PublicMethod(t *testing.T) {
	az := &fakeAuthorizer{err: authz.ErrMissingCredential}
	methods := map[string]Access{"/test.Service/Public": PublicAccess()}
	interceptor := AuthUnary(az, methods, nil, nil)

	resp, err := interceptor(context.Background(), "request", &grpc.UnaryServerInfo{
		FullMethod: "/test.Service/Public",
	}, okHandler)
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if resp != "success" {
		t.Errorf("response = %v, want %q", resp, "success")
	}
	if az.calls != 0 {
		t.Errorf("Authorize calls = %d, want 0 for public method", az.calls)
	}
}

func TestAuthUnary_RequiredRolePassedThrough(t *testing.T) {
	testCases := []struct {
		name   string
		method string
		want   domain.Role
	}{
		{"standard", "/test.Service/Me", domain.RoleStandard},
		{"elevated", "/test.Service/List", domain.RoleElevated},
		{"unlisted defaults to super elevated", "/test.Service/Unknown", domain.RoleSuperElevated},
	}
	methods := map[string]Access{
		"/test.Service/Me":   RequireRole(domain.RoleStandard),
		"/test.Service/List": RequireRole(domain.RoleElevated),
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			want := &domain.Identity{ID: "user-1", Role: domain.RoleSuperElevated, Active: true}
			az := &fakeAuthorizer{identity: want}
			interceptor := AuthUnary(az, methods, nil, nil)
			_, err := interceptor(bearerContext("tok"), "request", &grpc.UnaryServerInfo{FullMethod: tc.method},
				func(ctx context.Context, req interface{}) (interface{}, error) {
					got, ok := IdentityFromContext(ctx)
					if !ok || got != want {
						t.Errorf("identity in context = %v, %v; want %v", got, ok, want)
					}
					return "success", nil
				})
			if err != nil {
				t.Fatalf("interceptor: %v", err)
			}
			if az.required != tc.want {
				t.Errorf("required role = %v, want %v", az.required, tc.want)
			}
			if az.token != "tok" {
				t.Errorf("credential = %q, want %q", az.token, "tok")
			}
		})
	}
}

func TestAuthUnary_ErrorMapping(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"missing", authz.ErrMissingCredential, codes.Unauthenticated},
		{"invalid", authz.ErrInvalidCredential, codes.Unauthenticated},
		{"identity gone", authz.ErrIdentityNotFound, codes.Unauthenticated},
		{"insufficient", authz.ErrInsufficientRole, codes.PermissionDenied},
		{"canceled", context.Canceled, codes.Canceled},
		{"store failure", errors.New("connection reset"), codes.Internal},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			denials := &recordingDenials{}
			az := &fakeAuthorizer{err: tc.err}
			interceptor := AuthUnary(az, nil, denials, nil)
			called := false
			_, err := interceptor(bearerContext("tok"), "request", &grpc.UnaryServerInfo{FullMethod: "/test.Service/X"},
				func(ctx context.Context, req interface{}) (interface{}, error) {
					called = true
					return nil, nil
				})
			if called {
				t.Error("handler must not run when authorization fails")
			}
			if code := status.Code(err); code != tc.want {
				t.Errorf("code = %v, want %v", code, tc.want)
			}
			if len(denials.codes) != 1 || denials.codes[0] != tc.want {
				t.Errorf("recorded denials = %v, want [%v]", denials.codes, tc.want)
			}
		})
	}
}

func TestAuthUnary_WithAuthorizer(t *testing.T) {
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	repo := repository.NewMemoryRepository()
	now := time.Now().UTC()
	for _, i := range []*domain.Identity{
		{ID: "user-1", Email: "user@example.com", PasswordHash: "x", Role: domain.RoleStandard, Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: "admin-1", Email: "admin@example.com", PasswordHash: "x", Role: domain.RoleElevated, Active: true, CreatedAt: now, UpdatedAt: now},
	} {
		if err := repo.Create(context.Background(), i); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	methods := map[string]Access{"/test.Service/List": RequireRole(domain.RoleElevated)}
	interceptor := AuthUnary(authz.NewAuthorizer(tokens, repo), methods, nil, nil)

	testCases := []struct {
		name    string
		subject string
		want    codes.Code
	}{
		{"elevated allowed", "admin-1", codes.OK},
		{"standard denied", "user-1", codes.PermissionDenied},
		{"unknown subject", "ghost", codes.Unauthenticated},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token, _, err := tokens.Issue(tc.subject)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			_, err = interceptor(bearerContext(token), "request", &grpc.UnaryServerInfo{FullMethod: "/test.Service/List"}, okHandler)
			if code := status.Code(err); code != tc.want {
				t.Errorf("code = %v, want %v", code, tc.want)
			}
		})
	}
}

func TestExtractBearer(t *testing.T) {
	testCases := []struct {
		name   string
		header string
		want   string
	}{
		{"valid", "Bearer abc.def", "abc.def"},
		{"case insensitive", "bEaReR abc", "abc"},
		{"whitespace", "  Bearer   abc  ", "abc"},
		{"wrong scheme", "Basic abc", ""},
		{"too short", "Bear", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := metadata.NewIncomingContext(context.Background(), metadata.New(map[string]string{
				"authorization": tc.header,
			}))
			if got := extractBearer(ctx); got != tc.want {
				t.Errorf("extractBearer(%q) = %q, want %q", tc.header, got, tc.want)
			}
		})
	}
	if got := extractBearer(context.Background()); got != "" {
		t.Errorf("extractBearer without metadata = %q, want empty", got)
	}
}
