package accountv1

import (
	context "context"

	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"

	"github.com/Lorenzzoczn/Aumigo/api/codec"
)

const (
	AccountService_ValidateDocument_FullMethodName = "/aumigo.account.v1.AccountService/ValidateDocument"
	AccountService_Register_FullMethodName         = "/aumigo.account.v1.AccountService/Register"
	AccountService_Login_FullMethodName            = "/aumigo.account.v1.AccountService/Login"
	AccountService_MasterLogin_FullMethodName      = "/aumigo.account.v1.AccountService/MasterLogin"
	AccountService_Me_FullMethodName               = "/aumigo.account.v1.AccountService/Me"
	AccountService_CompleteProfile_FullMethodName  = "/aumigo.account.v1.AccountService/CompleteProfile"
	AccountService_GetPublicProfile_FullMethodName = "/aumigo.account.v1.AccountService/GetPublicProfile"
)

// AccountServiceClient is the client API for AccountService.
type AccountServiceClient interface {
	ValidateDocument(ctx context.Context, in *ValidateDocumentRequest, opts ...grpc.CallOption) (*ValidateDocumentResponse, error)
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	MasterLogin(ctx context.Context, in *MasterLoginRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	Me(ctx context.Context, in *MeRequest, opts ...grpc.CallOption) (*MeResponse, error)
	CompleteProfile(ctx context.Context, in *CompleteProfileRequest, opts ...grpc.CallOption) (*CompleteProfileResponse, error)
	GetPublicProfile(ctx context.Context, in *GetPublicProfileRequest, opts ...grpc.CallOption) (*GetPublicProfileResponse, error)
}

type accountServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAccountServiceClient returns a client that sends every call with the JSON content-subtype.
func NewAccountServiceClient(cc grpc.ClientConnInterface) AccountServiceClient {
	return &accountServiceClient{cc}
}

func (c *accountServiceClient) ValidateDocument(ctx context.Context, in *ValidateDocumentRequest, opts ...grpc.CallOption) (*ValidateDocumentResponse, error) {
	out := new(ValidateDocumentResponse)
	err := c.cc.Invoke(ctx, AccountService_ValidateDocument_FullMethodName, in, out, withJSON(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *accountServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	out := new(AuthResponse)
	err := c.cc.Invoke(ctx, AccountService_Register_FullMethodName, in, out, withJSON(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *accountServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	out := new(AuthResponse)
	err := c.cc.Invoke(ctx, AccountService_Login_FullMethodName, in, out, withJSON(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *accountServiceClient) MasterLogin(ctx context.Context, in *MasterLoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	out := new(AuthResponse)
	err := c.cc.Invoke(ctx, AccountService_MasterLogin_FullMethodName, in, out, withJSON(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *accountServiceClient) Me(ctx context.Context, in *MeRequest, opts ...grpc.CallOption) (*MeResponse, error) {
	out := new(MeResponse)
	err := c.cc.Invoke(ctx, AccountService_Me_FullMethodName, in, out, withJSON(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *accountServiceClient) CompleteProfile(ctx context.Context, in *CompleteProfileRequest, opts ...grpc.CallOption) (*CompleteProfileResponse, error) {
	out := new(CompleteProfileResponse)
	err := c.cc.Invoke(ctx, AccountService_CompleteProfile_FullMethodName, in, out, withJSON(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *accountServiceClient) GetPublicProfile(ctx context.Context, in *GetPublicProfileRequest, opts ...grpc.CallOption) (*GetPublicProfileResponse, error) {
	out := new(GetPublicProfileResponse)
	err := c.cc.Invoke(ctx, AccountService_GetPublicProfile_FullMethodName, in, out, withJSON(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func withJSON(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(codec.Name)}, opts...)
}

// AccountServiceServer is the server API for AccountService.
// All implementations must embed UnimplementedAccountServiceServer.
type AccountServiceServer interface {
	ValidateDocument(context.Context, *ValidateDocumentRequest) (*ValidateDocumentResponse, error)
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	MasterLogin(context.Context, *MasterLoginRequest) (*AuthResponse, error)
	Me(context.Context, *MeRequest) (*MeResponse, error)
	CompleteProfile(context.Context, *CompleteProfileRequest) (*CompleteProfileResponse, error)
	GetPublicProfile(context.Context, *GetPublicProfileRequest) (*GetPublicProfileResponse, error)
	mustEmbedUnimplementedAccountServiceServer()
}

// UnimplementedAccountServiceServer must be embedded to have forward compatible implementations.
type UnimplementedAccountServiceServer struct{}

func (UnimplementedAccountServiceServer) ValidateDocument(context.Context, *ValidateDocumentRequest) (*ValidateDocumentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ValidateDocument not implemented")
}
func (UnimplementedAccountServiceServer) Register(context.Context, *RegisterRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedAccountServiceServer) Login(context.Context, *LoginRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedAccountServiceServer) MasterLogin(context.Context, *MasterLoginRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method MasterLogin not implemented")
}
func (UnimplementedAccountServiceServer) Me(context.Context, *MeRequest) (*MeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Me not implemented")
}
func (UnimplementedAccountServiceServer) CompleteProfile(context.Context, *CompleteProfileRequest) (*CompleteProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CompleteProfile not implemented")
}
func (UnimplementedAccountServiceServer) GetPublicProfile(context.Context, *GetPublicProfileRequest) (*GetPublicProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPublicProfile not implemented")
}
func (UnimplementedAccountServiceServer) mustEmbedUnimplementedAccountServiceServer() {}

func RegisterAccountServiceServer(s grpc.ServiceRegistrar, srv AccountServiceServer) {
	s.RegisterService(&AccountService_ServiceDesc, srv)
}

func _AccountService_ValidateDocument_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ValidateDocumentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccountServiceServer).ValidateDocument(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AccountService_ValidateDocument_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AccountServiceServer).ValidateDocument(ctx, req.(*ValidateDocumentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _AccountService_Register_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RegisterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccountServiceServer).Register(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AccountService_Register_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AccountServiceServer).Register(ctx, req.(*RegisterRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _AccountService_Login_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(LoginRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccountServiceServer).Login(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AccountService_Login_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AccountServiceServer).Login(ctx, req.(*LoginRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _AccountService_MasterLogin_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(MasterLoginRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccountServiceServer).MasterLogin(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AccountService_MasterLogin_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AccountServiceServer).MasterLogin(ctx, req.(*MasterLoginRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _AccountService_Me_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(MeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccountServiceServer).Me(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AccountService_Me_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AccountServiceServer).Me(ctx, req.(*MeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _AccountService_CompleteProfile_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CompleteProfileRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccountServiceServer).CompleteProfile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AccountService_CompleteProfile_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AccountServiceServer).CompleteProfile(ctx, req.(*CompleteProfileRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _AccountService_GetPublicProfile_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetPublicProfileRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccountServiceServer).GetPublicProfile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AccountService_GetPublicProfile_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AccountServiceServer).GetPublicProfile(ctx, req.(*GetPublicProfileRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// AccountService_ServiceDesc is the grpc.ServiceDesc for AccountService.
var AccountService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "aumigo.account.v1.AccountService",
	HandlerType: (*AccountServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ValidateDocument",
			Handler:    _AccountService_ValidateDocument_Handler,
		},
		{
			MethodName: "Register",
			Handler:    _AccountService_Register_Handler,
		},
		{
			MethodName: "Login",
			Handler:    _AccountService_Login_Handler,
		},
		{
			MethodName: "MasterLogin",
			Handler:    _AccountService_MasterLogin_Handler,
		},
		{
			MethodName: "Me",
			Handler:    _AccountService_Me_Handler,
		},
		{
			MethodName: "CompleteProfile",
			Handler:    _AccountService_CompleteProfile_Handler,
		},
		{
			MethodName: "GetPublicProfile",
			Handler:    _AccountService_GetPublicProfile_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "account/v1",
}
