package authv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "auth.v1.AuthService"

const (
	AuthService_Register_FullMethodName           = "/auth.v1.AuthService/Register"
	AuthService_Login_FullMethodName              = "/auth.v1.AuthService/Login"
	AuthService_Refresh_FullMethodName            = "/auth.v1.AuthService/Refresh"
	AuthService_Logout_FullMethodName             = "/auth.v1.AuthService/Logout"
	AuthService_GetProfile_FullMethodName         = "/auth.v1.AuthService/GetProfile"
	AuthService_UpdateProfile_FullMethodName      = "/auth.v1.AuthService/UpdateProfile"
	AuthService_ChangePassword_FullMethodName     = "/auth.v1.AuthService/ChangePassword"
	AuthService_RevokeUserSessions_FullMethodName = "/auth.v1.AuthService/RevokeUserSessions"
	AuthService_DeleteUser_FullMethodName         = "/auth.v1.AuthService/DeleteUser"
	AuthService_RestoreUser_FullMethodName        = "/auth.v1.AuthService/RestoreUser"
	AuthService_ListUserAuditLogs_FullMethodName  = "/auth.v1.AuthService/ListUserAuditLogs"
)

// AuthServiceServer is the server API for auth.v1.AuthService.
type AuthServiceServer interface {
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	Refresh(context.Context, *RefreshRequest) (*TokenPair, error)
	Logout(context.Context, *LogoutRequest) (*MessageResponse, error)
	GetProfile(context.Context, *GetProfileRequest) (*User, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*User, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*MessageResponse, error)
	RevokeUserSessions(context.Context, *RevokeUserSessionsRequest) (*RevokeUserSessionsResponse, error)
	DeleteUser(context.Context, *DeleteUserRequest) (*MessageResponse, error)
	RestoreUser(context.Context, *RestoreUserRequest) (*User, error)
	ListUserAuditLogs(context.Context, *ListUserAuditLogsRequest) (*ListUserAuditLogsResponse, error)
}

// UnimplementedAuthServiceServer returns codes.Unimplemented for every method. Embed it for forward compatibility.
type UnimplementedAuthServiceServer struct{}

func (UnimplementedAuthServiceServer) Register(context.Context, *RegisterRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedAuthServiceServer) Login(context.Context, *LoginRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedAuthServiceServer) Refresh(context.Context, *RefreshRequest) (*TokenPair, error) {
	return nil, status.Error(codes.Unimplemented, "method Refresh not implemented")
}
func (UnimplementedAuthServiceServer) Logout(context.Context, *LogoutRequest) (*MessageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Logout not implemented")
}
func (UnimplementedAuthServiceServer) GetProfile(context.Context, *GetProfileRequest) (*User, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProfile not implemented")
}
func (UnimplementedAuthServiceServer) UpdateProfile(context.Context, *UpdateProfileRequest) (*User, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateProfile not implemented")
}
func (UnimplementedAuthServiceServer) ChangePassword(context.Context, *ChangePasswordRequest) (*MessageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ChangePassword not implemented")
}
func (UnimplementedAuthServiceServer) RevokeUserSessions(context.Context, *RevokeUserSessionsRequest) (*RevokeUserSessionsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RevokeUserSessions not implemented")
}
func (UnimplementedAuthServiceServer) DeleteUser(context.Context, *DeleteUserRequest) (*MessageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteUser not implemented")
}
func (UnimplementedAuthServiceServer) RestoreUser(context.Context, *RestoreUserRequest) (*User, error) {
	return nil, status.Error(codes.Unimplemented, "method RestoreUser not implemented")
}
func (UnimplementedAuthServiceServer) ListUserAuditLogs(context.Context, *ListUserAuditLogsRequest) (*ListUserAuditLogsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListUserAuditLogs not implemented")
}

// RegisterAuthServiceServer registers srv on s.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}

// unaryHandler decodes Req, runs the interceptor chain when present and dispatches to call.
func unaryHandler[Req, Resp any](fullMethod string, call func(AuthServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthService_ServiceDesc is the grpc.ServiceDesc for auth.v1.AuthService.
var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(AuthService_Register_FullMethodName, AuthServiceServer.Register)},
		{MethodName: "Login", Handler: unaryHandler(AuthService_Login_FullMethodName, AuthServiceServer.Login)},
		{MethodName: "Refresh", Handler: unaryHandler(AuthService_Refresh_FullMethodName, AuthServiceServer.Refresh)},
		{MethodName: "Logout", Handler: unaryHandler(AuthService_Logout_FullMethodName, AuthServiceServer.Logout)},
		{MethodName: "GetProfile", Handler: unaryHandler(AuthService_GetProfile_FullMethodName, AuthServiceServer.GetProfile)},
		{MethodName: "UpdateProfile", Handler: unaryHandler(AuthService_UpdateProfile_FullMethodName, AuthServiceServer.UpdateProfile)},
		{MethodName: "ChangePassword", Handler: unaryHandler(AuthService_ChangePassword_FullMethodName, AuthServiceServer.ChangePassword)},
		{MethodName: "RevokeUserSessions", Handler: unaryHandler(AuthService_RevokeUserSessions_FullMethodName, AuthServiceServer.RevokeUserSessions)},
		{MethodName: "DeleteUser", Handler: unaryHandler(AuthService_DeleteUser_FullMethodName, AuthServiceServer.DeleteUser)},
		{MethodName: "RestoreUser", Handler: unaryHandler(AuthService_RestoreUser_FullMethodName, AuthServiceServer.RestoreUser)},
		{MethodName: "ListUserAuditLogs", Handler: unaryHandler(AuthService_ListUserAuditLogs_FullMethodName, AuthServiceServer.ListUserAuditLogs)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "auth/v1/auth.go",
}
